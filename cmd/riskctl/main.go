// Command riskctl scores patient features against the risk models from the
// command line.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Skufu/medirisk/internal/scoring"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var modelsFile string

	root := &cobra.Command{
		Use:          "riskctl",
		Short:        "Score clinical risk from the command line",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&modelsFile, "models", os.Getenv("MODELS_FILE"), "YAML file overriding the built-in models")

	root.AddCommand(newModelsCmd(&modelsFile), newPredictCmd(&modelsFile))
	return root
}

func newModelsCmd(modelsFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the registered models and their weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := scoring.LoadRegistry(*modelsFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, domain := range registry.Domains() {
				m, err := registry.Lookup(domain)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s (bias %.3f)\n", domain, m.Bias())
				weights := m.Weights()
				for i, name := range m.FeatureNames() {
					fmt.Fprintf(out, "  %-18s %+.3f\n", name, weights[i])
				}
			}
			return nil
		},
	}
}

type predictOutput struct {
	Domain      string          `json:"domain"`
	Probability float64         `json:"probability"`
	IsPositive  bool            `json:"isPositive"`
	Warnings    []scoring.Issue `json:"warnings"`
}

func newPredictCmd(modelsFile *string) *cobra.Command {
	var (
		sets   []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "predict <domain>",
		Short: "Score one set of features",
		Long: `Score one set of features against a domain model.

Values that read as true or false are flags, numbers are measurements and
anything else is a category.

Examples:
  riskctl predict diabetes --set glucose=180 --set bmi=31 --set age=52
  riskctl predict stroke --set hypertension=true --set smoking=smokes --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := scoring.LoadRegistry(*modelsFile)
			if err != nil {
				return err
			}
			model, err := registry.Lookup(args[0])
			if err != nil {
				return err
			}
			fs, err := parseSets(sets)
			if err != nil {
				return err
			}

			result := scoring.Predict(model, fs)
			out := predictOutput{
				Domain:      args[0],
				Probability: result.Probability,
				IsPositive:  result.IsPositive,
				Warnings:    scoring.Validate(model, fs),
			}
			if asJSON {
				if out.Warnings == nil {
					out.Warnings = []scoring.Issue{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printPrediction(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "feature value as name=value (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func parseSets(sets []string) (scoring.Features, error) {
	fs := make(scoring.Features, len(sets))
	for _, s := range sets {
		name, raw, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q, want name=value", s)
		}
		fs[scoring.Feature(name)] = scoring.ParseValue(strings.TrimSpace(raw))
	}
	return fs, nil
}

func printPrediction(w io.Writer, p predictOutput) {
	verdict := "low risk"
	if p.IsPositive {
		verdict = "elevated risk"
	}
	fmt.Fprintf(w, "%s: %.1f%% (%s)\n", p.Domain, p.Probability*100, verdict)
	for _, issue := range p.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", issue)
	}
}
