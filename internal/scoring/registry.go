package scoring

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Prediction domains, named the way history records are typed.
const (
	DomainDiabetes = "diabetes"
	DomainHeart    = "heart"
	DomainLung     = "lung"
	DomainStroke   = "stroke"
)

var ErrUnknownDomain = errors.New("scoring: unknown domain")

var (
	DiabetesModel = mustModel(DomainDiabetes,
		[]float64{0.025, 0.035, 0.042, 0.019, 0.018, 0.012, 0.032}, -5.72,
		Age, Glucose, BMI, BloodPressure, Insulin, SkinThickness, Pregnancies)

	HeartDiseaseModel = mustModel(DomainHeart,
		[]float64{0.031, 0.022, 0.018, 0.42, -0.017, 0.48, 0.37}, -5.1,
		Age, RestingBP, Cholesterol, FastingBS, MaxHR, ExerciseAngina, ChestPainType)

	LungCancerModel = mustModel(DomainLung,
		[]float64{0.018, 0.51, 0.025, 0.31, 0.15, 0.42, 0.38, 0.44}, -4.8,
		Age, Smoking, SmokingYears, YellowFingers, Anxiety, Coughing, ShortnessOfBreath, ChestPain)

	StrokeModel = mustModel(DomainStroke,
		[]float64{0.04, 0.58, 0.62, 0.025, 0.03, 0.38}, -6.2,
		Age, Hypertension, HeartDisease, Glucose, BMI, Smoking)
)

// Registry resolves a domain name to its model. It is read-only once built.
type Registry struct {
	models map[string]*Model
}

func NewRegistry(models ...*Model) *Registry {
	r := &Registry{models: make(map[string]*Model, len(models))}
	for _, m := range models {
		r.models[m.name] = m
	}
	return r
}

// DefaultRegistry holds the four built-in domains.
func DefaultRegistry() *Registry {
	return NewRegistry(DiabetesModel, HeartDiseaseModel, LungCancerModel, StrokeModel)
}

func (r *Registry) Lookup(domain string) (*Model, error) {
	m, ok := r.models[domain]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	return m, nil
}

// Domains returns the registered domain names in sorted order.
func (r *Registry) Domains() []string {
	out := make([]string, 0, len(r.models))
	for name := range r.models {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Predict looks up domain and scores fs against it.
func (r *Registry) Predict(domain string, fs Features) (Result, error) {
	m, err := r.Lookup(domain)
	if err != nil {
		return Result{}, err
	}
	return Predict(m, fs), nil
}

type modelFile struct {
	Models map[string]modelDef `yaml:"models"`
}

type modelDef struct {
	Bias     float64   `yaml:"bias"`
	Weights  []float64 `yaml:"weights"`
	Features []Feature `yaml:"features"`
}

// LoadRegistry overlays the models described in a YAML file on the defaults.
//
//	models:
//	  diabetes:
//	    bias: -5.72
//	    weights: [0.025, 0.035]
//	    features: [age, glucose]
func LoadRegistry(path string) (*Registry, error) {
	r := DefaultRegistry()
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read models file: %w", err)
	}
	var file modelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse models file: %w", err)
	}
	for name, def := range file.Models {
		m, err := NewModel(name, def.Weights, def.Bias, def.Features)
		if err != nil {
			return nil, err
		}
		r.models[name] = m
	}
	return r, nil
}
