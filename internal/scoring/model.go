package scoring

import (
	"errors"
	"fmt"
	"math"
)

// PositiveThreshold is the probability above which a result is positive.
// It sits below 0.5 to favour sensitivity.
const PositiveThreshold = 0.3

// Result is the outcome of one prediction.
type Result struct {
	Probability float64 `json:"probability"`
	IsPositive  bool    `json:"isPositive"`
}

// Model is an immutable logistic-regression scoring function.
type Model struct {
	name     string
	weights  []float64
	bias     float64
	features []Feature
}

var ErrModelShape = errors.New("scoring: invalid model")

// NewModel checks that every feature has exactly one finite weight and that
// no feature is declared twice.
func NewModel(name string, weights []float64, bias float64, features []Feature) (*Model, error) {
	if len(weights) != len(features) {
		return nil, fmt.Errorf("%w %q: %d weights for %d features", ErrModelShape, name, len(weights), len(features))
	}
	seen := make(map[Feature]struct{}, len(features))
	for _, f := range features {
		if f == "" {
			return nil, fmt.Errorf("%w %q: empty feature name", ErrModelShape, name)
		}
		if _, dup := seen[f]; dup {
			return nil, fmt.Errorf("%w %q: duplicate feature %q", ErrModelShape, name, f)
		}
		seen[f] = struct{}{}
	}
	for i, w := range weights {
		if !finite(w) {
			return nil, fmt.Errorf("%w %q: weight for %q must be finite", ErrModelShape, name, features[i])
		}
	}
	if !finite(bias) {
		return nil, fmt.Errorf("%w %q: bias must be finite", ErrModelShape, name)
	}
	return &Model{
		name:     name,
		weights:  append([]float64(nil), weights...),
		bias:     bias,
		features: append([]Feature(nil), features...),
	}, nil
}

func mustModel(name string, weights []float64, bias float64, features ...Feature) *Model {
	m, err := NewModel(name, weights, bias, features)
	if err != nil {
		panic(err)
	}
	return m
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Name is the domain the model scores.
func (m *Model) Name() string {
	return m.name
}

func (m *Model) Bias() float64 {
	return m.bias
}

// Weights returns a copy of the weights, in FeatureNames order.
func (m *Model) Weights() []float64 {
	return append([]float64(nil), m.weights...)
}

// FeatureNames returns a copy of the declared features.
func (m *Model) FeatureNames() []Feature {
	return append([]Feature(nil), m.features...)
}

// Weight returns the weight bound to f.
func (m *Model) Weight(f Feature) (float64, bool) {
	for i, name := range m.features {
		if name == f {
			return m.weights[i], true
		}
	}
	return 0, false
}

// LinearScore is the bias plus the weighted sum of the features present in fs.
func LinearScore(m *Model, fs Features) float64 {
	sum := m.bias
	for i, name := range m.features {
		v, ok := fs[name]
		if !ok {
			continue
		}
		sum += Normalize(name, v) * m.weights[i]
	}
	return sum
}

// Sigmoid maps a score onto (0,1).
func Sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// Classify applies the fixed decision threshold.
func Classify(p float64) bool {
	return p > PositiveThreshold
}

// Predict scores fs against m. It never fails: missing features are skipped
// and unrecognised values fall back as described on Normalize.
func Predict(m *Model, fs Features) Result {
	p := Sigmoid(LinearScore(m, fs))
	return Result{Probability: p, IsPositive: Classify(p)}
}
