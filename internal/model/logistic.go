package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogisticConfig holds elastic-net logistic regression hyperparameters.
// Penalty is the overall regularization strength; Mixture blends the
// penalty between ridge (0) and lasso (1).
type LogisticConfig struct {
	Penalty   float64
	Mixture   float64
	LearnRate float64
	MaxIter   int
	Tol       float64
}

// LogisticRegression is a fitted elastic-net logistic classifier
type LogisticRegression struct {
	intercept float64
	weights   []float64
}

// FitLogistic trains by proximal gradient descent. The intercept is
// never penalized. Inputs are assumed standardized by the recipe.
func FitLogistic(X *mat.Dense, y []bool, cfg LogisticConfig) (*LogisticRegression, error) {
	n, d := X.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("logistic: %d rows for %d labels", n, len(y))
	}
	if cfg.Penalty < 0 {
		return nil, fmt.Errorf("logistic: negative penalty %v", cfg.Penalty)
	}
	if cfg.Mixture < 0 || cfg.Mixture > 1 {
		return nil, fmt.Errorf("logistic: mixture %v outside [0,1]", cfg.Mixture)
	}
	pos := countPositives(y)
	if pos == 0 || pos == n {
		return nil, fmt.Errorf("logistic: single-class training data (%d of %d positive)", pos, n)
	}

	lr := cfg.LearnRate
	if lr <= 0 {
		lr = 0.1
	}
	maxIter := cfg.MaxIter
	if maxIter <= 0 {
		maxIter = 2000
	}
	tol := cfg.Tol
	if tol <= 0 {
		tol = 1e-6
	}

	labels := make([]float64, n)
	for i, v := range y {
		if v {
			labels[i] = 1
		}
	}

	weights := make([]float64, d)
	intercept := 0.0
	grad := make([]float64, d)
	l1 := cfg.Penalty * cfg.Mixture
	l2 := cfg.Penalty * (1 - cfg.Mixture)

	for iter := 0; iter < maxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradIntercept := 0.0
		for i := 0; i < n; i++ {
			row := X.RawRowView(i)
			p := sigmoid(intercept + floats.Dot(row, weights))
			diff := p - labels[i]
			gradIntercept += diff
			floats.AddScaled(grad, diff, row)
		}
		gradIntercept /= float64(n)

		maxDelta := math.Abs(lr * gradIntercept)
		intercept -= lr * gradIntercept
		for j := 0; j < d; j++ {
			g := grad[j]/float64(n) + l2*weights[j]
			next := softThreshold(weights[j]-lr*g, lr*l1)
			if delta := math.Abs(next - weights[j]); delta > maxDelta {
				maxDelta = delta
			}
			weights[j] = next
		}

		if maxDelta < tol {
			break
		}
	}

	return &LogisticRegression{intercept: intercept, weights: weights}, nil
}

// Predict returns the class with probability at least one half
func (m *LogisticRegression) Predict(X *mat.Dense) []bool {
	scores := m.Score(X)
	out := make([]bool, len(scores))
	for i, s := range scores {
		out[i] = s >= 0.5
	}
	return out
}

// Score returns the positive-class probability per row
func (m *LogisticRegression) Score(X *mat.Dense) []float64 {
	n, _ := X.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = sigmoid(m.intercept + floats.Dot(X.RawRowView(i), m.weights))
	}
	return out
}

// Coefficients returns the intercept and a copy of the weight vector
func (m *LogisticRegression) Coefficients() (float64, []float64) {
	w := make([]float64, len(m.weights))
	copy(w, m.weights)
	return m.intercept, w
}

// LogisticGrid is a regular 3x3 grid over penalty and mixture
func LogisticGrid() []Params {
	penalties := []float64{0.0001, 0.01, 1}
	mixtures := []float64{0, 0.5, 1}
	grid := make([]Params, 0, len(penalties)*len(mixtures))
	for _, pen := range penalties {
		for _, mix := range mixtures {
			grid = append(grid, Params{"penalty": pen, "mixture": mix})
		}
	}
	return grid
}

// LogisticFitFunc adapts FitLogistic to the grid-search contract
func LogisticFitFunc() FitFunc {
	return func(X *mat.Dense, y []bool, p Params) (Classifier, error) {
		return FitLogistic(X, y, LogisticConfig{Penalty: p["penalty"], Mixture: p["mixture"]})
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softThreshold(v, t float64) float64 {
	switch {
	case v > t:
		return v - t
	case v < -t:
		return v + t
	default:
		return 0
	}
}
