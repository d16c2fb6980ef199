package model

import (
	"context"
	"fmt"
	"math"
)

// linear holds the parameters shared by both artifact kinds.
type linear struct {
	version      string
	featureNames []string
	mean         []float64
	scale        []float64
	coefficients []float64
	intercept    float64
	threshold    float64
}

func (m *linear) InputWidth() int { return len(m.coefficients) }

func (m *linear) Version() string { return m.version }

func (m *linear) FeatureNames() []string {
	if len(m.featureNames) == 0 {
		return nil
	}
	out := make([]string, len(m.featureNames))
	copy(out, m.featureNames)
	return out
}

// decision returns the raw linear score of one row.
func (m *linear) decision(row []float64) float64 {
	z := m.intercept
	for j, v := range row {
		if m.scale != nil {
			v = (v - m.mean[j]) / m.scale[j]
		}
		z += m.coefficients[j] * v
	}
	return z
}

func (m *linear) scores(ctx context.Context, x [][]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(m.coefficients) {
			return nil, fmt.Errorf("%w: row %d has %d columns, model expects %d",
				ErrDimension, i, len(row), len(m.coefficients))
		}
		z := m.decision(row)
		if math.IsNaN(z) {
			return nil, fmt.Errorf("row %d: decision is NaN", i)
		}
		out[i] = z
	}
	return out, nil
}

// LinearDecision is a linear model exposing only its decision function:
// class 1 when the score is above the threshold.
type LinearDecision struct {
	linear
}

// Predict implements Classifier.
func (m *LinearDecision) Predict(ctx context.Context, x [][]float64) ([]int, error) {
	z, err := m.scores(ctx, x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(z))
	for i, v := range z {
		if v > m.threshold {
			out[i] = 1
		}
	}
	return out, nil
}

// LogisticRegression is a standard-scaled logistic regression. The class is
// 1 when the positive probability reaches 0.5 unless a threshold is set.
type LogisticRegression struct {
	linear
}

// PredictProba implements ProbabilityEstimator.
func (m *LogisticRegression) PredictProba(ctx context.Context, x [][]float64) ([]float64, error) {
	z, err := m.scores(ctx, x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(z))
	for i, v := range z {
		out[i] = sigmoid(v)
	}
	return out, nil
}

// Predict implements Classifier.
func (m *LogisticRegression) Predict(ctx context.Context, x [][]float64) ([]int, error) {
	p, err := m.PredictProba(ctx, x)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(p))
	for i, v := range p {
		if v >= m.threshold {
			out[i] = 1
		}
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
