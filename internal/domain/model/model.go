// Package model defines the contract for trained classifiers and loads the
// artifacts exported by the training pipeline.
package model

import "context"

// Classifier assigns a class (0 or 1) to each row of a feature matrix.
type Classifier interface {
	// Predict scores every row, honoring ctx for cancellation.
	Predict(ctx context.Context, x [][]float64) ([]int, error)
}

// ProbabilityEstimator is implemented by classifiers that also estimate the
// probability of the positive class.
type ProbabilityEstimator interface {
	PredictProba(ctx context.Context, x [][]float64) ([]float64, error)
}

// SchemaProvider is implemented by classifiers that remember the feature
// names they were trained on. An empty result means no schema is recorded.
type SchemaProvider interface {
	FeatureNames() []string
}

// WidthProvider reports the number of input columns a classifier expects.
type WidthProvider interface {
	InputWidth() int
}

// Versioned reports the version of a loaded artifact.
type Versioned interface {
	Version() string
}

// VersionOf returns the artifact version of c, or "unknown".
func VersionOf(c Classifier) string {
	if v, ok := c.(Versioned); ok && v.Version() != "" {
		return v.Version()
	}
	return "unknown"
}
