package model

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// Artifact kinds understood by Decode.
const (
	KindLogisticRegression = "logistic_regression"
	KindLinearDecision     = "linear_decision"

	supportedFormatVersion = 1
	defaultProbaThreshold  = 0.5
)

// Artifact is the JSON document exported by the training pipeline.
type Artifact struct {
	FormatVersion int       `json:"format_version"`
	ModelVersion  string    `json:"model_version"`
	Kind          string    `json:"kind"`
	TrainedAt     time.Time `json:"trained_at"`
	Classes       []int     `json:"classes"`
	FeatureNames  []string  `json:"feature_names,omitempty"`
	Scaler        *Scaler   `json:"scaler,omitempty"`
	Coefficients  []float64 `json:"coefficients"`
	Intercept     float64   `json:"intercept"`
	Threshold     *float64  `json:"threshold,omitempty"`
}

// Scaler holds per-column standardization parameters.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// LoadFile reads and validates the artifact at path.
func LoadFile(path string) (Classifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode parses an artifact and builds the matching Classifier.
// Every failure wraps ErrModelUnavailable.
func Decode(r io.Reader) (Classifier, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode artifact: %w", ErrModelUnavailable, err)
	}
	return a.Build()
}

// Build validates the artifact and returns its Classifier.
func (a *Artifact) Build() (Classifier, error) {
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, err)
	}
	lin := linear{
		version:      a.ModelVersion,
		featureNames: a.FeatureNames,
		coefficients: a.Coefficients,
		intercept:    a.Intercept,
	}
	if a.Scaler != nil {
		lin.mean, lin.scale = a.Scaler.Mean, a.Scaler.Scale
	}
	switch a.Kind {
	case KindLogisticRegression:
		lin.threshold = defaultProbaThreshold
		if a.Threshold != nil {
			lin.threshold = *a.Threshold
		}
		return &LogisticRegression{linear: lin}, nil
	default:
		if a.Threshold != nil {
			lin.threshold = *a.Threshold
		}
		return &LinearDecision{linear: lin}, nil
	}
}

func (a *Artifact) validate() error {
	if a.FormatVersion != supportedFormatVersion {
		return fmt.Errorf("unsupported format_version %d", a.FormatVersion)
	}
	if a.Kind != KindLogisticRegression && a.Kind != KindLinearDecision {
		return fmt.Errorf("unknown kind %q", a.Kind)
	}
	if len(a.Classes) != 2 || a.Classes[0] != 0 || a.Classes[1] != 1 {
		return fmt.Errorf("classes must be [0, 1], got %v", a.Classes)
	}
	width := len(a.Coefficients)
	if width == 0 {
		return fmt.Errorf("no coefficients")
	}
	if n := len(a.FeatureNames); n != 0 && n != width {
		return fmt.Errorf("%d feature names for %d coefficients", n, width)
	}
	if a.Scaler != nil {
		if len(a.Scaler.Mean) != width || len(a.Scaler.Scale) != width {
			return fmt.Errorf("scaler width does not match %d coefficients", width)
		}
		for j, s := range a.Scaler.Scale {
			if s == 0 || math.IsNaN(s) {
				return fmt.Errorf("scaler scale[%d] is %v", j, s)
			}
		}
	}
	if a.Threshold != nil && a.Kind == KindLogisticRegression && (*a.Threshold < 0 || *a.Threshold > 1) {
		return fmt.Errorf("threshold %v outside [0, 1]", *a.Threshold)
	}
	return nil
}
