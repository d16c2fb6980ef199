// Package prediction scores employee records with the loaded model.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/domain/model"
)

// ModelSource yields the classifier to score with.
type ModelSource interface {
	Get(ctx context.Context) (model.Classifier, error)
}

// Predictor encodes, aligns and scores records. It holds no mutable state
// and is safe for concurrent use.
type Predictor struct {
	source  ModelSource
	encoder *features.Encoder
}

// NewPredictor creates a Predictor over source using enc.
func NewPredictor(source ModelSource, enc *features.Encoder) *Predictor {
	return &Predictor{source: source, encoder: enc}
}

// PredictSingle scores one record.
func (p *Predictor) PredictSingle(ctx context.Context, rec employee.Record) (Result, error) {
	out, err := p.PredictBatch(ctx, []employee.Record{rec})
	if err != nil {
		var re *RecordError
		if errors.As(err, &re) {
			return Result{}, re.Err
		}
		return Result{}, err
	}
	return out[0], nil
}

// PredictBatch scores records in one model call. result[i] belongs to
// recs[i]. Any failure fails the whole batch; failures attributable to one
// record are returned as *RecordError.
func (p *Predictor) PredictBatch(ctx context.Context, recs []employee.Record) ([]Result, error) {
	if len(recs) == 0 {
		return []Result{}, nil
	}

	clf, err := p.source.Get(ctx)
	if err != nil {
		return nil, err
	}

	columns, strict, err := p.columnsFor(clf)
	if err != nil {
		return nil, err
	}

	var known map[string]struct{}
	if strict {
		known = make(map[string]struct{}, len(columns))
		for _, c := range columns {
			known[c] = struct{}{}
		}
	}

	rows := make([]features.Row, len(recs))
	for i, rec := range recs {
		encoded := p.encoder.Encode(rec)
		if strict {
			if col, ok := firstUnknown(encoded, known); ok {
				return nil, &RecordError{Index: i, Err: fmt.Errorf("%w: column %q is not in the declared schema", ErrEncodingMismatch, col)}
			}
		}
		rows[i] = features.Align(encoded, columns)
	}
	x := features.Matrix(rows)

	classes, err := clf.Predict(ctx, x)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelFailure, err)
	}
	if len(classes) != len(recs) {
		return nil, fmt.Errorf("%w: %d classes for %d records", ErrModelFailure, len(classes), len(recs))
	}

	var proba []float64
	if est, ok := clf.(model.ProbabilityEstimator); ok {
		if proba, err = est.PredictProba(ctx, x); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrModelFailure, err)
		}
		if len(proba) != len(recs) {
			return nil, fmt.Errorf("%w: %d probabilities for %d records", ErrModelFailure, len(proba), len(recs))
		}
	}

	out := make([]Result, len(recs))
	for i, class := range classes {
		if class != 0 && class != 1 {
			return nil, &RecordError{Index: i, Err: fmt.Errorf("%w: class %d", ErrModelFailure, class)}
		}
		prob := float64(class)
		if proba != nil {
			prob = proba[i]
		}
		if math.IsNaN(prob) || prob < 0 || prob > 1 {
			return nil, &RecordError{Index: i, Err: fmt.Errorf("%w: probability %v", ErrModelFailure, prob)}
		}
		out[i] = Result{Class: class, Probability: prob, Label: LabelFor(class)}
	}
	return out, nil
}

// IsModelLoaded reports whether the model can be used. It never fails.
func (p *Predictor) IsModelLoaded(ctx context.Context) bool {
	_, err := p.source.Get(ctx)
	return err == nil
}

// columnsFor returns the columns to align to. Without a recorded schema the
// declared encoding is used only when its width equals the model's, and
// rows are then checked strictly against it.
func (p *Predictor) columnsFor(clf model.Classifier) ([]string, bool, error) {
	if sp, ok := clf.(model.SchemaProvider); ok {
		if names := sp.FeatureNames(); len(names) > 0 {
			return names, false, nil
		}
	}
	declared := p.encoder.Schema()
	wp, ok := clf.(model.WidthProvider)
	if !ok {
		return nil, false, fmt.Errorf("%w: model exposes neither feature names nor input width", ErrEncodingMismatch)
	}
	if wp.InputWidth() != declared.Width() {
		return nil, false, fmt.Errorf("%w: model expects %d columns, schema %s declares %d",
			ErrEncodingMismatch, wp.InputWidth(), declared.Version, declared.Width())
	}
	return declared.Columns(), true, nil
}

func firstUnknown(row features.Row, known map[string]struct{}) (string, bool) {
	for _, n := range row.Names {
		if _, ok := known[n]; !ok {
			return n, true
		}
	}
	return "", false
}
