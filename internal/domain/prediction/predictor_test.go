package prediction_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/domain/prediction"
	. "github.com/smartystreets/goconvey/convey"
)

var artifactPath = filepath.Join("..", "..", "..", "models", "model_hr.json")

type staticSource struct {
	clf model.Classifier
	err error
}

func (s staticSource) Get(context.Context) (model.Classifier, error) { return s.clf, s.err }

// widthOnly scores 1 when the first column is positive and records the
// matrices it receives.
type widthOnly struct {
	width int
	seen  [][][]float64
}

func (m *widthOnly) InputWidth() int { return m.width }

func (m *widthOnly) Predict(_ context.Context, x [][]float64) ([]int, error) {
	m.seen = append(m.seen, x)
	out := make([]int, len(x))
	for i, row := range x {
		if row[0] > 30 {
			out[i] = 1
		}
	}
	return out, nil
}

type noMetadata struct{}

func (noMetadata) Predict(_ context.Context, x [][]float64) ([]int, error) { return make([]int, len(x)), nil }

type failing struct{ err error }

func (f failing) Predict(context.Context, [][]float64) ([]int, error) { return nil, f.err }

type withNames struct{ failing }

func (withNames) FeatureNames() []string { return []string{"age", "genre"} }

type badProba struct{ widthOnly }

func (b *badProba) PredictProba(_ context.Context, x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	out[len(x)-1] = 1.5
	return out, nil
}

func newEncoder() *features.Encoder {
	s, err := features.DefaultSchema()
	So(err, ShouldBeNil)
	return features.NewEncoder(s)
}

func bundledPredictor() *prediction.Predictor {
	h := model.NewHandle(model.FileLoader(artifactPath))
	return prediction.NewPredictor(h, newEncoder())
}

func TestPredictorWithBundledModel(t *testing.T) {
	ctx := context.Background()

	Convey("Given the bundled model artifact version 1.0.0", t, func() {
		p := bundledPredictor()
		So(p.IsModelLoaded(ctx), ShouldBeTrue)

		Convey("When scoring the stable example", func() {
			res, err := p.PredictSingle(ctx, employee.StableExample())

			Convey("Then the employee is predicted to stay", func() {
				So(err, ShouldBeNil)
				So(res.Class, ShouldEqual, 0)
				So(res.Probability, ShouldBeLessThan, 0.5)
				So(res.Label, ShouldEqual, prediction.LabelStable)
			})
		})

		Convey("When scoring the at-risk example", func() {
			res, err := p.PredictSingle(ctx, employee.AtRiskExample())

			Convey("Then the employee is predicted to leave", func() {
				So(err, ShouldBeNil)
				So(res.Class, ShouldEqual, 1)
				So(res.Probability, ShouldBeGreaterThanOrEqualTo, 0.5)
				So(res.Label, ShouldEqual, prediction.LabelAtRisk)
			})
		})

		Convey("When the same record is scored repeatedly", func() {
			first, err := p.PredictSingle(ctx, employee.AtRiskExample())
			So(err, ShouldBeNil)

			Convey("Then the result is identical every time", func() {
				for i := 0; i < 5; i++ {
					again, err := p.PredictSingle(ctx, employee.AtRiskExample())
					So(err, ShouldBeNil)
					So(again, ShouldResemble, first)
				}
			})
		})

		Convey("When a batch is scored", func() {
			unseen := employee.StableExample()
			unseen[employee.Poste] = "Astronaute"
			recs := []employee.Record{employee.StableExample(), employee.AtRiskExample(), unseen, {}}
			batch, err := p.PredictBatch(ctx, recs)
			So(err, ShouldBeNil)

			Convey("Then each result equals the single prediction in input order", func() {
				So(len(batch), ShouldEqual, len(recs))
				for i, rec := range recs {
					single, err := p.PredictSingle(ctx, rec)
					So(err, ShouldBeNil)
					So(batch[i], ShouldResemble, single)
				}
			})

			Convey("Then every probability lies in [0, 1]", func() {
				for _, r := range batch {
					So(r.Probability, ShouldBeBetweenOrEqual, 0, 1)
				}
			})
		})

		Convey("When an unseen category is the only difference", func() {
			a := employee.StableExample()
			a[employee.Poste] = "Astronaute"
			b := employee.StableExample()
			b[employee.Poste] = "Assistant de Direction"

			Convey("Then it scores like the reference category", func() {
				ra, err := p.PredictSingle(ctx, a)
				So(err, ShouldBeNil)
				rb, err := p.PredictSingle(ctx, b)
				So(err, ShouldBeNil)
				So(ra, ShouldResemble, rb)
			})
		})

		Convey("When the batch is empty", func() {
			out, err := p.PredictBatch(ctx, nil)

			Convey("Then the result is empty and no error is returned", func() {
				So(err, ShouldBeNil)
				So(out, ShouldNotBeNil)
				So(out, ShouldBeEmpty)
			})
		})
	})
}

func TestPredictorWithoutRecordedSchema(t *testing.T) {
	ctx := context.Background()

	Convey("Given a model that records no feature names", t, func() {
		enc := newEncoder()

		Convey("When its width differs from the declared schema", func() {
			p := prediction.NewPredictor(staticSource{clf: &widthOnly{width: 10}}, enc)
			_, err := p.PredictSingle(ctx, employee.StableExample())

			Convey("Then prediction fails with an encoding mismatch", func() {
				So(err, ShouldWrap, prediction.ErrEncodingMismatch)
			})
		})

		Convey("When it exposes no width either", func() {
			p := prediction.NewPredictor(staticSource{clf: noMetadata{}}, enc)
			_, err := p.PredictBatch(ctx, []employee.Record{employee.StableExample()})
			So(err, ShouldWrap, prediction.ErrEncodingMismatch)
		})

		Convey("When its width matches the declared schema", func() {
			m := &widthOnly{width: enc.Schema().Width()}
			p := prediction.NewPredictor(staticSource{clf: m}, enc)

			Convey("Then rows are aligned to the declared columns", func() {
				res, err := p.PredictSingle(ctx, employee.StableExample())
				So(err, ShouldBeNil)
				So(res.Class, ShouldEqual, 1)
				So(res.Probability, ShouldEqual, 1.0)
				So(len(m.seen[0][0]), ShouldEqual, 43)
				So(m.seen[0][0][0], ShouldEqual, 35)
			})

			Convey("Then a record producing undeclared columns fails the batch at its index", func() {
				odd := employee.AtRiskExample()
				odd["badge"] = "gold"
				_, err := p.PredictBatch(ctx, []employee.Record{employee.StableExample(), odd})

				var re *prediction.RecordError
				So(errors.As(err, &re), ShouldBeTrue)
				So(re.Index, ShouldEqual, 1)
				So(err, ShouldWrap, prediction.ErrEncodingMismatch)
				So(err.Error(), ShouldContainSubstring, "badge_gold")
			})
		})
	})
}

func TestPredictorFailures(t *testing.T) {
	ctx := context.Background()

	Convey("Given a model source that cannot load", t, func() {
		p := prediction.NewPredictor(staticSource{err: model.ErrModelUnavailable}, newEncoder())

		Convey("Then predictions report the model as unavailable", func() {
			_, err := p.PredictSingle(ctx, employee.StableExample())
			So(errors.Is(err, model.ErrModelUnavailable), ShouldBeTrue)
			So(p.IsModelLoaded(ctx), ShouldBeFalse)
		})

		Convey("Then an empty batch still succeeds", func() {
			out, err := p.PredictBatch(ctx, []employee.Record{})
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
		})
	})

	Convey("Given a model that raises", t, func() {
		cause := errors.New("matrix is singular")
		p := prediction.NewPredictor(staticSource{clf: withNames{failing{cause}}}, newEncoder())

		Convey("Then the error is wrapped as a model failure and keeps its cause", func() {
			_, err := p.PredictSingle(ctx, employee.StableExample())
			So(err, ShouldWrap, prediction.ErrModelFailure)
			So(errors.Is(err, cause), ShouldBeTrue)
		})
	})

	Convey("Given a model returning an out-of-range probability for the last record", t, func() {
		m := &badProba{widthOnly{width: 43}}
		p := prediction.NewPredictor(staticSource{clf: m}, newEncoder())

		Convey("Then the whole batch fails naming that record", func() {
			out, err := p.PredictBatch(ctx, []employee.Record{employee.StableExample(), employee.StableExample()})
			So(out, ShouldBeNil)
			var re *prediction.RecordError
			So(errors.As(err, &re), ShouldBeTrue)
			So(re.Index, ShouldEqual, 1)
			So(err, ShouldWrap, prediction.ErrModelFailure)
		})

		Convey("Then a single prediction reports the failure without an index", func() {
			_, err := p.PredictSingle(ctx, employee.StableExample())
			So(err, ShouldWrap, prediction.ErrModelFailure)
			var re *prediction.RecordError
			So(errors.As(err, &re), ShouldBeFalse)
		})
	})
}

func TestLabelFor(t *testing.T) {
	Convey("Given the two classes", t, func() {
		So(prediction.LabelFor(1), ShouldEqual, "Risque de départ")
		So(prediction.LabelFor(0), ShouldEqual, "Stable")
	})
}
