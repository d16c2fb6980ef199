package model_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/attrition/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const logisticDoc = `{
  "format_version": 1,
  "model_version": "test-1",
  "kind": "logistic_regression",
  "trained_at": "2025-01-01T00:00:00Z",
  "classes": [0, 1],
  "feature_names": ["a", "b"],
  "scaler": {"mean": [1, 0], "scale": [2, 1]},
  "coefficients": [1.0, -2.0],
  "intercept": 0.5
}`

const linearDoc = `{
  "format_version": 1,
  "model_version": "lin-1",
  "kind": "linear_decision",
  "classes": [0, 1],
  "coefficients": [1.0, 1.0],
  "intercept": -1.0
}`

func TestDecode(t *testing.T) {
	ctx := context.Background()

	Convey("Given a logistic regression artifact", t, func() {
		c, err := model.Decode(strings.NewReader(logisticDoc))
		So(err, ShouldBeNil)

		Convey("Then it exposes schema, width, version and probabilities", func() {
			So(c.(model.SchemaProvider).FeatureNames(), ShouldResemble, []string{"a", "b"})
			So(c.(model.WidthProvider).InputWidth(), ShouldEqual, 2)
			So(model.VersionOf(c), ShouldEqual, "test-1")

			est, ok := c.(model.ProbabilityEstimator)
			So(ok, ShouldBeTrue)
			// z = 0.5 + 1*(1-1)/2 - 2*(0-0)/1 = 0.5 ; z = 0.5 + 1*(5-1)/2 - 2*2 = -1.5
			p, err := est.PredictProba(ctx, [][]float64{{1, 0}, {5, 2}})
			So(err, ShouldBeNil)
			So(p[0], ShouldAlmostEqual, 0.6224593, 1e-6)
			So(p[1], ShouldAlmostEqual, 0.1824255, 1e-6)

			classes, err := c.Predict(ctx, [][]float64{{1, 0}, {5, 2}})
			So(err, ShouldBeNil)
			So(classes, ShouldResemble, []int{1, 0})
		})

		Convey("Then a row of the wrong width is rejected", func() {
			_, err := c.Predict(ctx, [][]float64{{1, 2, 3}})
			So(err, ShouldWrap, model.ErrDimension)
		})

		Convey("Then a cancelled context is honored", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := c.Predict(cctx, [][]float64{{1, 0}})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a decision-only artifact", t, func() {
		c, err := model.Decode(strings.NewReader(linearDoc))
		So(err, ShouldBeNil)

		Convey("Then it has no probability estimator and no schema", func() {
			_, ok := c.(model.ProbabilityEstimator)
			So(ok, ShouldBeFalse)
			So(c.(model.SchemaProvider).FeatureNames(), ShouldBeEmpty)

			classes, err := c.Predict(ctx, [][]float64{{1, 1}, {0.2, 0.3}})
			So(err, ShouldBeNil)
			So(classes, ShouldResemble, []int{1, 0})
		})
	})

	Convey("Given invalid artifacts", t, func() {
		cases := map[string]string{
			"not json":           `{"format_version":`,
			"bad format":         strings.Replace(logisticDoc, `"format_version": 1`, `"format_version": 7`, 1),
			"unknown kind":       strings.Replace(logisticDoc, "logistic_regression", "forest", 1),
			"bad classes":        strings.Replace(logisticDoc, `[0, 1]`, `[1, 2]`, 1),
			"names width":        strings.Replace(logisticDoc, `["a", "b"]`, `["a"]`, 1),
			"scaler width":       strings.Replace(logisticDoc, `"mean": [1, 0]`, `"mean": [1]`, 1),
			"zero scale":         strings.Replace(logisticDoc, `"scale": [2, 1]`, `"scale": [0, 1]`, 1),
			"no coefficients":    strings.Replace(linearDoc, `[1.0, 1.0]`, `[]`, 1),
			"threshold too high": strings.Replace(logisticDoc, `"intercept": 0.5`, `"intercept": 0.5, "threshold": 2`, 1),
		}
		for name, doc := range cases {
			_, err := model.Decode(strings.NewReader(doc))
			So(err, ShouldWrap, model.ErrModelUnavailable)
			_ = name
		}
	})

	Convey("Given the bundled artifact", t, func() {
		c, err := model.LoadFile(filepath.Join("..", "..", "..", "models", "model_hr.json"))
		So(err, ShouldBeNil)
		So(model.VersionOf(c), ShouldEqual, "1.0.0")
		So(c.(model.WidthProvider).InputWidth(), ShouldEqual, 43)
	})

	Convey("Given a missing artifact file", t, func() {
		_, err := model.LoadFile(filepath.Join(t.TempDir(), "absent.json"))
		So(err, ShouldWrap, model.ErrModelUnavailable)
		So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
	})
}

func TestHandle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a handle whose loader is slow", t, func() {
		var calls atomic.Int32
		release := make(chan struct{})
		h := model.NewHandle(func(context.Context) (model.Classifier, error) {
			calls.Add(1)
			<-release
			return model.Decode(strings.NewReader(logisticDoc))
		})

		Convey("When many callers arrive before the first load completes", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 16)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := h.Get(ctx)
					errs <- err
				}()
			}
			time.Sleep(20 * time.Millisecond)
			close(release)
			wg.Wait()
			close(errs)

			Convey("Then they share a single load", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
				So(calls.Load(), ShouldEqual, 1)
			})

			Convey("Then later calls reuse the loaded model", func() {
				_, err := h.Get(ctx)
				So(err, ShouldBeNil)
				So(h.Loaded(ctx), ShouldBeTrue)
				So(calls.Load(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a handle whose first load fails", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "model.json")
		var observed []error
		h := model.NewHandle(model.FileLoader(path), model.WithLoadObserver(func(_ time.Duration, err error) {
			observed = append(observed, err)
		}))

		Convey("Then the failure is reported and not cached", func() {
			So(h.Loaded(ctx), ShouldBeFalse)
			_, err := h.Get(ctx)
			So(err, ShouldWrap, model.ErrModelUnavailable)

			So(os.WriteFile(path, []byte(linearDoc), 0o600), ShouldBeNil)
			c, err := h.Get(ctx)
			So(err, ShouldBeNil)
			So(model.VersionOf(c), ShouldEqual, "lin-1")
			So(h.Loaded(ctx), ShouldBeTrue)

			So(len(observed), ShouldEqual, 3)
			So(observed[2], ShouldBeNil)
		})
	})

	Convey("Given a loader that returns a plain error", t, func() {
		boom := errors.New("disk on fire")
		h := model.NewHandle(func(context.Context) (model.Classifier, error) { return nil, boom })

		Convey("Then the error is marked unavailable and keeps its cause", func() {
			_, err := h.Get(ctx)
			So(err, ShouldWrap, model.ErrModelUnavailable)
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})

	Convey("Given a caller whose context is already done", t, func() {
		h := model.NewHandle(func(context.Context) (model.Classifier, error) {
			time.Sleep(50 * time.Millisecond)
			return model.Decode(strings.NewReader(linearDoc))
		})
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		Convey("Then it returns the context error while the load completes", func() {
			_, err := h.Get(cctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(h.Loaded(ctx), ShouldBeTrue)
		})
	})
}
