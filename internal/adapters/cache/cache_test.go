package cache

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/internal/domain/prediction"
)

func TestPredictionCache(t *testing.T) {
	Convey("Given a prediction cache of two entries", t, func() {
		c, err := NewPredictionCache(WithSize(2))
		So(err, ShouldBeNil)
		So(c.Enabled(), ShouldBeTrue)
		So(c.Size(), ShouldEqual, 2)

		stable := prediction.Result{Class: 0, Probability: 0.09, Label: prediction.LabelStable}
		atRisk := prediction.Result{Class: 1, Probability: 0.99, Label: prediction.LabelAtRisk}

		Convey("When a result is added", func() {
			k, ok := Key("1.0.0", employee.StableExample())
			So(ok, ShouldBeTrue)
			c.Add(k, stable)

			Convey("Then it is returned for the same record", func() {
				got, hit := c.Get(k)
				So(hit, ShouldBeTrue)
				So(got, ShouldResemble, stable)
			})

			Convey("Then another model version misses", func() {
				other, _ := Key("2.0.0", employee.StableExample())
				_, hit := c.Get(other)
				So(hit, ShouldBeFalse)
			})
		})

		Convey("When more results than the size are added", func() {
			c.Add("a", stable)
			c.Add("b", atRisk)
			_, _ = c.Get("a")
			c.Add("c", atRisk)

			Convey("Then the least recently used one is evicted", func() {
				So(c.Len(), ShouldEqual, 2)
				_, hit := c.Get("b")
				So(hit, ShouldBeFalse)
				_, hit = c.Get("a")
				So(hit, ShouldBeTrue)
			})

			Convey("Then Purge empties it", func() {
				c.Purge()
				So(c.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a cache of size zero", t, func() {
		c, err := NewPredictionCache(WithSize(0))
		So(err, ShouldBeNil)

		Convey("Then it is disabled", func() {
			So(c.Enabled(), ShouldBeFalse)
			c.Add("a", prediction.Result{Class: 1})
			_, hit := c.Get("a")
			So(hit, ShouldBeFalse)
			So(c.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given a nil cache", t, func() {
		var c *PredictionCache

		Convey("Then every method is a no-op", func() {
			So(c.Enabled(), ShouldBeFalse)
			So(c.Size(), ShouldEqual, 0)
			So(func() { c.Add("a", prediction.Result{}) }, ShouldNotPanic)
		})
	})
}

func TestKey(t *testing.T) {
	Convey("Given two records with the same values", t, func() {
		a := employee.Record{"age": 41, "genre": "F", "poste": "Manager"}
		b := employee.Record{"poste": "Manager", "genre": "F", "age": 41.0}

		Convey("Then they share a key", func() {
			ka, ok := Key("1.0.0", a)
			So(ok, ShouldBeTrue)
			kb, ok := Key("1.0.0", b)
			So(ok, ShouldBeTrue)
			So(ka, ShouldEqual, kb)
		})

		Convey("Then a different value changes the key", func() {
			ka, _ := Key("1.0.0", a)
			b["age"] = 42
			kb, _ := Key("1.0.0", b)
			So(ka, ShouldNotEqual, kb)
		})
	})

	Convey("Given a record that cannot be encoded", t, func() {
		_, ok := Key("1.0.0", employee.Record{"bad": func() {}})
		So(ok, ShouldBeFalse)
	})
}
