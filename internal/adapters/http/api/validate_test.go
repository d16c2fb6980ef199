package api

import (
	"encoding/json"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/internal/domain/features"
)

func newTestValidator() *Validator {
	schema, err := features.DefaultSchema()
	So(err, ShouldBeNil)
	return NewValidator(schema)
}

func fieldOf(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}

func TestValidator(t *testing.T) {
	Convey("Given the default validator", t, func() {
		v := newTestValidator()

		Convey("Then the bundled examples are valid", func() {
			So(v.Validate(employee.StableExample(), -1), ShouldBeNil)
			So(v.Validate(employee.AtRiskExample(), -1), ShouldBeNil)
		})

		Convey("Then JSON numbers are accepted", func() {
			rec := employee.StableExample()
			rec[employee.Age] = json.Number("44")
			rec[employee.RevenuMensuel] = json.Number("3200.5")
			So(v.Validate(rec, -1), ShouldBeNil)
		})

		Convey("Then a decomposed accent matches its composed category", func() {
			rec := employee.StableExample()
			rec[employee.StatutMarital] = "Marie\u0301(e)"
			So(v.Validate(rec, -1), ShouldBeNil)
		})

		cases := []struct {
			name  string
			field string
			value any
		}{
			{"age below 18", employee.Age, 17},
			{"age above 70", employee.Age, 71},
			{"fractional age", employee.Age, 30.5},
			{"numeric string", employee.Age, "35"},
			{"zero salary", employee.RevenuMensuel, 0},
			{"unknown genre", employee.Genre, "X"},
			{"overtime not Oui/Non", employee.HeureSupplementaires, "Yes"},
			{"children not Y/N", employee.AyantEnfants, "O"},
			{"satisfaction above 4", employee.SatisfactionEquipe, 5},
			{"level above 5", employee.NiveauHierarchiquePoste, 6},
			{"education below 1", employee.NiveauEducation, 0},
			{"raise above 100", employee.AugmentationSalairePrecedente, 101},
			{"negative distance", employee.DistanceDomicileTravail, -1},
			{"unknown poste", employee.Poste, "Intern"},
			{"numeric departement", employee.Departement, 3},
			{"null value", employee.FrequenceDeplacement, nil},
		}
		for _, tc := range cases {
			Convey("Then it rejects "+tc.name, func() {
				rec := employee.StableExample()
				rec[tc.field] = tc.value
				err := v.Validate(rec, 4)
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrValidation), ShouldBeTrue)
				So(fieldOf(err), ShouldEqual, tc.field)

				var fe *FieldError
				So(errors.As(err, &fe), ShouldBeTrue)
				So(fe.Index, ShouldEqual, 4)
			})
		}

		Convey("Then boundaries are inclusive where documented", func() {
			rec := employee.StableExample()
			rec[employee.Age] = 18
			rec[employee.AugmentationSalairePrecedente] = 100
			rec[employee.NombreHeuresTravailless] = 0
			So(v.Validate(rec, -1), ShouldBeNil)
			rec[employee.Age] = 70
			So(v.Validate(rec, -1), ShouldBeNil)
		})

		Convey("Then missing fields are reported in attribute order", func() {
			err := v.Validate(employee.Record{}, -1)
			So(fieldOf(err), ShouldEqual, employee.Age)
			So(err.Error(), ShouldEqual, "age: field required")
		})
	})
}
