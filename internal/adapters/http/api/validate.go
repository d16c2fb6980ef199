package api

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/okian/attrition/internal/domain/employee"
	"github.com/okian/attrition/internal/domain/features"
)

type numberRule struct {
	min, max   float64
	minOpen    bool
	integer    bool
	hasMaximum bool
}

func intRange(lo, hi float64) numberRule {
	return numberRule{min: lo, max: hi, integer: true, hasMaximum: true}
}

func intAtLeast(lo float64) numberRule {
	return numberRule{min: lo, integer: true}
}

var numberRules = map[string]numberRule{
	employee.Age:                              intRange(18, 70),
	employee.RevenuMensuel:                    {min: 0, minOpen: true},
	employee.NombreExperiencesPrecedentes:     intAtLeast(0),
	employee.NombreHeuresTravailless:          {min: 0},
	employee.AnneeExperienceTotale:            intAtLeast(0),
	employee.AnneesDansLEntreprise:            intAtLeast(0),
	employee.AnneesDansLePosteActuel:          intAtLeast(0),
	employee.SatisfactionEnvironnement:        intRange(1, 4),
	employee.NoteEvaluationPrecedente:         intRange(1, 4),
	employee.NiveauHierarchiquePoste:          intRange(1, 5),
	employee.SatisfactionNatureTravail:        intRange(1, 4),
	employee.SatisfactionEquipe:               intRange(1, 4),
	employee.SatisfactionEquilibreProPerso:    intRange(1, 4),
	employee.NoteEvaluationActuelle:           intRange(1, 4),
	employee.AugmentationSalairePrecedente:    intRange(0, 100),
	employee.NombreParticipationPEE:           intAtLeast(0),
	employee.NbFormationsSuivies:              intAtLeast(0),
	employee.NombreEmployeeSousResponsabilite: intAtLeast(0),
	employee.DistanceDomicileTravail:          intAtLeast(0),
	employee.NiveauEducation:                  intRange(1, 5),
	employee.AnneesDepuisLaDernierePromotion:  intAtLeast(0),
	employee.AnnesSousResponsableActuel:       intAtLeast(0),
}

// Validator checks incoming records before they reach the predictor.
type Validator struct {
	choices map[string][]string
}

// NewValidator builds a validator whose category choices come from schema.
func NewValidator(schema *features.Schema) *Validator {
	v := &Validator{choices: map[string][]string{
		employee.Genre:                {"M", "F"},
		employee.HeureSupplementaires: {"Oui", "Non"},
		employee.AyantEnfants:         {"Y", "N"},
	}}
	for _, field := range []string{
		employee.StatutMarital,
		employee.Departement,
		employee.Poste,
		employee.DomaineEtude,
		employee.FrequenceDeplacement,
	} {
		if values, ok := schema.Categories(field); ok {
			v.choices[field] = slices.Clone(values)
		} else {
			v.choices[field] = nil
		}
	}
	return v
}

// Validate returns a *FieldError for the first invalid attribute of rec, in
// documented attribute order. index is reported back in the error.
func (v *Validator) Validate(rec employee.Record, index int) error {
	for _, field := range employee.Attributes {
		raw, present := rec[field]
		if !present || raw == nil {
			return &FieldError{Field: field, Reason: "field required", Index: index}
		}
		if rule, ok := numberRules[field]; ok {
			if reason := checkNumber(raw, rule); reason != "" {
				return &FieldError{Field: field, Reason: reason, Index: index}
			}
			continue
		}
		choices, ok := v.choices[field]
		if !ok {
			continue
		}
		s, isString := raw.(string)
		if !isString {
			return &FieldError{Field: field, Reason: "must be a string", Index: index}
		}
		if choices == nil {
			if strings.TrimSpace(s) == "" {
				return &FieldError{Field: field, Reason: "must not be empty", Index: index}
			}
			continue
		}
		if !slices.Contains(choices, employee.NormalizeToken(s)) {
			return &FieldError{
				Field:  field,
				Reason: fmt.Sprintf("must be one of %s", strings.Join(choices, ", ")),
				Index:  index,
			}
		}
	}
	return nil
}

func checkNumber(raw any, rule numberRule) string {
	var f float64
	switch n := raw.(type) {
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return "must be a number"
		}
	case float64:
		f = n
	case int:
		f = float64(n)
	default:
		return "must be a number"
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "must be a finite number"
	}
	if rule.integer && f != math.Trunc(f) {
		return "must be an integer"
	}
	switch {
	case rule.minOpen && f <= rule.min:
		return fmt.Sprintf("must be greater than %g", rule.min)
	case !rule.minOpen && f < rule.min:
		return fmt.Sprintf("must be greater than or equal to %g", rule.min)
	case rule.hasMaximum && f > rule.max:
		return fmt.Sprintf("must be less than or equal to %g", rule.max)
	}
	return ""
}
