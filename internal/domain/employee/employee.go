// Package employee contains the employee record passed between layers.
package employee

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Record is one employee as received at the boundary: attribute name to a
// scalar (string, integer or float). Records are treated as immutable.
type Record map[string]any

// Canonical attribute names, in the order the record is documented.
const (
	Age                              = "age"
	Genre                            = "genre"
	RevenuMensuel                    = "revenu_mensuel"
	StatutMarital                    = "statut_marital"
	Departement                      = "departement"
	Poste                            = "poste"
	NombreExperiencesPrecedentes     = "nombre_experiences_precedentes"
	NombreHeuresTravailless          = "nombre_heures_travailless"
	AnneeExperienceTotale            = "annee_experience_totale"
	AnneesDansLEntreprise            = "annees_dans_l_entreprise"
	AnneesDansLePosteActuel          = "annees_dans_le_poste_actuel"
	SatisfactionEnvironnement        = "satisfaction_employee_environnement"
	NoteEvaluationPrecedente         = "note_evaluation_precedente"
	NiveauHierarchiquePoste          = "niveau_hierarchique_poste"
	SatisfactionNatureTravail        = "satisfaction_employee_nature_travail"
	SatisfactionEquipe               = "satisfaction_employee_equipe"
	SatisfactionEquilibreProPerso    = "satisfaction_employee_equilibre_pro_perso"
	NoteEvaluationActuelle           = "note_evaluation_actuelle"
	HeureSupplementaires             = "heure_supplementaires"
	AugmentationSalairePrecedente    = "augementation_salaire_precedente"
	NombreParticipationPEE           = "nombre_participation_pee"
	NbFormationsSuivies              = "nb_formations_suivies"
	NombreEmployeeSousResponsabilite = "nombre_employee_sous_responsabilite"
	DistanceDomicileTravail          = "distance_domicile_travail"
	NiveauEducation                  = "niveau_education"
	DomaineEtude                     = "domaine_etude"
	AyantEnfants                     = "ayant_enfants"
	FrequenceDeplacement             = "frequence_deplacement"
	AnneesDepuisLaDernierePromotion  = "annees_depuis_la_derniere_promotion"
	AnnesSousResponsableActuel       = "annes_sous_responsable_actuel"
)

// Attributes lists every attribute a complete record carries.
var Attributes = []string{
	Age, Genre, RevenuMensuel, StatutMarital, Departement, Poste,
	NombreExperiencesPrecedentes, NombreHeuresTravailless, AnneeExperienceTotale,
	AnneesDansLEntreprise, AnneesDansLePosteActuel, SatisfactionEnvironnement,
	NoteEvaluationPrecedente, NiveauHierarchiquePoste, SatisfactionNatureTravail,
	SatisfactionEquipe, SatisfactionEquilibreProPerso, NoteEvaluationActuelle,
	HeureSupplementaires, AugmentationSalairePrecedente, NombreParticipationPEE,
	NbFormationsSuivies, NombreEmployeeSousResponsabilite, DistanceDomicileTravail,
	NiveauEducation, DomaineEtude, AyantEnfants, FrequenceDeplacement,
	AnneesDepuisLaDernierePromotion, AnnesSousResponsableActuel,
}

// Float returns a numeric attribute as float64. JSON numbers, Go integer and
// float kinds, and numeric strings are accepted.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int returns a numeric attribute rounded to the nearest integer.
func (r Record) Int(key string) (int, bool) {
	f, ok := r.Float(key)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

// String returns a textual attribute.
func (r Record) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Token returns a textual attribute in the form categories are compared
// and stored in.
func (r Record) Token(key string) (string, bool) {
	s, ok := r.String(key)
	if !ok {
		return "", false
	}
	return NormalizeToken(s), true
}

// NormalizeToken trims surrounding whitespace and composes accents (NFC).
func NormalizeToken(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Profile is the subset of a record kept in the history store.
type Profile struct {
	ID                            int64
	Age                           int
	Genre                         string
	RevenuMensuel                 float64
	StatutMarital                 string
	Departement                   string
	Poste                         string
	NombreExperiencesPrecedentes  int
	AnneeExperienceTotale         int
	AnneesDansLEntreprise         int
	AnneesDansLePosteActuel       int
	SatisfactionEnvironnement     int
	SatisfactionNatureTravail     int
	SatisfactionEquipe            int
	SatisfactionEquilibreProPerso int
	HeureSupplementaires          string
	DistanceDomicileTravail       int
	CreatedAt                     time.Time
}

// ProfileFromRecord extracts the stored columns from a record. Textual
// attributes are normalised with NormalizeToken. Missing or mistyped
// attributes are left at their zero value.
func ProfileFromRecord(r Record) Profile {
	var p Profile
	p.Age, _ = r.Int(Age)
	p.Genre, _ = r.Token(Genre)
	p.RevenuMensuel, _ = r.Float(RevenuMensuel)
	p.StatutMarital, _ = r.Token(StatutMarital)
	p.Departement, _ = r.Token(Departement)
	p.Poste, _ = r.Token(Poste)
	p.NombreExperiencesPrecedentes, _ = r.Int(NombreExperiencesPrecedentes)
	p.AnneeExperienceTotale, _ = r.Int(AnneeExperienceTotale)
	p.AnneesDansLEntreprise, _ = r.Int(AnneesDansLEntreprise)
	p.AnneesDansLePosteActuel, _ = r.Int(AnneesDansLePosteActuel)
	p.SatisfactionEnvironnement, _ = r.Int(SatisfactionEnvironnement)
	p.SatisfactionNatureTravail, _ = r.Int(SatisfactionNatureTravail)
	p.SatisfactionEquipe, _ = r.Int(SatisfactionEquipe)
	p.SatisfactionEquilibreProPerso, _ = r.Int(SatisfactionEquilibreProPerso)
	p.HeureSupplementaires, _ = r.Token(HeureSupplementaires)
	p.DistanceDomicileTravail, _ = r.Int(DistanceDomicileTravail)
	return p
}
