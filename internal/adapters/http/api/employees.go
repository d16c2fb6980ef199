package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/okian/attrition/internal/adapters/repository"
	"github.com/okian/attrition/internal/domain/employee"
)

// EmployeesDependencies defines the interface for employee history reads.
type EmployeesDependencies interface {
	GetEmployee(ctx context.Context, id int64) (employee.Profile, error)
	ListEmployees(ctx context.Context, departement string, page repository.Page) ([]employee.Profile, error)
	ListEmployeePredictions(ctx context.Context, id int64) ([]repository.Prediction, error)
}

// EmployeesHandler handles employee history requests.
type EmployeesHandler struct {
	deps EmployeesDependencies
}

// NewEmployeesHandler creates a new employees handler.
func NewEmployeesHandler(deps EmployeesDependencies) *EmployeesHandler {
	return &EmployeesHandler{deps: deps}
}

type employeeResponse struct {
	ID                            int64     `json:"id"`
	Age                           int       `json:"age"`
	Genre                         string    `json:"genre"`
	RevenuMensuel                 float64   `json:"revenu_mensuel"`
	StatutMarital                 string    `json:"statut_marital"`
	Departement                   string    `json:"departement"`
	Poste                         string    `json:"poste"`
	NombreExperiencesPrecedentes  int       `json:"nombre_experiences_precedentes"`
	AnneeExperienceTotale         int       `json:"annee_experience_totale"`
	AnneesDansLEntreprise         int       `json:"annees_dans_l_entreprise"`
	AnneesDansLePosteActuel       int       `json:"annees_dans_le_poste_actuel"`
	SatisfactionEnvironnement     int       `json:"satisfaction_employee_environnement"`
	SatisfactionNatureTravail     int       `json:"satisfaction_employee_nature_travail"`
	SatisfactionEquipe            int       `json:"satisfaction_employee_equipe"`
	SatisfactionEquilibreProPerso int       `json:"satisfaction_employee_equilibre_pro_perso"`
	HeureSupplementaires          string    `json:"heure_supplementaires"`
	DistanceDomicileTravail       int       `json:"distance_domicile_travail"`
	CreatedAt                     time.Time `json:"created_at"`
}

func toEmployeeResponse(p employee.Profile) employeeResponse { //nolint:gocritic // hugeParam
	return employeeResponse{
		ID:                            p.ID,
		Age:                           p.Age,
		Genre:                         p.Genre,
		RevenuMensuel:                 p.RevenuMensuel,
		StatutMarital:                 p.StatutMarital,
		Departement:                   p.Departement,
		Poste:                         p.Poste,
		NombreExperiencesPrecedentes:  p.NombreExperiencesPrecedentes,
		AnneeExperienceTotale:         p.AnneeExperienceTotale,
		AnneesDansLEntreprise:         p.AnneesDansLEntreprise,
		AnneesDansLePosteActuel:       p.AnneesDansLePosteActuel,
		SatisfactionEnvironnement:     p.SatisfactionEnvironnement,
		SatisfactionNatureTravail:     p.SatisfactionNatureTravail,
		SatisfactionEquipe:            p.SatisfactionEquipe,
		SatisfactionEquilibreProPerso: p.SatisfactionEquilibreProPerso,
		HeureSupplementaires:          p.HeureSupplementaires,
		DistanceDomicileTravail:       p.DistanceDomicileTravail,
		CreatedAt:                     p.CreatedAt,
	}
}

// HandleList handles GET /employees?skip=&limit=&departement=.
func (h *EmployeesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_employees"
	page, err := parsePage(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	dept := strings.TrimSpace(r.URL.Query().Get("departement"))
	profiles, err := h.deps.ListEmployees(r.Context(), dept, page)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	out := make([]employeeResponse, len(profiles))
	for i, p := range profiles {
		out[i] = toEmployeeResponse(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /employees/{id}.
func (h *EmployeesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_employee"
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	p, err := h.deps.GetEmployee(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(p))
}

// HandlePredictions handles GET /employees/{id}/predictions.
func (h *EmployeesHandler) HandlePredictions(w http.ResponseWriter, r *http.Request) {
	const op = "api.employee_predictions"
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	preds, err := h.deps.ListEmployeePredictions(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toPredictionRecords(preds))
}
