package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/okian/attrition/internal/domain/employee"
)

// Postgres error codes the store translates.
const (
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

const employeeColumns = `id, age, genre, revenu_mensuel, statut_marital, departement, poste,
	nombre_experiences_precedentes, annee_experience_totale, annees_dans_l_entreprise,
	annees_dans_le_poste_actuel, satisfaction_employee_environnement,
	satisfaction_employee_nature_travail, satisfaction_employee_equipe,
	satisfaction_employee_equilibre_pro_perso, heure_supplementaires,
	distance_domicile_travail, created_at`

const predictionColumns = `id, employee_id, prediction, probability, label, model_version, predicted_at`

const insertEmployeeSQL = `INSERT INTO employees (
	age, genre, revenu_mensuel, statut_marital, departement, poste,
	nombre_experiences_precedentes, annee_experience_totale, annees_dans_l_entreprise,
	annees_dans_le_poste_actuel, satisfaction_employee_environnement,
	satisfaction_employee_nature_travail, satisfaction_employee_equipe,
	satisfaction_employee_equilibre_pro_perso, heure_supplementaires,
	distance_domicile_travail, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING id`

const insertPredictionSQL = `INSERT INTO predictions (
	employee_id, prediction, probability, label, model_version, predicted_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

// PostgresStore is a Store backed by PostgreSQL through lib/pq.
type PostgresStore struct {
	db   *sql.DB
	opts *options
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to dsn, optionally migrates, and verifies the
// connection.
func NewPostgresStore(ctx context.Context, dsn string, opts ...Option) (*PostgresStore, error) {
	o := newOptions(opts)
	if o.autoMigrate {
		if err := Migrate(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(o.maxOpenConns)
	db.SetMaxIdleConns(o.maxIdleConns)
	db.SetConnMaxLifetime(o.connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{db: db, opts: o}, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SaveAssessment implements Store.
func (s *PostgresStore) SaveAssessment(ctx context.Context, emp employee.Profile, pred Prediction) (employee.Profile, Prediction, error) {
	if err := checkEmployee(emp); err != nil {
		return employee.Profile{}, Prediction{}, err
	}
	if err := checkPrediction(pred); err != nil {
		return employee.Profile{}, Prediction{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return employee.Profile{}, Prediction{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	emp, err = s.insertEmployee(ctx, tx, emp)
	if err != nil {
		return employee.Profile{}, Prediction{}, err
	}
	pred.EmployeeID = emp.ID
	pred, err = s.insertPrediction(ctx, tx, pred)
	if err != nil {
		return employee.Profile{}, Prediction{}, err
	}
	if err := tx.Commit(); err != nil {
		return employee.Profile{}, Prediction{}, fmt.Errorf("commit: %w", err)
	}
	return emp, pred, nil
}

// CreateEmployee implements Store.
func (s *PostgresStore) CreateEmployee(ctx context.Context, emp employee.Profile) (employee.Profile, error) {
	if err := checkEmployee(emp); err != nil {
		return employee.Profile{}, err
	}
	return s.insertEmployee(ctx, s.db, emp)
}

// GetEmployee implements Store.
func (s *PostgresStore) GetEmployee(ctx context.Context, id int64) (employee.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return employee.Profile{}, fmt.Errorf("employee %d: %w", id, ErrNotFound)
	}
	return emp, err
}

// ListEmployees implements Store.
func (s *PostgresStore) ListEmployees(ctx context.Context, page Page) ([]employee.Profile, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return s.queryEmployees(ctx,
		`SELECT `+employeeColumns+` FROM employees ORDER BY id OFFSET $1 LIMIT $2`,
		page.Skip, page.Limit)
}

// ListEmployeesByDepartment implements Store.
func (s *PostgresStore) ListEmployeesByDepartment(ctx context.Context, departement string, page Page) ([]employee.Profile, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return s.queryEmployees(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE departement = $1 ORDER BY id OFFSET $2 LIMIT $3`,
		departement, page.Skip, page.Limit)
}

// CreatePrediction implements Store.
func (s *PostgresStore) CreatePrediction(ctx context.Context, pred Prediction) (Prediction, error) {
	if err := checkPrediction(pred); err != nil {
		return Prediction{}, err
	}
	return s.insertPrediction(ctx, s.db, pred)
}

// GetPrediction implements Store.
func (s *PostgresStore) GetPrediction(ctx context.Context, id int64) (Prediction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+predictionColumns+` FROM predictions WHERE id = $1`, id)
	pred, err := scanPrediction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Prediction{}, fmt.Errorf("prediction %d: %w", id, ErrNotFound)
	}
	return pred, err
}

// ListPredictions implements Store.
func (s *PostgresStore) ListPredictions(ctx context.Context, page Page) ([]Prediction, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return s.queryPredictions(ctx,
		`SELECT `+predictionColumns+` FROM predictions ORDER BY predicted_at DESC, id DESC OFFSET $1 LIMIT $2`,
		page.Skip, page.Limit)
}

// ListPredictionsByEmployee implements Store.
func (s *PostgresStore) ListPredictionsByEmployee(ctx context.Context, employeeID int64) ([]Prediction, error) {
	return s.queryPredictions(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE employee_id = $1 ORDER BY predicted_at DESC, id DESC`,
		employeeID)
}

// ListHighRiskPredictions implements Store.
func (s *PostgresStore) ListHighRiskPredictions(ctx context.Context, threshold float64, page Page) ([]Prediction, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return s.queryPredictions(ctx,
		`SELECT `+predictionColumns+` FROM predictions WHERE probability >= $1
		ORDER BY predicted_at DESC, id DESC OFFSET $2 LIMIT $3`,
		threshold, page.Skip, page.Limit)
}

// Statistics implements Store.
func (s *PostgresStore) Statistics(ctx context.Context) (Statistics, error) {
	var total, atRisk int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE prediction = 1) FROM predictions`,
	).Scan(&total, &atRisk)
	if err != nil {
		return Statistics{}, fmt.Errorf("statistics: %w", err)
	}
	return statistics(total, atRisk), nil
}

// Ping implements Store.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) insertEmployee(ctx context.Context, q queryer, emp employee.Profile) (employee.Profile, error) {
	emp.CreatedAt = s.opts.now()
	err := q.QueryRowContext(ctx, insertEmployeeSQL,
		emp.Age, emp.Genre, emp.RevenuMensuel, emp.StatutMarital, emp.Departement, emp.Poste,
		emp.NombreExperiencesPrecedentes, emp.AnneeExperienceTotale, emp.AnneesDansLEntreprise,
		emp.AnneesDansLePosteActuel, emp.SatisfactionEnvironnement,
		emp.SatisfactionNatureTravail, emp.SatisfactionEquipe,
		emp.SatisfactionEquilibreProPerso, emp.HeureSupplementaires,
		emp.DistanceDomicileTravail, emp.CreatedAt,
	).Scan(&emp.ID)
	if err != nil {
		return employee.Profile{}, translate("insert employee", err)
	}
	return emp, nil
}

func (s *PostgresStore) insertPrediction(ctx context.Context, q queryer, pred Prediction) (Prediction, error) {
	if pred.ModelVersion == "" {
		pred.ModelVersion = DefaultModelVersion
	}
	if pred.PredictedAt.IsZero() {
		pred.PredictedAt = s.opts.now()
	}
	err := q.QueryRowContext(ctx, insertPredictionSQL,
		pred.EmployeeID, pred.Class, pred.Probability, pred.Label, pred.ModelVersion, pred.PredictedAt,
	).Scan(&pred.ID)
	if err != nil {
		return Prediction{}, translate("insert prediction", err)
	}
	return pred, nil
}

func (s *PostgresStore) queryEmployees(ctx context.Context, query string, args ...any) ([]employee.Profile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]employee.Profile, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

func (s *PostgresStore) queryPredictions(ctx context.Context, query string, args ...any) ([]Prediction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]Prediction, 0)
	for rows.Next() {
		pred, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pred)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (employee.Profile, error) {
	var (
		emp                                        employee.Profile
		exp, expTotal, inCompany, inRole, distance sql.NullInt64
		satEnv, satNature, satTeam, satBalance     sql.NullInt64
		overtime                                   sql.NullString
	)
	err := row.Scan(
		&emp.ID, &emp.Age, &emp.Genre, &emp.RevenuMensuel, &emp.StatutMarital, &emp.Departement, &emp.Poste,
		&exp, &expTotal, &inCompany, &inRole, &satEnv, &satNature, &satTeam, &satBalance,
		&overtime, &distance, &emp.CreatedAt,
	)
	if err != nil {
		return employee.Profile{}, err
	}
	emp.NombreExperiencesPrecedentes = int(exp.Int64)
	emp.AnneeExperienceTotale = int(expTotal.Int64)
	emp.AnneesDansLEntreprise = int(inCompany.Int64)
	emp.AnneesDansLePosteActuel = int(inRole.Int64)
	emp.SatisfactionEnvironnement = int(satEnv.Int64)
	emp.SatisfactionNatureTravail = int(satNature.Int64)
	emp.SatisfactionEquipe = int(satTeam.Int64)
	emp.SatisfactionEquilibreProPerso = int(satBalance.Int64)
	emp.HeureSupplementaires = overtime.String
	emp.DistanceDomicileTravail = int(distance.Int64)
	return emp, nil
}

func scanPrediction(row scanner) (Prediction, error) {
	var (
		pred       Prediction
		employeeID sql.NullInt64
		version    sql.NullString
	)
	err := row.Scan(&pred.ID, &employeeID, &pred.Class, &pred.Probability, &pred.Label, &version, &pred.PredictedAt)
	if err != nil {
		return Prediction{}, err
	}
	pred.EmployeeID = employeeID.Int64
	pred.ModelVersion = version.String
	return pred, nil
}

// translate maps Postgres constraint errors to the package sentinels.
func translate(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", op, ErrNotFound, pqErr.Message)
		case pgCheckViolation:
			return fmt.Errorf("%s: %w: %s", op, ErrConstraint, pqErr.Constraint)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
