// Package repository stores assessed employees and their predictions.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/attrition/internal/domain/employee"
)

// Pagination defaults.
const (
	DefaultLimit = 100
	MaxLimit     = 1000

	// DefaultRiskThreshold is the probability from which a prediction is high risk.
	DefaultRiskThreshold = 0.5
	// DefaultModelVersion is stored when a prediction carries no version.
	DefaultModelVersion = "1.0.0"
)

// Prediction is one stored prediction for an employee.
type Prediction struct {
	ID           int64
	EmployeeID   int64
	Class        int
	Probability  float64
	Label        string
	ModelVersion string
	PredictedAt  time.Time
}

// Statistics summarises all stored predictions.
type Statistics struct {
	TotalPredictions int
	AtRisk           int
	Stable           int
	// RiskRatio is AtRisk / TotalPredictions, 0 when there are none.
	RiskRatio float64
}

// Page selects a window of a list.
type Page struct {
	Skip  int
	Limit int
}

// Validate returns ErrInvalidPage for negative skips or limits outside [1, MaxLimit].
func (p Page) Validate() error {
	if p.Skip < 0 {
		return fmt.Errorf("%w: skip %d", ErrInvalidPage, p.Skip)
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return fmt.Errorf("%w: limit %d not in [1, %d]", ErrInvalidPage, p.Limit, MaxLimit)
	}
	return nil
}

// Store provides read/write access to the assessment history.
type Store interface {
	// SaveAssessment stores an employee and its prediction atomically and
	// returns both with their assigned ids.
	SaveAssessment(ctx context.Context, emp employee.Profile, pred Prediction) (employee.Profile, Prediction, error)

	CreateEmployee(ctx context.Context, emp employee.Profile) (employee.Profile, error)
	// GetEmployee returns ErrNotFound for unknown ids.
	GetEmployee(ctx context.Context, id int64) (employee.Profile, error)
	ListEmployees(ctx context.Context, page Page) ([]employee.Profile, error)
	ListEmployeesByDepartment(ctx context.Context, departement string, page Page) ([]employee.Profile, error)

	// CreatePrediction returns ErrNotFound when the employee does not exist.
	CreatePrediction(ctx context.Context, pred Prediction) (Prediction, error)
	// GetPrediction returns ErrNotFound for unknown ids.
	GetPrediction(ctx context.Context, id int64) (Prediction, error)
	// ListPredictions returns predictions newest first.
	ListPredictions(ctx context.Context, page Page) ([]Prediction, error)
	// ListPredictionsByEmployee returns an employee's predictions newest first.
	ListPredictionsByEmployee(ctx context.Context, employeeID int64) ([]Prediction, error)
	// ListHighRiskPredictions returns predictions with probability >= threshold, newest first.
	ListHighRiskPredictions(ctx context.Context, threshold float64, page Page) ([]Prediction, error)
	Statistics(ctx context.Context) (Statistics, error)

	Ping(ctx context.Context) error
	Close() error
}

func checkEmployee(emp employee.Profile) error {
	if emp.Age < 18 || emp.Age > 100 {
		return fmt.Errorf("%w: age %d", ErrConstraint, emp.Age)
	}
	if emp.Genre != "M" && emp.Genre != "F" {
		return fmt.Errorf("%w: genre %q", ErrConstraint, emp.Genre)
	}
	return nil
}

func checkPrediction(pred Prediction) error {
	if pred.Class != 0 && pred.Class != 1 {
		return fmt.Errorf("%w: prediction %d", ErrConstraint, pred.Class)
	}
	if pred.Probability < 0 || pred.Probability > 1 {
		return fmt.Errorf("%w: probability %v", ErrConstraint, pred.Probability)
	}
	return nil
}

func statistics(total, atRisk int) Statistics {
	s := Statistics{TotalPredictions: total, AtRisk: atRisk, Stable: total - atRisk}
	if total > 0 {
		s.RiskRatio = float64(atRisk) / float64(total)
	}
	return s
}
