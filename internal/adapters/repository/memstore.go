package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/attrition/internal/domain/employee"
)

// MemoryStore is an in-process Store used when no database is configured.
type MemoryStore struct {
	opts *options

	mu          sync.RWMutex
	closed      bool
	employees   []employee.Profile // ordered by id
	predictions []Prediction       // ordered by id
	nextEmpID   int64
	nextPredID  int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{opts: newOptions(opts), nextEmpID: 1, nextPredID: 1}
}

// SaveAssessment implements Store.
func (s *MemoryStore) SaveAssessment(_ context.Context, emp employee.Profile, pred Prediction) (employee.Profile, Prediction, error) {
	if err := checkEmployee(emp); err != nil {
		return employee.Profile{}, Prediction{}, err
	}
	if err := checkPrediction(pred); err != nil {
		return employee.Profile{}, Prediction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return employee.Profile{}, Prediction{}, ErrClosed
	}
	emp = s.insertEmployee(emp)
	pred.EmployeeID = emp.ID
	pred = s.insertPrediction(pred)
	return emp, pred, nil
}

// CreateEmployee implements Store.
func (s *MemoryStore) CreateEmployee(_ context.Context, emp employee.Profile) (employee.Profile, error) {
	if err := checkEmployee(emp); err != nil {
		return employee.Profile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return employee.Profile{}, ErrClosed
	}
	return s.insertEmployee(emp), nil
}

// GetEmployee implements Store.
func (s *MemoryStore) GetEmployee(_ context.Context, id int64) (employee.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.employeeIndex(id); ok {
		return s.employees[i], nil
	}
	return employee.Profile{}, fmt.Errorf("employee %d: %w", id, ErrNotFound)
}

// ListEmployees implements Store.
func (s *MemoryStore) ListEmployees(_ context.Context, page Page) ([]employee.Profile, error) {
	return s.listEmployees(page, func(employee.Profile) bool { return true })
}

// ListEmployeesByDepartment implements Store.
func (s *MemoryStore) ListEmployeesByDepartment(_ context.Context, departement string, page Page) ([]employee.Profile, error) {
	return s.listEmployees(page, func(e employee.Profile) bool { return e.Departement == departement })
}

func (s *MemoryStore) listEmployees(page Page, keep func(employee.Profile) bool) ([]employee.Profile, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]employee.Profile, 0)
	skipped := 0
	for _, e := range s.employees {
		if !keep(e) {
			continue
		}
		if skipped < page.Skip {
			skipped++
			continue
		}
		if len(out) == page.Limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

// CreatePrediction implements Store.
func (s *MemoryStore) CreatePrediction(_ context.Context, pred Prediction) (Prediction, error) {
	if err := checkPrediction(pred); err != nil {
		return Prediction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Prediction{}, ErrClosed
	}
	if _, ok := s.employeeIndex(pred.EmployeeID); !ok {
		return Prediction{}, fmt.Errorf("employee %d: %w", pred.EmployeeID, ErrNotFound)
	}
	return s.insertPrediction(pred), nil
}

// GetPrediction implements Store.
func (s *MemoryStore) GetPrediction(_ context.Context, id int64) (Prediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := sort.Search(len(s.predictions), func(i int) bool { return s.predictions[i].ID >= id })
	if i < len(s.predictions) && s.predictions[i].ID == id {
		return s.predictions[i], nil
	}
	return Prediction{}, fmt.Errorf("prediction %d: %w", id, ErrNotFound)
}

// ListPredictions implements Store.
func (s *MemoryStore) ListPredictions(_ context.Context, page Page) ([]Prediction, error) {
	return s.listPredictions(&page, func(Prediction) bool { return true })
}

// ListPredictionsByEmployee implements Store.
func (s *MemoryStore) ListPredictionsByEmployee(_ context.Context, employeeID int64) ([]Prediction, error) {
	return s.listPredictions(nil, func(p Prediction) bool { return p.EmployeeID == employeeID })
}

// ListHighRiskPredictions implements Store.
func (s *MemoryStore) ListHighRiskPredictions(_ context.Context, threshold float64, page Page) ([]Prediction, error) {
	return s.listPredictions(&page, func(p Prediction) bool { return p.Probability >= threshold })
}

// listPredictions returns matching predictions newest first; a nil page returns all.
func (s *MemoryStore) listPredictions(page *Page, keep func(Prediction) bool) ([]Prediction, error) {
	if page != nil {
		if err := page.Validate(); err != nil {
			return nil, err
		}
	}
	s.mu.RLock()
	matched := make([]Prediction, 0)
	for _, p := range s.predictions {
		if keep(p) {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].PredictedAt.Equal(matched[j].PredictedAt) {
			return matched[i].PredictedAt.After(matched[j].PredictedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	if page == nil {
		return matched, nil
	}
	if page.Skip >= len(matched) {
		return []Prediction{}, nil
	}
	end := min(page.Skip+page.Limit, len(matched))
	return matched[page.Skip:end], nil
}

// Statistics implements Store.
func (s *MemoryStore) Statistics(_ context.Context) (Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	atRisk := 0
	for _, p := range s.predictions {
		if p.Class == 1 {
			atRisk++
		}
	}
	return statistics(len(s.predictions), atRisk), nil
}

// Ping implements Store.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// insertEmployee must be called with s.mu held.
func (s *MemoryStore) insertEmployee(emp employee.Profile) employee.Profile {
	emp.ID = s.nextEmpID
	s.nextEmpID++
	emp.CreatedAt = s.opts.now()
	s.employees = append(s.employees, emp)
	return emp
}

// insertPrediction must be called with s.mu held.
func (s *MemoryStore) insertPrediction(pred Prediction) Prediction {
	pred.ID = s.nextPredID
	s.nextPredID++
	if pred.ModelVersion == "" {
		pred.ModelVersion = DefaultModelVersion
	}
	if pred.PredictedAt.IsZero() {
		pred.PredictedAt = s.opts.now()
	}
	s.predictions = append(s.predictions, pred)
	return pred
}

func (s *MemoryStore) employeeIndex(id int64) (int, bool) {
	i := sort.Search(len(s.employees), func(i int) bool { return s.employees[i].ID >= id })
	return i, i < len(s.employees) && s.employees[i].ID == id
}
