package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/workticket-service/internal/domain"
)

// MemoryDirectory is an in-process employee directory.
type MemoryDirectory struct {
	mu        sync.RWMutex
	employees map[string]domain.Employee
}

// NewMemoryDirectory seeds a directory with the given employees.
func NewMemoryDirectory(employees ...domain.Employee) *MemoryDirectory {
	d := &MemoryDirectory{employees: make(map[string]domain.Employee, len(employees))}
	for _, e := range employees {
		d.employees[e.ID] = e
	}
	return d
}

// Upsert adds or replaces an employee record.
func (d *MemoryDirectory) Upsert(employee domain.Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.employees[employee.ID] = employee
}

// SetHourlyRate changes an employee's live rate.
func (d *MemoryDirectory) SetHourlyRate(id string, rate decimal.Decimal) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.employees[id]
	if !ok {
		return ErrNotFound
	}
	e.HourlyRate = rate
	d.employees[id] = e
	return nil
}

func (d *MemoryDirectory) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (d *MemoryDirectory) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.employees {
		if strings.EqualFold(e.Email, email) {
			found := e
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (d *MemoryDirectory) ListByDepartment(_ context.Context, department string) ([]domain.Employee, error) {
	d.mu.RLock()
	result := []domain.Employee{}
	for _, e := range d.employees {
		if e.Department == department {
			result = append(result, e)
		}
	}
	d.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// MemoryBudgets serves department budgets and team capacity from memory.
type MemoryBudgets struct {
	mu       sync.RWMutex
	budgets  map[string]domain.DepartmentBudget
	capacity map[string]decimal.Decimal
}

// NewMemoryBudgets creates an empty budget source.
func NewMemoryBudgets() *MemoryBudgets {
	return &MemoryBudgets{
		budgets:  make(map[string]domain.DepartmentBudget),
		capacity: make(map[string]decimal.Decimal),
	}
}

// SetBudget stores the budget for budget.ManagerID.
func (b *MemoryBudgets) SetBudget(budget domain.DepartmentBudget) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budgets[budget.ManagerID] = budget
}

// SetExpectedHours stores the monthly team capacity for a manager.
func (b *MemoryBudgets) SetExpectedHours(managerID string, hours decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.capacity[managerID] = hours
}

func (b *MemoryBudgets) GetByManager(_ context.Context, managerID string) (*domain.DepartmentBudget, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	budget, ok := b.budgets[managerID]
	if !ok {
		return nil, ErrNotFound
	}
	return &budget, nil
}

func (b *MemoryBudgets) ExpectedHours(_ context.Context, managerID string, _ time.Time) (decimal.Decimal, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hours, ok := b.capacity[managerID]
	if !ok {
		return decimal.Zero, ErrNotFound
	}
	return hours, nil
}
