package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/workticket-service/internal/domain"
)

// DepartmentBudgetRepository reads budgets and capacity for the department a
// manager supervises. It serves both BudgetSource and CapacitySource.
type DepartmentBudgetRepository struct {
	pool *pgxpool.Pool
}

// NewDepartmentBudgetRepository builds the repository.
func NewDepartmentBudgetRepository(pool *pgxpool.Pool) *DepartmentBudgetRepository {
	return &DepartmentBudgetRepository{pool: pool}
}

func (r *DepartmentBudgetRepository) GetByManager(ctx context.Context, managerID string) (*domain.DepartmentBudget, error) {
	const query = `
        SELECT e.id, b.department, b.allocated, b.spent
        FROM employees e
        JOIN department_budgets b ON b.department = e.managed_department
        WHERE e.id=$1`
	var budget domain.DepartmentBudget
	err := r.pool.QueryRow(ctx, query, managerID).Scan(
		&budget.ManagerID,
		&budget.Department,
		&budget.Allocated,
		&budget.Spent,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *DepartmentBudgetRepository) ExpectedHours(ctx context.Context, managerID string, _ time.Time) (decimal.Decimal, error) {
	const query = `
        SELECT b.expected_monthly_hours
        FROM employees e
        JOIN department_budgets b ON b.department = e.managed_department
        WHERE e.id=$1`
	var hours decimal.Decimal
	err := r.pool.QueryRow(ctx, query, managerID).Scan(&hours)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	return hours, nil
}
