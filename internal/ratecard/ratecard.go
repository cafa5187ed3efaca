// Package ratecard resolves the hourly rate that gets frozen onto a new ticket.
package ratecard

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/workticket-service/internal/repository"
	apperrors "github.com/spec-kit/workticket-service/pkg/util/errorutil"
)

// RateCard looks rates up in the employee directory. Nothing is cached: each
// call reads the live rate, and the caller snapshots it.
type RateCard struct {
	directory repository.EmployeeDirectory
}

// New builds a RateCard over the directory.
func New(directory repository.EmployeeDirectory) *RateCard {
	return &RateCard{directory: directory}
}

// Resolve returns the employee's current hourly rate rounded to cents.
func (r *RateCard) Resolve(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	employee, err := r.directory.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, apperrors.NewNotFound("employee", map[string]any{"employee_id": employeeID})
		}
		return decimal.Zero, apperrors.MapError(err)
	}
	if employee.HourlyRate.IsNegative() {
		return decimal.Zero, apperrors.NewValidationError("employee hourly rate is negative", map[string]any{"employee_id": employeeID})
	}
	return employee.HourlyRate.Round(2), nil
}

// Amount is hours x rate rounded to cents.
func Amount(hours, rate decimal.Decimal) decimal.Decimal {
	return hours.Mul(rate).Round(2)
}
