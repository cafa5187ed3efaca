package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/workticket-service/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotPending is returned by Decide when the ticket already left pending.
	ErrNotPending = errors.New("ticket is not pending")
	// ErrDuplicate is returned when an id or ticket number is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// TicketFilter narrows ticket listings. Zero values mean "no constraint".
type TicketFilter struct {
	EmployeeID  *string
	EmployeeIDs []string
	Statuses    []domain.TicketStatus
	DateFrom    *time.Time
	DateTo      *time.Time
	Limit       int
	Offset      int
}

// TicketRepository owns work tickets and their single status transition.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.WorkTicket) error
	GetByID(ctx context.Context, id string) (*domain.WorkTicket, error)
	// Decide moves a pending ticket to decision.ToStatus and records the audit
	// entry as one atomic step. It returns ErrNotPending if the ticket was
	// already decided and ErrNotFound if it does not exist.
	Decide(ctx context.Context, id string, decision *domain.TicketDecision) (*domain.WorkTicket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.WorkTicket, error)
	ListDecisions(ctx context.Context, ticketID string) ([]domain.TicketDecision, error)
}

// EmployeeDirectory is the read-only employee and org lookup.
type EmployeeDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	ListByDepartment(ctx context.Context, department string) ([]domain.Employee, error)
}

// BudgetSource provides the department budget a manager is accountable for.
type BudgetSource interface {
	GetByManager(ctx context.Context, managerID string) (*domain.DepartmentBudget, error)
}

// CapacitySource provides expected team hours for the month containing month.
type CapacitySource interface {
	ExpectedHours(ctx context.Context, managerID string, month time.Time) (decimal.Decimal, error)
}

// TicketNumberer hands out human-readable ticket numbers. A number is never
// returned twice.
type TicketNumberer interface {
	Next(ctx context.Context) (string, error)
}

func matchesFilter(ticket *domain.WorkTicket, filter TicketFilter) bool {
	if filter.EmployeeID != nil && ticket.EmployeeID != *filter.EmployeeID {
		return false
	}
	if len(filter.EmployeeIDs) > 0 && !containsString(filter.EmployeeIDs, ticket.EmployeeID) {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if ticket.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.DateFrom != nil && ticket.Date.Before(*filter.DateFrom) {
		return false
	}
	if filter.DateTo != nil && ticket.Date.After(*filter.DateTo) {
		return false
	}
	return true
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
