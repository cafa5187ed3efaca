package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/workticket-service/internal/aggregate"
	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/policy"
	"github.com/spec-kit/workticket-service/internal/repository"
	apperrors "github.com/spec-kit/workticket-service/pkg/util/errorutil"
)

// EmployeeRollup is an employee's compensable hours and earnings for the
// ISO week and calendar month containing AsOf.
type EmployeeRollup struct {
	EmployeeID    string
	AsOf          time.Time
	WeekHours     decimal.Decimal
	WeekEarnings  decimal.Decimal
	MonthHours    decimal.Decimal
	MonthEarnings decimal.Decimal
}

// AggregationService loads snapshots and hands them to the pure aggregate functions.
type AggregationService struct {
	tickets         repository.TicketRepository
	directory       repository.EmployeeDirectory
	budgets         repository.BudgetSource
	capacity        repository.CapacitySource
	policy          policy.Policy
	defaultCapacity decimal.Decimal
	logger          *zap.Logger
}

// AggregationDependencies bundles collaborators for the aggregation service.
type AggregationDependencies struct {
	TicketRepo repository.TicketRepository
	Directory  repository.EmployeeDirectory
	Budgets    repository.BudgetSource
	Capacity   repository.CapacitySource
	Policy     policy.Policy
	// DefaultCapacityHours is used when Capacity is nil or has no figure for a manager.
	DefaultCapacityHours decimal.Decimal
	Logger               *zap.Logger
}

// NewAggregationService constructs the service.
func NewAggregationService(deps AggregationDependencies) *AggregationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregationService{
		tickets:         deps.TicketRepo,
		directory:       deps.Directory,
		budgets:         deps.Budgets,
		capacity:        deps.Capacity,
		policy:          deps.Policy,
		defaultCapacity: deps.DefaultCapacityHours,
		logger:          logger,
	}
}

// EmployeeRollup returns week and month totals for employeeID.
func (s *AggregationService) EmployeeRollup(ctx context.Context, actorID, employeeID string, now time.Time) (*EmployeeRollup, error) {
	if _, err := s.lookup(ctx, employeeID, "employee"); err != nil {
		return nil, err
	}
	if !s.policy.CanViewEmployee(ctx, actorID, employeeID) {
		return nil, apperrors.NewForbidden("not allowed to view this employee")
	}
	snapshot, err := s.snapshot(ctx, []string{employeeID})
	if err != nil {
		return nil, err
	}
	return rollup(snapshot, employeeID, now), nil
}

// TeamStats returns the stats of the team supervised by managerID.
func (s *AggregationService) TeamStats(ctx context.Context, actorID, managerID string, now time.Time) (*aggregate.TeamStats, error) {
	manager, err := s.authorizeTeam(ctx, actorID, managerID)
	if err != nil {
		return nil, err
	}
	members, err := s.teamMembers(ctx, manager)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.snapshot(ctx, memberIDs(members))
	if err != nil {
		return nil, err
	}
	stats := aggregate.ComputeTeamStats(snapshot, memberIDs(members), now, s.expectedHours(ctx, manager.ID, now))
	return &stats, nil
}

// BudgetUtilization returns the spend position of the manager's department.
func (s *AggregationService) BudgetUtilization(ctx context.Context, actorID, managerID string) (*aggregate.BudgetUtilization, error) {
	manager, err := s.authorizeTeam(ctx, actorID, managerID)
	if err != nil {
		return nil, err
	}
	if s.budgets == nil {
		return nil, apperrors.NewNotFound("budget", map[string]any{"manager_id": manager.ID})
	}
	budget, err := s.budgets.GetByManager(ctx, manager.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("budget", map[string]any{"manager_id": manager.ID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	utilization := aggregate.ComputeBudgetUtilization(*budget)
	return &utilization, nil
}

func (s *AggregationService) authorizeTeam(ctx context.Context, actorID, managerID string) (*domain.Employee, error) {
	manager, err := s.lookup(ctx, managerID, "manager")
	if err != nil {
		return nil, err
	}
	if !s.policy.CanViewTeam(ctx, actorID, managerID) {
		return nil, apperrors.NewForbidden("not allowed to view this team")
	}
	return manager, nil
}

func (s *AggregationService) lookup(ctx context.Context, id, resource string) (*domain.Employee, error) {
	employee, err := s.directory.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return employee, nil
}

// teamMembers lists everyone in the manager's supervised department except the manager.
func (s *AggregationService) teamMembers(ctx context.Context, manager *domain.Employee) ([]domain.Employee, error) {
	if manager.ManagedDepartment == "" {
		return []domain.Employee{}, nil
	}
	employees, err := s.directory.ListByDepartment(ctx, manager.ManagedDepartment)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	members := make([]domain.Employee, 0, len(employees))
	for _, e := range employees {
		if e.ID != manager.ID {
			members = append(members, e)
		}
	}
	return members, nil
}

// snapshot reads every ticket of the given employees in one repository call.
func (s *AggregationService) snapshot(ctx context.Context, employeeIDs []string) ([]domain.WorkTicket, error) {
	if len(employeeIDs) == 0 {
		return []domain.WorkTicket{}, nil
	}
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{EmployeeIDs: employeeIDs})
	if err != nil {
		s.logger.Error("snapshot read failed", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

func (s *AggregationService) expectedHours(ctx context.Context, managerID string, now time.Time) decimal.Decimal {
	if s.capacity == nil {
		return s.defaultCapacity
	}
	hours, err := s.capacity.ExpectedHours(ctx, managerID, now)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("capacity lookup failed, using default", zap.String("manager_id", managerID), zap.Error(err))
		}
		return s.defaultCapacity
	}
	return hours
}

func rollup(snapshot []domain.WorkTicket, employeeID string, now time.Time) *EmployeeRollup {
	return &EmployeeRollup{
		EmployeeID:    employeeID,
		AsOf:          now,
		WeekHours:     aggregate.CurrentWeekHours(snapshot, employeeID, now),
		WeekEarnings:  aggregate.CurrentWeekEarnings(snapshot, employeeID, now),
		MonthHours:    aggregate.CurrentMonthHours(snapshot, employeeID, now),
		MonthEarnings: aggregate.CurrentMonthEarnings(snapshot, employeeID, now),
	}
}

func memberIDs(members []domain.Employee) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}
