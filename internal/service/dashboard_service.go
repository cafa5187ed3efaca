package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/spec-kit/workticket-service/internal/aggregate"
	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/repository"
	apperrors "github.com/spec-kit/workticket-service/pkg/util/errorutil"
)

// EmployeeProfile is the directory view shown on dashboards. Credentials are never included.
type EmployeeProfile struct {
	ID         string
	Name       string
	Email      string
	Department string
	Role       domain.Role
	HourlyRate string
	Active     bool
}

// EmployeeDashboard is the employee's own view.
type EmployeeDashboard struct {
	Profile  EmployeeProfile
	Pending  []domain.WorkTicket
	Approved []domain.WorkTicket
	Rejected []domain.WorkTicket
	Totals   EmployeeRollup
}

// ManagerDashboard is the manager's team view. Budget is nil when the
// manager has no department budget on file.
type ManagerDashboard struct {
	Manager      EmployeeProfile
	Team         []EmployeeProfile
	PendingQueue []domain.WorkTicket
	Stats        aggregate.TeamStats
	Budget       *aggregate.BudgetUtilization
	GeneratedAt  time.Time
}

// DashboardService assembles dashboards from one snapshot per request.
type DashboardService struct {
	agg *AggregationService
}

// NewDashboardService builds dashboards on top of the aggregation service's sources.
func NewDashboardService(agg *AggregationService) *DashboardService {
	return &DashboardService{agg: agg}
}

// EmployeeDashboard is self-only, whatever the actor's role.
func (s *DashboardService) EmployeeDashboard(ctx context.Context, actorID, employeeID string, now time.Time) (*EmployeeDashboard, error) {
	employee, err := s.agg.lookup(ctx, employeeID, "employee")
	if err != nil {
		return nil, err
	}
	if actorID != employeeID {
		return nil, apperrors.NewForbidden("employee dashboards are visible to their owner only")
	}
	snapshot, err := s.agg.snapshot(ctx, []string{employee.ID})
	if err != nil {
		return nil, err
	}

	out := &EmployeeDashboard{
		Profile:  profile(employee),
		Pending:  []domain.WorkTicket{},
		Approved: []domain.WorkTicket{},
		Rejected: []domain.WorkTicket{},
		Totals:   *rollup(snapshot, employee.ID, now),
	}
	for _, ticket := range snapshot {
		switch ticket.Status {
		case domain.TicketStatusPending:
			out.Pending = append(out.Pending, ticket)
		case domain.TicketStatusApproved:
			out.Approved = append(out.Approved, ticket)
		case domain.TicketStatusRejected:
			out.Rejected = append(out.Rejected, ticket)
		}
	}
	return out, nil
}

// ManagerDashboard returns the roster, the oldest-first pending queue, team
// stats and the budget, all derived from the same snapshot.
func (s *DashboardService) ManagerDashboard(ctx context.Context, actorID, managerID string, now time.Time) (*ManagerDashboard, error) {
	manager, err := s.agg.authorizeTeam(ctx, actorID, managerID)
	if err != nil {
		return nil, err
	}
	members, err := s.agg.teamMembers(ctx, manager)
	if err != nil {
		return nil, err
	}
	ids := memberIDs(members)
	snapshot, err := s.agg.snapshot(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := &ManagerDashboard{
		Manager:      profile(manager),
		Team:         make([]EmployeeProfile, 0, len(members)),
		PendingQueue: pendingQueue(snapshot),
		Stats:        aggregate.ComputeTeamStats(snapshot, ids, now, s.agg.expectedHours(ctx, manager.ID, now)),
		GeneratedAt:  now,
	}
	for i := range members {
		out.Team = append(out.Team, profile(&members[i]))
	}

	if s.agg.budgets != nil {
		budget, err := s.agg.budgets.GetByManager(ctx, manager.ID)
		switch {
		case err == nil:
			utilization := aggregate.ComputeBudgetUtilization(*budget)
			out.Budget = &utilization
		case !errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewInternalError(err)
		}
	}
	return out, nil
}

// pendingQueue orders pending tickets oldest-first; ticket number breaks ties.
func pendingQueue(snapshot []domain.WorkTicket) []domain.WorkTicket {
	queue := make([]domain.WorkTicket, 0)
	for _, ticket := range snapshot {
		if ticket.Status == domain.TicketStatusPending {
			queue = append(queue, ticket)
		}
	}
	sort.SliceStable(queue, func(i, j int) bool {
		if !queue[i].CreatedAt.Equal(queue[j].CreatedAt) {
			return queue[i].CreatedAt.Before(queue[j].CreatedAt)
		}
		return queue[i].TicketNumber < queue[j].TicketNumber
	})
	return queue
}

func profile(e *domain.Employee) EmployeeProfile {
	return EmployeeProfile{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		Department: e.Department,
		Role:       e.Role,
		HourlyRate: e.HourlyRate.StringFixed(2),
		Active:     e.Active,
	}
}
