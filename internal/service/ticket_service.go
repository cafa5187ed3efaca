package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/spec-kit/workticket-service/internal/clock"
	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/events"
	"github.com/spec-kit/workticket-service/internal/policy"
	"github.com/spec-kit/workticket-service/internal/ratecard"
	"github.com/spec-kit/workticket-service/internal/repository"
	"github.com/spec-kit/workticket-service/internal/timemath"
	apperrors "github.com/spec-kit/workticket-service/pkg/util/errorutil"
)

// DurationCalculator turns a work date and wall-clock range into hours.
type DurationCalculator interface {
	ComputeDuration(date time.Time, startTime, endTime string) (decimal.Decimal, error)
}

// RateResolver returns an employee's current hourly rate.
type RateResolver interface {
	Resolve(ctx context.Context, employeeID string) (decimal.Decimal, error)
}

// TicketService owns the work ticket lifecycle: creation and the single
// pending -> approved|rejected decision.
type TicketService struct {
	tickets    repository.TicketRepository
	directory  repository.EmployeeDirectory
	numbers    repository.TicketNumberer
	durations  DurationCalculator
	rates      RateResolver
	policy     policy.Policy
	dispatcher events.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Directory  repository.EmployeeDirectory
	Numberer   repository.TicketNumberer
	Durations  DurationCalculator
	Rates      RateResolver
	Policy     policy.Policy
	Dispatcher events.Dispatcher
	Clock      clock.Clock
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	EmployeeID  string
	ProjectName string
	Description string
	Date        time.Time
	StartTime   string
	EndTime     string
}

// TicketListFilter describes listing filters. Date bounds are inclusive.
type TicketListFilter struct {
	EmployeeID *string
	Department *string
	Statuses   []domain.TicketStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	s := &TicketService{
		tickets:    deps.TicketRepo,
		directory:  deps.Directory,
		numbers:    deps.Numberer,
		durations:  deps.Durations,
		rates:      deps.Rates,
		policy:     deps.Policy,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
	if s.durations == nil {
		s.durations = timemath.NewCalculator(timemath.DefaultMaxShiftHours)
	}
	if s.rates == nil {
		s.rates = ratecard.New(deps.Directory)
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// CreateTicket records a pending ticket for input.EmployeeID on behalf of actorID.
// Hours, the rate snapshot and the amount are fixed here and never recomputed.
func (s *TicketService) CreateTicket(ctx context.Context, actorID string, input TicketCreateInput) (*domain.WorkTicket, error) {
	employee, err := s.employee(ctx, input.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanCreateFor(ctx, actorID, employee.ID) {
		return nil, apperrors.NewForbidden("not allowed to create tickets for this employee")
	}
	if !employee.Active {
		return nil, apperrors.NewValidationError("employee is inactive", map[string]any{"employee_id": employee.ID})
	}

	projectName := strings.TrimSpace(input.ProjectName)
	description := strings.TrimSpace(input.Description)
	missing := []string{}
	if projectName == "" {
		missing = append(missing, "project_name")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("required fields missing", map[string]any{"fields": missing})
	}

	workDate := timemath.CivilDate(input.Date)
	hours, err := s.durations.ComputeDuration(workDate, input.StartTime, input.EndTime)
	if err != nil {
		return nil, err
	}
	rate, err := s.rates.Resolve(ctx, employee.ID)
	if err != nil {
		return nil, err
	}
	number, err := s.numbers.Next(ctx)
	if err != nil {
		s.logger.Error("ticket number allocation failed", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	ticket := &domain.WorkTicket{
		ID:                 uuid.NewString(),
		TicketNumber:       number,
		EmployeeID:         employee.ID,
		ProjectName:        projectName,
		Description:        description,
		Date:               workDate,
		StartTime:          strings.TrimSpace(input.StartTime),
		EndTime:            strings.TrimSpace(input.EndTime),
		TotalHours:         hours,
		HourlyRateSnapshot: rate,
		TotalAmount:        ratecard.Amount(hours, rate),
		Status:             domain.TicketStatusPending,
		CreatedBy:          actorID,
		CreatedAt:          s.clock.Now(),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.logger.Error("ticket create failed", zap.String("ticket_number", number), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("employee_id", ticket.EmployeeID),
		zap.String("actor_id", actorID),
		zap.String("total_hours", ticket.TotalHours.StringFixed(2)))
	s.publishEvent(ctx, events.Event{
		Type:         events.EventTicketCreated,
		TicketID:     ticket.ID,
		TicketNumber: ticket.TicketNumber,
		ActorID:      actorID,
		Payload: events.TicketCreatedPayload{
			EmployeeID:  ticket.EmployeeID,
			ProjectName: ticket.ProjectName,
			WorkDate:    timemath.FormatDate(ticket.Date),
			TotalHours:  ticket.TotalHours.StringFixed(2),
			TotalAmount: ticket.TotalAmount.StringFixed(2),
		},
	})
	return ticket, nil
}

// ApproveTicket moves a pending ticket to approved. A second call on the same
// ticket fails with InvalidState.
func (s *TicketService) ApproveTicket(ctx context.Context, actorID, ticketID string) (*domain.WorkTicket, error) {
	return s.decide(ctx, actorID, ticketID, domain.TicketStatusApproved, "")
}

// RejectTicket moves a pending ticket to rejected with a mandatory reason.
func (s *TicketService) RejectTicket(ctx context.Context, actorID, ticketID, reason string) (*domain.WorkTicket, error) {
	return s.decide(ctx, actorID, ticketID, domain.TicketStatusRejected, reason)
}

func (s *TicketService) decide(ctx context.Context, actorID, ticketID string, to domain.TicketStatus, reason string) (*domain.WorkTicket, error) {
	ticket, err := s.ticket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanDecide(ctx, actorID, ticket) {
		return nil, apperrors.NewForbidden("not allowed to decide this ticket")
	}
	reason = strings.TrimSpace(reason)
	if to == domain.TicketStatusRejected && reason == "" {
		return nil, apperrors.NewValidationError("rejection reason required", map[string]any{"fields": []string{"reason"}})
	}
	if ticket.Status != domain.TicketStatusPending {
		return nil, invalidState(ticket)
	}

	decision := &domain.TicketDecision{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		ToStatus:  to,
		ActorID:   actorID,
		Reason:    reason,
		CreatedAt: s.clock.Now(),
	}
	updated, err := s.tickets.Decide(ctx, ticket.ID, decision)
	switch {
	case errors.Is(err, repository.ErrNotPending):
		current, getErr := s.ticket(ctx, ticket.ID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, invalidState(current)
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	case err != nil:
		s.logger.Error("ticket decision failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("ticket decided",
		zap.String("ticket_id", updated.ID),
		zap.String("ticket_number", updated.TicketNumber),
		zap.String("actor_id", actorID),
		zap.String("status", string(updated.Status)))

	eventType := events.EventTicketApproved
	if to == domain.TicketStatusRejected {
		eventType = events.EventTicketRejected
	}
	s.publishEvent(ctx, events.Event{
		Type:         eventType,
		TicketID:     updated.ID,
		TicketNumber: updated.TicketNumber,
		ActorID:      actorID,
		Payload: events.TicketDecidedPayload{
			EmployeeID: updated.EmployeeID,
			Reason:     reason,
		},
	})
	return updated, nil
}

// GetTicket returns a ticket the actor is allowed to see.
func (s *TicketService) GetTicket(ctx context.Context, actorID, ticketID string) (*domain.WorkTicket, error) {
	ticket, err := s.ticket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanView(ctx, actorID, ticket) {
		return nil, apperrors.NewForbidden("not allowed to view this ticket")
	}
	return ticket, nil
}

// ListDecisions returns the decision audit trail of a visible ticket.
func (s *TicketService) ListDecisions(ctx context.Context, actorID, ticketID string) ([]domain.TicketDecision, error) {
	if _, err := s.GetTicket(ctx, actorID, ticketID); err != nil {
		return nil, err
	}
	decisions, err := s.tickets.ListDecisions(ctx, ticketID)
	if err != nil {
		return nil, s.mapRepoError(err, "ticket", ticketID)
	}
	return decisions, nil
}

// ListTickets is the unscoped read over the store.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.WorkTicket, error) {
	repoFilter, err := toRepoFilter(filter)
	if err != nil {
		return nil, err
	}
	if filter.Department != nil {
		ids, err := s.departmentMembers(ctx, *filter.Department, "")
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []domain.WorkTicket{}, nil
		}
		repoFilter.EmployeeIDs = ids
	}
	return s.list(ctx, repoFilter)
}

// ListTicketsForActor applies the actor's visibility: employees see their own
// tickets, managers their department plus their own, admins everything.
func (s *TicketService) ListTicketsForActor(ctx context.Context, actorID string, filter TicketListFilter) ([]domain.WorkTicket, error) {
	actor, err := s.directory.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewForbidden("unknown actor")
		}
		return nil, apperrors.NewInternalError(err)
	}

	repoFilter, err := toRepoFilter(filter)
	if err != nil {
		return nil, err
	}
	if filter.EmployeeID != nil && !s.policy.CanViewEmployee(ctx, actorID, *filter.EmployeeID) {
		return nil, apperrors.NewForbidden("not allowed to view this employee's tickets")
	}
	if filter.Department != nil && actor.Role != domain.RoleAdmin && !actor.Supervises(*filter.Department) {
		return nil, apperrors.NewForbidden("not allowed to view this department's tickets")
	}

	switch {
	case filter.Department != nil:
		ids, err := s.departmentMembers(ctx, *filter.Department, "")
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return []domain.WorkTicket{}, nil
		}
		repoFilter.EmployeeIDs = ids
	case actor.Role == domain.RoleAdmin, filter.EmployeeID != nil:
	case actor.Role == domain.RoleManager && actor.ManagedDepartment != "":
		ids, err := s.departmentMembers(ctx, actor.ManagedDepartment, actor.ID)
		if err != nil {
			return nil, err
		}
		repoFilter.EmployeeIDs = append([]string{actor.ID}, ids...)
	default:
		own := actor.ID
		repoFilter.EmployeeID = &own
	}
	return s.list(ctx, repoFilter)
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter) ([]domain.WorkTicket, error) {
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		s.logger.Error("ticket list failed", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

func (s *TicketService) departmentMembers(ctx context.Context, department, exclude string) ([]string, error) {
	members, err := s.directory.ListByDepartment(ctx, department)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m.ID != exclude {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func toRepoFilter(filter TicketListFilter) (repository.TicketFilter, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return repository.TicketFilter{}, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
	}
	out := repository.TicketFilter{
		EmployeeID: filter.EmployeeID,
		Statuses:   filter.Statuses,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if filter.DateFrom != nil {
		from := timemath.CivilDate(*filter.DateFrom)
		out.DateFrom = &from
	}
	if filter.DateTo != nil {
		to := timemath.CivilDate(*filter.DateTo)
		out.DateTo = &to
	}
	if out.DateFrom != nil && out.DateTo != nil && out.DateFrom.After(*out.DateTo) {
		return repository.TicketFilter{}, apperrors.NewValidationError("date_from is after date_to", nil)
	}
	return out, nil
}

func (s *TicketService) ticket(ctx context.Context, ticketID string) (*domain.WorkTicket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, s.mapRepoError(err, "ticket", ticketID)
	}
	return ticket, nil
}

func (s *TicketService) employee(ctx context.Context, employeeID string) (*domain.Employee, error) {
	employee, err := s.directory.GetByID(ctx, employeeID)
	if err != nil {
		return nil, s.mapRepoError(err, "employee", employeeID)
	}
	return employee, nil
}

func (s *TicketService) mapRepoError(err error, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{resource + "_id": id})
	}
	s.logger.Error("repository read failed", zap.String("resource", resource), zap.String("id", id), zap.Error(err))
	return apperrors.NewInternalError(err)
}

func invalidState(ticket *domain.WorkTicket) error {
	return apperrors.NewInvalidState("ticket already decided", map[string]any{
		"ticket_id": ticket.ID,
		"status":    ticket.Status,
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
