package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/workticket-service/internal/clock"
	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/events"
	"github.com/spec-kit/workticket-service/internal/policy"
	"github.com/spec-kit/workticket-service/internal/repository"
	"github.com/spec-kit/workticket-service/internal/timemath"
)

// Wednesday 2025-01-15 16:00 UTC.
var fixedNow = time.Date(2025, 1, 15, 16, 0, 0, 0, time.UTC)

type fixture struct {
	clock      *clock.Fake
	directory  *repository.MemoryDirectory
	tickets    *repository.MemoryTicketRepository
	budgets    *repository.MemoryBudgets
	dispatcher events.Dispatcher
	tickSvc    *TicketService
	aggSvc     *AggregationService
	dashSvc    *DashboardService

	mu        sync.Mutex
	published []events.Event
}

func employee(id, dept string, role domain.Role, rate string) domain.Employee {
	return domain.Employee{
		ID:         id,
		Name:       id,
		Email:      id + "@example.com",
		Department: dept,
		HourlyRate: decimal.RequireFromString(rate),
		Role:       role,
		Active:     true,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	manager := employee("m1", "design", domain.RoleManager, "60")
	manager.ManagedDepartment = "design"
	opsManager := employee("m2", "ops", domain.RoleManager, "55")
	opsManager.ManagedDepartment = "ops"
	inactive := employee("x1", "design", domain.RoleEmployee, "18")
	inactive.Active = false

	f := &fixture{
		clock: clock.NewFake(fixedNow),
		directory: repository.NewMemoryDirectory(
			employee("e1", "design", domain.RoleEmployee, "25"),
			employee("e2", "design", domain.RoleEmployee, "20"),
			employee("o1", "ops", domain.RoleEmployee, "30"),
			employee("a1", "hq", domain.RoleAdmin, "80"),
			manager,
			opsManager,
			inactive,
		),
		tickets: repository.NewMemoryTicketRepository(),
		budgets: repository.NewMemoryBudgets(),
	}
	f.dispatcher = events.NewInMemoryDispatcher(zap.NewNop())
	for _, eventType := range []events.EventType{events.EventTicketCreated, events.EventTicketApproved, events.EventTicketRejected} {
		f.dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.published = append(f.published, e)
			return nil
		})
	}

	access := policy.NewAccessPolicy(f.directory)
	f.tickSvc = NewTicketService(TicketDependencies{
		TicketRepo: f.tickets,
		Directory:  f.directory,
		Numberer:   repository.NewMemoryTicketNumberer("WT"),
		Durations:  timemath.NewCalculator(timemath.DefaultMaxShiftHours),
		Policy:     access,
		Dispatcher: f.dispatcher,
		Clock:      f.clock,
		Logger:     zap.NewNop(),
	})
	f.aggSvc = NewAggregationService(AggregationDependencies{
		TicketRepo:           f.tickets,
		Directory:            f.directory,
		Budgets:              f.budgets,
		Capacity:             f.budgets,
		Policy:               access,
		DefaultCapacityHours: decimal.NewFromInt(160),
	})
	f.dashSvc = NewDashboardService(f.aggSvc)
	return f
}

func (f *fixture) events() []events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.Event(nil), f.published...)
}

func (f *fixture) create(t *testing.T, actorID, employeeID, date, start, end string) *domain.WorkTicket {
	t.Helper()
	day, err := timemath.ParseDate(date)
	require.NoError(t, err)
	ticket, err := f.tickSvc.CreateTicket(context.Background(), actorID, TicketCreateInput{
		EmployeeID:  employeeID,
		ProjectName: "Website",
		Description: "Landing page",
		Date:        day,
		StartTime:   start,
		EndTime:     end,
	})
	require.NoError(t, err)
	return ticket
}
