package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/workticket-service/internal/domain"
)

func newTicket(id, employeeID string, date time.Time, createdAt time.Time) *domain.WorkTicket {
	return &domain.WorkTicket{
		ID:                 id,
		TicketNumber:       "WT-" + id,
		EmployeeID:         employeeID,
		ProjectName:        "Website",
		Description:        "Layout fixes",
		Date:               date,
		StartTime:          "09:00",
		EndTime:            "17:00",
		TotalHours:         decimal.NewFromInt(8),
		HourlyRateSnapshot: decimal.NewFromInt(20),
		TotalAmount:        decimal.NewFromInt(160),
		Status:             domain.TicketStatusPending,
		CreatedBy:          employeeID,
		CreatedAt:          createdAt,
	}
}

func TestMemoryTicketRepository_CreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, newTicket("t1", "e1", day, day)))
	require.ErrorIs(t, repo.Create(ctx, newTicket("t1", "e1", day, day)), ErrDuplicate)

	sameNumber := newTicket("t2", "e1", day, day)
	sameNumber.TicketNumber = "WT-t1"
	require.ErrorIs(t, repo.Create(ctx, sameNumber), ErrDuplicate)
}

func TestMemoryTicketRepository_DecideOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newTicket("t1", "e1", day, day)))

	decidedAt := day.Add(2 * time.Hour)
	updated, err := repo.Decide(ctx, "t1", &domain.TicketDecision{
		ID: "d1", ToStatus: domain.TicketStatusApproved, ActorID: "m1", CreatedAt: decidedAt,
	})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusApproved, updated.Status)
	require.Equal(t, "m1", *updated.ApprovedBy)
	require.Nil(t, updated.RejectionReason)
	require.Equal(t, decidedAt, *updated.DecidedAt)

	_, err = repo.Decide(ctx, "t1", &domain.TicketDecision{
		ID: "d2", ToStatus: domain.TicketStatusRejected, ActorID: "m1", Reason: "late", CreatedAt: decidedAt,
	})
	require.ErrorIs(t, err, ErrNotPending)

	_, err = repo.Decide(ctx, "missing", &domain.TicketDecision{ToStatus: domain.TicketStatusApproved})
	require.ErrorIs(t, err, ErrNotFound)

	decisions, err := repo.ListDecisions(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	require.Equal(t, domain.TicketStatusPending, decisions[0].FromStatus)
	require.Equal(t, domain.TicketStatusApproved, decisions[0].ToStatus)
}

func TestMemoryTicketRepository_ConcurrentDecisionsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newTicket("t1", "e1", day, day)))

	const deciders = 16
	var wg sync.WaitGroup
	results := make([]error, deciders)
	for i := 0; i < deciders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := domain.TicketStatusApproved
			if i%2 == 1 {
				status = domain.TicketStatusRejected
			}
			_, results[i] = repo.Decide(ctx, "t1", &domain.TicketDecision{
				ID: fmt.Sprintf("d%d", i), ToStatus: status, ActorID: "m1", Reason: "r", CreatedAt: day,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, ErrNotPending)
	}
	require.Equal(t, 1, wins)

	decisions, err := repo.ListDecisions(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, decisions, 1)
}

func TestMemoryTicketRepository_ReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	day := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, newTicket("t1", "e1", day, day)))

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	got.Status = domain.TicketStatusApproved

	again, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusPending, again.Status)
}

func TestMemoryTicketRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		employee := "e1"
		if i%2 == 1 {
			employee = "e2"
		}
		day := time.Date(2025, 1, 10+i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Create(ctx, newTicket(fmt.Sprintf("t%d", i), employee, day, base.Add(time.Duration(i)*time.Minute))))
	}
	_, err := repo.Decide(ctx, "t0", &domain.TicketDecision{ID: "d", ToStatus: domain.TicketStatusApproved, ActorID: "m", CreatedAt: base})
	require.NoError(t, err)

	e1 := "e1"
	byEmployee, err := repo.List(ctx, TicketFilter{EmployeeID: &e1})
	require.NoError(t, err)
	require.Len(t, byEmployee, 3)
	require.Equal(t, "t0", byEmployee[0].ID)

	pending, err := repo.List(ctx, TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusPending}})
	require.NoError(t, err)
	require.Len(t, pending, 5)

	from := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	ranged, err := repo.List(ctx, TicketFilter{DateFrom: &from, DateTo: &to})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	require.Equal(t, "t2", ranged[0].ID)
	require.Equal(t, "t3", ranged[1].ID)

	paged, err := repo.List(ctx, TicketFilter{EmployeeIDs: []string{"e2"}, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 2)
	require.Equal(t, "t3", paged[0].ID)

	beyond, err := repo.List(ctx, TicketFilter{Offset: 50})
	require.NoError(t, err)
	require.Empty(t, beyond)
}

func TestMemoryTicketNumberer(t *testing.T) {
	ctx := context.Background()
	n := NewMemoryTicketNumberer("")

	seen := make(map[string]struct{})
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, _ := n.Next(ctx)
			mu.Lock()
			seen[num] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	require.Len(t, seen, 50)
	require.Equal(t, "WT-000042", FormatTicketNumber("WT", 42))
}

func TestMemoryDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryDirectory(
		domain.Employee{ID: "e1", Email: "Ann@example.com", Department: "design", HourlyRate: decimal.NewFromInt(20)},
		domain.Employee{ID: "e2", Email: "bob@example.com", Department: "ops"},
	)

	got, err := dir.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, "e1", got.ID)

	require.NoError(t, dir.SetHourlyRate("e1", decimal.NewFromInt(30)))
	got, err = dir.GetByID(ctx, "e1")
	require.NoError(t, err)
	require.True(t, decimal.NewFromInt(30).Equal(got.HourlyRate))

	design, err := dir.ListByDepartment(ctx, "design")
	require.NoError(t, err)
	require.Len(t, design, 1)

	_, err = dir.GetByID(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}
