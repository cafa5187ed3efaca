package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/workticket-service/internal/domain"
)

// MemoryTicketRepository keeps tickets in process memory.
//
// A single RWMutex guards the collection: Decide holds the write lock across
// its read-check-write, and readers get deep copies taken under the read lock,
// so a listing never observes a half-applied decision.
type MemoryTicketRepository struct {
	mu        sync.RWMutex
	tickets   map[string]*domain.WorkTicket
	numbers   map[string]string
	decisions map[string][]domain.TicketDecision
}

// NewMemoryTicketRepository creates an empty store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets:   make(map[string]*domain.WorkTicket),
		numbers:   make(map[string]string),
		decisions: make(map[string][]domain.TicketDecision),
	}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.WorkTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tickets[ticket.ID]; exists {
		return ErrDuplicate
	}
	if _, exists := r.numbers[ticket.TicketNumber]; exists {
		return ErrDuplicate
	}
	r.tickets[ticket.ID] = ticket.Clone()
	r.numbers[ticket.TicketNumber] = ticket.ID
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.WorkTicket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ticket.Clone(), nil
}

func (r *MemoryTicketRepository) Decide(_ context.Context, id string, decision *domain.TicketDecision) (*domain.WorkTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if ticket.Status != domain.TicketStatusPending {
		return nil, ErrNotPending
	}

	updated := ticket.Clone()
	applyDecision(updated, decision)
	r.tickets[id] = updated

	entry := *decision
	entry.TicketID = id
	entry.FromStatus = domain.TicketStatusPending
	r.decisions[id] = append(r.decisions[id], entry)
	return updated.Clone(), nil
}

func (r *MemoryTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.WorkTicket, error) {
	r.mu.RLock()
	result := make([]domain.WorkTicket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		if matchesFilter(ticket, filter) {
			result = append(result, *ticket.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].TicketNumber < result[j].TicketNumber
	})
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (r *MemoryTicketRepository) ListDecisions(_ context.Context, ticketID string) ([]domain.TicketDecision, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.tickets[ticketID]; !ok {
		return nil, ErrNotFound
	}
	return append([]domain.TicketDecision{}, r.decisions[ticketID]...), nil
}

func applyDecision(ticket *domain.WorkTicket, decision *domain.TicketDecision) {
	actor := decision.ActorID
	decidedAt := decision.CreatedAt
	ticket.Status = decision.ToStatus
	ticket.DecidedAt = &decidedAt
	switch decision.ToStatus {
	case domain.TicketStatusApproved:
		ticket.ApprovedBy = &actor
	case domain.TicketStatusRejected:
		reason := decision.Reason
		ticket.RejectedBy = &actor
		ticket.RejectionReason = &reason
	}
}
