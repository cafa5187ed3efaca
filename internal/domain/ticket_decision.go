package domain

import "time"

// TicketDecision is an immutable audit entry for an approve or reject.
type TicketDecision struct {
	ID         string
	TicketID   string
	FromStatus TicketStatus
	ToStatus   TicketStatus
	ActorID    string
	Reason     string
	CreatedAt  time.Time
}
