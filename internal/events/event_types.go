package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated  EventType = "ticket_created"
	EventTicketApproved EventType = "ticket_approved"
	EventTicketRejected EventType = "ticket_rejected"
)

// Event represents a domain event emitted after a ticket change is stored.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketID     string      `json:"ticket_id"`
	TicketNumber string      `json:"ticket_number"`
	ActorID      string      `json:"actor_id"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	EmployeeID  string `json:"employee_id"`
	ProjectName string `json:"project_name"`
	WorkDate    string `json:"work_date"`
	TotalHours  string `json:"total_hours"`
	TotalAmount string `json:"total_amount"`
}

// TicketDecidedPayload payload for approvals and rejections.
type TicketDecidedPayload struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason,omitempty"`
}
