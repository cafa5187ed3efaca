package dto

import (
	"time"

	"github.com/spec-kit/workticket-service/internal/domain"
)

// CreateTicketRequest payload. EmployeeID defaults to the caller; only
// admins may set it to someone else.
type CreateTicketRequest struct {
	EmployeeID  string `json:"employee_id"`
	ProjectName string `json:"project_name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// RejectTicketRequest payload.
type RejectTicketRequest struct {
	Reason string `json:"reason"`
}

// TicketResponse is the wire form of a work ticket. Money and hours are
// fixed two-decimal strings.
type TicketResponse struct {
	ID                 string              `json:"id"`
	TicketNumber       string              `json:"ticket_number"`
	EmployeeID         string              `json:"employee_id"`
	ProjectName        string              `json:"project_name"`
	Description        string              `json:"description"`
	Date               string              `json:"date"`
	StartTime          string              `json:"start_time"`
	EndTime            string              `json:"end_time"`
	TotalHours         string              `json:"total_hours"`
	HourlyRateSnapshot string              `json:"hourly_rate_snapshot"`
	TotalAmount        string              `json:"total_amount"`
	Status             domain.TicketStatus `json:"status"`
	ApprovedBy         *string             `json:"approved_by,omitempty"`
	RejectedBy         *string             `json:"rejected_by,omitempty"`
	RejectionReason    *string             `json:"rejection_reason,omitempty"`
	CreatedBy          string              `json:"created_by"`
	CreatedAt          time.Time           `json:"created_at"`
	DecidedAt          *time.Time          `json:"decided_at,omitempty"`
}

// TicketDecisionResponse is one audit entry.
type TicketDecisionResponse struct {
	ID         string              `json:"id"`
	TicketID   string              `json:"ticket_id"`
	FromStatus domain.TicketStatus `json:"from_status"`
	ToStatus   domain.TicketStatus `json:"to_status"`
	ActorID    string              `json:"actor_id"`
	Reason     string              `json:"reason,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}
