package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus enumerates lifecycle states for work tickets.
type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusApproved TicketStatus = "approved"
	TicketStatusRejected TicketStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusApproved, TicketStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusApproved || s == TicketStatusRejected
}

// WorkTicket is a block of hourly work submitted for approval.
//
// Everything except Status, ApprovedBy, RejectedBy, RejectionReason and
// DecidedAt is fixed at creation. The decision fields are written once.
type WorkTicket struct {
	ID                 string
	TicketNumber       string
	EmployeeID         string
	ProjectName        string
	Description        string
	Date               time.Time
	StartTime          string
	EndTime            string
	TotalHours         decimal.Decimal
	HourlyRateSnapshot decimal.Decimal
	TotalAmount        decimal.Decimal
	Status             TicketStatus
	ApprovedBy         *string
	RejectedBy         *string
	RejectionReason    *string
	CreatedBy          string
	CreatedAt          time.Time
	DecidedAt          *time.Time
}

// Clone returns a deep copy so callers never share decision pointers with the store.
func (t *WorkTicket) Clone() *WorkTicket {
	if t == nil {
		return nil
	}
	out := *t
	out.ApprovedBy = cloneString(t.ApprovedBy)
	out.RejectedBy = cloneString(t.RejectedBy)
	out.RejectionReason = cloneString(t.RejectionReason)
	if t.DecidedAt != nil {
		decided := *t.DecidedAt
		out.DecidedAt = &decided
	}
	return &out
}

// Compensable reports whether the ticket counts toward hours and earnings rollups.
func (t *WorkTicket) Compensable() bool {
	return t.Status != TicketStatusRejected
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
