package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/workticket-service/internal/events"
)

// NotificationService reacts to ticket events. Delivery to people is out of
// its hands; it records what would be sent.
type NotificationService struct {
	logger *zap.Logger
}

// NewNotificationService subscribes the service to every ticket event.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger}
	dispatcher.Subscribe(events.EventTicketCreated, s.handle)
	dispatcher.Subscribe(events.EventTicketApproved, s.handle)
	dispatcher.Subscribe(events.EventTicketRejected, s.handle)
	return s
}

func (s *NotificationService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("ticket_number", event.TicketNumber),
		zap.String("actor_id", event.ActorID),
	}
	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		fields = append(fields,
			zap.String("notify", "approvers"),
			zap.String("employee_id", payload.EmployeeID),
			zap.String("total_hours", payload.TotalHours))
	case events.TicketDecidedPayload:
		fields = append(fields,
			zap.String("notify", "employee"),
			zap.String("employee_id", payload.EmployeeID))
		if payload.Reason != "" {
			fields = append(fields, zap.String("reason", payload.Reason))
		}
	}
	s.logger.Info("ticket notification", fields...)
	return nil
}
