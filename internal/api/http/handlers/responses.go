package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workticket-service/internal/aggregate"
	"github.com/spec-kit/workticket-service/internal/api/dto"
	"github.com/spec-kit/workticket-service/internal/auth"
	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/service"
	"github.com/spec-kit/workticket-service/internal/timemath"
	apperrors "github.com/spec-kit/workticket-service/pkg/util/errorutil"
)

func requirePrincipal(c *fiber.Ctx) (*domain.Employee, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func ticketResponse(ticket *domain.WorkTicket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                 ticket.ID,
		TicketNumber:       ticket.TicketNumber,
		EmployeeID:         ticket.EmployeeID,
		ProjectName:        ticket.ProjectName,
		Description:        ticket.Description,
		Date:               timemath.FormatDate(ticket.Date),
		StartTime:          ticket.StartTime,
		EndTime:            ticket.EndTime,
		TotalHours:         ticket.TotalHours.StringFixed(2),
		HourlyRateSnapshot: ticket.HourlyRateSnapshot.StringFixed(2),
		TotalAmount:        ticket.TotalAmount.StringFixed(2),
		Status:             ticket.Status,
		ApprovedBy:         ticket.ApprovedBy,
		RejectedBy:         ticket.RejectedBy,
		RejectionReason:    ticket.RejectionReason,
		CreatedBy:          ticket.CreatedBy,
		CreatedAt:          ticket.CreatedAt,
		DecidedAt:          ticket.DecidedAt,
	}
}

func ticketResponses(tickets []domain.WorkTicket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}

func employeeResponse(e *domain.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:         e.ID,
		Name:       e.Name,
		Email:      e.Email,
		Department: e.Department,
		Role:       e.Role,
		HourlyRate: e.HourlyRate.StringFixed(2),
		Active:     e.Active,
	}
}

func profileResponse(p service.EmployeeProfile) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:         p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Department: p.Department,
		Role:       p.Role,
		HourlyRate: p.HourlyRate,
		Active:     p.Active,
	}
}

func rollupResponse(r *service.EmployeeRollup) dto.RollupResponse {
	return dto.RollupResponse{
		EmployeeID:    r.EmployeeID,
		AsOf:          r.AsOf,
		WeekHours:     r.WeekHours.StringFixed(2),
		WeekEarnings:  r.WeekEarnings.StringFixed(2),
		MonthHours:    r.MonthHours.StringFixed(2),
		MonthEarnings: r.MonthEarnings.StringFixed(2),
	}
}

func teamStatsResponse(s *aggregate.TeamStats) dto.TeamStatsResponse {
	return dto.TeamStatsResponse{
		MemberCount:       s.MemberCount,
		TotalHours:        s.TotalHours.StringFixed(2),
		TotalCost:         s.TotalCost.StringFixed(2),
		AverageHourlyRate: s.AverageHourlyRate.StringFixed(2),
		PendingApprovals:  s.PendingApprovals,
		ExpectedHours:     s.ExpectedHours.StringFixed(2),
		ProductivityScore: s.ProductivityScore.StringFixed(2),
	}
}

func budgetResponse(b *aggregate.BudgetUtilization) *dto.BudgetResponse {
	if b == nil {
		return nil
	}
	return &dto.BudgetResponse{
		Allocated:          b.Allocated.StringFixed(2),
		Spent:              b.Spent.StringFixed(2),
		Remaining:          b.Remaining.StringFixed(2),
		UtilizationPercent: b.UtilizationPercent.StringFixed(2),
	}
}
