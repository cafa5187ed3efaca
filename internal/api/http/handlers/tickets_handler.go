package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workticket-service/internal/api/dto"
	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/service"
	"github.com/spec-kit/workticket-service/internal/timemath"
	apperrors "github.com/spec-kit/workticket-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// TicketsHandler exposes the work ticket lifecycle.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		return apperrors.NewValidationError("date, start_time, end_time required", nil)
	}
	date, err := timemath.ParseDate(req.Date)
	if err != nil {
		return err
	}
	employeeID := strings.TrimSpace(req.EmployeeID)
	if employeeID == "" {
		employeeID = principal.ID
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), principal.ID, service.TicketCreateInput{
		EmployeeID:  employeeID,
		ProjectName: req.ProjectName,
		Description: req.Description,
		Date:        date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets, scoped to what the caller may see.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTicketsForActor(c.UserContext(), principal.ID, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), principal.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ApproveTicket POST /tickets/:id/approve.
func (h *TicketsHandler) ApproveTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.ApproveTicket(c.UserContext(), principal.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// RejectTicket POST /tickets/:id/reject.
func (h *TicketsHandler) RejectTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RejectTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.RejectTicket(c.UserContext(), principal.ID, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListDecisions GET /tickets/:id/decisions.
func (h *TicketsHandler) ListDecisions(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	decisions, err := h.service.ListDecisions(c.UserContext(), principal.ID, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketDecisionResponse, 0, len(decisions))
	for _, d := range decisions {
		items = append(items, dto.TicketDecisionResponse{
			ID:         d.ID,
			TicketID:   d.TicketID,
			FromStatus: d.FromStatus,
			ToStatus:   d.ToStatus,
			ActorID:    d.ActorID,
			Reason:     d.Reason,
			CreatedAt:  d.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if employeeID := strings.TrimSpace(c.Query("employee_id")); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	if department := strings.TrimSpace(c.Query("department")); department != "" {
		filter.Department = &department
	}
	if from := c.Query("date_from"); from != "" {
		parsed, err := timemath.ParseDate(from)
		if err != nil {
			return filter, err
		}
		filter.DateFrom = &parsed
	}
	if to := c.Query("date_to"); to != "" {
		parsed, err := timemath.ParseDate(to)
		if err != nil {
			return filter, err
		}
		filter.DateTo = &parsed
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
