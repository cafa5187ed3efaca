package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workticket-service/internal/api/dto"
	"github.com/spec-kit/workticket-service/internal/clock"
	"github.com/spec-kit/workticket-service/internal/service"
	apperrors "github.com/spec-kit/workticket-service/pkg/util/errorutil"
)

// DashboardHandler serves rollups and dashboards. Every response is computed
// against a single reference time, taken from ?as_of= or the clock.
type DashboardHandler struct {
	aggregation *service.AggregationService
	dashboards  *service.DashboardService
	clock       clock.Clock
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(aggregation *service.AggregationService, dashboards *service.DashboardService, clk clock.Clock) *DashboardHandler {
	if clk == nil {
		clk = clock.Real()
	}
	return &DashboardHandler{aggregation: aggregation, dashboards: dashboards, clock: clk}
}

// EmployeeRollup GET /employees/:id/rollup.
func (h *DashboardHandler) EmployeeRollup(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	now, err := h.asOf(c)
	if err != nil {
		return err
	}
	rollup, err := h.aggregation.EmployeeRollup(c.UserContext(), principal.ID, c.Params("id"), now)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rollupResponse(rollup)})
}

// EmployeeDashboard GET /employees/:id/dashboard.
func (h *DashboardHandler) EmployeeDashboard(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	now, err := h.asOf(c)
	if err != nil {
		return err
	}
	dash, err := h.dashboards.EmployeeDashboard(c.UserContext(), principal.ID, c.Params("id"), now)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EmployeeDashboardResponse{
		Profile:  profileResponse(dash.Profile),
		Pending:  ticketResponses(dash.Pending),
		Approved: ticketResponses(dash.Approved),
		Rejected: ticketResponses(dash.Rejected),
		Totals:   rollupResponse(&dash.Totals),
	}})
}

// ManagerDashboard GET /managers/:id/dashboard.
func (h *DashboardHandler) ManagerDashboard(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	now, err := h.asOf(c)
	if err != nil {
		return err
	}
	dash, err := h.dashboards.ManagerDashboard(c.UserContext(), principal.ID, c.Params("id"), now)
	if err != nil {
		return err
	}
	team := make([]dto.EmployeeResponse, 0, len(dash.Team))
	for _, member := range dash.Team {
		team = append(team, profileResponse(member))
	}
	return c.JSON(fiber.Map{"data": dto.ManagerDashboardResponse{
		Manager:      profileResponse(dash.Manager),
		Team:         team,
		PendingQueue: ticketResponses(dash.PendingQueue),
		Stats:        teamStatsResponse(&dash.Stats),
		Budget:       budgetResponse(dash.Budget),
		GeneratedAt:  dash.GeneratedAt,
	}})
}

// TeamStats GET /managers/:id/team-stats.
func (h *DashboardHandler) TeamStats(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	now, err := h.asOf(c)
	if err != nil {
		return err
	}
	stats, err := h.aggregation.TeamStats(c.UserContext(), principal.ID, c.Params("id"), now)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamStatsResponse(stats)})
}

// Budget GET /managers/:id/budget.
func (h *DashboardHandler) Budget(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	budget, err := h.aggregation.BudgetUtilization(c.UserContext(), principal.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": budgetResponse(budget)})
}

func (h *DashboardHandler) asOf(c *fiber.Ctx) (time.Time, error) {
	raw := c.Query("as_of")
	if raw == "" {
		return h.clock.Now(), nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("as_of must be RFC3339", map[string]any{"value": raw})
	}
	return parsed, nil
}
