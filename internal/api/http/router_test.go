package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/workticket-service/internal/api/http/handlers"
	"github.com/spec-kit/workticket-service/internal/auth"
	"github.com/spec-kit/workticket-service/internal/clock"
	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/events"
	"github.com/spec-kit/workticket-service/internal/observability"
	"github.com/spec-kit/workticket-service/internal/policy"
	"github.com/spec-kit/workticket-service/internal/repository"
	"github.com/spec-kit/workticket-service/internal/service"
	"github.com/spec-kit/workticket-service/internal/timemath"
)

var testNow = time.Date(2025, 1, 15, 16, 0, 0, 0, time.UTC)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type testServer struct {
	app     *fiber.App
	tokens  *auth.TokenManager
	budgets *repository.MemoryBudgets
	metrics *observability.Metrics
}

func person(id, dept string, role domain.Role, rate string, hash string) domain.Employee {
	return domain.Employee{
		ID:           id,
		Name:         id,
		Email:        id + "@example.com",
		PasswordHash: hash,
		Department:   dept,
		HourlyRate:   decimal.RequireFromString(rate),
		Role:         role,
		Active:       true,
	}
}

func newTestServer(t *testing.T, readiness map[string]handlers.Pinger) *testServer {
	t.Helper()
	hash, err := auth.HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)

	manager := person("m1", "design", domain.RoleManager, "60", hash)
	manager.ManagedDepartment = "design"
	directory := repository.NewMemoryDirectory(
		person("e1", "design", domain.RoleEmployee, "25", hash),
		person("e2", "design", domain.RoleEmployee, "20", hash),
		person("a1", "hq", domain.RoleAdmin, "80", hash),
		manager,
	)
	tickets := repository.NewMemoryTicketRepository()
	budgets := repository.NewMemoryBudgets()
	access := policy.NewAccessPolicy(directory)
	clk := clock.NewFake(testNow)
	logger := zap.NewNop()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: tickets,
		Directory:  directory,
		Numberer:   repository.NewMemoryTicketNumberer("WT"),
		Durations:  timemath.NewCalculator(24),
		Policy:     access,
		Dispatcher: events.NewInMemoryDispatcher(logger),
		Clock:      clk,
		Logger:     logger,
	})
	aggregationService := service.NewAggregationService(service.AggregationDependencies{
		TicketRepo:           tickets,
		Directory:            directory,
		Budgets:              budgets,
		Capacity:             budgets,
		Policy:               access,
		DefaultCapacityHours: decimal.NewFromInt(160),
	})
	tokens := auth.NewTokenManager("test-secret", 30)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("workticket-service", "test", metrics, readiness),
		Auth:           handlers.NewAuthHandler(service.NewAuthService(directory, tokens, logger)),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Dashboards:     handlers.NewDashboardHandler(aggregationService, service.NewDashboardService(aggregationService), clk),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, directory),
	})
	return &testServer{app: app, tokens: tokens, budgets: budgets, metrics: metrics}
}

func (s *testServer) token(t *testing.T, employeeID string, role domain.Role) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(employeeID, role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	decoded := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), string(raw))
	}
	return resp.StatusCode, decoded
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	employee := s.token(t, "e1", domain.RoleEmployee)
	manager := s.token(t, "m1", domain.RoleManager)

	status, body := s.do(t, http.MethodPost, "/tickets", employee, map[string]string{
		"project_name": "Website",
		"description":  "Landing page",
		"date":         "2025-01-15",
		"start_time":   "09:00",
		"end_time":     "17:30",
	})
	require.Equal(t, http.StatusCreated, status, body)
	created := data(body)
	require.Equal(t, "WT-000001", created["ticket_number"])
	require.Equal(t, "8.50", created["total_hours"])
	require.Equal(t, "25.00", created["hourly_rate_snapshot"])
	require.Equal(t, "212.50", created["total_amount"])
	require.Equal(t, "pending", created["status"])
	id := created["id"].(string)

	status, body = s.do(t, http.MethodPost, "/tickets/"+id+"/approve", employee, nil)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = s.do(t, http.MethodPost, "/tickets/"+id+"/reject", manager, map[string]string{"reason": ""})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do(t, http.MethodPost, "/tickets/"+id+"/approve", manager, nil)
	require.Equal(t, http.StatusOK, status, body)
	require.Equal(t, "approved", data(body)["status"])
	require.Equal(t, "m1", data(body)["approved_by"])

	status, body = s.do(t, http.MethodPost, "/tickets/"+id+"/approve", manager, nil)
	require.Equal(t, http.StatusConflict, status)
	require.Equal(t, "INVALID_STATE", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/tickets/"+id+"/decisions", employee, nil)
	require.Equal(t, http.StatusOK, status)
	decisions := body["data"].([]any)
	require.Len(t, decisions, 1)

	status, body = s.do(t, http.MethodGet, "/tickets?status=approved", manager, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["data"].([]any), 1)

	other := s.token(t, "e2", domain.RoleEmployee)
	status, _ = s.do(t, http.MethodGet, "/tickets/"+id, other, nil)
	require.Equal(t, http.StatusForbidden, status)
}

func TestCreateTicketErrors(t *testing.T) {
	s := newTestServer(t, nil)
	employee := s.token(t, "e1", domain.RoleEmployee)

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{
			name:   "missing project",
			body:   map[string]string{"description": "x", "date": "2025-01-15", "start_time": "09:00", "end_time": "10:00"},
			status: http.StatusBadRequest,
			code:   "VALIDATION_FAILED",
		},
		{
			name:   "bad date",
			body:   map[string]string{"project_name": "p", "description": "x", "date": "15/01/2025", "start_time": "09:00", "end_time": "10:00"},
			status: http.StatusBadRequest,
			code:   "VALIDATION_FAILED",
		},
		{
			name:   "zero duration",
			body:   map[string]string{"project_name": "p", "description": "x", "date": "2025-01-15", "start_time": "09:00:00", "end_time": "09:00:05"},
			status: http.StatusUnprocessableEntity,
			code:   "INVALID_RANGE",
		},
		{
			name:   "for another employee",
			body:   map[string]string{"employee_id": "e2", "project_name": "p", "description": "x", "date": "2025-01-15", "start_time": "09:00", "end_time": "10:00"},
			status: http.StatusForbidden,
			code:   "FORBIDDEN",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodPost, "/tickets", employee, tt.body)
			require.Equal(t, tt.status, status, body)
			require.Equal(t, tt.code, errorCode(body))
		})
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, http.MethodGet, "/tickets", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, _ = s.do(t, http.MethodGet, "/tickets", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "e1@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "e1@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, status, body)
	token := data(body)["auth"].(map[string]any)["token"].(string)

	status, body = s.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "e1", data(body)["id"])
	require.NotContains(t, data(body), "password_hash")
}

func TestDashboardsOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	employee := s.token(t, "e1", domain.RoleEmployee)
	manager := s.token(t, "m1", domain.RoleManager)
	s.budgets.SetBudget(domain.DepartmentBudget{ManagerID: "m1", Department: "design", Allocated: decimal.NewFromInt(10000), Spent: decimal.NewFromInt(2500)})

	status, _ := s.do(t, http.MethodPost, "/tickets", employee, map[string]string{
		"project_name": "Website", "description": "Hero", "date": "2025-01-14", "start_time": "22:00", "end_time": "02:00",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := s.do(t, http.MethodGet, "/employees/e1/rollup", employee, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "4.00", data(body)["week_hours"])
	require.Equal(t, "100.00", data(body)["month_earnings"])

	status, body = s.do(t, http.MethodGet, "/employees/e1/dashboard", employee, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, data(body)["pending"].([]any), 1)

	status, _ = s.do(t, http.MethodGet, "/employees/e1/dashboard", manager, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, body = s.do(t, http.MethodGet, "/managers/m1/dashboard?as_of=2025-01-15T12:00:00Z", manager, nil)
	require.Equal(t, http.StatusOK, status, body)
	dash := data(body)
	require.Len(t, dash["team"].([]any), 2)
	require.Len(t, dash["pending_queue"].([]any), 1)
	stats := dash["stats"].(map[string]any)
	require.Equal(t, "4.00", stats["total_hours"])
	require.EqualValues(t, 1, stats["pending_approvals"])
	require.Equal(t, "25.00", dash["budget"].(map[string]any)["utilization_percent"])

	status, _ = s.do(t, http.MethodGet, "/managers/m1/dashboard", employee, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, body = s.do(t, http.MethodGet, "/managers/m1/team-stats?as_of=yesterday", manager, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/managers/m1/budget", manager, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "7500.00", data(body)["remaining"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	status, body := s.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "alive", body["status"])

	status, body = s.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ready", body["status"])

	status, body = s.do(t, http.MethodGet, "/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", errorCode(body))

	admin := s.token(t, "a1", domain.RoleAdmin)
	status, body = s.do(t, http.MethodGet, "/admin/metrics", admin, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, data(body)["requests"])

	status, _ = s.do(t, http.MethodGet, "/admin/metrics", s.token(t, "e1", domain.RoleEmployee), nil)
	require.Equal(t, http.StatusForbidden, status)

	degraded := newTestServer(t, map[string]handlers.Pinger{"redis": failingPinger{}})
	status, body = degraded.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))
}
