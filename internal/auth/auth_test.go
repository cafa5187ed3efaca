package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/repository"
	apperrors "github.com/spec-kit/workticket-service/pkg/util/errorutil"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expiresAt, err := tm.GenerateToken("e1", domain.RoleManager)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "e1", claims.EmployeeID)
	require.Equal(t, domain.RoleManager, claims.Role)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	require.Error(t, err)
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := tm.GenerateToken("e1", domain.RoleEmployee)
	require.NoError(t, err)

	_, err = tm.ParseToken(token)
	require.Error(t, err)
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("hunter2", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "hunter2", hash)
	require.NoError(t, ComparePassword(hash, "hunter2"))
	require.ErrorIs(t, ComparePassword(hash, "hunter3"), ErrPasswordMismatch)
}

func TestMiddlewareAndRoleGuard(t *testing.T) {
	inactive := domain.Employee{ID: "x1", Role: domain.RoleManager, HourlyRate: decimal.Zero}
	directory := repository.NewMemoryDirectory(
		domain.Employee{ID: "e1", Role: domain.RoleEmployee, Active: true},
		domain.Employee{ID: "m1", Role: domain.RoleManager, Active: true},
		inactive,
	)
	tm := NewTokenManager("secret", 5)
	mw := NewAuthMiddleware(tm, directory)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Get("/managers", mw.Handle, RequireRole(domain.RoleManager), func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewInternalError(nil)
		}
		return c.SendString(principal.ID)
	})

	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/managers", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}
	bearer := func(id string, role domain.Role) string {
		token, _, err := tm.GenerateToken(id, role)
		require.NoError(t, err)
		return "Bearer " + token
	}

	require.Equal(t, http.StatusOK, call(bearer("m1", domain.RoleManager)))
	require.Equal(t, http.StatusUnauthorized, call(""))
	require.Equal(t, http.StatusUnauthorized, call("Basic abc"))
	require.Equal(t, http.StatusUnauthorized, call(bearer("ghost", domain.RoleManager)))
	require.Equal(t, http.StatusUnauthorized, call(bearer("x1", domain.RoleManager)))
	// The directory role wins over the role claimed in the token.
	require.Equal(t, http.StatusForbidden, call(bearer("e1", domain.RoleManager)))
}
