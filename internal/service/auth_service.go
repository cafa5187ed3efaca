package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/workticket-service/internal/auth"
	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/repository"
	apperrors "github.com/spec-kit/workticket-service/pkg/util/errorutil"
)

// AuthService authenticates employees against directory credentials.
type AuthService struct {
	directory repository.EmployeeDirectory
	tokens    *auth.TokenManager
	logger    *zap.Logger
}

// LoginResult carries the issued token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Employee  *domain.Employee
}

// NewAuthService constructs the service.
func NewAuthService(directory repository.EmployeeDirectory, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{directory: directory, tokens: tokens, logger: logger}
}

// Login verifies the password and issues a bearer token. Unknown emails,
// wrong passwords and inactive employees all fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	employee, err := s.directory.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.NewInternalError(err)
	}
	if employee.PasswordHash == "" || auth.ComparePassword(employee.PasswordHash, password) != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !employee.Active {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(employee.ID, employee.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("employee logged in", zap.String("employee_id", employee.ID), zap.String("role", string(employee.Role)))
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Employee: employee}, nil
}
