package dto

import (
	"time"

	"github.com/spec-kit/workticket-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EmployeeResponse is a directory entry without credentials.
type EmployeeResponse struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Department string      `json:"department"`
	Role       domain.Role `json:"role"`
	HourlyRate string      `json:"hourly_rate"`
	Active     bool        `json:"active"`
}
