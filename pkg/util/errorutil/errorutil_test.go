package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DomainError
		want string
	}{
		{
			name: "without wrapped error",
			err:  NewDomainError(CodeNotFound, "ticket not found", http.StatusNotFound, nil),
			want: "ticket not found",
		},
		{
			name: "with wrapped error",
			err:  &DomainError{Code: CodeInternal, Message: "internal server error", Err: fmt.Errorf("db down")},
			want: "internal server error: db down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestKindPredicates(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{"validation", NewValidationError("reason required", nil), IsValidation, http.StatusBadRequest},
		{"invalid range", NewInvalidRange("zero duration", nil), IsInvalidRange, http.StatusUnprocessableEntity},
		{"invalid state", NewInvalidState("already decided", nil), IsInvalidState, http.StatusConflict},
		{"forbidden", NewForbidden("not your ticket"), IsForbidden, http.StatusForbidden},
		{"not found", NewNotFound("ticket", nil), IsNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("approve: %w", tt.err)
			require.True(t, tt.check(wrapped))
			require.Equal(t, tt.status, ToDomainError(wrapped).HTTPStatus)
		})
	}

	require.False(t, IsForbidden(NewInvalidState("x", nil)))
	require.False(t, IsInvalidState(errors.New("plain")))
}

func TestToDomainError(t *testing.T) {
	require.Nil(t, ToDomainError(nil))
	require.Equal(t, CodeNotFound, ToDomainError(pgx.ErrNoRows).Code)

	inner := errors.New("boom")
	mapped := ToDomainError(inner)
	require.Equal(t, CodeInternal, mapped.Code)
	require.ErrorIs(t, mapped, inner)
}
