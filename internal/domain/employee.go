package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role enumerates the authority levels an employee can hold.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Employee is a directory record. The engine only reads it.
type Employee struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Department   string
	HourlyRate   decimal.Decimal
	Role         Role
	// ManagedDepartment is the department a manager supervises. Empty for other roles.
	ManagedDepartment string
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Supervises reports whether the employee manages the given department.
func (e *Employee) Supervises(department string) bool {
	if e == nil || e.Role != RoleManager || e.ManagedDepartment == "" {
		return false
	}
	return e.ManagedDepartment == department
}
