package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/workticket-service/internal/auth"
	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/repository"
)

type seedFile struct {
	Employees []seedEmployee `json:"employees"`
	Budgets   []seedBudget   `json:"budgets"`
}

type seedEmployee struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	Password          string          `json:"password"`
	Department        string          `json:"department"`
	HourlyRate        decimal.Decimal `json:"hourly_rate"`
	Role              domain.Role     `json:"role"`
	ManagedDepartment string          `json:"managed_department"`
	Active            *bool           `json:"active"`
}

type seedBudget struct {
	ManagerID     string           `json:"manager_id"`
	Department    string           `json:"department"`
	Allocated     decimal.Decimal  `json:"allocated"`
	Spent         decimal.Decimal  `json:"spent"`
	ExpectedHours *decimal.Decimal `json:"expected_monthly_hours"`
}

// loadSeed fills the in-memory directory from a JSON file. Plain passwords
// are hashed on load.
func loadSeed(path string, directory *repository.MemoryDirectory, budgets *repository.MemoryBudgets, bcryptCost int) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}

	for _, e := range seed.Employees {
		if strings.TrimSpace(e.ID) == "" || !e.Role.Valid() {
			return fmt.Errorf("seed employee %q: id and a valid role are required", e.ID)
		}
		employee := domain.Employee{
			ID:                e.ID,
			Name:              e.Name,
			Email:             e.Email,
			Department:        e.Department,
			HourlyRate:        e.HourlyRate,
			Role:              e.Role,
			ManagedDepartment: e.ManagedDepartment,
			Active:            e.Active == nil || *e.Active,
		}
		if e.Password != "" {
			hash, err := auth.HashPassword(e.Password, bcryptCost)
			if err != nil {
				return fmt.Errorf("hash password for %q: %w", e.ID, err)
			}
			employee.PasswordHash = hash
		}
		directory.Upsert(employee)
	}

	for _, b := range seed.Budgets {
		budgets.SetBudget(domain.DepartmentBudget{
			ManagerID:  b.ManagerID,
			Department: b.Department,
			Allocated:  b.Allocated,
			Spent:      b.Spent,
		})
		if b.ExpectedHours != nil {
			budgets.SetExpectedHours(b.ManagerID, *b.ExpectedHours)
		}
	}
	return nil
}
