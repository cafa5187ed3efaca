package domain

import "github.com/shopspring/decimal"

// DepartmentBudget is the allocation for the department a manager supervises.
type DepartmentBudget struct {
	ManagerID  string
	Department string
	Allocated  decimal.Decimal
	Spent      decimal.Decimal
}
