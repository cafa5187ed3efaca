// Package aggregate derives hour and earnings rollups from a ticket snapshot.
//
// Every function is pure: the result depends only on the snapshot and the
// reference time passed in. Rejected tickets never contribute hours or money.
package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/workticket-service/internal/domain"
	"github.com/spec-kit/workticket-service/internal/timemath"
)

var hundred = decimal.NewFromInt(100)

// Totals is a sum of compensable hours and earnings.
type Totals struct {
	Hours    decimal.Decimal
	Earnings decimal.Decimal
}

// EmployeeTotals sums the employee's non-rejected tickets dated inside period.
func EmployeeTotals(snapshot []domain.WorkTicket, employeeID string, period timemath.Period) Totals {
	totals := Totals{Hours: decimal.Zero, Earnings: decimal.Zero}
	for i := range snapshot {
		ticket := &snapshot[i]
		if ticket.EmployeeID != employeeID || !ticket.Compensable() || !period.Contains(ticket.Date) {
			continue
		}
		totals.Hours = totals.Hours.Add(ticket.TotalHours)
		totals.Earnings = totals.Earnings.Add(ticket.TotalAmount)
	}
	return totals
}

func CurrentWeekHours(snapshot []domain.WorkTicket, employeeID string, now time.Time) decimal.Decimal {
	return EmployeeTotals(snapshot, employeeID, timemath.ISOWeek(now)).Hours
}

func CurrentWeekEarnings(snapshot []domain.WorkTicket, employeeID string, now time.Time) decimal.Decimal {
	return EmployeeTotals(snapshot, employeeID, timemath.ISOWeek(now)).Earnings
}

func CurrentMonthHours(snapshot []domain.WorkTicket, employeeID string, now time.Time) decimal.Decimal {
	return EmployeeTotals(snapshot, employeeID, timemath.Month(now)).Hours
}

func CurrentMonthEarnings(snapshot []domain.WorkTicket, employeeID string, now time.Time) decimal.Decimal {
	return EmployeeTotals(snapshot, employeeID, timemath.Month(now)).Earnings
}

// TeamStats summarises a manager's team for the month containing the reference time.
type TeamStats struct {
	MemberCount       int
	TotalHours        decimal.Decimal
	TotalCost         decimal.Decimal
	AverageHourlyRate decimal.Decimal
	PendingApprovals  int
	ExpectedHours     decimal.Decimal
	ProductivityScore decimal.Decimal
}

// ComputeTeamStats totals the members' non-rejected tickets dated in the month
// of now. PendingApprovals counts every pending member ticket whatever its date.
func ComputeTeamStats(snapshot []domain.WorkTicket, memberIDs []string, now time.Time, expectedHours decimal.Decimal) TeamStats {
	members := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}

	month := timemath.Month(now)
	stats := TeamStats{
		MemberCount:   len(members),
		TotalHours:    decimal.Zero,
		TotalCost:     decimal.Zero,
		ExpectedHours: expectedHours,
	}
	for i := range snapshot {
		ticket := &snapshot[i]
		if _, ok := members[ticket.EmployeeID]; !ok {
			continue
		}
		if ticket.Status == domain.TicketStatusPending {
			stats.PendingApprovals++
		}
		if !ticket.Compensable() || !month.Contains(ticket.Date) {
			continue
		}
		stats.TotalHours = stats.TotalHours.Add(ticket.TotalHours)
		stats.TotalCost = stats.TotalCost.Add(ticket.TotalAmount)
	}
	stats.AverageHourlyRate = AverageRate(stats.TotalCost, stats.TotalHours)
	stats.ProductivityScore = ProductivityScore(stats.TotalHours, expectedHours)
	return stats
}

// AverageRate is cost/hours rounded to cents, or zero when no hours were logged.
func AverageRate(cost, hours decimal.Decimal) decimal.Decimal {
	if !hours.IsPositive() {
		return decimal.Zero
	}
	return cost.Div(hours).Round(2)
}

// ProductivityScore is min(100, 100*hours/expected), clamped at zero and
// zero when no capacity is known.
func ProductivityScore(hours, expected decimal.Decimal) decimal.Decimal {
	if !expected.IsPositive() || !hours.IsPositive() {
		return decimal.Zero
	}
	score := hours.Mul(hundred).Div(expected).Round(2)
	if score.GreaterThan(hundred) {
		return hundred
	}
	return score
}

// BudgetUtilization is the spend position of a department budget.
type BudgetUtilization struct {
	Allocated          decimal.Decimal
	Spent              decimal.Decimal
	Remaining          decimal.Decimal
	UtilizationPercent decimal.Decimal
}

// ComputeBudgetUtilization derives utilization and a never-negative remainder.
func ComputeBudgetUtilization(budget domain.DepartmentBudget) BudgetUtilization {
	out := BudgetUtilization{
		Allocated:          budget.Allocated,
		Spent:              budget.Spent,
		Remaining:          decimal.Max(decimal.Zero, budget.Allocated.Sub(budget.Spent)),
		UtilizationPercent: decimal.Zero,
	}
	if budget.Allocated.IsPositive() {
		out.UtilizationPercent = budget.Spent.Mul(hundred).Div(budget.Allocated).Round(2)
	}
	return out
}
