package dto

import "time"

// RollupResponse carries week and month totals.
type RollupResponse struct {
	EmployeeID    string    `json:"employee_id"`
	AsOf          time.Time `json:"as_of"`
	WeekHours     string    `json:"week_hours"`
	WeekEarnings  string    `json:"week_earnings"`
	MonthHours    string    `json:"month_hours"`
	MonthEarnings string    `json:"month_earnings"`
}

// TeamStatsResponse summarises a manager's team.
type TeamStatsResponse struct {
	MemberCount       int    `json:"member_count"`
	TotalHours        string `json:"total_hours"`
	TotalCost         string `json:"total_cost"`
	AverageHourlyRate string `json:"average_hourly_rate"`
	PendingApprovals  int    `json:"pending_approvals"`
	ExpectedHours     string `json:"expected_hours"`
	ProductivityScore string `json:"productivity_score"`
}

// BudgetResponse is a department budget position.
type BudgetResponse struct {
	Allocated          string `json:"allocated"`
	Spent              string `json:"spent"`
	Remaining          string `json:"remaining"`
	UtilizationPercent string `json:"utilization_percent"`
}

// EmployeeDashboardResponse is the employee's own view.
type EmployeeDashboardResponse struct {
	Profile  EmployeeResponse `json:"profile"`
	Pending  []TicketResponse `json:"pending"`
	Approved []TicketResponse `json:"approved"`
	Rejected []TicketResponse `json:"rejected"`
	Totals   RollupResponse   `json:"totals"`
}

// ManagerDashboardResponse is the manager's team view.
type ManagerDashboardResponse struct {
	Manager      EmployeeResponse   `json:"manager"`
	Team         []EmployeeResponse `json:"team"`
	PendingQueue []TicketResponse   `json:"pending_queue"`
	Stats        TeamStatsResponse  `json:"stats"`
	Budget       *BudgetResponse    `json:"budget"`
	GeneratedAt  time.Time          `json:"generated_at"`
}
