package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/workticket-service/internal/domain"
)

const ticketColumns = `id, ticket_number, employee_id, project_name, description, work_date, start_time, end_time,
               total_hours, hourly_rate_snapshot, total_amount, status, approved_by, rejected_by,
               rejection_reason, created_by, created_at, decided_at`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres ticket store.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.WorkTicket) error {
	const query = `
        INSERT INTO work_tickets (id, ticket_number, employee_id, project_name, description, work_date,
            start_time, end_time, total_hours, hourly_rate_snapshot, total_amount, status, created_by, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.TicketNumber,
		ticket.EmployeeID,
		ticket.ProjectName,
		ticket.Description,
		ticket.Date,
		ticket.StartTime,
		ticket.EndTime,
		ticket.TotalHours,
		ticket.HourlyRateSnapshot,
		ticket.TotalAmount,
		ticket.Status,
		ticket.CreatedBy,
		ticket.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.WorkTicket, error) {
	query := `SELECT ` + ticketColumns + ` FROM work_tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

// Decide relies on the status='pending' predicate of the UPDATE: of two
// concurrent decisions only one matches a row, the other sees zero rows.
func (r *ticketRepository) Decide(ctx context.Context, id string, decision *domain.TicketDecision) (*domain.WorkTicket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var approvedBy, rejectedBy, reason *string
	actor := decision.ActorID
	switch decision.ToStatus {
	case domain.TicketStatusApproved:
		approvedBy = &actor
	case domain.TicketStatusRejected:
		rejectedBy = &actor
		reason = &decision.Reason
	default:
		return nil, fmt.Errorf("unsupported decision status %q", decision.ToStatus)
	}

	query := `
        UPDATE work_tickets
        SET status=$1, approved_by=$2, rejected_by=$3, rejection_reason=$4, decided_at=$5
        WHERE id=$6 AND status='pending'
        RETURNING ` + ticketColumns
	ticket, err := scanTicket(tx.QueryRow(ctx, query,
		decision.ToStatus,
		approvedBy,
		rejectedBy,
		reason,
		decision.CreatedAt,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM work_tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNotFound
		}
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, err
	}

	const insertDecision = `
        INSERT INTO ticket_decisions (id, ticket_id, from_status, to_status, actor_id, reason, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := tx.Exec(ctx, insertDecision,
		decision.ID,
		id,
		domain.TicketStatusPending,
		decision.ToStatus,
		decision.ActorID,
		decision.Reason,
		decision.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.WorkTicket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		clauses = append(clauses, fmt.Sprintf("employee_id=$%d", len(args)))
	}
	if len(filter.EmployeeIDs) > 0 {
		args = append(args, filter.EmployeeIDs)
		clauses = append(clauses, fmt.Sprintf("employee_id = ANY($%d)", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("work_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("work_date <= $%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM work_tickets WHERE %s ORDER BY created_at ASC, ticket_number ASC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.WorkTicket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) ListDecisions(ctx context.Context, ticketID string) ([]domain.TicketDecision, error) {
	if _, err := r.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	const query = `
        SELECT id, ticket_id, from_status, to_status, actor_id, reason, created_at
        FROM ticket_decisions WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketDecision{}
	for rows.Next() {
		var d domain.TicketDecision
		if err := rows.Scan(&d.ID, &d.TicketID, &d.FromStatus, &d.ToStatus, &d.ActorID, &d.Reason, &d.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.WorkTicket, error) {
	var ticket domain.WorkTicket
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.EmployeeID,
		&ticket.ProjectName,
		&ticket.Description,
		&ticket.Date,
		&ticket.StartTime,
		&ticket.EndTime,
		&ticket.TotalHours,
		&ticket.HourlyRateSnapshot,
		&ticket.TotalAmount,
		&ticket.Status,
		&ticket.ApprovedBy,
		&ticket.RejectedBy,
		&ticket.RejectionReason,
		&ticket.CreatedBy,
		&ticket.CreatedAt,
		&ticket.DecidedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
