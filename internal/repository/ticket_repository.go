package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
)

// TicketFilter captures listing parameters. A nil StaffID lists all tickets
// (admin scope); a nil Status means "All".
type TicketFilter struct {
	StaffID *int64
	Status  *domain.TicketStatus
	Limit   int
	Offset  int
}

// DashboardStats summarizes a ticket scope for dashboards.
type DashboardStats struct {
	Total   int64
	Closed  int64
	Overdue int64
}

// TicketRepository encapsulates ticket persistence. Tickets are never deleted.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListDuePending(ctx context.Context, now time.Time) ([]domain.Ticket, error)
	CountStats(ctx context.Context, staffID *int64, now time.Time) (DashboardStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, staff_id, practice_name, provider_name, subject, description,
               priority, status, attachment_key, attachment_name, assigned_to,
               created_at, updated_at, due_time`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (staff_id, practice_name, provider_name, subject, description,
                             priority, status, attachment_key, attachment_name, assigned_to,
                             created_at, updated_at, due_time)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		ticket.StaffID,
		ticket.PracticeName,
		ticket.ProviderName,
		ticket.Subject,
		ticket.Description,
		ticket.Priority,
		ticket.Status,
		ticket.AttachmentKey,
		ticket.AttachmentName,
		ticket.AssignedTo,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.DueTime,
	).Scan(&ticket.ID)
}

// Update persists the mutable fields only; staff_id and the descriptive
// fields are immutable once created.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET status=$1, assigned_to=$2, due_time=$3, updated_at=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Status,
		ticket.AssignedTo,
		ticket.DueTime,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.StaffID != nil {
		args = append(args, *filter.StaffID)
		clauses = append(clauses, fmt.Sprintf("staff_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListDuePending returns tickets still in a pending status whose deadline has
// passed. Read-only; used by the reminder scheduler.
func (r *ticketRepository) ListDuePending(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	statuses := make([]string, 0, len(domain.PendingStatuses))
	for _, s := range domain.PendingStatuses {
		statuses = append(statuses, string(s))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE status = ANY($1) AND due_time <= $2 ORDER BY due_time ASC`,
		ticketColumns)
	rows, err := r.pool.Query(ctx, query, statuses, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountStats(ctx context.Context, staffID *int64, now time.Time) (DashboardStats, error) {
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE LOWER(status) IN ('closed','approved')),
               COUNT(*) FILTER (WHERE LOWER(status) NOT IN ('closed','approved') AND due_time < $1)
        FROM tickets`
	args := []any{now}
	if staffID != nil {
		query += ` WHERE staff_id=$2`
		args = append(args, *staffID)
	}

	var stats DashboardStats
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&stats.Total, &stats.Closed, &stats.Overdue); err != nil {
		return DashboardStats{}, err
	}
	return stats, nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.StaffID,
		&ticket.PracticeName,
		&ticket.ProviderName,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AttachmentKey,
		&ticket.AttachmentName,
		&ticket.AssignedTo,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.DueTime,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
