package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Im-Moazzam/Ticketing-System/internal/domain"
)

// CommentRepository manages the append-only ticket comment thread.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (ticket_id, author_id, message)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Message,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, message, created_at
        FROM comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.Message,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
