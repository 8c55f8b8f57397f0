package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketCommentRepository manages ticket comment threads.
type TicketCommentRepository interface {
	Create(ctx context.Context, comment *domain.TicketComment) error
	GetByID(ctx context.Context, ticketID, id int64) (*domain.TicketComment, error)
	ListByTicket(ctx context.Context, ticketID int64, includeInternal bool, limit, offset int) ([]domain.TicketComment, int, error)
}

type ticketCommentRepository struct {
	pool *pgxpool.Pool
}

// NewTicketCommentRepository returns a Postgres-backed implementation.
func NewTicketCommentRepository(pool *pgxpool.Pool) TicketCommentRepository {
	return &ticketCommentRepository{pool: pool}
}

const commentSelect = `
        SELECT c.id, c.ticket_id, c.user_id, c.content, c.is_internal, c.created_at, c.updated_at,
               u.id, u.email, u.name, u.is_staff, u.is_superuser, u.is_active, u.date_joined
        FROM ticket_comments c
        JOIN users u ON u.id = c.user_id`

func (r *ticketCommentRepository) Create(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, user_id, content, is_internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Content,
		comment.IsInternal,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	return translate(err)
}

func (r *ticketCommentRepository) GetByID(ctx context.Context, ticketID, id int64) (*domain.TicketComment, error) {
	return scanComment(r.pool.QueryRow(ctx, commentSelect+` WHERE c.ticket_id=$1 AND c.id=$2`, ticketID, id))
}

func (r *ticketCommentRepository) ListByTicket(ctx context.Context, ticketID int64, includeInternal bool, limit, offset int) ([]domain.TicketComment, int, error) {
	where := `c.ticket_id=$1`
	if !includeInternal {
		where += ` AND NOT c.is_internal`
	}
	args := []any{ticketID}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ticket_comments c WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := commentSelect + ` WHERE ` + where + ` ORDER BY c.created_at ASC, c.id ASC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	comments := make([]domain.TicketComment, 0)
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		comments = append(comments, *comment)
	}
	return comments, total, rows.Err()
}

func scanComment(row pgx.Row) (*domain.TicketComment, error) {
	var (
		comment domain.TicketComment
		author  domain.User
	)
	if err := row.Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.AuthorID,
		&comment.Content,
		&comment.IsInternal,
		&comment.CreatedAt,
		&comment.UpdatedAt,
		&author.ID,
		&author.Email,
		&author.Name,
		&author.IsStaff,
		&author.IsSuperuser,
		&author.IsActive,
		&author.DateJoined,
	); err != nil {
		return nil, translate(err)
	}
	comment.Author = &author
	return &comment, nil
}
