package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	Stats(ctx context.Context, filter TicketFilter) (domain.TicketStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketSelect = `
        SELECT t.id, t.title, t.description, t.category, t.priority, t.status, t.user_id, t.assigned_to_id,
               t.admin_feedback, t.created_at, t.updated_at, t.resolved_at,
               o.id, o.email, o.name, o.is_staff, o.is_superuser, o.is_active, o.date_joined,
               a.id, a.email, a.name, a.is_staff, a.is_superuser, a.is_active, a.date_joined,
               (SELECT COUNT(*) FROM ticket_comments c WHERE c.ticket_id = t.id AND NOT c.is_internal),
               lc.content, lc.created_at, lc.author_name
        FROM tickets t
        JOIN users o ON o.id = t.user_id
        LEFT JOIN users a ON a.id = t.assigned_to_id
        LEFT JOIN LATERAL (
            SELECT c.content, c.created_at, COALESCE(NULLIF(u.name, ''), u.email) AS author_name
            FROM ticket_comments c JOIN users u ON u.id = c.user_id
            WHERE c.ticket_id = t.id AND NOT c.is_internal
            ORDER BY c.created_at DESC, c.id DESC
            LIMIT 1
        ) lc ON TRUE`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, priority, status, user_id, assigned_to_id, admin_feedback, resolved_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.OwnerID,
		ticket.AssigneeID,
		ticket.AdminFeedback,
		ticket.ResolvedAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, priority=$4, status=$5,
            assigned_to_id=$6, admin_feedback=$7, resolved_at=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.AssigneeID,
		ticket.AdminFeedback,
		ticket.ResolvedAt,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return translate(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	return scanTicket(r.pool.QueryRow(ctx, ticketSelect+` WHERE t.id=$1`, id))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	where, args := buildTicketWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets t WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := ticketSelect + ` WHERE ` + where + ` ORDER BY ` + orderClause(filter.Ordering)
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, total, rows.Err()
}

func (r *ticketRepository) Stats(ctx context.Context, filter TicketFilter) (domain.TicketStats, error) {
	where, args := buildTicketWhere(filter)
	query := `SELECT t.status, t.priority, t.category, COUNT(*) FROM tickets t WHERE ` + where +
		` GROUP BY t.status, t.priority, t.category`

	stats := domain.NewTicketStats()
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status   domain.TicketStatus
			priority domain.TicketPriority
			category domain.TicketCategory
			n        int
		)
		if err := rows.Scan(&status, &priority, &category, &n); err != nil {
			return stats, err
		}
		stats.Add(status, priority, category, n)
	}
	return stats, rows.Err()
}

type nullableUser struct {
	id          *int64
	email       *string
	name        *string
	isStaff     *bool
	isSuperuser *bool
	isActive    *bool
	dateJoined  *time.Time
}

func (n nullableUser) user() *domain.User {
	if n.id == nil {
		return nil
	}
	return &domain.User{
		ID:          *n.id,
		Email:       *n.email,
		Name:        *n.name,
		IsStaff:     *n.isStaff,
		IsSuperuser: *n.isSuperuser,
		IsActive:    *n.isActive,
		DateJoined:  *n.dateJoined,
	}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket      domain.Ticket
		owner       domain.User
		assignee    nullableUser
		lastContent *string
		lastAt      *time.Time
		lastAuthor  *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.OwnerID,
		&ticket.AssigneeID,
		&ticket.AdminFeedback,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&owner.ID,
		&owner.Email,
		&owner.Name,
		&owner.IsStaff,
		&owner.IsSuperuser,
		&owner.IsActive,
		&owner.DateJoined,
		&assignee.id,
		&assignee.email,
		&assignee.name,
		&assignee.isStaff,
		&assignee.isSuperuser,
		&assignee.isActive,
		&assignee.dateJoined,
		&ticket.CommentCount,
		&lastContent,
		&lastAt,
		&lastAuthor,
	); err != nil {
		return nil, translate(err)
	}

	ticket.Owner = &owner
	ticket.Assignee = assignee.user()
	if lastContent != nil && lastAt != nil && lastAuthor != nil {
		ticket.LatestComment = domain.NewCommentPreview(*lastContent, *lastAuthor, *lastAt)
	}
	return &ticket, nil
}
