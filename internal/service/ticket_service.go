package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/policy"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const (
	resourceTicket        = "Ticket"
	resourceComment       = "Comment"
	msgStatusAdminOnly    = "Only admins can update ticket status"
	msgAssignedAdminOnly  = "Only admins can access assigned tickets"
	msgStatsAdminOnly     = "Only admins can access ticket statistics"
	msgAssigneeNotANumber = "Enter a whole number."
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.TicketCommentRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.TicketCommentRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Clock       func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        clock,
	}
}

// TicketQuery carries raw list parameters. Enum values are validated here.
type TicketQuery struct {
	Status     string
	Priority   string
	Category   string
	AssignedTo string
	Search     string
	Ordering   string
	Page       PageRequest
}

// TicketDetail is a ticket with the comments its reader may see.
type TicketDetail struct {
	Ticket   *domain.Ticket
	Comments []domain.TicketComment
}

// CreateTicket files a new ticket owned by actor.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, draft domain.TicketDraft) (*domain.Ticket, error) {
	ticket, err := draft.Build(actor)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.logger.Info("ticket created",
		zap.Int64("actor_id", actor.ID),
		zap.Int64("ticket_id", ticket.ID),
		zap.String("category", string(ticket.Category)),
		zap.String("priority", string(ticket.Priority)))
	s.metrics.TicketCreated()
	s.publishEvent(ctx, events.NewEvent(events.EventTicketCreated, ticket.ID, actor.ID, s.now(), events.TicketCreatedPayload{
		Title:    ticket.Title,
		Category: ticket.Category,
		Priority: ticket.Priority,
		OwnerID:  ticket.OwnerID,
	}))

	return s.tickets.GetByID(ctx, ticket.ID)
}

// ListTickets returns the tickets visible to actor matching query.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, query TicketQuery) (Page[domain.Ticket], error) {
	filter, err := buildFilter(query)
	if err != nil {
		return Page[domain.Ticket]{}, err
	}
	filter.OwnerID = policy.OwnerScope(actor)
	return s.listPage(ctx, filter, query.Page)
}

// MyTickets lists tickets actor filed, administrators included.
func (s *TicketService) MyTickets(ctx context.Context, actor *domain.User, query TicketQuery) (Page[domain.Ticket], error) {
	filter, err := buildFilter(query)
	if err != nil {
		return Page[domain.Ticket]{}, err
	}
	id := actor.ID
	filter.OwnerID = &id
	return s.listPage(ctx, filter, query.Page)
}

// AssignedToMe lists tickets assigned to the administrator actor.
func (s *TicketService) AssignedToMe(ctx context.Context, actor *domain.User, query TicketQuery) (Page[domain.Ticket], error) {
	if err := policy.RequireAdmin(actor, msgAssignedAdminOnly); err != nil {
		return Page[domain.Ticket]{}, err
	}
	filter, err := buildFilter(query)
	if err != nil {
		return Page[domain.Ticket]{}, err
	}
	id := actor.ID
	filter.AssigneeID = &id
	return s.listPage(ctx, filter, query.Page)
}

func (s *TicketService) listPage(ctx context.Context, filter repository.TicketFilter, req PageRequest) (Page[domain.Ticket], error) {
	req, err := req.normalized()
	if err != nil {
		return Page[domain.Ticket]{}, err
	}
	filter.Limit = req.limit()
	filter.Offset = req.offset()

	tickets, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return Page[domain.Ticket]{}, err
	}
	if err := checkPage(req, total); err != nil {
		return Page[domain.Ticket]{}, err
	}
	s.logger.Debug("tickets listed",
		zap.Stringer("ordering", filter.Ordering),
		zap.Int("page", req.Number),
		zap.Int("total", total))
	return Page[domain.Ticket]{Items: tickets, Total: total, Number: req.Number, Size: req.Size}, nil
}

func buildFilter(query TicketQuery) (repository.TicketFilter, error) {
	errs := domain.ValidationErrors{}
	filter := repository.TicketFilter{
		Search:   strings.TrimSpace(query.Search),
		Ordering: repository.ParseOrdering(query.Ordering),
	}
	if query.Status != "" {
		if status, err := domain.ParseTicketStatus(query.Status); err != nil {
			errs.Add("status", err.Error())
		} else {
			filter.Status = &status
		}
	}
	if query.Priority != "" {
		if priority, err := domain.ParseTicketPriority(query.Priority); err != nil {
			errs.Add("priority", err.Error())
		} else {
			filter.Priority = &priority
		}
	}
	if query.Category != "" {
		if category, err := domain.ParseTicketCategory(query.Category); err != nil {
			errs.Add("category", err.Error())
		} else {
			filter.Category = &category
		}
	}
	if query.AssignedTo != "" {
		if id, err := strconv.ParseInt(strings.TrimSpace(query.AssignedTo), 10, 64); err != nil {
			errs.Add("assigned_to", msgAssigneeNotANumber)
		} else {
			filter.AssigneeID = &id
		}
	}
	return filter, errs.Err()
}

// GetTicket returns a visible ticket with its comment thread.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, id int64) (*TicketDetail, error) {
	ticket, err := s.visibleTicket(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	comments, _, err := s.comments.ListByTicket(ctx, ticket.ID, actor.IsAdmin(), 0, 0)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: ticket, Comments: policy.VisibleComments(actor, comments)}, nil
}

// UpdateTicket applies a PUT (full) or PATCH to a visible ticket.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, id int64, patch domain.TicketPatch, full bool) (*domain.Ticket, error) {
	ticket, err := s.visibleTicket(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	allowed, err := policy.FilterOwnerUpdate(actor, patch)
	if err != nil {
		return nil, err
	}
	if full {
		if err := requireFullUpdate(allowed); err != nil {
			return nil, err
		}
	}
	return s.save(ctx, actor, ticket, allowed)
}

// UpdateStatus is the administrator transition endpoint for status, feedback and assignment.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, id int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	if err := policy.RequireAdmin(actor, msgStatusAdminOnly); err != nil {
		return nil, err
	}
	ticket, err := s.visibleTicket(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, actor, ticket, policy.StatusPatch(patch))
}

func (s *TicketService) save(ctx context.Context, actor *domain.User, ticket *domain.Ticket, patch domain.TicketPatch) (*domain.Ticket, error) {
	changes, err := s.applyPatch(ctx, ticket, patch)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}

	s.logger.Info("ticket updated",
		zap.Int64("actor_id", actor.ID),
		zap.Int64("ticket_id", ticket.ID),
		zap.Strings("fields", changes.fields))

	now := s.now()
	if len(changes.fields) > 0 {
		s.publishEvent(ctx, events.NewEvent(events.EventTicketUpdated, ticket.ID, actor.ID, now, events.TicketUpdatedPayload{
			Fields: changes.fields,
		}))
	}
	if changes.statusChanged {
		s.metrics.StatusChanged(string(ticket.Status))
		s.publishEvent(ctx, events.NewEvent(events.EventTicketStatusChanged, ticket.ID, actor.ID, now, events.TicketStatusChangedPayload{
			OldStatus:     changes.oldStatus,
			NewStatus:     ticket.Status,
			AdminFeedback: ticket.AdminFeedback,
			ResolvedAt:    ticket.ResolvedAt,
		}))
	}
	if changes.assigneeChanged {
		s.publishEvent(ctx, events.NewEvent(events.EventTicketAssigned, ticket.ID, actor.ID, now, events.TicketAssignedPayload{
			AssigneeID: ticket.AssigneeID,
		}))
	}

	return s.tickets.GetByID(ctx, ticket.ID)
}

// AddComment appends a comment from actor to a ticket they own or administer.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID int64, draft domain.CommentDraft) (*domain.TicketComment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanComment(actor, ticket); err != nil {
		return nil, err
	}
	comment, err := draft.Build(ticket, actor)
	if err != nil {
		return nil, err
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.logger.Info("ticket comment added",
		zap.Int64("actor_id", actor.ID),
		zap.Int64("ticket_id", ticket.ID),
		zap.Int64("comment_id", comment.ID),
		zap.Bool("is_internal", comment.IsInternal))
	s.metrics.CommentAdded(comment.IsInternal)
	s.publishEvent(ctx, events.NewEvent(events.EventTicketCommentAdded, ticket.ID, actor.ID, s.now(), events.TicketCommentAddedPayload{
		CommentID:   comment.ID,
		AuthorID:    actor.ID,
		IsInternal:  comment.IsInternal,
		BodyPreview: domain.PreviewContent(comment.Content),
	}))

	return s.comments.GetByID(ctx, ticket.ID, comment.ID)
}

// ListComments pages through the comments of a visible ticket.
func (s *TicketService) ListComments(ctx context.Context, actor *domain.User, ticketID int64, req PageRequest) (Page[domain.TicketComment], error) {
	ticket, err := s.visibleTicket(ctx, actor, ticketID)
	if err != nil {
		return Page[domain.TicketComment]{}, err
	}
	req, err = req.normalized()
	if err != nil {
		return Page[domain.TicketComment]{}, err
	}
	comments, total, err := s.comments.ListByTicket(ctx, ticket.ID, actor.IsAdmin(), req.limit(), req.offset())
	if err != nil {
		return Page[domain.TicketComment]{}, err
	}
	if err := checkPage(req, total); err != nil {
		return Page[domain.TicketComment]{}, err
	}
	return Page[domain.TicketComment]{Items: comments, Total: total, Number: req.Number, Size: req.Size}, nil
}

// GetComment returns one comment of a visible ticket.
func (s *TicketService) GetComment(ctx context.Context, actor *domain.User, ticketID, commentID int64) (*domain.TicketComment, error) {
	ticket, err := s.visibleTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, ticket.ID, commentID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !comment.VisibleTo(actor)) {
		return nil, apperrors.NewNotFound(resourceComment)
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Stats aggregates ticket counts for administrators.
func (s *TicketService) Stats(ctx context.Context, actor *domain.User) (domain.TicketStats, error) {
	if err := policy.RequireAdmin(actor, msgStatsAdminOnly); err != nil {
		return domain.TicketStats{}, err
	}
	return s.tickets.Stats(ctx, repository.TicketFilter{OwnerID: policy.OwnerScope(actor)})
}

// visibleTicket loads a ticket and hides it from actors outside its scope.
func (s *TicketService) visibleTicket(ctx context.Context, actor *domain.User, id int64) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewTicket(actor, ticket) {
		return nil, apperrors.NewNotFound(resourceTicket)
	}
	return ticket, nil
}

func (s *TicketService) getTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound(resourceTicket)
	}
	return ticket, err
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
