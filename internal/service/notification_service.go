package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/notify"
	"github.com/spec-kit/support-desk/internal/repository"
)

// NotificationService turns ticket events into emails for the owner or
// assignee and mirrors every event to the configured webhook.
type NotificationService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	mailer  notify.Mailer
	webhook *notify.Webhook
	logger  *zap.Logger
}

// NotificationDependencies bundles what notifications need.
type NotificationDependencies struct {
	TicketRepo repository.TicketRepository
	UserRepo   repository.UserRepository
	Mailer     notify.Mailer
	Webhook    *notify.Webhook
	Logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		tickets: deps.TicketRepo,
		users:   deps.UserRepo,
		mailer:  deps.Mailer,
		webhook: deps.Webhook,
		logger:  logger,
	}
}

// Handle delivers the notifications for one event.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	var errs []error
	if err := n.email(ctx, event); err != nil {
		errs = append(errs, fmt.Errorf("email: %w", err))
	}
	if err := n.webhook.Post(ctx, event); err != nil {
		errs = append(errs, fmt.Errorf("webhook: %w", err))
	}
	return errors.Join(errs...)
}

func (n *NotificationService) email(ctx context.Context, event events.Event) error {
	if n.mailer == nil {
		return nil
	}
	switch payload := event.Payload.(type) {
	case events.TicketStatusChangedPayload:
		ticket, err := n.tickets.GetByID(ctx, event.TicketID)
		if err != nil {
			return err
		}
		body := fmt.Sprintf("Your ticket %q moved from %s to %s.", ticket.Title, payload.OldStatus, payload.NewStatus)
		if payload.AdminFeedback != "" {
			body += "\n\nFeedback: " + payload.AdminFeedback
		}
		return n.send(ctx, ticket.Owner, fmt.Sprintf("[%s] Ticket #%d is now %s", ticket.Category.Label(), ticket.ID, payload.NewStatus), body)

	case events.TicketAssignedPayload:
		if payload.AssigneeID == nil {
			return nil
		}
		ticket, err := n.tickets.GetByID(ctx, event.TicketID)
		if err != nil {
			return err
		}
		return n.send(ctx, ticket.Assignee, fmt.Sprintf("[%s] Ticket #%d was assigned to you", ticket.Category.Label(), ticket.ID), ticket.Title)

	case events.TicketCommentAddedPayload:
		if payload.IsInternal {
			return nil
		}
		ticket, err := n.tickets.GetByID(ctx, event.TicketID)
		if err != nil {
			return err
		}
		recipient := ticket.Owner
		if payload.AuthorID == ticket.OwnerID {
			recipient = ticket.Assignee
		}
		return n.send(ctx, recipient, fmt.Sprintf("New comment on ticket #%d", ticket.ID), payload.BodyPreview)
	}
	return nil
}

func (n *NotificationService) send(ctx context.Context, to *domain.User, subject, body string) error {
	if to == nil || !to.IsActive {
		return nil
	}
	if err := n.mailer.Send(ctx, to.Email, subject, body); err != nil {
		return err
	}
	n.logger.Debug("notification sent", zap.Int64("user_id", to.ID), zap.String("subject", subject))
	return nil
}
