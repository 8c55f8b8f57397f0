package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

const msgFieldRequired = "This field is required."

// ticketChanges records what applyPatch actually changed.
type ticketChanges struct {
	fields          []string
	oldStatus       domain.TicketStatus
	statusChanged   bool
	assigneeChanged bool
}

// requireFullUpdate enforces the fields a PUT must carry.
func requireFullUpdate(patch domain.TicketPatch) error {
	errs := domain.ValidationErrors{}
	if patch.Title == nil {
		errs.Add("title", msgFieldRequired)
	}
	if patch.Description == nil {
		errs.Add("description", msgFieldRequired)
	}
	return errs.Err()
}

// applyPatch validates every submitted field and mutates ticket only when all pass.
func (s *TicketService) applyPatch(ctx context.Context, ticket *domain.Ticket, patch domain.TicketPatch) (ticketChanges, error) {
	errs := domain.ValidationErrors{}
	next := *ticket
	changes := ticketChanges{oldStatus: ticket.Status}

	if msg, ok := patch.InvalidMessage("title"); ok {
		errs.Add("title", msg)
	} else if patch.Title != nil {
		if title, err := domain.CleanTitle(*patch.Title); err != nil {
			errs.Add("title", err.Error())
		} else {
			next.Title = title
		}
	}
	if msg, ok := patch.InvalidMessage("description"); ok {
		errs.Add("description", msg)
	} else if patch.Description != nil {
		if description, err := domain.CleanDescription(*patch.Description); err != nil {
			errs.Add("description", err.Error())
		} else {
			next.Description = description
		}
	}
	if msg, ok := patch.InvalidMessage("category"); ok {
		errs.Add("category", msg)
	} else if patch.Category != nil {
		if category, err := domain.ParseTicketCategory(*patch.Category); err != nil {
			errs.Add("category", err.Error())
		} else {
			next.Category = category
		}
	}
	if msg, ok := patch.InvalidMessage("priority"); ok {
		errs.Add("priority", msg)
	} else if patch.Priority != nil {
		if priority, err := domain.ParseTicketPriority(*patch.Priority); err != nil {
			errs.Add("priority", err.Error())
		} else {
			next.Priority = priority
		}
	}
	if msg, ok := patch.InvalidMessage("status"); ok {
		errs.Add("status", msg)
	} else if patch.Status != nil {
		if status, err := domain.ParseTicketStatus(*patch.Status); err != nil {
			errs.Add("status", err.Error())
		} else {
			next.Status = status
		}
	}
	if msg, ok := patch.InvalidMessage("admin_feedback"); ok {
		errs.Add("admin_feedback", msg)
	} else if patch.AdminFeedback != nil {
		next.AdminFeedback = *patch.AdminFeedback
	}
	if patch.Assignee.Set {
		assignee, err := s.resolveAssignee(ctx, patch.Assignee)
		switch {
		case err == nil:
			next.Assignee = assignee
			next.AssigneeID = nil
			if assignee != nil {
				id := assignee.ID
				next.AssigneeID = &id
			}
		case isValidation(err):
			errs.Add("assigned_to", err.Error())
		default:
			return changes, err
		}
	}
	if err := errs.Err(); err != nil {
		return changes, err
	}

	changes.fields = diffTicket(ticket, &next)
	changes.statusChanged = slices.Contains(changes.fields, "status")
	changes.assigneeChanged = slices.Contains(changes.fields, "assigned_to")

	next.StampResolution(s.now())
	*ticket = next
	return changes, nil
}

type assigneeError string

func (e assigneeError) Error() string { return string(e) }

func isValidation(err error) bool {
	var ae assigneeError
	return errors.As(err, &ae)
}

func (s *TicketService) resolveAssignee(ctx context.Context, change domain.AssigneeChange) (*domain.User, error) {
	if change.Invalid {
		return nil, assigneeError("Incorrect type. Expected pk value.")
	}
	if change.ID == nil {
		return nil, nil
	}
	user, err := s.users.GetByID(ctx, *change.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, assigneeError(fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *change.ID))
	}
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, assigneeError("Tickets can only be assigned to administrators.")
	}
	return user, nil
}

func diffTicket(before, after *domain.Ticket) []string {
	var fields []string
	if before.Title != after.Title {
		fields = append(fields, "title")
	}
	if before.Description != after.Description {
		fields = append(fields, "description")
	}
	if before.Category != after.Category {
		fields = append(fields, "category")
	}
	if before.Priority != after.Priority {
		fields = append(fields, "priority")
	}
	if before.Status != after.Status {
		fields = append(fields, "status")
	}
	if before.AdminFeedback != after.AdminFeedback {
		fields = append(fields, "admin_feedback")
	}
	if !sameID(before.AssigneeID, after.AssigneeID) {
		fields = append(fields, "assigned_to")
	}
	return fields
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
