// Package policy decides which actors may read, write or transition tickets
// and comments. Every function takes the actor explicitly.
package policy

import (
	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const (
	msgOwnerFieldsOnly   = "You can only update title and description"
	msgAdminFieldsDenied = "Only admins can change ticket status, feedback or assignment"
	msgCommentDenied     = "You do not have permission to comment on this ticket"
)

// RequireAdmin returns a permission error carrying message for non-administrators.
func RequireAdmin(actor *domain.User, message string) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden(message)
	}
	return nil
}

// OwnerScope returns the owner filter list queries must apply for actor,
// or nil when actor may see every ticket.
func OwnerScope(actor *domain.User) *int64 {
	if actor.IsAdmin() {
		return nil
	}
	id := actor.ID
	return &id
}

// CanViewTicket reports whether actor may read or modify ticket.
func CanViewTicket(actor *domain.User, ticket *domain.Ticket) bool {
	if actor == nil || ticket == nil {
		return false
	}
	return actor.IsAdmin() || ticket.IsOwnedBy(actor)
}

// CanComment returns a permission error unless actor owns ticket or is an administrator.
func CanComment(actor *domain.User, ticket *domain.Ticket) error {
	if !CanViewTicket(actor, ticket) {
		return apperrors.NewForbidden(msgCommentDenied)
	}
	return nil
}

// VisibleComments drops internal comments for non-administrators.
func VisibleComments(actor *domain.User, comments []domain.TicketComment) []domain.TicketComment {
	if actor.IsAdmin() {
		return comments
	}
	visible := make([]domain.TicketComment, 0, len(comments))
	for i := range comments {
		if comments[i].VisibleTo(actor) {
			visible = append(visible, comments[i])
		}
	}
	return visible
}

// FilterOwnerUpdate applies the field allow-list for actor and returns the
// patch that may be applied. Administrators get the patch unchanged. Owners may
// change title and description only: admin-only fields are rejected, anything
// else is dropped, and an empty result is rejected.
func FilterOwnerUpdate(actor *domain.User, patch domain.TicketPatch) (domain.TicketPatch, error) {
	if actor.IsAdmin() {
		return patch, nil
	}
	if patch.TouchesAdminFields() {
		return domain.TicketPatch{}, apperrors.NewForbidden(msgAdminFieldsDenied)
	}
	allowed := patch.Only("title", "description")
	if allowed.IsEmpty() {
		return domain.TicketPatch{}, apperrors.NewForbidden(msgOwnerFieldsOnly)
	}
	return allowed, nil
}

// StatusPatch narrows a patch to the fields the status transition endpoint accepts.
func StatusPatch(patch domain.TicketPatch) domain.TicketPatch {
	return patch.Only("status", "admin_feedback", "assigned_to")
}
