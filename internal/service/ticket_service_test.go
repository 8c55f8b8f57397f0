package service

import (
	"context"
	"math"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
)

func TestCreateTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tickets.CreateTicket(ctx, f.owner, domain.TicketDraft{Title: "Bug", Description: "Crashes at startup"})
	msgs := requireFieldError(t, err, "title")
	assert.Equal(t, []string{"Title must be at least 5 characters long."}, msgs)

	ticket, err := f.tickets.CreateTicket(ctx, f.owner, domain.TicketDraft{
		Title:       "Login button broken",
		Description: "Clicking login does nothing",
		Priority:    "high",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketCategorySupport, ticket.Category)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	assert.Equal(t, f.owner.ID, ticket.Owner.ID)

	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventTicketCreated, f.events[0].Type)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TicketsCreated))

	entries := f.logs.FilterMessage("ticket created").All()
	require.Len(t, entries, 1)
	assert.Equal(t, f.owner.ID, entries[0].ContextMap()["actor_id"])
	assert.Equal(t, ticket.ID, entries[0].ContextMap()["ticket_id"])
}

func TestListTicketsScopesNonAdmins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.ticket(t, f.owner, "Login button broken")
	f.ticket(t, f.stranger, "Invoice total wrong")

	page, err := f.tickets.ListTickets(ctx, f.owner, TicketQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, mine.ID, page.Items[0].ID)

	page, err = f.tickets.ListTickets(ctx, f.admin, TicketQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = f.tickets.MyTickets(ctx, f.admin, TicketQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
}

func TestListTicketsFiltersAndPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, title := range []string{"Login button broken", "Login page slow", "Invoice total wrong"} {
		f.ticket(t, f.owner, title)
	}

	_, err := f.tickets.ListTickets(ctx, f.owner, TicketQuery{Status: "done"})
	requireFieldError(t, err, "status")

	page, err := f.tickets.ListTickets(ctx, f.owner, TicketQuery{Search: "login", Ordering: "created_at"})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "Login button broken", page.Items[0].Title)

	page, err = f.tickets.ListTickets(ctx, f.owner, TicketQuery{Page: PageRequest{Number: 2, Size: 2}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.True(t, page.HasPrevious())
	assert.False(t, page.HasNext())

	_, err = f.tickets.ListTickets(ctx, f.owner, TicketQuery{Page: PageRequest{Number: 3, Size: 2}})
	requireStatus(t, err, http.StatusNotFound)

	_, err = f.tickets.ListTickets(ctx, f.owner, TicketQuery{Page: PageRequest{Number: math.MaxInt, Size: 2}})
	requireStatus(t, err, http.StatusNotFound)

	_, err = f.tickets.ListComments(ctx, f.owner, page.Items[0].ID, PageRequest{Number: math.MaxInt, Size: 20})
	requireStatus(t, err, http.StatusNotFound)
}

func TestGetTicketHidesOtherOwnersAndInternalComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.ticket(t, f.owner, "Login button broken")

	_, err := f.tickets.GetTicket(ctx, f.stranger, ticket.ID)
	requireStatus(t, err, http.StatusNotFound)

	_, err = f.tickets.AddComment(ctx, f.admin, ticket.ID, domain.CommentDraft{Content: "Looks like a CSS issue", IsInternal: true})
	require.NoError(t, err)
	f.tick()
	_, err = f.tickets.AddComment(ctx, f.admin, ticket.ID, domain.CommentDraft{Content: "We are on it"})
	require.NoError(t, err)

	detail, err := f.tickets.GetTicket(ctx, f.owner, ticket.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "We are on it", detail.Comments[0].Content)

	detail, err = f.tickets.GetTicket(ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Comments, 2)
}

func TestOwnerUpdateRestrictions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.ticket(t, f.owner, "Login button broken")

	_, err := f.tickets.UpdateTicket(ctx, f.owner, ticket.ID, domain.TicketPatch{Status: strPtr("resolved")}, false)
	requireStatus(t, err, http.StatusForbidden)

	_, err = f.tickets.UpdateTicket(ctx, f.owner, ticket.ID, domain.TicketPatch{Priority: strPtr("urgent")}, false)
	requireStatus(t, err, http.StatusForbidden)

	updated, err := f.tickets.UpdateTicket(ctx, f.owner, ticket.ID, domain.TicketPatch{
		Title:    strPtr("Login button still broken"),
		Priority: strPtr("urgent"),
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "Login button still broken", updated.Title)
	assert.Equal(t, domain.TicketPriorityMedium, updated.Priority)

	_, err = f.tickets.UpdateTicket(ctx, f.owner, ticket.ID, domain.TicketPatch{Title: strPtr("Another title")}, true)
	requireFieldError(t, err, "description")

	_, err = f.tickets.UpdateTicket(ctx, f.stranger, ticket.ID, domain.TicketPatch{Title: strPtr("Hijacked title")}, false)
	requireStatus(t, err, http.StatusNotFound)
}

func TestAdminUpdateValidatesAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.ticket(t, f.owner, "Login button broken")

	_, err := f.tickets.UpdateTicket(ctx, f.admin, ticket.ID, domain.TicketPatch{
		Assignee: domain.AssigneeChange{Set: true, ID: idPtr(f.stranger.ID)},
	}, false)
	requireFieldError(t, err, "assigned_to")

	_, err = f.tickets.UpdateTicket(ctx, f.admin, ticket.ID, domain.TicketPatch{
		Assignee: domain.AssigneeChange{Set: true, ID: idPtr(999)},
	}, false)
	requireFieldError(t, err, "assigned_to")

	updated, err := f.tickets.UpdateTicket(ctx, f.admin, ticket.ID, domain.TicketPatch{
		Category: strPtr("bug"),
		Assignee: domain.AssigneeChange{Set: true, ID: idPtr(f.admin.ID)},
	}, false)
	require.NoError(t, err)
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, f.admin.ID, updated.Assignee.ID)
	assert.Equal(t, domain.TicketCategoryBug, updated.Category)

	page, err := f.tickets.AssignedToMe(ctx, f.admin, TicketQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	cleared, err := f.tickets.UpdateTicket(ctx, f.admin, ticket.ID, domain.TicketPatch{
		Assignee: domain.AssigneeChange{Set: true},
	}, false)
	require.NoError(t, err)
	assert.Nil(t, cleared.AssigneeID)

	_, err = f.tickets.AssignedToMe(ctx, f.owner, TicketQuery{})
	requireStatus(t, err, http.StatusForbidden)
}

func TestUpdateStatusStampsResolutionOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.ticket(t, f.owner, "Login button broken")

	_, err := f.tickets.UpdateStatus(ctx, f.owner, ticket.ID, domain.TicketPatch{Status: strPtr("resolved")})
	requireStatus(t, err, http.StatusForbidden)

	_, err = f.tickets.UpdateStatus(ctx, f.admin, ticket.ID, domain.TicketPatch{Status: strPtr("fixed")})
	requireFieldError(t, err, "status")

	resolved, err := f.tickets.UpdateStatus(ctx, f.admin, ticket.ID, domain.TicketPatch{
		Status:        strPtr("resolved"),
		AdminFeedback: strPtr("Cleared the cache"),
		Title:         strPtr("Ignored by the status endpoint"),
	})
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	stamp := *resolved.ResolvedAt
	assert.Equal(t, "Login button broken", resolved.Title)
	assert.Equal(t, "Cleared the cache", resolved.AdminFeedback)
	assert.True(t, resolved.IsResolved())

	f.tick()
	_, err = f.tickets.UpdateStatus(ctx, f.admin, ticket.ID, domain.TicketPatch{Status: strPtr("open")})
	require.NoError(t, err)
	f.tick()
	again, err := f.tickets.UpdateStatus(ctx, f.admin, ticket.ID, domain.TicketPatch{Status: strPtr("resolved")})
	require.NoError(t, err)
	assert.Equal(t, stamp, *again.ResolvedAt)

	var statusEvents int
	for _, e := range f.events {
		if e.Type == events.EventTicketStatusChanged {
			statusEvents++
		}
	}
	assert.Equal(t, 3, statusEvents)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.StatusTransitions.WithLabelValues("resolved")))
}

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.ticket(t, f.owner, "Login button broken")

	_, err := f.tickets.AddComment(ctx, f.owner, ticket.ID, domain.CommentDraft{Content: "ok"})
	requireFieldError(t, err, "content")

	_, err = f.tickets.AddComment(ctx, f.stranger, ticket.ID, domain.CommentDraft{Content: "Me too!"})
	requireStatus(t, err, http.StatusForbidden)

	_, err = f.tickets.AddComment(ctx, f.owner, 999, domain.CommentDraft{Content: "Hello there"})
	requireStatus(t, err, http.StatusNotFound)

	_, err = f.tickets.AddComment(ctx, f.admin, ticket.ID, domain.CommentDraft{Content: "Can you retry?"})
	require.NoError(t, err)
	f.tick()
	comment, err := f.tickets.AddComment(ctx, f.owner, ticket.ID, domain.CommentDraft{Content: "Thanks, resolved now"})
	require.NoError(t, err)
	assert.Equal(t, f.owner.ID, comment.Author.ID)
	assert.False(t, comment.IsAdminComment())

	page, err := f.tickets.ListComments(ctx, f.owner, ticket.ID, PageRequest{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "Thanks, resolved now", page.Items[len(page.Items)-1].Content)

	listed, err := f.tickets.ListTickets(ctx, f.owner, TicketQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, listed.Items[0].CommentCount)
	assert.Equal(t, "Thanks, resolved now", listed.Items[0].LatestComment.Content)

	_, err = f.tickets.ListComments(ctx, f.stranger, ticket.ID, PageRequest{})
	requireStatus(t, err, http.StatusNotFound)
}

func TestGetCommentHidesInternalFromOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.ticket(t, f.owner, "Login button broken")
	internal, err := f.tickets.AddComment(ctx, f.admin, ticket.ID, domain.CommentDraft{Content: "Staff only note", IsInternal: true})
	require.NoError(t, err)

	_, err = f.tickets.GetComment(ctx, f.owner, ticket.ID, internal.ID)
	requireStatus(t, err, http.StatusNotFound)

	got, err := f.tickets.GetComment(ctx, f.admin, ticket.ID, internal.ID)
	require.NoError(t, err)
	assert.True(t, got.IsInternal)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.ticket(t, f.owner, "Login button broken")
	f.ticket(t, f.stranger, "Invoice total wrong")
	_, err := f.tickets.UpdateStatus(ctx, f.admin, first.ID, domain.TicketPatch{Status: strPtr("closed")})
	require.NoError(t, err)

	_, err = f.tickets.Stats(ctx, f.owner)
	requireStatus(t, err, http.StatusForbidden)

	stats, err := f.tickets.Stats(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[domain.TicketStatusOpen])
	assert.Equal(t, 1, stats.ByStatus[domain.TicketStatusClosed])
	assert.Equal(t, 2, stats.ByPriority[domain.TicketPriorityMedium])
	assert.Equal(t, 2, stats.ByCategory[domain.TicketCategorySupport])
}
