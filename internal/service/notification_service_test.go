package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
)

type sentMail struct {
	to      string
	subject string
}

type fakeMailer struct {
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

func newNotifier(f *fixture) (*NotificationService, *fakeMailer) {
	mailer := &fakeMailer{}
	return NewNotificationService(NotificationDependencies{
		TicketRepo: f.store.Tickets(),
		UserRepo:   f.store.Users(),
		Mailer:     mailer,
	}), mailer
}

func TestNotificationStatusChangeEmailsOwner(t *testing.T) {
	f := newFixture(t)
	ticket := f.ticket(t, f.owner, "Login button broken")
	notifier, mailer := newNotifier(f)

	err := notifier.Handle(context.Background(), events.NewEvent(events.EventTicketStatusChanged, ticket.ID, f.admin.ID, time.Now(),
		events.TicketStatusChangedPayload{OldStatus: domain.TicketStatusOpen, NewStatus: domain.TicketStatusResolved}))
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, f.owner.Email, mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].subject, "is now resolved")
	assert.Contains(t, mailer.sent[0].subject, "["+ticket.Category.Label()+"]")
}

func TestNotificationCommentRecipients(t *testing.T) {
	f := newFixture(t)
	ticket := f.ticket(t, f.owner, "Login button broken")
	assignee := f.admin.ID
	ticket.AssigneeID = &assignee
	require.NoError(t, f.store.Tickets().Update(context.Background(), ticket))
	notifier, mailer := newNotifier(f)

	comment := func(author int64, internal bool) {
		require.NoError(t, notifier.Handle(context.Background(), events.NewEvent(events.EventTicketCommentAdded, ticket.ID, author, time.Now(),
			events.TicketCommentAddedPayload{AuthorID: author, IsInternal: internal, BodyPreview: "Any update?"})))
	}
	comment(f.owner.ID, false)
	comment(f.admin.ID, false)
	comment(f.admin.ID, true)

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, f.admin.Email, mailer.sent[0].to)
	assert.Equal(t, f.owner.Email, mailer.sent[1].to)
}

func TestNotificationUnassignSendsNothing(t *testing.T) {
	f := newFixture(t)
	ticket := f.ticket(t, f.owner, "Login button broken")
	notifier, mailer := newNotifier(f)

	require.NoError(t, notifier.Handle(context.Background(), events.NewEvent(events.EventTicketAssigned, ticket.ID, f.admin.ID, time.Now(),
		events.TicketAssignedPayload{})))
	require.NoError(t, notifier.Handle(context.Background(), events.NewEvent(events.EventTicketUpdated, ticket.ID, f.owner.ID, time.Now(),
		events.TicketUpdatedPayload{Fields: []string{"title"}})))
	assert.Empty(t, mailer.sent)
}
