package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	return NewStore().WithClock(clock.now), clock
}

func mustUser(t *testing.T, s *Store, email string, admin bool) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, Name: "User " + email, IsActive: true, IsStaff: admin}
	require.NoError(t, s.Users().Create(context.Background(), user))
	return user
}

func mustTicket(t *testing.T, s *Store, owner *domain.User, title string, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		Title:       title,
		Description: "Description for " + title,
		Category:    domain.TicketCategorySupport,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		OwnerID:     owner.ID,
	}
	require.NoError(t, s.Tickets().Create(context.Background(), ticket))
	return ticket
}

func TestUsersEmailIsCaseInsensitiveUnique(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	user := mustUser(t, s, "Alice@Example.com", false)
	assert.Equal(t, "alice@example.com", user.Email)

	err := s.Users().Create(ctx, &domain.User{Email: "ALICE@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	found, err := s.Users().GetByEmail(ctx, " alice@EXAMPLE.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = s.Users().GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTicketListScopingSearchAndOrdering(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	alice := mustUser(t, s, "alice@example.com", false)
	bob := mustUser(t, s, "bob@example.com", false)

	first := mustTicket(t, s, alice, "Login button broken", domain.TicketPriorityLow)
	clock.advance(time.Minute)
	second := mustTicket(t, s, alice, "Invoice total wrong", domain.TicketPriorityUrgent)
	clock.advance(time.Minute)
	mustTicket(t, s, bob, "Login page slow", domain.TicketPriorityHigh)

	tickets, total, err := s.Tickets().List(ctx, repository.TicketFilter{OwnerID: &alice.ID, Ordering: repository.DefaultOrdering})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, tickets, 2)
	assert.Equal(t, second.ID, tickets[0].ID)
	assert.Equal(t, first.ID, tickets[1].ID)
	assert.Equal(t, alice.Email, tickets[0].Owner.Email)

	tickets, total, err = s.Tickets().List(ctx, repository.TicketFilter{Search: "LOGIN broken"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, first.ID, tickets[0].ID)

	tickets, _, err = s.Tickets().List(ctx, repository.TicketFilter{Ordering: repository.ParseOrdering("-priority")})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityUrgent, tickets[0].Priority)
	assert.Equal(t, domain.TicketPriorityLow, tickets[2].Priority)

	tickets, total, err = s.Tickets().List(ctx, repository.TicketFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, tickets, 1)
}

func TestCommentsHydrateTicketSummary(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	owner := mustUser(t, s, "owner@example.com", false)
	admin := mustUser(t, s, "admin@example.com", true)
	ticket := mustTicket(t, s, owner, "Printer on fire", domain.TicketPriorityHigh)

	require.NoError(t, s.Comments().Create(ctx, &domain.TicketComment{TicketID: ticket.ID, AuthorID: owner.ID, Content: "Please help"}))
	clock.advance(time.Second)
	require.NoError(t, s.Comments().Create(ctx, &domain.TicketComment{TicketID: ticket.ID, AuthorID: admin.ID, Content: "Escalating", IsInternal: true}))

	loaded, err := s.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.CommentCount)
	require.NotNil(t, loaded.LatestComment)
	assert.Equal(t, "Please help", loaded.LatestComment.Content)

	public, total, err := s.Comments().ListByTicket(ctx, ticket.ID, false, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, public, 1)

	all, total, err := s.Comments().ListByTicket(ctx, ticket.ID, true, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Escalating", all[1].Content)
	assert.True(t, all[1].IsAdminComment())

	_, err = s.Comments().GetByID(ctx, ticket.ID+1, all[0].ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStatsCountScopedSet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	alice := mustUser(t, s, "alice@example.com", false)
	bob := mustUser(t, s, "bob@example.com", false)
	mustTicket(t, s, alice, "First ticket", domain.TicketPriorityLow)
	mustTicket(t, s, alice, "Second ticket", domain.TicketPriorityLow)
	mustTicket(t, s, bob, "Third ticket", domain.TicketPriorityHigh)

	stats, err := s.Tickets().Stats(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.ByStatus[domain.TicketStatusOpen])
	assert.Equal(t, 2, stats.ByPriority[domain.TicketPriorityLow])

	stats, err = s.Tickets().Stats(ctx, repository.TicketFilter{OwnerID: &bob.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestBlacklistExpires(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Blacklist().Revoke(ctx, "jti-1", time.Minute))
	revoked, err := s.Blacklist().IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	clock.advance(2 * time.Minute)
	revoked, err = s.Blacklist().IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
