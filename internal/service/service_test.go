package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

type fixture struct {
	store    *memory.Store
	tickets  *TicketService
	logs     *observer.ObservedLogs
	events   []events.Event
	clock    time.Time
	metrics  *observability.Metrics
	owner    *domain.User
	stranger *domain.User
	admin    *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	f := &fixture{
		store:   memory.NewStore(),
		logs:    logs,
		clock:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		metrics: observability.NewMetrics(),
	}
	f.store.WithClock(f.now)

	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.SubscribeAll(func(_ context.Context, e events.Event) error {
		f.events = append(f.events, e)
		return nil
	})

	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:  f.store.Tickets(),
		CommentRepo: f.store.Comments(),
		UserRepo:    f.store.Users(),
		Dispatcher:  dispatcher,
		Metrics:     f.metrics,
		Logger:      zap.New(core),
		Clock:       f.now,
	})

	f.owner = f.user(t, "owner@example.com", false)
	f.stranger = f.user(t, "stranger@example.com", false)
	f.admin = f.user(t, "admin@example.com", true)
	return f
}

func (f *fixture) now() time.Time { return f.clock }

func (f *fixture) tick() { f.clock = f.clock.Add(time.Minute) }

func (f *fixture) user(t *testing.T, email string, staff bool) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: "Name of " + email, IsStaff: staff, IsActive: true}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) ticket(t *testing.T, owner *domain.User, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), owner, domain.TicketDraft{
		Title:       title,
		Description: "Something is not working as expected",
	})
	require.NoError(t, err)
	f.tick()
	return ticket
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, status, apperrors.StatusCode(err), "error: %v", err)
}

func requireFieldError(t *testing.T, err error, field string) []string {
	t.Helper()
	requireStatus(t, err, http.StatusBadRequest)
	fields := apperrors.ToDomainError(err).Fields
	require.Contains(t, fields, field)
	return fields[field]
}

func strPtr(s string) *string { return &s }

func idPtr(id int64) *int64 { return &id }
