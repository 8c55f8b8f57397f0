// Package memory keeps every repository in process memory. It backs the
// service when no Postgres DSN is configured and the handler and service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// Store holds users, tickets, comments and revoked token ids.
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[int64]domain.User
	tickets  map[int64]domain.Ticket
	comments map[int64]domain.TicketComment
	revoked  map[string]time.Time
	nextID   struct{ user, ticket, comment int64 }
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[int64]domain.User),
		tickets:  make(map[int64]domain.Ticket),
		comments: make(map[int64]domain.TicketComment),
		revoked:  make(map[string]time.Time),
	}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Users returns the store as a UserRepository.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Tickets returns the store as a TicketRepository.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Comments returns the store as a TicketCommentRepository.
func (s *Store) Comments() repository.TicketCommentRepository { return commentRepo{s} }

// Blacklist returns the store as a TokenBlacklist.
func (s *Store) Blacklist() repository.TokenBlacklist { return blacklist{s} }

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	for _, existing := range s.users {
		if existing.Email == email {
			return repository.ErrDuplicateEmail
		}
	}
	s.nextID.user++
	now := s.now()
	user.ID = s.nextID.user
	user.Email = email
	user.DateJoined = now
	user.UpdatedAt = now
	s.users[user.ID] = *user
	return nil
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = user.Name
	existing.PasswordHash = user.PasswordHash
	existing.IsStaff = user.IsStaff
	existing.IsSuperuser = user.IsSuperuser
	existing.IsActive = user.IsActive
	existing.UpdatedAt = s.now()
	s.users[user.ID] = existing
	user.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userLocked(id)
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = domain.NormalizeEmail(email)
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) userLocked(id int64) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

type ticketRepo struct{ s *Store }

func (r ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID.ticket++
	now := s.now()
	ticket.ID = s.nextID.ticket
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	s.tickets[ticket.ID] = stripTicket(*ticket)
	return nil
}

func (r ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tickets[ticket.ID]
	if !ok {
		return repository.ErrNotFound
	}
	ticket.CreatedAt = existing.CreatedAt
	ticket.UpdatedAt = s.now()
	s.tickets[ticket.ID] = stripTicket(*ticket)
	return nil
}

func (r ticketRepo) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.hydrateLocked(&ticket)
	return &ticket, nil
}

func (r ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matchLocked(filter)
	sortTickets(matched, filter.Ordering)
	total := len(matched)

	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	page := matched[start:end]
	for i := range page {
		s.hydrateLocked(&page[i])
	}
	return page, total, nil
}

func (r ticketRepo) Stats(_ context.Context, filter repository.TicketFilter) (domain.TicketStats, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.NewTicketStats()
	for _, ticket := range s.matchLocked(filter) {
		stats.Add(ticket.Status, ticket.Priority, ticket.Category, 1)
	}
	return stats, nil
}

func (s *Store) matchLocked(filter repository.TicketFilter) []domain.Ticket {
	terms := repository.SearchTerms(strings.ToLower(filter.Search))
	matched := make([]domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		if filter.OwnerID != nil && ticket.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && ticket.Priority != *filter.Priority {
			continue
		}
		if filter.Category != nil && ticket.Category != *filter.Category {
			continue
		}
		if !matchesTerms(ticket, terms) {
			continue
		}
		matched = append(matched, ticket)
	}
	return matched
}

func matchesTerms(ticket domain.Ticket, terms []string) bool {
	title := strings.ToLower(ticket.Title)
	description := strings.ToLower(ticket.Description)
	for _, term := range terms {
		if !strings.Contains(title, term) && !strings.Contains(description, term) {
			return false
		}
	}
	return true
}

func sortTickets(tickets []domain.Ticket, ordering repository.Ordering) {
	if ordering.Field == "" {
		ordering = repository.DefaultOrdering
	}
	cmp := func(a, b domain.Ticket) int {
		switch ordering.Field {
		case "updated_at":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		case "priority":
			return a.Priority.Rank() - b.Priority.Rank()
		case "status":
			return a.Status.Rank() - b.Status.Rank()
		default:
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		c := cmp(tickets[i], tickets[j])
		if c == 0 {
			c = int(tickets[i].ID - tickets[j].ID)
		}
		if ordering.Desc {
			return c > 0
		}
		return c < 0
	})
}

// hydrateLocked fills the joined fields a Postgres read would return.
func (s *Store) hydrateLocked(ticket *domain.Ticket) {
	if owner, err := s.userLocked(ticket.OwnerID); err == nil {
		ticket.Owner = owner
	}
	ticket.Assignee = nil
	if ticket.AssigneeID != nil {
		if assignee, err := s.userLocked(*ticket.AssigneeID); err == nil {
			ticket.Assignee = assignee
		}
	}

	public := s.commentsLocked(ticket.ID, false)
	ticket.CommentCount = len(public)
	ticket.LatestComment = nil
	if n := len(public); n > 0 {
		last := public[n-1]
		ticket.LatestComment = domain.NewCommentPreview(last.Content, last.Author.DisplayName(), last.CreatedAt)
	}
}

func stripTicket(ticket domain.Ticket) domain.Ticket {
	ticket.Owner = nil
	ticket.Assignee = nil
	ticket.CommentCount = 0
	ticket.LatestComment = nil
	return ticket
}

type commentRepo struct{ s *Store }

func (r commentRepo) Create(_ context.Context, comment *domain.TicketComment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[comment.TicketID]; !ok {
		return repository.ErrNotFound
	}
	s.nextID.comment++
	now := s.now()
	comment.ID = s.nextID.comment
	comment.CreatedAt = now
	comment.UpdatedAt = now
	stored := *comment
	stored.Author = nil
	s.comments[comment.ID] = stored
	return nil
}

func (r commentRepo) GetByID(_ context.Context, ticketID, id int64) (*domain.TicketComment, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok || comment.TicketID != ticketID {
		return nil, repository.ErrNotFound
	}
	comment.Author, _ = s.userLocked(comment.AuthorID)
	return &comment, nil
}

func (r commentRepo) ListByTicket(_ context.Context, ticketID int64, includeInternal bool, limit, offset int) ([]domain.TicketComment, int, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.commentsLocked(ticketID, includeInternal)
	total := len(all)
	start := min(offset, total)
	end := total
	if limit > 0 {
		end = min(start+limit, total)
	}
	return all[start:end], total, nil
}

// commentsLocked returns a ticket's comments oldest first with authors attached.
func (s *Store) commentsLocked(ticketID int64, includeInternal bool) []domain.TicketComment {
	out := make([]domain.TicketComment, 0)
	for _, comment := range s.comments {
		if comment.TicketID != ticketID || (comment.IsInternal && !includeInternal) {
			continue
		}
		comment.Author, _ = s.userLocked(comment.AuthorID)
		out = append(out, comment)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type blacklist struct{ s *Store }

func (b blacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s := b.s
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = s.now().Add(ttl)
	return nil
}

func (b blacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	s := b.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	until, ok := s.revoked[jti]
	return ok && s.now().Before(until), nil
}
