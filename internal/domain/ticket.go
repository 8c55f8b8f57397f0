package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "open"
	TicketStatusInProgress  TicketStatus = "in_progress"
	TicketStatusPendingUser TicketStatus = "pending_user"
	TicketStatusResolved    TicketStatus = "resolved"
	TicketStatusClosed      TicketStatus = "closed"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// TicketCategory enumerates what a ticket is about.
type TicketCategory string

const (
	TicketCategoryBug     TicketCategory = "bug"
	TicketCategoryFeature TicketCategory = "feature"
	TicketCategorySupport TicketCategory = "support"
	TicketCategoryBilling TicketCategory = "billing"
	TicketCategoryOther   TicketCategory = "other"
)

const (
	TitleMinLength       = 5
	TitleMaxLength       = 200
	DescriptionMinLength = 10
)

// Ordered lists; position doubles as sort rank.
var (
	ticketStatuses   = []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusPendingUser, TicketStatusResolved, TicketStatusClosed}
	ticketPriorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent}
	ticketCategories = []TicketCategory{TicketCategoryBug, TicketCategoryFeature, TicketCategorySupport, TicketCategoryBilling, TicketCategoryOther}
)

// TicketStatuses returns every status in lifecycle order.
func TicketStatuses() []TicketStatus { return append([]TicketStatus(nil), ticketStatuses...) }

// TicketPriorities returns every priority from lowest to highest.
func TicketPriorities() []TicketPriority { return append([]TicketPriority(nil), ticketPriorities...) }

// TicketCategories returns every category.
func TicketCategories() []TicketCategory { return append([]TicketCategory(nil), ticketCategories...) }

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPendingUser, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// IsOpen reports whether the ticket still needs work.
func (s TicketStatus) IsOpen() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPendingUser:
		return true
	case TicketStatusResolved, TicketStatusClosed:
		return false
	}
	return false
}

// IsResolved reports whether the ticket reached a terminal state.
func (s TicketStatus) IsResolved() bool {
	switch s {
	case TicketStatusResolved, TicketStatusClosed:
		return true
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPendingUser:
		return false
	}
	return false
}

// Rank orders statuses along the lifecycle.
func (s TicketStatus) Rank() int { return indexOf(ticketStatuses, s) }

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Rank orders priorities from low to urgent.
func (p TicketPriority) Rank() int { return indexOf(ticketPriorities, p) }

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategoryBug, TicketCategoryFeature, TicketCategorySupport, TicketCategoryBilling, TicketCategoryOther:
		return true
	}
	return false
}

// Label is the human readable category name.
func (c TicketCategory) Label() string {
	switch c {
	case TicketCategoryBug:
		return "Bug Report"
	case TicketCategoryFeature:
		return "Feature Request"
	case TicketCategorySupport:
		return "Technical Support"
	case TicketCategoryBilling:
		return "Billing Issue"
	case TicketCategoryOther:
		return "Other"
	}
	return string(c)
}

// ParseTicketStatus validates a raw status value.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	s := TicketStatus(strings.TrimSpace(raw))
	if !s.Valid() {
		return "", invalidChoice(raw)
	}
	return s, nil
}

// ParseTicketPriority validates a raw priority value.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	p := TicketPriority(strings.TrimSpace(raw))
	if !p.Valid() {
		return "", invalidChoice(raw)
	}
	return p, nil
}

// ParseTicketCategory validates a raw category value.
func ParseTicketCategory(raw string) (TicketCategory, error) {
	c := TicketCategory(strings.TrimSpace(raw))
	if !c.Valid() {
		return "", invalidChoice(raw)
	}
	return c, nil
}

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID            int64
	Title         string
	Description   string
	Category      TicketCategory
	Priority      TicketPriority
	Status        TicketStatus
	OwnerID       int64
	AssigneeID    *int64
	AdminFeedback string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResolvedAt    *time.Time

	// Loaded alongside the row by repositories.
	Owner         *User
	Assignee      *User
	CommentCount  int
	LatestComment *CommentPreview
}

// IsOpen reports whether the ticket still needs work.
func (t *Ticket) IsOpen() bool { return t.Status.IsOpen() }

// IsResolved reports whether the ticket reached a terminal state.
func (t *Ticket) IsResolved() bool { return t.Status.IsResolved() }

// IsOwnedBy reports whether user created the ticket.
func (t *Ticket) IsOwnedBy(user *User) bool {
	return user != nil && t.OwnerID == user.ID
}

// StampResolution records the first transition into resolved. The stamp is
// never moved or cleared afterwards, including across reopen cycles.
func (t *Ticket) StampResolution(now time.Time) bool {
	if t.Status != TicketStatusResolved || t.ResolvedAt != nil {
		return false
	}
	stamp := now
	t.ResolvedAt = &stamp
	return true
}

// TicketDraft is the unvalidated input for a new ticket.
type TicketDraft struct {
	Title       string
	Description string
	Category    string
	Priority    string
}

// Build validates the draft and returns a new open ticket owned by owner.
func (d TicketDraft) Build(owner *User) (*Ticket, error) {
	errs := ValidationErrors{}

	title, err := CleanTitle(d.Title)
	if err != nil {
		errs.Add("title", err.Error())
	}
	description, err := CleanDescription(d.Description)
	if err != nil {
		errs.Add("description", err.Error())
	}

	category := TicketCategorySupport
	if strings.TrimSpace(d.Category) != "" {
		if category, err = ParseTicketCategory(d.Category); err != nil {
			errs.Add("category", err.Error())
		}
	}
	priority := TicketPriorityMedium
	if strings.TrimSpace(d.Priority) != "" {
		if priority, err = ParseTicketPriority(d.Priority); err != nil {
			errs.Add("priority", err.Error())
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return &Ticket{
		Title:       title,
		Description: description,
		Category:    category,
		Priority:    priority,
		Status:      TicketStatusOpen,
		OwnerID:     owner.ID,
		Owner:       owner,
	}, nil
}

// CleanTitle trims and length-checks a title.
func CleanTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		return "", errors.New("Title is required.")
	case n < TitleMinLength:
		return "", fmt.Errorf("Title must be at least %d characters long.", TitleMinLength)
	case n > TitleMaxLength:
		return "", fmt.Errorf("Ensure this field has no more than %d characters.", TitleMaxLength)
	}
	return title, nil
}

// CleanDescription trims and length-checks a description.
func CleanDescription(raw string) (string, error) {
	description := strings.TrimSpace(raw)
	switch n := utf8.RuneCountInString(description); {
	case n == 0:
		return "", errors.New("Description is required.")
	case n < DescriptionMinLength:
		return "", fmt.Errorf("Description must be at least %d characters long.", DescriptionMinLength)
	}
	return description, nil
}

// AssigneeChange carries the tri-state assignee field of a patch:
// absent, explicit null, or an identifier.
type AssigneeChange struct {
	Set     bool
	ID      *int64
	Invalid bool
}

// TicketPatch is a partial ticket update. Nil fields were not submitted.
// Invalid holds decode errors for submitted fields; they are reported only
// for fields that survive the allow-list.
type TicketPatch struct {
	Title         *string
	Description   *string
	Category      *string
	Priority      *string
	Status        *string
	AdminFeedback *string
	Assignee      AssigneeChange
	Invalid       map[string]string
}

// MarkInvalid records a decode error for a submitted field.
func (p *TicketPatch) MarkInvalid(field, msg string) {
	if p.Invalid == nil {
		p.Invalid = make(map[string]string)
	}
	p.Invalid[field] = msg
}

// InvalidMessage returns the decode error recorded for field, if any.
func (p TicketPatch) InvalidMessage(field string) (string, bool) {
	msg, ok := p.Invalid[field]
	return msg, ok
}

func (p TicketPatch) restrictInvalid(fields ...string) map[string]string {
	var kept map[string]string
	for _, field := range fields {
		if msg, ok := p.Invalid[field]; ok {
			if kept == nil {
				kept = make(map[string]string)
			}
			kept[field] = msg
		}
	}
	return kept
}

// Only returns a copy of the patch carrying just the named fields.
func (p TicketPatch) Only(fields ...string) TicketPatch {
	out := TicketPatch{Invalid: p.restrictInvalid(fields...)}
	for _, field := range fields {
		switch field {
		case "title":
			out.Title = p.Title
		case "description":
			out.Description = p.Description
		case "category":
			out.Category = p.Category
		case "priority":
			out.Priority = p.Priority
		case "status":
			out.Status = p.Status
		case "admin_feedback":
			out.AdminFeedback = p.AdminFeedback
		case "assigned_to":
			out.Assignee = p.Assignee
		}
	}
	return out
}

// Fields lists the submitted field names.
func (p TicketPatch) Fields() []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Category != nil {
		fields = append(fields, "category")
	}
	if p.Priority != nil {
		fields = append(fields, "priority")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	if p.AdminFeedback != nil {
		fields = append(fields, "admin_feedback")
	}
	if p.Assignee.Set {
		fields = append(fields, "assigned_to")
	}
	return fields
}

// IsEmpty reports whether nothing was submitted.
func (p TicketPatch) IsEmpty() bool { return len(p.Fields()) == 0 }

// TouchesAdminFields reports whether the patch changes status, feedback or assignment.
func (p TicketPatch) TouchesAdminFields() bool {
	return p.Status != nil || p.AdminFeedback != nil || p.Assignee.Set
}

func invalidChoice(raw string) error {
	return fmt.Errorf("Select a valid choice. %q is not one of the available choices.", raw)
}

func indexOf[T comparable](values []T, v T) int {
	for i, candidate := range values {
		if candidate == v {
			return i
		}
	}
	return -1
}
