package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const (
	msgMalformedJSON = "JSON parse error"
	msgNotAString    = "Not a valid string."
	msgNotNull       = "This field may not be null."
)

// CreateTicketRequest payload. Blank category and priority fall back to defaults.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// Draft converts the request for the service layer.
func (r CreateTicketRequest) Draft() domain.TicketDraft {
	return domain.TicketDraft{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Priority:    r.Priority,
	}
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}

// Draft converts the request for the service layer.
func (r CreateCommentRequest) Draft() domain.CommentDraft {
	return domain.CommentDraft{Content: r.Content, IsInternal: r.IsInternal}
}

// DecodeTicketPatch reads a partial ticket update, keeping apart fields that
// were absent, sent as null, or sent with a value. Unknown keys are ignored.
// Type errors are recorded on the patch rather than returned, so fields the
// caller may not change can still be dropped before anything is validated.
func DecodeTicketPatch(body []byte) (domain.TicketPatch, error) {
	var patch domain.TicketPatch
	if len(bytes.TrimSpace(body)) == 0 {
		return patch, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return patch, apperrors.NewBadRequest(msgMalformedJSON)
	}

	stringField := func(name string) *string {
		value, ok := raw[name]
		if !ok {
			return nil
		}
		s, msg := decodeString(value)
		if msg != "" {
			patch.MarkInvalid(name, msg)
		}
		return &s
	}

	patch.Title = stringField("title")
	patch.Description = stringField("description")
	patch.Category = stringField("category")
	patch.Priority = stringField("priority")
	patch.Status = stringField("status")
	patch.AdminFeedback = stringField("admin_feedback")

	if value, ok := raw["assigned_to"]; ok {
		patch.Assignee = decodeAssignee(value)
	} else if value, ok := raw["assigned_to_id"]; ok {
		patch.Assignee = decodeAssignee(value)
	}
	return patch, nil
}

func decodeString(value json.RawMessage) (string, string) {
	trimmed := bytes.TrimSpace(value)
	if bytes.Equal(trimmed, []byte("null")) {
		return "", msgNotNull
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s, ""
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return n.String(), ""
	}
	return "", msgNotAString
}

func decodeAssignee(value json.RawMessage) domain.AssigneeChange {
	change := domain.AssigneeChange{Set: true}
	trimmed := bytes.TrimSpace(value)
	if bytes.Equal(trimmed, []byte("null")) {
		return change
	}

	var id int64
	if err := json.Unmarshal(trimmed, &id); err == nil {
		change.ID = &id
		return change
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if s = strings.TrimSpace(s); s == "" {
			return change
		}
		if parsed, err := strconv.ParseInt(s, 10, 64); err == nil {
			change.ID = &parsed
			return change
		}
	}
	change.Invalid = true
	return change
}

// CommentResponse is a comment with its author.
type CommentResponse struct {
	ID             int64      `json:"id"`
	Content        string     `json:"content"`
	Author         *UserBasic `json:"author"`
	IsInternal     bool       `json:"is_internal"`
	IsAdminComment bool       `json:"is_admin_comment"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LatestComment previews the newest public comment in list views.
type LatestComment struct {
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketListItem is the list view of a ticket.
type TicketListItem struct {
	ID            int64                 `json:"id"`
	Title         string                `json:"title"`
	Category      domain.TicketCategory `json:"category"`
	Priority      domain.TicketPriority `json:"priority"`
	Status        domain.TicketStatus   `json:"status"`
	User          *UserBasic            `json:"user"`
	AssignedTo    *UserBasic            `json:"assigned_to"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ResolvedAt    *time.Time            `json:"resolved_at"`
	CommentCount  int                   `json:"comment_count"`
	LatestComment *LatestComment        `json:"latest_comment"`
}

// TicketDetailResponse provides full ticket info with its visible thread.
type TicketDetailResponse struct {
	ID            int64                 `json:"id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Category      domain.TicketCategory `json:"category"`
	Priority      domain.TicketPriority `json:"priority"`
	Status        domain.TicketStatus   `json:"status"`
	User          *UserBasic            `json:"user"`
	AssignedTo    *UserBasic            `json:"assigned_to"`
	AdminFeedback string                `json:"admin_feedback"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ResolvedAt    *time.Time            `json:"resolved_at"`
	Comments      []CommentResponse     `json:"comments"`
	IsOpen        bool                  `json:"is_open"`
	IsResolved    bool                  `json:"is_resolved"`
}

// TicketStatsResponse is the counts breakdown. Status buckets sit at the top level.
type TicketStatsResponse map[string]any

// Paginated wraps one page of results with neighbour links.
type Paginated[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewCommentResponse maps a comment.
func NewCommentResponse(comment *domain.TicketComment) CommentResponse {
	return CommentResponse{
		ID:             comment.ID,
		Content:        comment.Content,
		Author:         NewUserBasic(comment.Author),
		IsInternal:     comment.IsInternal,
		IsAdminComment: comment.IsAdminComment(),
		CreatedAt:      comment.CreatedAt,
		UpdatedAt:      comment.UpdatedAt,
	}
}

// NewCommentResponses maps a comment slice, never returning nil.
func NewCommentResponses(comments []domain.TicketComment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentResponse(&comments[i]))
	}
	return out
}

// NewTicketListItem maps a ticket for list views.
func NewTicketListItem(ticket *domain.Ticket) TicketListItem {
	item := TicketListItem{
		ID:           ticket.ID,
		Title:        ticket.Title,
		Category:     ticket.Category,
		Priority:     ticket.Priority,
		Status:       ticket.Status,
		User:         NewUserBasic(ticket.Owner),
		AssignedTo:   NewUserBasic(ticket.Assignee),
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
		ResolvedAt:   ticket.ResolvedAt,
		CommentCount: ticket.CommentCount,
	}
	if lc := ticket.LatestComment; lc != nil {
		item.LatestComment = &LatestComment{Content: lc.Content, Author: lc.Author, CreatedAt: lc.CreatedAt}
	}
	return item
}

// NewTicketListItems maps a ticket slice.
func NewTicketListItems(tickets []domain.Ticket) []TicketListItem {
	out := make([]TicketListItem, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketListItem(&tickets[i]))
	}
	return out
}

// NewTicketDetail maps a ticket and the comments its reader may see.
func NewTicketDetail(ticket *domain.Ticket, comments []domain.TicketComment) TicketDetailResponse {
	return TicketDetailResponse{
		ID:            ticket.ID,
		Title:         ticket.Title,
		Description:   ticket.Description,
		Category:      ticket.Category,
		Priority:      ticket.Priority,
		Status:        ticket.Status,
		User:          NewUserBasic(ticket.Owner),
		AssignedTo:    NewUserBasic(ticket.Assignee),
		AdminFeedback: ticket.AdminFeedback,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		ResolvedAt:    ticket.ResolvedAt,
		Comments:      NewCommentResponses(comments),
		IsOpen:        ticket.IsOpen(),
		IsResolved:    ticket.IsResolved(),
	}
}

// NewTicketStatsResponse flattens status counts next to the priority and category breakdowns.
func NewTicketStatsResponse(stats domain.TicketStats) TicketStatsResponse {
	resp := TicketStatsResponse{"total": stats.Total}
	for _, status := range domain.TicketStatuses() {
		resp[string(status)] = stats.ByStatus[status]
	}
	byPriority := make(map[string]int, len(stats.ByPriority))
	for _, priority := range domain.TicketPriorities() {
		byPriority[string(priority)] = stats.ByPriority[priority]
	}
	byCategory := make(map[string]int, len(stats.ByCategory))
	for _, category := range domain.TicketCategories() {
		byCategory[string(category)] = stats.ByCategory[category]
	}
	resp["by_priority"] = byPriority
	resp["by_category"] = byCategory
	return resp
}
