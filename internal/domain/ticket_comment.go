package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	CommentMinLength  = 3
	commentPreviewLen = 100
)

// TicketComment is a reply in a ticket thread. Internal comments are admin-only.
type TicketComment struct {
	ID         int64
	TicketID   int64
	AuthorID   int64
	Author     *User
	Content    string
	IsInternal bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsAdminComment reports whether the author is an administrator.
func (c *TicketComment) IsAdminComment() bool {
	return c.Author.IsAdmin()
}

// VisibleTo reports whether viewer may read the comment.
func (c *TicketComment) VisibleTo(viewer *User) bool {
	return !c.IsInternal || viewer.IsAdmin()
}

// CommentPreview summarizes the latest public comment of a ticket.
type CommentPreview struct {
	Content   string
	Author    string
	CreatedAt time.Time
}

// NewCommentPreview truncates content to the preview length.
func NewCommentPreview(content, author string, createdAt time.Time) *CommentPreview {
	return &CommentPreview{Content: PreviewContent(content), Author: author, CreatedAt: createdAt}
}

// PreviewContent shortens long comment bodies for list views.
func PreviewContent(content string) string {
	if utf8.RuneCountInString(content) <= commentPreviewLen {
		return content
	}
	runes := []rune(content)
	return string(runes[:commentPreviewLen]) + "..."
}

// CleanCommentContent trims and length-checks comment content.
func CleanCommentContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		return "", errors.New("Comment content is required.")
	case n < CommentMinLength:
		return "", fmt.Errorf("Comment must be at least %d characters long.", CommentMinLength)
	}
	return content, nil
}

// CommentDraft is the unvalidated input for a new comment.
type CommentDraft struct {
	Content    string
	IsInternal bool
}

// Build validates the draft and binds it to ticket and author.
func (d CommentDraft) Build(ticket *Ticket, author *User) (*TicketComment, error) {
	content, err := CleanCommentContent(d.Content)
	if err != nil {
		errs := ValidationErrors{}
		errs.Add("content", err.Error())
		return nil, errs
	}
	return &TicketComment{
		TicketID:   ticket.ID,
		AuthorID:   author.ID,
		Author:     author,
		Content:    content,
		IsInternal: d.IsInternal,
	}, nil
}
