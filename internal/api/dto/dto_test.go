package dto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

func TestDecodeTicketPatchDistinguishesAbsentNullAndValue(t *testing.T) {
	patch, err := dto.DecodeTicketPatch([]byte(`{"title":"New title","assigned_to":null}`))
	require.NoError(t, err)

	require.NotNil(t, patch.Title)
	assert.Equal(t, "New title", *patch.Title)
	assert.Nil(t, patch.Description)
	assert.True(t, patch.Assignee.Set)
	assert.Nil(t, patch.Assignee.ID)
	assert.False(t, patch.Assignee.Invalid)
	assert.Equal(t, []string{"title", "assigned_to"}, patch.Fields())
}

func TestDecodeTicketPatchAssignee(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantID  int64
		invalid bool
	}{
		{name: "number", body: `{"assigned_to": 7}`, wantID: 7},
		{name: "numeric string", body: `{"assigned_to": "7"}`, wantID: 7},
		{name: "legacy key", body: `{"assigned_to_id": 9}`, wantID: 9},
		{name: "word", body: `{"assigned_to": "bob"}`, invalid: true},
		{name: "object", body: `{"assigned_to": {"id": 1}}`, invalid: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			patch, err := dto.DecodeTicketPatch([]byte(tc.body))
			require.NoError(t, err)
			assert.True(t, patch.Assignee.Set)
			assert.Equal(t, tc.invalid, patch.Assignee.Invalid)
			if !tc.invalid {
				require.NotNil(t, patch.Assignee.ID)
				assert.Equal(t, tc.wantID, *patch.Assignee.ID)
			}
		})
	}
}

func TestDecodeTicketPatchRecordsTypeErrors(t *testing.T) {
	patch, err := dto.DecodeTicketPatch([]byte(`{"title": null, "status": ["open"], "priority": 3}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "priority", "status"}, patch.Fields())
	msg, ok := patch.InvalidMessage("title")
	assert.True(t, ok)
	assert.Equal(t, "This field may not be null.", msg)
	msg, ok = patch.InvalidMessage("status")
	assert.True(t, ok)
	assert.Equal(t, "Not a valid string.", msg)
	_, ok = patch.InvalidMessage("priority")
	assert.False(t, ok)
	assert.Equal(t, "3", *patch.Priority)

	owner := patch.Only("title", "description")
	assert.Equal(t, []string{"title"}, owner.Fields())
	_, ok = owner.InvalidMessage("status")
	assert.False(t, ok)
}

func TestDecodeTicketPatchMalformedJSON(t *testing.T) {
	_, err := dto.DecodeTicketPatch([]byte(`{"title":`))
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.StatusCode(err))

	patch, err := dto.DecodeTicketPatch(nil)
	require.NoError(t, err)
	assert.True(t, patch.IsEmpty())
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	err := dto.Validate(dto.UserLoginRequest{Email: "not-an-email"})
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, []string{"Enter a valid email address."}, domainErr.Fields["email"])
	assert.Equal(t, []string{"This field is required."}, domainErr.Fields["password"])
}

func TestNewTicketListItemCarriesPreview(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	owner := &domain.User{ID: 1, Email: "owner@example.com", Name: "Owner"}
	ticket := &domain.Ticket{
		ID:            3,
		Title:         "Login button broken",
		Status:        domain.TicketStatusOpen,
		Owner:         owner,
		CommentCount:  2,
		LatestComment: domain.NewCommentPreview("Thanks, resolved now", "Owner", now),
	}

	item := dto.NewTicketListItem(ticket)
	assert.Equal(t, int64(1), item.User.ID)
	assert.Nil(t, item.AssignedTo)
	assert.Equal(t, 2, item.CommentCount)
	require.NotNil(t, item.LatestComment)
	assert.Equal(t, "Owner", item.LatestComment.Author)
}

func TestNewTicketStatsResponseFlattensStatuses(t *testing.T) {
	stats := domain.NewTicketStats()
	stats.Add(domain.TicketStatusOpen, domain.TicketPriorityHigh, domain.TicketCategoryBug, 2)
	stats.Add(domain.TicketStatusClosed, domain.TicketPriorityLow, domain.TicketCategoryBilling, 1)

	resp := dto.NewTicketStatsResponse(stats)
	assert.Equal(t, 3, resp["total"])
	assert.Equal(t, 2, resp["open"])
	assert.Equal(t, 0, resp["pending_user"])
	assert.Equal(t, 1, resp["closed"])
	assert.Equal(t, map[string]int{"low": 1, "medium": 0, "high": 2, "urgent": 0}, resp["by_priority"])
}
