package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserServiceIsSelfScoped(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store.Users(), nil)
	ctx := context.Background()

	users, err := svc.List(ctx, f.owner)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, f.owner.ID, users[0].ID)

	_, err = svc.Get(ctx, f.admin, f.owner.ID)
	requireStatus(t, err, http.StatusNotFound)

	me, err := svc.Get(ctx, f.owner, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, f.owner.Email, me.Email)
}

func TestUserServiceUpdateName(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.store.Users(), nil)
	ctx := context.Background()

	_, err := svc.UpdateName(ctx, f.owner, f.owner.ID, strPtr("A"), false)
	requireFieldError(t, err, "name")

	_, err = svc.UpdateName(ctx, f.owner, f.owner.ID, nil, true)
	requireFieldError(t, err, "name")

	unchanged, err := svc.UpdateName(ctx, f.owner, f.owner.ID, nil, false)
	require.NoError(t, err)
	assert.Equal(t, f.owner.Name, unchanged.Name)

	updated, err := svc.UpdateName(ctx, f.owner, f.owner.ID, strPtr("  Olivia Owner "), false)
	require.NoError(t, err)
	assert.Equal(t, "Olivia Owner", updated.Name)
}
