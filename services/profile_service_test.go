package services

import (
	"context"
	"testing"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUpdateProfilePartialUpdate(t *testing.T) {
	db := newFakeDB()
	svc := &ProfileService{Dynamo: db}
	ctx := context.Background()

	db.seed(t, models.ProfilesTable, models.Profile{
		UserID:    "alice",
		Alias:     "WanderingInk",
		Interests: []string{"poetry"},
		Region:    "EU",
		CreatedAt: "2026-01-01T00:00:00Z",
	})

	updated, err := svc.UpdateProfile(ctx, "alice", ProfileUpdate{
		WritingStyle: strPtr("formal"),
	})
	require.NoError(t, err)
	assert.Equal(t, "formal", updated.WritingStyle)

	// Untouched fields survive.
	assert.Equal(t, "WanderingInk", updated.Alias)
	assert.Equal(t, []string{"poetry"}, updated.Interests)
	assert.Equal(t, "EU", updated.Region)
}

func TestUpdateProfileValidation(t *testing.T) {
	db := newFakeDB()
	svc := &ProfileService{Dynamo: db}
	ctx := context.Background()

	db.seed(t, models.ProfilesTable, models.Profile{UserID: "alice", Alias: "A", CreatedAt: "2026-01-01T00:00:00Z"})

	_, err := svc.UpdateProfile(ctx, "alice", ProfileUpdate{WritingStyle: strPtr("baroque")})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = svc.UpdateProfile(ctx, "alice", ProfileUpdate{Alias: strPtr("")})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestUpdateProfileMissingProfile(t *testing.T) {
	svc := &ProfileService{Dynamo: newFakeDB()}

	_, err := svc.UpdateProfile(context.Background(), "ghost", ProfileUpdate{Alias: strPtr("New")})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestUpdatePreferences(t *testing.T) {
	db := newFakeDB()
	svc := &ProfileService{Dynamo: db}
	ctx := context.Background()

	db.seed(t, models.ProfilesTable, models.Profile{UserID: "alice", Alias: "A", CreatedAt: "2026-01-01T00:00:00Z"})

	updated, err := svc.UpdatePreferences(ctx, "alice", `{"region":"EU"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"region":"EU"}`, updated.DiscoveryFilters)
}

func TestGetAliasMissingProfileIsEmpty(t *testing.T) {
	svc := &ProfileService{Dynamo: newFakeDB()}

	alias, err := svc.GetAlias(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, alias)
}
