package services

import (
	"context"
	"testing"

	"penpal_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMatchFixture() (*fakeDB, *MatchService) {
	db := newFakeDB()
	consent := &ConsentService{Dynamo: db, Logger: zap.NewNop()}
	profiles := &ProfileService{Dynamo: db}
	return db, &MatchService{Dynamo: db, Consent: consent, Profiles: profiles}
}

func TestListActiveSkipsTerminalAndEnrichesPartner(t *testing.T) {
	db, svc := newMatchFixture()
	ctx := context.Background()

	db.seed(t, models.ProfilesTable, models.Profile{
		UserID: "bob", Alias: "InkAndStamps", Interests: []string{"philately"},
		CreatedAt: "2026-01-01T00:00:00Z",
	})

	seedMatch(t, db, "m1", "alice", "bob", models.StateMutualPenPal)
	seedMatch(t, db, "m2", "alice", "carol", models.StateEnded)
	seedMatch(t, db, "m3", "dave", "erin", models.StateChatting)

	matches, err := svc.ListActive(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "m1", matches[0].MatchID)
	assert.Equal(t, "bob", matches[0].PartnerID)
	assert.Equal(t, "InkAndStamps", matches[0].PartnerAlias)
	assert.Equal(t, []string{"philately"}, matches[0].PartnerInterests)
}

func TestPenPalTransitionsThroughMatchService(t *testing.T) {
	db, svc := newMatchFixture()
	ctx := context.Background()
	seedMatch(t, db, "m1", "alice", "bob", models.StateChatting)

	match, err := svc.RequestPenPal(ctx, "m1", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StateRequestedPenPal, match.ConsentState)

	match, err = svc.ConfirmPenPal(ctx, "m1", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.StateMutualPenPal, match.ConsentState)

	match, err = svc.End(ctx, "m1", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StateEnded, match.ConsentState)
}
