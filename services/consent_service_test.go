package services

import (
	"context"
	"testing"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConsentFixture() (*fakeDB, *ConsentService) {
	db := newFakeDB()
	return db, &ConsentService{Dynamo: db, Logger: zap.NewNop()}
}

func seedMatch(t *testing.T, db *fakeDB, matchID, userA, userB, state string) {
	t.Helper()
	db.seed(t, models.MatchesTable, models.Match{
		MatchID:      matchID,
		UserA:        userA,
		UserB:        userB,
		PairKey:      models.PairKeyFor(userA, userB),
		ConsentState: state,
		CreatedAt:    "2026-01-01T00:00:00Z",
	})
}

func TestConsentHappyPathWalk(t *testing.T) {
	db, svc := newConsentFixture()
	ctx := context.Background()
	seedMatch(t, db, "m1", "alice", "bob", models.StateChatting)

	steps := []struct {
		actor string
		event string
		want  string
	}{
		{"alice", models.EventRequestPenPal, models.StateRequestedPenPal},
		{"bob", models.EventConfirmPenPal, models.StateMutualPenPal},
		{"alice", models.EventRequestReveal, models.StateAddressRequested},
	}
	for _, step := range steps {
		match, err := svc.Transition(ctx, "m1", step.actor, step.event)
		require.NoError(t, err, "event %s", step.event)
		assert.Equal(t, step.want, match.ConsentState)
	}
}

func TestConsentInvalidEventLeavesStateUnchanged(t *testing.T) {
	db, svc := newConsentFixture()
	ctx := context.Background()
	seedMatch(t, db, "m1", "alice", "bob", models.StateChatting)

	_, err := svc.Transition(ctx, "m1", "bob", models.EventConfirmPenPal)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidState))
	assert.Contains(t, err.Error(), models.StateChatting)

	match, err := svc.GetMatchForUser(ctx, "m1", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StateChatting, match.ConsentState)
}

func TestConsentTerminalStatesHaveNoTransitions(t *testing.T) {
	db, svc := newConsentFixture()
	ctx := context.Background()

	for _, state := range []string{models.StateEnded, models.StateBlocked} {
		seedMatch(t, db, "m-"+state, "alice", "bob", state)
		_, err := svc.Transition(ctx, "m-"+state, "alice", models.EventRequestPenPal)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.CodeInvalidState))
	}
}

func TestConsentEndFromEveryActiveState(t *testing.T) {
	db, svc := newConsentFixture()
	ctx := context.Background()

	states := []string{
		models.StateChatting,
		models.StateRequestedPenPal,
		models.StateMutualPenPal,
		models.StateAddressRequested,
		models.StateRevealed,
	}
	for _, state := range states {
		id := "m-" + state
		seedMatch(t, db, id, "alice", "bob", state)
		match, err := svc.Transition(ctx, id, "bob", models.EventEnd)
		require.NoError(t, err, "ending from %s", state)
		assert.Equal(t, models.StateEnded, match.ConsentState)
	}
}

func TestConsentNonMemberSeesNotFound(t *testing.T) {
	db, svc := newConsentFixture()
	ctx := context.Background()
	seedMatch(t, db, "m1", "alice", "bob", models.StateChatting)

	// Missing match and non-member look identical.
	_, err := svc.GetMatchForUser(ctx, "m1", "mallory")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	_, err = svc.GetMatchForUser(ctx, "missing", "alice")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	_, err = svc.Transition(ctx, "m1", "mallory", models.EventRequestPenPal)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestConsentConcurrentTransitionHasOneWinner(t *testing.T) {
	db, svc := newConsentFixture()
	ctx := context.Background()
	seedMatch(t, db, "m1", "alice", "bob", models.StateChatting)

	// First transition wins.
	_, err := svc.Transition(ctx, "m1", "alice", models.EventRequestPenPal)
	require.NoError(t, err)

	// A caller that read the old chatting state and raced loses the
	// conditional write and observes the winner's state.
	_, err = svc.transitionConditional(ctx, "m1", models.StateChatting, models.StateEnded)
	require.ErrorIs(t, err, ErrConditionFailed)

	match, err := svc.GetMatchForUser(ctx, "m1", "alice")
	require.NoError(t, err)
	assert.Equal(t, models.StateRequestedPenPal, match.ConsentState)
}

func TestHasActiveMatch(t *testing.T) {
	db, svc := newConsentFixture()
	ctx := context.Background()

	seedMatch(t, db, "m1", "alice", "bob", models.StateEnded)
	active, err := svc.HasActiveMatch(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, active)

	seedMatch(t, db, "m2", "alice", "bob", models.StateChatting)
	active, err = svc.HasActiveMatch(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, active)
}
