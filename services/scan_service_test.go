package services

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newScanFixture() (*fakeDB, *ScanService) {
	db := newFakeDB()
	logger := zap.NewNop()
	consent := &ConsentService{Dynamo: db, Logger: logger}
	profiles := &ProfileService{Dynamo: db}
	letters := &LetterService{Dynamo: db, Consent: consent, Profiles: profiles}
	return db, &ScanService{
		Dynamo:  db,
		Letters: letters,
		Consent: consent,
		Store:   NewMemoryStore(),
		Logger:  logger,
	}
}

func seedLetterEvent(t *testing.T, db *fakeDB, eventID, matchID, userID string) {
	t.Helper()
	db.seed(t, models.LetterEventsTable, models.LetterEvent{
		EventID: eventID, MatchID: matchID, UserID: userID,
		EventType: models.LetterEventSent, Timestamp: "2026-01-01T00:00:00Z",
	})
}

func TestUploadScan(t *testing.T) {
	db, svc := newScanFixture()
	ctx := context.Background()
	seedMatch(t, db, "m1", "alice", "bob", models.StateMutualPenPal)
	seedLetterEvent(t, db, "e1", "m1", "alice")

	asset, err := svc.Upload(ctx, "alice", "e1", "letter.png", "image/png", []byte("pngdata"))
	require.NoError(t, err)
	assert.Equal(t, "m1", asset.MatchID)
	assert.Equal(t, "alice", asset.Metadata.UploadedBy)
	assert.True(t, strings.HasPrefix(asset.StorageKey, "scans/alice/e1/"))

	// Either member of the match can fetch the URL.
	url, err := svc.GetURL(ctx, asset.ScanID, "bob")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func TestUploadScanValidation(t *testing.T) {
	db, svc := newScanFixture()
	ctx := context.Background()
	seedMatch(t, db, "m1", "alice", "bob", models.StateMutualPenPal)
	seedLetterEvent(t, db, "e1", "m1", "alice")

	_, err := svc.Upload(ctx, "alice", "", "letter.png", "image/png", []byte("x"))
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = svc.Upload(ctx, "alice", "e1", "letter.pdf", "application/pdf", []byte("x"))
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = svc.Upload(ctx, "alice", "e1", "letter.png", "image/png", nil)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	huge := bytes.Repeat([]byte{0x00}, MaxScanSize+1)
	_, err = svc.Upload(ctx, "alice", "e1", "letter.png", "image/png", huge)
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestUploadScanRequiresEventAccess(t *testing.T) {
	db, svc := newScanFixture()
	ctx := context.Background()
	seedMatch(t, db, "m1", "alice", "bob", models.StateMutualPenPal)
	seedLetterEvent(t, db, "e1", "m1", "alice")

	_, err := svc.Upload(ctx, "mallory", "e1", "letter.png", "image/png", []byte("x"))
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestListScansByMatch(t *testing.T) {
	db, svc := newScanFixture()
	ctx := context.Background()
	seedMatch(t, db, "m1", "alice", "bob", models.StateMutualPenPal)
	seedLetterEvent(t, db, "e1", "m1", "alice")

	_, err := svc.Upload(ctx, "alice", "e1", "a.png", "image/png", []byte("a"))
	require.NoError(t, err)
	_, err = svc.Upload(ctx, "alice", "e1", "b.png", "image/png", []byte("b"))
	require.NoError(t, err)

	scans, err := svc.ListByMatch(ctx, "m1", "bob")
	require.NoError(t, err)
	assert.Len(t, scans, 2)

	_, err = svc.ListByMatch(ctx, "m1", "mallory")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestGetScanURLNonMember(t *testing.T) {
	db, svc := newScanFixture()
	ctx := context.Background()
	seedMatch(t, db, "m1", "alice", "bob", models.StateMutualPenPal)
	seedLetterEvent(t, db, "e1", "m1", "alice")

	asset, err := svc.Upload(ctx, "alice", "e1", "a.png", "image/png", []byte("a"))
	require.NoError(t, err)

	_, err = svc.GetURL(ctx, asset.ScanID, "mallory")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	_, err = svc.GetURL(ctx, "missing", "alice")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}
