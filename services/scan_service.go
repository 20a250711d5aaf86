package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxScanSize caps uploaded scan images at 10MB.
const MaxScanSize = 10 * 1024 * 1024

const scanURLExpiry = time.Hour

// ScanService stores letter scan images and hands out retrieval URLs.
type ScanService struct {
	Dynamo  DB
	Letters *LetterService
	Consent *ConsentService
	Store   ObjectStore
	Logger  *zap.Logger
}

// Upload stores an image for a letter event the caller can access.
func (s *ScanService) Upload(ctx context.Context, userID, letterEventID, fileName, contentType string, data []byte) (*models.ScanAsset, error) {
	if letterEventID == "" {
		return nil, apperrors.Validation("letter event ID is required")
	}
	if len(data) == 0 {
		return nil, apperrors.Validation("no file uploaded")
	}
	if len(data) > MaxScanSize {
		return nil, apperrors.Validation("file exceeds the 10MB limit")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperrors.Validation("only image files are allowed")
	}

	event, err := s.Letters.GetEventForUser(ctx, letterEventID, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("scans/%s/%s/%d_%s", userID, letterEventID, time.Now().UnixMilli(), fileName)
	if err := s.Store.Put(ctx, key, contentType, data); err != nil {
		return nil, err
	}

	asset := models.ScanAsset{
		ScanID:        uuid.New().String(),
		LetterEventID: letterEventID,
		MatchID:       event.MatchID,
		StorageKey:    key,
		Metadata: models.ScanMetadata{
			OriginalName: fileName,
			Size:         int64(len(data)),
			MimeType:     contentType,
			UploadedBy:   userID,
		},
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Dynamo.PutItem(ctx, models.ScanAssetsTable, asset); err != nil {
		return nil, apperrors.Dependency("failed to store scan asset", err)
	}

	s.Logger.Info("scan uploaded",
		zap.String("scanId", asset.ScanID),
		zap.String("letterEventId", letterEventID),
		zap.Int("bytes", len(data)))
	return &asset, nil
}

// ListByMatch returns all scans for a match's letter events, newest first.
func (s *ScanService) ListByMatch(ctx context.Context, matchID, userID string) ([]models.ScanAsset, error) {
	if _, err := s.Consent.GetMatchForUser(ctx, matchID, userID); err != nil {
		return nil, err
	}

	keyCondition := "#matchId = :matchId"
	values := map[string]types.AttributeValue{
		":matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	names := map[string]string{"#matchId": "matchId"}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ScanAssetsTable, models.ScanMatchIndex, keyCondition, values, names, 200)
	if err != nil {
		return nil, apperrors.Dependency("failed to query scans", err)
	}

	var scans []models.ScanAsset
	if err := attributevalue.UnmarshalListOfMaps(items, &scans); err != nil {
		return nil, apperrors.Internal("failed to parse scans", err)
	}

	sort.SliceStable(scans, func(i, j int) bool {
		return scans[i].CreatedAt > scans[j].CreatedAt
	})
	return scans, nil
}

// GetURL returns a time-limited retrieval URL for a scan the caller can
// access.
func (s *ScanService) GetURL(ctx context.Context, scanID, userID string) (string, error) {
	item, err := s.Dynamo.GetItem(ctx, models.ScanAssetsTable, map[string]types.AttributeValue{
		"scanId": &types.AttributeValueMemberS{Value: scanID},
	})
	if err != nil {
		return "", apperrors.Dependency("failed to load scan", err)
	}
	if item == nil {
		return "", apperrors.NotFound("scan not found")
	}

	var asset models.ScanAsset
	if err := attributevalue.UnmarshalMap(item, &asset); err != nil {
		return "", apperrors.Internal("failed to parse scan", err)
	}

	if _, err := s.Consent.GetMatchForUser(ctx, asset.MatchID, userID); err != nil {
		return "", apperrors.NotFound("scan not found")
	}

	return s.Store.SignedURL(ctx, asset.StorageKey, scanURLExpiry)
}
