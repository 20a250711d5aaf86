package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// AuditService writes the append-only audit log. Sensitive operations
// need their audit entry committed in the same transaction as the state
// change, so entries can be produced either as standalone writes or as
// TransactWriteItem parts.
type AuditService struct {
	Dynamo DB
}

func NewAuditEntry(userID, action string, details map[string]interface{}) models.AuditLogEntry {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	blob, err := json.Marshal(details)
	if err != nil {
		blob = []byte("{}")
	}
	return models.AuditLogEntry{
		UserID:    userID,
		EntryID:   now + "#" + uuid.New().String(),
		Action:    action,
		Details:   string(blob),
		Timestamp: now,
	}
}

// TransactPut marshals an entry into a transaction item so it commits
// atomically with the operation it documents.
func (s *AuditService) TransactPut(entry models.AuditLogEntry) (types.TransactWriteItem, error) {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to marshal audit entry: %w", err)
	}
	table := models.AuditLogsTable
	return types.TransactWriteItem{
		Put: &types.Put{TableName: &table, Item: item},
	}, nil
}

// Append writes a standalone entry.
func (s *AuditService) Append(ctx context.Context, userID, action string, details map[string]interface{}) error {
	entry := NewAuditEntry(userID, action, details)
	if err := s.Dynamo.PutItem(ctx, models.AuditLogsTable, entry); err != nil {
		return apperrors.Dependency("failed to write audit entry", err)
	}
	return nil
}

// ListByUser returns a user's entries, newest first.
func (s *AuditService) ListByUser(ctx context.Context, userID string, limit int32) ([]models.AuditLogEntry, error) {
	keyCondition := "#userId = :userId"
	values := map[string]types.AttributeValue{
		":userId": &types.AttributeValueMemberS{Value: userID},
	}
	names := map[string]string{"#userId": "userId"}

	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.AuditLogsTable, keyCondition, values, names, limit, true)
	if err != nil {
		return nil, apperrors.Dependency("failed to query audit log", err)
	}

	var entries []models.AuditLogEntry
	if err := attributevalue.UnmarshalListOfMaps(items, &entries); err != nil {
		return nil, apperrors.Internal("failed to parse audit entries", err)
	}
	return entries, nil
}

// ListAll scans the whole log for the admin surface.
func (s *AuditService) ListAll(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	if err := s.Dynamo.ScanWithFilter(ctx, models.AuditLogsTable, nil, nil, &entries); err != nil {
		return nil, apperrors.Dependency("failed to scan audit log", err)
	}
	// RFC3339Nano timestamps sort lexicographically
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
