package services

import (
	"context"
	"errors"
	"time"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SafetyService owns blocks and reports. Blocking short-circuits the
// consent machine: the block row, the forced match transition and the
// audit entry land in one transaction, so a blocked match without a
// block row (or the reverse) is never observable.
type SafetyService struct {
	Dynamo  DB
	Consent *ConsentService
	Audit   *AuditService
	Logger  *zap.Logger
}

// Block creates a directed block and forces every active match between
// the pair into the blocked terminal state.
func (s *SafetyService) Block(ctx context.Context, blockerID, blockedID string) error {
	if blockerID == blockedID {
		return apperrors.Validation("cannot block yourself")
	}

	existing, err := s.getBlock(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperrors.Conflict("user already blocked")
	}

	block := models.Block{
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	blockItem, err := attributevalue.MarshalMap(block)
	if err != nil {
		return apperrors.Internal("failed to marshal block", err)
	}

	blocksTable := models.BlocksTable
	condition := "attribute_not_exists(blockerId)"
	items := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           &blocksTable,
				Item:                blockItem,
				ConditionExpression: &condition,
			},
		},
	}

	matches, err := s.Consent.MatchesForPair(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if models.IsTerminalState(m.ConsentState) {
			continue
		}
		items = append(items, TransitionItem(m.MatchID, m.ConsentState, models.StateBlocked))
	}

	auditItem, err := s.Audit.TransactPut(NewAuditEntry(blockerID, models.AuditActionBlockUser,
		map[string]interface{}{"blocked_user_id": blockedID}))
	if err != nil {
		return apperrors.Internal("failed to build audit entry", err)
	}
	items = append(items, auditItem)

	if err := s.Dynamo.TransactWriteItems(ctx, items); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			// Either a duplicate block or a match transition raced us.
			return apperrors.Conflict("block conflicts with a concurrent change")
		}
		return apperrors.Dependency("failed to commit block", err)
	}

	s.Logger.Info("user blocked",
		zap.String("blockerId", blockerID),
		zap.String("blockedId", blockedID),
		zap.Int("matchesBlocked", len(items)-2))
	return nil
}

// Unblock deletes the block row. Matches forced to blocked stay blocked;
// reconnecting takes a fresh connection request.
func (s *SafetyService) Unblock(ctx context.Context, blockerID, blockedID string) error {
	existing, err := s.getBlock(ctx, blockerID, blockedID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperrors.NotFound("block not found")
	}

	key := blockKey(blockerID, blockedID)
	if err := s.Dynamo.DeleteItem(ctx, models.BlocksTable, key); err != nil {
		return apperrors.Dependency("failed to delete block", err)
	}
	return nil
}

// ListBlocked returns users the caller has blocked, newest first.
func (s *SafetyService) ListBlocked(ctx context.Context, blockerID string) ([]models.Block, error) {
	keyCondition := "#blockerId = :blockerId"
	values := map[string]types.AttributeValue{
		":blockerId": &types.AttributeValueMemberS{Value: blockerID},
	}
	names := map[string]string{"#blockerId": "blockerId"}

	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.BlocksTable, keyCondition, values, names, 100, true)
	if err != nil {
		return nil, apperrors.Dependency("failed to query blocks", err)
	}

	var blocks []models.Block
	if err := attributevalue.UnmarshalListOfMaps(items, &blocks); err != nil {
		return nil, apperrors.Internal("failed to parse blocks", err)
	}
	return blocks, nil
}

// IsBlockedEither reports whether a block exists in either direction.
// Every read that exposes cross-user data consults this.
func (s *SafetyService) IsBlockedEither(ctx context.Context, userA, userB string) (bool, error) {
	forward, err := s.getBlock(ctx, userA, userB)
	if err != nil {
		return false, err
	}
	if forward != nil {
		return true, nil
	}
	reverse, err := s.getBlock(ctx, userB, userA)
	if err != nil {
		return false, err
	}
	return reverse != nil, nil
}

// Report files a report against another user. Report and audit entry
// commit together. No match or block needs to exist.
func (s *SafetyService) Report(ctx context.Context, reporterID, reportedID, category, contextText string) (*models.Report, error) {
	if reporterID == reportedID {
		return nil, apperrors.Validation("cannot report yourself")
	}
	if !validReportCategory(category) {
		return nil, apperrors.Validation("valid category is required")
	}

	report := models.Report{
		ReportID:   uuid.New().String(),
		ReporterID: reporterID,
		ReportedID: reportedID,
		Category:   category,
		Context:    contextText,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	reportItem, err := attributevalue.MarshalMap(report)
	if err != nil {
		return nil, apperrors.Internal("failed to marshal report", err)
	}

	auditItem, err := s.Audit.TransactPut(NewAuditEntry(reporterID, models.AuditActionReportUser,
		map[string]interface{}{"reported_user_id": reportedID, "category": category}))
	if err != nil {
		return nil, apperrors.Internal("failed to build audit entry", err)
	}

	reportsTable := models.ReportsTable
	items := []types.TransactWriteItem{
		{Put: &types.Put{TableName: &reportsTable, Item: reportItem}},
		auditItem,
	}
	if err := s.Dynamo.TransactWriteItems(ctx, items); err != nil {
		return nil, apperrors.Dependency("failed to submit report", err)
	}

	s.Logger.Info("user reported",
		zap.String("reporterId", reporterID),
		zap.String("reportedId", reportedID),
		zap.String("category", category))
	return &report, nil
}

func (s *SafetyService) getBlock(ctx context.Context, blockerID, blockedID string) (map[string]types.AttributeValue, error) {
	item, err := s.Dynamo.GetItem(ctx, models.BlocksTable, blockKey(blockerID, blockedID))
	if err != nil {
		return nil, apperrors.Dependency("failed to load block", err)
	}
	return item, nil
}

func blockKey(blockerID, blockedID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"blockerId": &types.AttributeValueMemberS{Value: blockerID},
		"blockedId": &types.AttributeValueMemberS{Value: blockedID},
	}
}

func validReportCategory(category string) bool {
	for _, c := range models.ReportCategories {
		if c == category {
			return true
		}
	}
	return false
}
