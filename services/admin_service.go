package services

import (
	"context"
	"sort"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// AdminService backs the moderation surface: report review and
// enforcement actions against accounts.
type AdminService struct {
	Dynamo   DB
	Consent  *ConsentService
	Messages *MessageService
	Audit    *AuditService
	Logger   *zap.Logger
}

// ReportDetails is a report plus the evidence an admin reviews: recent
// messages between the pair, if they share a match.
type ReportDetails struct {
	Report         models.Report    `json:"report"`
	RecentMessages []models.Message `json:"recentMessages"`
}

// ListReports returns reports newest first with offset/limit paging.
func (s *AdminService) ListReports(ctx context.Context, limit, offset int) ([]models.Report, error) {
	var reports []models.Report
	if err := s.Dynamo.ScanWithFilter(ctx, models.ReportsTable, nil, nil, &reports); err != nil {
		return nil, apperrors.Dependency("failed to scan reports", err)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt > reports[j].CreatedAt
	})

	if offset >= len(reports) {
		return []models.Report{}, nil
	}
	reports = reports[offset:]
	if limit > 0 && len(reports) > limit {
		reports = reports[:limit]
	}
	return reports, nil
}

// GetReportDetails loads a report and the last messages exchanged
// between reporter and reported, across their matches.
func (s *AdminService) GetReportDetails(ctx context.Context, reportID string) (*ReportDetails, error) {
	item, err := s.Dynamo.GetItem(ctx, models.ReportsTable, map[string]types.AttributeValue{
		"reportId": &types.AttributeValueMemberS{Value: reportID},
	})
	if err != nil {
		return nil, apperrors.Dependency("failed to load report", err)
	}
	if item == nil {
		return nil, apperrors.NotFound("report not found")
	}

	var report models.Report
	if err := attributevalue.UnmarshalMap(item, &report); err != nil {
		return nil, apperrors.Internal("failed to parse report", err)
	}

	details := &ReportDetails{Report: report, RecentMessages: []models.Message{}}

	matches, err := s.Consent.MatchesForPair(ctx, report.ReporterID, report.ReportedID)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		messages, merr := s.messagesForMatch(ctx, m.MatchID, 20)
		if merr != nil {
			return nil, merr
		}
		details.RecentMessages = append(details.RecentMessages, messages...)
	}

	sort.SliceStable(details.RecentMessages, func(i, j int) bool {
		return details.RecentMessages[i].CreatedAt > details.RecentMessages[j].CreatedAt
	})
	if len(details.RecentMessages) > 20 {
		details.RecentMessages = details.RecentMessages[:20]
	}
	return details, nil
}

// TakeAction applies a moderation action to a user. warn only records
// an audit entry; suspend and ban also flip the account status.
func (s *AdminService) TakeAction(ctx context.Context, adminID, targetUserID, action, reason string) error {
	if !validAdminAction(action) {
		return apperrors.Validation("action must be one of warn, suspend, ban")
	}

	item, err := s.Dynamo.GetItem(ctx, models.UsersTable, map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: targetUserID},
	})
	if err != nil {
		return apperrors.Dependency("failed to load user", err)
	}
	if item == nil {
		return apperrors.NotFound("user not found")
	}

	if action == "suspend" || action == "ban" {
		status := models.UserStatusSuspended
		if action == "ban" {
			status = models.UserStatusBanned
		}
		key := map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: targetUserID},
		}
		update := "SET #status = :status"
		values := map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: status},
		}
		names := map[string]string{"#status": "status"}
		if _, err := s.Dynamo.UpdateItem(ctx, models.UsersTable, update, key, values, names); err != nil {
			return apperrors.Dependency("failed to update user status", err)
		}
	}

	if err := s.Audit.Append(ctx, targetUserID, models.AuditActionModeration, map[string]interface{}{
		"adminId": adminID,
		"action":  action,
		"reason":  reason,
	}); err != nil {
		return err
	}

	s.Logger.Info("moderation action",
		zap.String("adminId", adminID),
		zap.String("targetUserId", targetUserID),
		zap.String("action", action))
	return nil
}

func (s *AdminService) messagesForMatch(ctx context.Context, matchID string, limit int32) ([]models.Message, error) {
	keyCondition := "#matchId = :matchId"
	values := map[string]types.AttributeValue{
		":matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	names := map[string]string{"#matchId": "matchId"}

	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.MessagesTable, keyCondition, values, names, limit, true)
	if err != nil {
		return nil, apperrors.Dependency("failed to fetch messages", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, apperrors.Internal("failed to parse messages", err)
	}
	return messages, nil
}

func validAdminAction(action string) bool {
	for _, a := range models.AdminActions {
		if a == action {
			return true
		}
	}
	return false
}
