package services

import (
	"context"
	"strings"
	"time"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// MessageService handles polled messaging inside a match. Sending is
// allowed in every consent state except blocked and ended.
type MessageService struct {
	Dynamo   DB
	Consent  *ConsentService
	Profiles *ProfileService
}

// Send appends a message after verifying membership and that the match
// still permits messaging.
func (s *MessageService) Send(ctx context.Context, matchID, senderID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.Validation("message content is required")
	}

	match, err := s.Consent.GetMatchForUser(ctx, matchID, senderID)
	if err != nil {
		return nil, err
	}
	if !models.CanMessage(match.ConsentState) {
		return nil, apperrors.InvalidState("cannot send messages in this match", match.ConsentState)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	message := models.Message{
		MatchID:   matchID,
		MessageID: now + "#" + uuid.New().String(),
		SenderID:  senderID,
		Content:   content,
		IsUnread:  true,
		CreatedAt: now,
	}
	if err := s.Dynamo.PutItem(ctx, models.MessagesTable, message); err != nil {
		return nil, apperrors.Dependency("failed to store message", err)
	}

	if alias, aerr := s.Profiles.GetAlias(ctx, senderID); aerr == nil {
		message.SenderAlias = alias
	}
	return &message, nil
}

// List returns up to limit messages in chronological order. A non-empty
// before cursor (a messageId) pages backwards through history.
func (s *MessageService) List(ctx context.Context, matchID, userID string, limit int32, before string) ([]models.Message, error) {
	if _, err := s.Consent.GetMatchForUser(ctx, matchID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	keyCondition := "#matchId = :matchId"
	values := map[string]types.AttributeValue{
		":matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	names := map[string]string{"#matchId": "matchId"}
	if before != "" {
		keyCondition += " AND #messageId < :before"
		values[":before"] = &types.AttributeValueMemberS{Value: before}
		names["#messageId"] = "messageId"
	}

	// Fetch newest-first so the limit trims old history, then reverse.
	items, err := s.Dynamo.QueryItemsWithOptions(ctx, models.MessagesTable, keyCondition, values, names, limit, true)
	if err != nil {
		return nil, apperrors.Dependency("failed to fetch messages", err)
	}

	var messages []models.Message
	if err := attributevalue.UnmarshalListOfMaps(items, &messages); err != nil {
		return nil, apperrors.Internal("failed to parse messages", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	aliases := map[string]string{}
	for i := range messages {
		senderID := messages[i].SenderID
		if _, ok := aliases[senderID]; !ok {
			alias, aerr := s.Profiles.GetAlias(ctx, senderID)
			if aerr != nil {
				alias = ""
			}
			aliases[senderID] = alias
		}
		messages[i].SenderAlias = aliases[senderID]
	}
	return messages, nil
}

// MarkRead flips the unread flag on messages the caller received.
func (s *MessageService) MarkRead(ctx context.Context, matchID, userID string) error {
	if _, err := s.Consent.GetMatchForUser(ctx, matchID, userID); err != nil {
		return err
	}

	keyCondition := "#matchId = :matchId"
	values := map[string]types.AttributeValue{
		":matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	names := map[string]string{"#matchId": "matchId"}

	items, err := s.Dynamo.QueryItems(ctx, models.MessagesTable, keyCondition, values, names, 200)
	if err != nil {
		return apperrors.Dependency("failed to fetch messages", err)
	}

	for _, item := range items {
		sender, _ := item["senderId"].(*types.AttributeValueMemberS)
		messageID, _ := item["messageId"].(*types.AttributeValueMemberS)
		if sender == nil || messageID == nil || sender.Value == userID {
			continue
		}

		key := map[string]types.AttributeValue{
			"matchId":   &types.AttributeValueMemberS{Value: matchID},
			"messageId": &types.AttributeValueMemberS{Value: messageID.Value},
		}
		update := "SET #isUnread = :false"
		updateValues := map[string]types.AttributeValue{
			":false": &types.AttributeValueMemberBOOL{Value: false},
		}
		updateNames := map[string]string{"#isUnread": "isUnread"}
		if _, err := s.Dynamo.UpdateItem(ctx, models.MessagesTable, update, key, updateValues, updateNames); err != nil {
			return apperrors.Dependency("failed to mark message read", err)
		}
	}
	return nil
}
