package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// LetterService tracks physical letters. Events can only be recorded
// once the pair has mutually agreed to be pen pals.
type LetterService struct {
	Dynamo   DB
	Consent  *ConsentService
	Profiles *ProfileService
}

// CreateEvent records a sent/received letter event for the caller.
func (s *LetterService) CreateEvent(ctx context.Context, matchID, userID, eventType string) (*models.LetterEvent, error) {
	if eventType != models.LetterEventSent && eventType != models.LetterEventReceived {
		return nil, apperrors.Validation("event_type must be sent or received")
	}

	match, err := s.Consent.GetMatchForUser(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}
	if !models.CanTrackLetters(match.ConsentState) {
		return nil, apperrors.InvalidState("letter tracking requires mutual pen pal consent", match.ConsentState)
	}

	event := models.LetterEvent{
		EventID:   uuid.New().String(),
		MatchID:   matchID,
		UserID:    userID,
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Dynamo.PutItem(ctx, models.LetterEventsTable, event); err != nil {
		return nil, apperrors.Dependency("failed to store letter event", err)
	}
	return &event, nil
}

// ListEvents returns a match's letter events, newest first, with the
// recording member's alias attached.
func (s *LetterService) ListEvents(ctx context.Context, matchID, userID string) ([]models.LetterEvent, error) {
	if _, err := s.Consent.GetMatchForUser(ctx, matchID, userID); err != nil {
		return nil, err
	}

	keyCondition := "#matchId = :matchId"
	values := map[string]types.AttributeValue{
		":matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	names := map[string]string{"#matchId": "matchId"}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.LetterEventsTable, models.LetterEventMatchIndex, keyCondition, values, names, 200)
	if err != nil {
		return nil, apperrors.Dependency("failed to query letter events", err)
	}

	var events []models.LetterEvent
	if err := attributevalue.UnmarshalListOfMaps(items, &events); err != nil {
		return nil, apperrors.Internal("failed to parse letter events", err)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})

	aliases := map[string]string{}
	for i := range events {
		id := events[i].UserID
		if _, ok := aliases[id]; !ok {
			alias, aerr := s.Profiles.GetAlias(ctx, id)
			if aerr != nil {
				alias = ""
			}
			aliases[id] = alias
		}
		events[i].UserAlias = aliases[id]
	}
	return events, nil
}

// UpdateEvent lets the creator overwrite the type (and refresh the
// timestamp) of their own event. No one else may touch it, and events
// are never deleted.
func (s *LetterService) UpdateEvent(ctx context.Context, eventID, userID, eventType string) (*models.LetterEvent, error) {
	if eventType != models.LetterEventSent && eventType != models.LetterEventReceived {
		return nil, apperrors.Validation("event_type must be sent or received")
	}

	key := map[string]types.AttributeValue{
		"eventId": &types.AttributeValueMemberS{Value: eventID},
	}
	update := "SET #eventType = :eventType, #timestamp = :timestamp"
	values := map[string]types.AttributeValue{
		":eventType": &types.AttributeValueMemberS{Value: eventType},
		":timestamp": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		":userId":    &types.AttributeValueMemberS{Value: userID},
	}
	names := map[string]string{
		"#eventType": "eventType",
		"#timestamp": "timestamp",
		"#userId":    "userId",
	}
	// Ownership is part of the condition: a non-owner gets the same
	// not-found as a missing event.
	condition := "attribute_exists(eventId) AND #userId = :userId"

	attrs, err := s.Dynamo.UpdateItemWithCondition(ctx, models.LetterEventsTable, update, key, values, names, condition)
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, apperrors.NotFound("letter event not found")
		}
		return nil, apperrors.Dependency("failed to update letter event", err)
	}

	var event models.LetterEvent
	if err := attributevalue.UnmarshalMap(attrs, &event); err != nil {
		return nil, apperrors.Internal("failed to parse letter event", err)
	}
	return &event, nil
}

// GetEventForUser loads an event and verifies the caller is a member of
// its match (used by scan uploads).
func (s *LetterService) GetEventForUser(ctx context.Context, eventID, userID string) (*models.LetterEvent, error) {
	item, err := s.Dynamo.GetItem(ctx, models.LetterEventsTable, map[string]types.AttributeValue{
		"eventId": &types.AttributeValueMemberS{Value: eventID},
	})
	if err != nil {
		return nil, apperrors.Dependency("failed to load letter event", err)
	}
	if item == nil {
		return nil, apperrors.NotFound("letter event not found")
	}

	var event models.LetterEvent
	if err := attributevalue.UnmarshalMap(item, &event); err != nil {
		return nil, apperrors.Internal("failed to parse letter event", err)
	}

	if _, err := s.Consent.GetMatchForUser(ctx, event.MatchID, userID); err != nil {
		return nil, apperrors.NotFound("letter event not found")
	}
	return &event, nil
}
