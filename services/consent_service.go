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

// ConsentService is the single authority over match consent states. All
// membership checks and state transitions go through here; controllers
// and sibling services never compare state strings themselves.
type ConsentService struct {
	Dynamo DB
	Logger *zap.Logger
}

// GetMatchForUser loads a match and verifies the caller is a member.
// Non-members get the same not-found as a missing match, so record
// existence never leaks.
func (s *ConsentService) GetMatchForUser(ctx context.Context, matchID, userID string) (*models.Match, error) {
	key := map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.MatchesTable, key)
	if err != nil {
		return nil, apperrors.Dependency("failed to load match", err)
	}
	if item == nil {
		return nil, apperrors.NotFound("match not found")
	}

	var match models.Match
	if err := attributevalue.UnmarshalMap(item, &match); err != nil {
		return nil, apperrors.Internal("failed to parse match", err)
	}
	if !match.IsMember(userID) {
		return nil, apperrors.NotFound("match not found")
	}
	return &match, nil
}

// Transition applies event to the match on behalf of actorID. The guard
// check and the state write happen in one conditional update, so two
// racing callers serialize with exactly one winner; the loser re-reads
// and gets an invalid-state error carrying the state that beat it.
func (s *ConsentService) Transition(ctx context.Context, matchID, actorID, event string) (*models.Match, error) {
	match, err := s.GetMatchForUser(ctx, matchID, actorID)
	if err != nil {
		return nil, err
	}

	target, err := targetState(match.ConsentState, event)
	if err != nil {
		return nil, err
	}

	updated, err := s.transitionConditional(ctx, matchID, match.ConsentState, target)
	if err == nil {
		s.Logger.Info("consent state transition",
			zap.String("matchId", matchID),
			zap.String("actorId", actorID),
			zap.String("event", event),
			zap.String("from", match.ConsentState),
			zap.String("to", target))
		return updated, nil
	}

	if errors.Is(err, ErrConditionFailed) {
		// Lost a race: surface whatever state won.
		current, rerr := s.GetMatchForUser(ctx, matchID, actorID)
		if rerr != nil {
			return nil, rerr
		}
		return nil, apperrors.InvalidState("match state changed concurrently", current.ConsentState)
	}
	return nil, err
}

// TransitionItem builds the conditional state-flip as a transaction part
// for callers that must commit it together with other writes (reveal
// confirmation, block enforcement).
func TransitionItem(matchID, fromState, toState string) types.TransactWriteItem {
	table := models.MatchesTable
	update := "SET #consentState = :to"
	condition := "#consentState = :from"
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName:        &table,
			Key:              map[string]types.AttributeValue{"matchId": &types.AttributeValueMemberS{Value: matchID}},
			UpdateExpression: &update,
			ExpressionAttributeNames: map[string]string{
				"#consentState": "consentState",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":to":   &types.AttributeValueMemberS{Value: toState},
				":from": &types.AttributeValueMemberS{Value: fromState},
			},
			ConditionExpression: &condition,
		},
	}
}

func (s *ConsentService) transitionConditional(ctx context.Context, matchID, fromState, toState string) (*models.Match, error) {
	key := map[string]types.AttributeValue{
		"matchId": &types.AttributeValueMemberS{Value: matchID},
	}
	update := "SET #consentState = :to"
	values := map[string]types.AttributeValue{
		":to":   &types.AttributeValueMemberS{Value: toState},
		":from": &types.AttributeValueMemberS{Value: fromState},
	}
	names := map[string]string{"#consentState": "consentState"}

	attrs, err := s.Dynamo.UpdateItemWithCondition(ctx, models.MatchesTable, update, key, values, names, "#consentState = :from")
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, err
		}
		return nil, apperrors.Dependency("failed to update match state", err)
	}

	var match models.Match
	if err := attributevalue.UnmarshalMap(attrs, &match); err != nil {
		return nil, apperrors.Internal("failed to parse match", err)
	}
	return &match, nil
}

func targetState(current, event string) (string, error) {
	edges, ok := models.ConsentTransitions[current]
	if !ok {
		// Terminal states have no outgoing edges at all.
		return "", apperrors.InvalidState("no transitions available", current)
	}
	target, ok := edges[event]
	if !ok {
		return "", apperrors.InvalidState("invalid consent state for this action", current)
	}
	return target, nil
}

// CreateMatch inserts a fresh match in the initial chatting state.
func (s *ConsentService) CreateMatch(ctx context.Context, userA, userB string) (*models.Match, error) {
	match := models.Match{
		MatchID:      uuid.New().String(),
		UserA:        userA,
		UserB:        userB,
		PairKey:      models.PairKeyFor(userA, userB),
		ConsentState: models.StateChatting,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Dynamo.PutItem(ctx, models.MatchesTable, match); err != nil {
		return nil, apperrors.Dependency("failed to create match", err)
	}
	return &match, nil
}

// MatchesForPair returns every match row for an unordered pair, any state.
func (s *ConsentService) MatchesForPair(ctx context.Context, userA, userB string) ([]models.Match, error) {
	keyCondition := "#pairKey = :pairKey"
	values := map[string]types.AttributeValue{
		":pairKey": &types.AttributeValueMemberS{Value: models.PairKeyFor(userA, userB)},
	}
	names := map[string]string{"#pairKey": "pairKey"}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.MatchesTable, models.MatchPairKeyIndex, keyCondition, values, names, 25)
	if err != nil {
		return nil, apperrors.Dependency("failed to query matches for pair", err)
	}

	var matches []models.Match
	if err := attributevalue.UnmarshalListOfMaps(items, &matches); err != nil {
		return nil, apperrors.Internal("failed to parse matches", err)
	}
	return matches, nil
}

// HasActiveMatch reports whether the pair has a match outside the
// terminal states.
func (s *ConsentService) HasActiveMatch(ctx context.Context, userA, userB string) (bool, error) {
	matches, err := s.MatchesForPair(ctx, userA, userB)
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if !models.IsTerminalState(m.ConsentState) {
			return true, nil
		}
	}
	return false, nil
}
