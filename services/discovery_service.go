package services

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DiscoveryService builds the discovery feed and manages connection
// requests, the pre-match handshake.
type DiscoveryService struct {
	Dynamo  DB
	Consent *ConsentService
	Logger  *zap.Logger

	// AllowRerequestAfterReject lets a pair try again after a prior
	// rejection. Off by default, matching the historical behavior of
	// rejected pairs staying rejected.
	AllowRerequestAfterReject bool
}

// GetFeed returns a random sample of profiles the caller can still
// connect with: not self, not blocked in either direction, no pending
// request and no existing match.
func (s *DiscoveryService) GetFeed(ctx context.Context, userID string, limit, offset int) ([]models.Profile, error) {
	if limit <= 0 {
		limit = 10
	}

	exclude := map[string]struct{}{userID: {}}
	var blockedOut, blockedIn, requested, matched []string

	// The four exclusion sets are independent reads.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blockedOut, err = s.blockedBy(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		blockedIn, err = s.blockersOf(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		requested, err = s.requestedPartners(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		matched, err = s.matchedPartners(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, set := range [][]string{blockedOut, blockedIn, requested, matched} {
		for _, id := range set {
			exclude[id] = struct{}{}
		}
	}

	var profiles []models.Profile
	err := s.Dynamo.ScanWithFilter(ctx, models.ProfilesTable, func(item map[string]types.AttributeValue) bool {
		idAttr, ok := item["userId"].(*types.AttributeValueMemberS)
		if !ok {
			return false
		}
		_, excluded := exclude[idAttr.Value]
		return !excluded
	}, nil, &profiles)
	if err != nil {
		return nil, apperrors.Dependency("failed to scan profiles", err)
	}

	rand.Shuffle(len(profiles), func(i, j int) {
		profiles[i], profiles[j] = profiles[j], profiles[i]
	})

	if offset >= len(profiles) {
		return []models.Profile{}, nil
	}
	profiles = profiles[offset:]
	if len(profiles) > limit {
		profiles = profiles[:limit]
	}
	return profiles, nil
}

// SendRequest creates a connection request toward toUser. The table is
// keyed on the pair, so the conditional put is the uniqueness check.
func (s *DiscoveryService) SendRequest(ctx context.Context, fromUser, toUser string) (*models.ConnectionRequest, error) {
	if fromUser == toUser {
		return nil, apperrors.Validation("cannot send a connection request to yourself")
	}

	active, err := s.Consent.HasActiveMatch(ctx, fromUser, toUser)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, apperrors.Conflict("already connected")
	}

	pairKey := models.PairKeyFor(fromUser, toUser)
	request := models.ConnectionRequest{
		PairKey:   pairKey,
		RequestID: uuid.New().String(),
		FromUser:  fromUser,
		ToUser:    toUser,
		Status:    models.RequestStatusPending,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	condition := "attribute_not_exists(pairKey)"
	if s.AllowRerequestAfterReject {
		// A rejected request may be replaced; pending/accepted may not.
		condition = "attribute_not_exists(pairKey) OR #status = :rejected"
	}
	values := map[string]types.AttributeValue{}
	names := map[string]string{}
	if s.AllowRerequestAfterReject {
		values[":rejected"] = &types.AttributeValueMemberS{Value: models.RequestStatusRejected}
		names["#status"] = "status"
	}

	err = s.Dynamo.PutItemWithCondition(ctx, models.ConnectionRequestsTable, request, condition, names, values)
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, apperrors.Conflict("connection request already exists")
		}
		return nil, apperrors.Dependency("failed to create connection request", err)
	}

	s.Logger.Info("connection request sent",
		zap.String("fromUser", fromUser),
		zap.String("toUser", toUser))
	return &request, nil
}

// Respond accepts or rejects a pending request addressed to userID.
// Accepting atomically marks the request accepted and creates the match
// in the chatting state.
func (s *DiscoveryService) Respond(ctx context.Context, requestID, userID, action string) (*models.Match, error) {
	if action != "accept" && action != "reject" {
		return nil, apperrors.Validation("action must be accept or reject")
	}

	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil || request.ToUser != userID || request.Status != models.RequestStatusPending {
		return nil, apperrors.NotFound("connection request not found")
	}

	if action == "reject" {
		if err := s.setRequestStatus(ctx, request.PairKey, models.RequestStatusRejected); err != nil {
			return nil, err
		}
		return nil, nil
	}

	match := models.Match{
		MatchID:      uuid.New().String(),
		UserA:        request.FromUser,
		UserB:        request.ToUser,
		PairKey:      request.PairKey,
		ConsentState: models.StateChatting,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	matchItem, err := attributevalue.MarshalMap(match)
	if err != nil {
		return nil, apperrors.Internal("failed to marshal match", err)
	}

	requestsTable := models.ConnectionRequestsTable
	matchesTable := models.MatchesTable
	update := "SET #status = :accepted"
	condition := "#status = :pending"
	items := []types.TransactWriteItem{
		{
			Update: &types.Update{
				TableName: &requestsTable,
				Key: map[string]types.AttributeValue{
					"pairKey": &types.AttributeValueMemberS{Value: request.PairKey},
				},
				UpdateExpression:    &update,
				ConditionExpression: &condition,
				ExpressionAttributeNames: map[string]string{
					"#status": "status",
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":accepted": &types.AttributeValueMemberS{Value: models.RequestStatusAccepted},
					":pending":  &types.AttributeValueMemberS{Value: models.RequestStatusPending},
				},
			},
		},
		{Put: &types.Put{TableName: &matchesTable, Item: matchItem}},
	}

	if err := s.Dynamo.TransactWriteItems(ctx, items); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, apperrors.Conflict("request was already answered")
		}
		return nil, apperrors.Dependency("failed to accept connection request", err)
	}

	s.Logger.Info("connection request accepted",
		zap.String("requestId", requestID),
		zap.String("matchId", match.MatchID))
	return &match, nil
}

// PendingFor lists pending requests addressed to the user, newest first.
func (s *DiscoveryService) PendingFor(ctx context.Context, userID string) ([]models.ConnectionRequest, error) {
	keyCondition := "#toUser = :toUser"
	values := map[string]types.AttributeValue{
		":toUser": &types.AttributeValueMemberS{Value: userID},
	}
	names := map[string]string{"#toUser": "toUser"}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ConnectionRequestsTable, models.RequestToUserIndex, keyCondition, values, names, 100)
	if err != nil {
		return nil, apperrors.Dependency("failed to query requests", err)
	}

	var requests []models.ConnectionRequest
	if err := attributevalue.UnmarshalListOfMaps(items, &requests); err != nil {
		return nil, apperrors.Internal("failed to parse requests", err)
	}

	pending := requests[:0]
	for _, r := range requests {
		if r.Status == models.RequestStatusPending {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

func (s *DiscoveryService) findRequest(ctx context.Context, requestID string) (*models.ConnectionRequest, error) {
	keyCondition := "#requestId = :requestId"
	values := map[string]types.AttributeValue{
		":requestId": &types.AttributeValueMemberS{Value: requestID},
	}
	names := map[string]string{"#requestId": "requestId"}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.ConnectionRequestsTable, models.RequestIDIndex, keyCondition, values, names, 1)
	if err != nil {
		return nil, apperrors.Dependency("failed to look up request", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var request models.ConnectionRequest
	if err := attributevalue.UnmarshalMap(items[0], &request); err != nil {
		return nil, apperrors.Internal("failed to parse request", err)
	}
	return &request, nil
}

func (s *DiscoveryService) setRequestStatus(ctx context.Context, pairKey, status string) error {
	update := "SET #status = :status"
	key := map[string]types.AttributeValue{
		"pairKey": &types.AttributeValueMemberS{Value: pairKey},
	}
	values := map[string]types.AttributeValue{
		":status":  &types.AttributeValueMemberS{Value: status},
		":pending": &types.AttributeValueMemberS{Value: models.RequestStatusPending},
	}
	names := map[string]string{"#status": "status"}

	_, err := s.Dynamo.UpdateItemWithCondition(ctx, models.ConnectionRequestsTable, update, key, values, names, "#status = :pending")
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return apperrors.Conflict("request was already answered")
		}
		return apperrors.Dependency("failed to update request", err)
	}
	return nil
}

func (s *DiscoveryService) blockedBy(ctx context.Context, userID string) ([]string, error) {
	keyCondition := "#blockerId = :id"
	values := map[string]types.AttributeValue{
		":id": &types.AttributeValueMemberS{Value: userID},
	}
	names := map[string]string{"#blockerId": "blockerId"}

	items, err := s.Dynamo.QueryItems(ctx, models.BlocksTable, keyCondition, values, names, 500)
	if err != nil {
		return nil, apperrors.Dependency("failed to query blocks", err)
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if v, ok := item["blockedId"].(*types.AttributeValueMemberS); ok {
			ids = append(ids, v.Value)
		}
	}
	return ids, nil
}

func (s *DiscoveryService) blockersOf(ctx context.Context, userID string) ([]string, error) {
	keyCondition := "#blockedId = :id"
	values := map[string]types.AttributeValue{
		":id": &types.AttributeValueMemberS{Value: userID},
	}
	names := map[string]string{"#blockedId": "blockedId"}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.BlocksTable, models.BlockedIndex, keyCondition, values, names, 500)
	if err != nil {
		return nil, apperrors.Dependency("failed to query reverse blocks", err)
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if v, ok := item["blockerId"].(*types.AttributeValueMemberS); ok {
			ids = append(ids, v.Value)
		}
	}
	return ids, nil
}

func (s *DiscoveryService) requestedPartners(ctx context.Context, userID string) ([]string, error) {
	// Requests are pair-keyed, so both directions live on the same rows;
	// a scan keeps this simple at discovery-feed scale.
	var requests []models.ConnectionRequest
	if err := s.Dynamo.ScanWithFilter(ctx, models.ConnectionRequestsTable, func(item map[string]types.AttributeValue) bool {
		from, _ := item["fromUser"].(*types.AttributeValueMemberS)
		to, _ := item["toUser"].(*types.AttributeValueMemberS)
		return (from != nil && from.Value == userID) || (to != nil && to.Value == userID)
	}, nil, &requests); err != nil {
		return nil, apperrors.Dependency("failed to scan requests", err)
	}

	ids := make([]string, 0, len(requests))
	for _, r := range requests {
		// When re-requests are allowed a rejected pair is
		// discoverable again, matching the SendRequest condition.
		if s.AllowRerequestAfterReject && r.Status == models.RequestStatusRejected {
			continue
		}
		if r.FromUser == userID {
			ids = append(ids, r.ToUser)
		} else {
			ids = append(ids, r.FromUser)
		}
	}
	return ids, nil
}

func (s *DiscoveryService) matchedPartners(ctx context.Context, userID string) ([]string, error) {
	var matches []models.Match
	if err := s.Dynamo.ScanWithFilter(ctx, models.MatchesTable, func(item map[string]types.AttributeValue) bool {
		a, _ := item["userA"].(*types.AttributeValueMemberS)
		b, _ := item["userB"].(*types.AttributeValueMemberS)
		return (a != nil && a.Value == userID) || (b != nil && b.Value == userID)
	}, nil, &matches); err != nil {
		return nil, apperrors.Dependency("failed to scan matches", err)
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.PartnerOf(userID))
	}
	return ids, nil
}
