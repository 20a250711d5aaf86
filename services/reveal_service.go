package services

import (
	"context"
	"errors"
	"time"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// RevealService runs the two-phase address disclosure. Request moves the
// match to address_requested; confirm flips it to revealed and writes
// the audit pair in one transaction, so either both members' addresses
// become readable in the same instant or nothing changes.
type RevealService struct {
	Dynamo  DB
	Consent *ConsentService
	Safety  *SafetyService
	Audit   *AuditService
	Cipher  *AddressCipher
	Logger  *zap.Logger
}

// SaveAddress encrypts and upserts the caller's address. One row per
// user; saving again overwrites envelope and timestamp.
func (s *RevealService) SaveAddress(ctx context.Context, userID string, addr models.AddressRecord) (*models.Address, error) {
	if addr.Street == "" || addr.City == "" || addr.PostalCode == "" || addr.Country == "" {
		return nil, apperrors.Validation("complete address required: street, city, postal_code and country")
	}

	envelope, err := s.Cipher.Encrypt(addr)
	if err != nil {
		return nil, err
	}

	record := models.Address{
		UserID:    userID,
		Envelope:  envelope,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.Dynamo.PutItem(ctx, models.AddressesTable, record); err != nil {
		return nil, apperrors.Dependency("failed to store address", err)
	}
	return &record, nil
}

// GetMyAddress decrypts the caller's own stored address.
func (s *RevealService) GetMyAddress(ctx context.Context, userID string) (*models.AddressRecord, string, error) {
	stored, err := s.loadAddress(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	addr, err := s.Cipher.Decrypt(stored.Envelope)
	if err != nil {
		s.Logger.Error("failed to decrypt own address", zap.String("userId", userID), zap.Error(err))
		return nil, "", err
	}
	return &addr, stored.CreatedAt, nil
}

// RequestReveal is phase one: only valid from mutual_pen_pal.
func (s *RevealService) RequestReveal(ctx context.Context, matchID, requesterID string) (*models.Match, error) {
	return s.Consent.Transition(ctx, matchID, requesterID, models.EventRequestReveal)
}

// ConfirmReveal is phase two. Guards: state is exactly address_requested,
// the confirmer is a member, and both members have a stored address.
// The state flip and both audit entries commit atomically; a concurrent
// confirmer loses the conditional check and observes invalid-state.
func (s *RevealService) ConfirmReveal(ctx context.Context, matchID, confirmerID string) (*models.Match, error) {
	match, err := s.Consent.GetMatchForUser(ctx, matchID, confirmerID)
	if err != nil {
		return nil, err
	}
	if match.ConsentState != models.StateAddressRequested {
		return nil, apperrors.InvalidState("address reveal has not been requested", match.ConsentState)
	}

	for _, member := range []string{match.UserA, match.UserB} {
		if _, err := s.loadAddress(ctx, member); err != nil {
			if apperrors.Is(err, apperrors.CodeNotFound) {
				return nil, apperrors.Validation("both users must save their addresses first")
			}
			return nil, err
		}
	}

	auditA, err := s.Audit.TransactPut(NewAuditEntry(match.UserA, models.AuditActionAddressReveal,
		map[string]interface{}{"match_id": matchID, "partner_id": match.UserB}))
	if err != nil {
		return nil, apperrors.Internal("failed to build audit entry", err)
	}
	auditB, err := s.Audit.TransactPut(NewAuditEntry(match.UserB, models.AuditActionAddressReveal,
		map[string]interface{}{"match_id": matchID, "partner_id": match.UserA}))
	if err != nil {
		return nil, apperrors.Internal("failed to build audit entry", err)
	}

	items := []types.TransactWriteItem{
		TransitionItem(matchID, models.StateAddressRequested, models.StateRevealed),
		auditA,
		auditB,
	}

	if err := s.Dynamo.TransactWriteItems(ctx, items); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			current, rerr := s.Consent.GetMatchForUser(ctx, matchID, confirmerID)
			if rerr != nil {
				return nil, rerr
			}
			return nil, apperrors.InvalidState("match state changed concurrently", current.ConsentState)
		}
		return nil, apperrors.Dependency("failed to commit address reveal", err)
	}

	s.Logger.Info("addresses revealed",
		zap.String("matchId", matchID),
		zap.String("confirmerId", confirmerID))

	match.ConsentState = models.StateRevealed
	return match, nil
}

// GetPartnerAddress returns the counterpart's plaintext address. The
// block check happens at read time, not only at block creation, so a
// block that raced the reveal still hides the address.
func (s *RevealService) GetPartnerAddress(ctx context.Context, matchID, requesterID string) (*models.AddressRecord, error) {
	match, err := s.Consent.GetMatchForUser(ctx, matchID, requesterID)
	if err != nil {
		return nil, err
	}
	if match.ConsentState != models.StateRevealed {
		return nil, apperrors.InvalidState("addresses have not been revealed", match.ConsentState)
	}

	partnerID := match.PartnerOf(requesterID)

	blocked, err := s.Safety.IsBlockedEither(ctx, requesterID, partnerID)
	if err != nil {
		return nil, err
	}
	if blocked {
		// Same response as a missing address: existence of the block
		// is not disclosed.
		return nil, apperrors.NotFound("address not available")
	}

	stored, err := s.loadAddress(ctx, partnerID)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return nil, apperrors.NotFound("partner address not found")
		}
		return nil, err
	}

	addr, err := s.Cipher.Decrypt(stored.Envelope)
	if err != nil {
		s.Logger.Error("failed to decrypt partner address",
			zap.String("matchId", matchID),
			zap.String("partnerId", partnerID),
			zap.Error(err))
		return nil, err
	}
	return &addr, nil
}

func (s *RevealService) loadAddress(ctx context.Context, userID string) (*models.Address, error) {
	key := map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
	item, err := s.Dynamo.GetItem(ctx, models.AddressesTable, key)
	if err != nil {
		return nil, apperrors.Dependency("failed to load address", err)
	}
	if item == nil {
		return nil, apperrors.NotFound("address not found")
	}

	var stored models.Address
	if err := attributevalue.UnmarshalMap(item, &stored); err != nil {
		return nil, apperrors.Internal("failed to parse address", err)
	}
	return &stored, nil
}
