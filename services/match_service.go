package services

import (
	"context"
	"sort"

	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MatchService lists a user's matches and exposes the pen-pal consent
// transitions. The transitions themselves live in ConsentService; this
// is the thin domain surface over it.
type MatchService struct {
	Dynamo   DB
	Consent  *ConsentService
	Profiles *ProfileService
}

// MatchWithPartner is a match enriched with partner profile fields for
// the matches list view.
type MatchWithPartner struct {
	models.Match
	PartnerID        string   `json:"partnerId"`
	PartnerAlias     string   `json:"partnerAlias"`
	PartnerInterests []string `json:"partnerInterests,omitempty"`
}

// ListActive returns the caller's matches outside the terminal states,
// newest first, with partner alias and interests attached.
func (s *MatchService) ListActive(ctx context.Context, userID string) ([]MatchWithPartner, error) {
	matches, err := s.matchesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]MatchWithPartner, 0, len(matches))
	for _, m := range matches {
		if models.IsTerminalState(m.ConsentState) {
			continue
		}
		partnerID := m.PartnerOf(userID)
		enriched := MatchWithPartner{Match: m, PartnerID: partnerID}

		if profile, perr := s.Profiles.GetProfile(ctx, partnerID); perr == nil {
			enriched.PartnerAlias = profile.Alias
			enriched.PartnerInterests = profile.Interests
		}
		result = append(result, enriched)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt > result[j].CreatedAt
	})
	return result, nil
}

// RequestPenPal moves a chatting match to requested_pen_pal.
func (s *MatchService) RequestPenPal(ctx context.Context, matchID, userID string) (*models.Match, error) {
	return s.Consent.Transition(ctx, matchID, userID, models.EventRequestPenPal)
}

// ConfirmPenPal moves a requested match to mutual_pen_pal.
func (s *MatchService) ConfirmPenPal(ctx context.Context, matchID, userID string) (*models.Match, error) {
	return s.Consent.Transition(ctx, matchID, userID, models.EventConfirmPenPal)
}

// End forces the match into the ended terminal state; either member may
// do this from any non-terminal state.
func (s *MatchService) End(ctx context.Context, matchID, userID string) (*models.Match, error) {
	return s.Consent.Transition(ctx, matchID, userID, models.EventEnd)
}

func (s *MatchService) matchesForUser(ctx context.Context, userID string) ([]models.Match, error) {
	var matches []models.Match
	err := s.Dynamo.ScanWithFilter(ctx, models.MatchesTable, func(item map[string]types.AttributeValue) bool {
		a, _ := item["userA"].(*types.AttributeValueMemberS)
		b, _ := item["userB"].(*types.AttributeValueMemberS)
		return (a != nil && a.Value == userID) || (b != nil && b.Value == userID)
	}, nil, &matches)
	if err != nil {
		return nil, err
	}
	return matches, nil
}
