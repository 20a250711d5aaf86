package models

import "sort"

type Match struct {
	MatchID      string `dynamodbav:"matchId" json:"matchId"`
	UserA        string `dynamodbav:"userA" json:"userA"`
	UserB        string `dynamodbav:"userB" json:"userB"`
	PairKey      string `dynamodbav:"pairKey" json:"-"`
	ConsentState string `dynamodbav:"consentState" json:"consentState"`
	CreatedAt    string `dynamodbav:"createdAt" json:"createdAt"`
}

// IsMember reports whether userID is one of the two members.
func (m *Match) IsMember(userID string) bool {
	return m.UserA == userID || m.UserB == userID
}

// PartnerOf returns the other member of the match.
func (m *Match) PartnerOf(userID string) string {
	if m.UserA == userID {
		return m.UserB
	}
	return m.UserA
}

// PairKeyFor builds the canonical unordered-pair key used to enforce
// one-active-relationship-per-pair constraints.
func PairKeyFor(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "#" + ids[1]
}

// MatchesTable is the DynamoDB table name for matches
const MatchesTable = "Matches"

// MatchPairKeyIndex is the GSI keyed on pairKey
const MatchPairKeyIndex = "pairKey-index"
