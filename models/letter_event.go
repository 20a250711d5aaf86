package models

// LetterEvent records that a member marked a physical letter sent or
// received. Append-only except that the creator may overwrite the type
// and timestamp of their own event.
type LetterEvent struct {
	EventID   string `dynamodbav:"eventId" json:"eventId"`
	MatchID   string `dynamodbav:"matchId" json:"matchId"`
	UserID    string `dynamodbav:"userId" json:"userId"`
	UserAlias string `dynamodbav:"-" json:"userAlias,omitempty"`
	EventType string `dynamodbav:"eventType" json:"eventType"`
	Timestamp string `dynamodbav:"timestamp" json:"timestamp"`
}

// LetterEventsTable is the DynamoDB table name for letter events
const LetterEventsTable = "LetterEvents"

// LetterEventMatchIndex lists a match's letter events
const LetterEventMatchIndex = "matchId-index"
