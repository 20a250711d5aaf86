package models

type Message struct {
	MatchID     string `dynamodbav:"matchId" json:"matchId"`
	MessageID   string `dynamodbav:"messageId" json:"messageId"` // "<createdAt>#<uuid>" so the range key sorts chronologically
	SenderID    string `dynamodbav:"senderId" json:"senderId"`
	SenderAlias string `dynamodbav:"-" json:"senderAlias,omitempty"`
	Content     string `dynamodbav:"content" json:"content"`
	IsUnread    bool   `dynamodbav:"isUnread" json:"isUnread"`
	CreatedAt   string `dynamodbav:"createdAt" json:"createdAt"`
}

// MessagesTable is the DynamoDB table name for match messages
const MessagesTable = "Messages"
