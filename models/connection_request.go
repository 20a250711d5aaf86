package models

// ConnectionRequest is the pre-match proposal between two users. The
// table is keyed on pairKey, so DynamoDB itself enforces at most one
// request per unordered pair.
type ConnectionRequest struct {
	PairKey   string `dynamodbav:"pairKey" json:"-"`
	RequestID string `dynamodbav:"requestId" json:"requestId"`
	FromUser  string `dynamodbav:"fromUser" json:"fromUser"`
	ToUser    string `dynamodbav:"toUser" json:"toUser"`
	Status    string `dynamodbav:"status" json:"status"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// ConnectionRequestsTable is the DynamoDB table name for connection requests
const ConnectionRequestsTable = "ConnectionRequests"

// RequestIDIndex resolves a request by its id
const RequestIDIndex = "requestId-index"

// RequestToUserIndex lists pending requests addressed to a user
const RequestToUserIndex = "toUser-index"
