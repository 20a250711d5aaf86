package models

// Block is a directed relation; the composite key makes duplicates a
// conditional-write failure rather than an application check.
type Block struct {
	BlockerID string `dynamodbav:"blockerId" json:"blockerId"`
	BlockedID string `dynamodbav:"blockedId" json:"blockedId"`
	CreatedAt string `dynamodbav:"createdAt" json:"createdAt"`
}

// BlocksTable is the DynamoDB table name for blocks
const BlocksTable = "Blocks"

// BlockedIndex is the reverse GSI (who blocked me)
const BlockedIndex = "blocked-index"
