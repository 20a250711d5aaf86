package models

// AuditLogEntry is append-only. EntryID is "<timestamp>#<uuid>" so a
// user's entries sort chronologically under the partition key.
type AuditLogEntry struct {
	UserID    string `dynamodbav:"userId" json:"userId"`
	EntryID   string `dynamodbav:"entryId" json:"entryId"`
	Action    string `dynamodbav:"action" json:"action"`
	Details   string `dynamodbav:"details" json:"details"` // JSON blob
	Timestamp string `dynamodbav:"timestamp" json:"timestamp"`
}

// AuditLogsTable is the DynamoDB table name for audit entries
const AuditLogsTable = "AuditLogs"
