package models

type ScanMetadata struct {
	OriginalName string `dynamodbav:"originalName" json:"originalName"`
	Size         int64  `dynamodbav:"size" json:"size"`
	MimeType     string `dynamodbav:"mimeType" json:"mimeType"`
	UploadedBy   string `dynamodbav:"uploadedBy" json:"uploadedBy"`
}

type ScanAsset struct {
	ScanID        string       `dynamodbav:"scanId" json:"scanId"`
	LetterEventID string       `dynamodbav:"letterEventId" json:"letterEventId"`
	MatchID       string       `dynamodbav:"matchId" json:"matchId"`
	StorageKey    string       `dynamodbav:"storageKey" json:"storageKey"`
	Metadata      ScanMetadata `dynamodbav:"metadata" json:"metadata"`
	CreatedAt     string       `dynamodbav:"createdAt" json:"createdAt"`
}

// ScanAssetsTable is the DynamoDB table name for letter scan assets
const ScanAssetsTable = "ScanAssets"

// ScanMatchIndex lists a match's scans
const ScanMatchIndex = "matchId-index"
