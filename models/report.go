package models

type Report struct {
	ReportID   string `dynamodbav:"reportId" json:"reportId"`
	ReporterID string `dynamodbav:"reporterId" json:"reporterId"`
	ReportedID string `dynamodbav:"reportedId" json:"reportedId"`
	Category   string `dynamodbav:"category" json:"category"`
	Context    string `dynamodbav:"context,omitempty" json:"context,omitempty"`
	CreatedAt  string `dynamodbav:"createdAt" json:"createdAt"`
}

// ReportsTable is the DynamoDB table name for user reports
const ReportsTable = "Reports"
