package models

type User struct {
	UserID       string `dynamodbav:"userId" json:"userId"`
	Email        string `dynamodbav:"email" json:"email"`
	PasswordHash string `dynamodbav:"passwordHash" json:"-"`
	IsAdmin      bool   `dynamodbav:"isAdmin" json:"isAdmin,omitempty"`
	Status       string `dynamodbav:"status" json:"status"`
	CreatedAt    string `dynamodbav:"createdAt" json:"createdAt"`
}

// EmailLock reserves an email address at registration time. The
// conditional put on this row is what makes the unique-email
// guarantee hold under concurrent registrations.
type EmailLock struct {
	Email  string `dynamodbav:"email"`
	UserID string `dynamodbav:"userId"`
}

// UsersTable is the DynamoDB table name for user accounts
const UsersTable = "Users"

// EmailLocksTable is the DynamoDB table name for email reservations
const EmailLocksTable = "EmailLocks"

// EmailIndex is the GSI used to look users up by email at login
const EmailIndex = "email-index"
