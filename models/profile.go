package models

// Profile is the public, owner-editable half of a user.
type Profile struct {
	UserID           string   `dynamodbav:"userId" json:"userId"`
	Alias            string   `dynamodbav:"alias" json:"alias"`
	Interests        []string `dynamodbav:"interests,omitempty" json:"interests,omitempty"`
	WritingStyle     string   `dynamodbav:"writingStyle,omitempty" json:"writingStyle,omitempty"`
	AgeRange         string   `dynamodbav:"ageRange,omitempty" json:"ageRange,omitempty"`
	Region           string   `dynamodbav:"region,omitempty" json:"region,omitempty"`
	Language         string   `dynamodbav:"language,omitempty" json:"language,omitempty"`
	DiscoveryFilters string   `dynamodbav:"discoveryFilters,omitempty" json:"discoveryFilters,omitempty"`
	CreatedAt        string   `dynamodbav:"createdAt" json:"createdAt"`
}

// ProfilesTable is the DynamoDB table name for user profiles
const ProfilesTable = "Profiles"
