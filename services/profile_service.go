package services

import (
	"context"
	"errors"
	"fmt"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ProfileService reads and updates the caller's own profile.
type ProfileService struct {
	Dynamo DB
}

// ProfileUpdate carries the mutable fields; nil means leave unchanged.
type ProfileUpdate struct {
	Alias        *string   `json:"alias,omitempty"`
	Interests    *[]string `json:"interests,omitempty"`
	WritingStyle *string   `json:"writingStyle,omitempty"`
	AgeRange     *string   `json:"ageRange,omitempty"`
	Region       *string   `json:"region,omitempty"`
	Language     *string   `json:"language,omitempty"`
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	item, err := s.Dynamo.GetItem(ctx, models.ProfilesTable, profileKey(userID))
	if err != nil {
		return nil, apperrors.Dependency("failed to load profile", err)
	}
	if item == nil {
		return nil, apperrors.NotFound("profile not found")
	}

	var profile models.Profile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return nil, apperrors.Internal("failed to parse profile", err)
	}
	return &profile, nil
}

// UpdateProfile applies the provided fields only, leaving the rest as
// stored. Only the owner reaches this path.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*models.Profile, error) {
	if update.WritingStyle != nil {
		switch *update.WritingStyle {
		case "casual", "formal", "creative", "":
		default:
			return nil, apperrors.Validation("writingStyle must be casual, formal or creative")
		}
	}

	setParts := []string{}
	values := map[string]types.AttributeValue{}
	names := map[string]string{}

	addSet := func(field string, value types.AttributeValue) {
		names["#"+field] = field
		values[":"+field] = value
		setParts = append(setParts, fmt.Sprintf("#%s = :%s", field, field))
	}

	if update.Alias != nil {
		if *update.Alias == "" {
			return nil, apperrors.Validation("alias cannot be empty")
		}
		addSet("alias", &types.AttributeValueMemberS{Value: *update.Alias})
	}
	if update.Interests != nil {
		list := make([]types.AttributeValue, 0, len(*update.Interests))
		for _, interest := range *update.Interests {
			list = append(list, &types.AttributeValueMemberS{Value: interest})
		}
		addSet("interests", &types.AttributeValueMemberL{Value: list})
	}
	if update.WritingStyle != nil {
		addSet("writingStyle", &types.AttributeValueMemberS{Value: *update.WritingStyle})
	}
	if update.AgeRange != nil {
		addSet("ageRange", &types.AttributeValueMemberS{Value: *update.AgeRange})
	}
	if update.Region != nil {
		addSet("region", &types.AttributeValueMemberS{Value: *update.Region})
	}
	if update.Language != nil {
		addSet("language", &types.AttributeValueMemberS{Value: *update.Language})
	}

	if len(setParts) == 0 {
		return s.GetProfile(ctx, userID)
	}

	updateExpression := "SET " + stringJoin(setParts, ", ")
	condition := "attribute_exists(userId)"

	attrs, err := s.Dynamo.UpdateItemWithCondition(ctx, models.ProfilesTable, updateExpression, profileKey(userID), values, names, condition)
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, apperrors.NotFound("profile not found")
		}
		return nil, apperrors.Dependency("failed to update profile", err)
	}

	var profile models.Profile
	if err := attributevalue.UnmarshalMap(attrs, &profile); err != nil {
		return nil, apperrors.Internal("failed to parse profile", err)
	}
	return &profile, nil
}

// UpdatePreferences stores the discovery-filter blob as given.
func (s *ProfileService) UpdatePreferences(ctx context.Context, userID, discoveryFilters string) (*models.Profile, error) {
	updateExpression := "SET #discoveryFilters = :discoveryFilters"
	values := map[string]types.AttributeValue{
		":discoveryFilters": &types.AttributeValueMemberS{Value: discoveryFilters},
	}
	names := map[string]string{"#discoveryFilters": "discoveryFilters"}
	condition := "attribute_exists(userId)"

	attrs, err := s.Dynamo.UpdateItemWithCondition(ctx, models.ProfilesTable, updateExpression, profileKey(userID), values, names, condition)
	if err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, apperrors.NotFound("profile not found")
		}
		return nil, apperrors.Dependency("failed to update preferences", err)
	}

	var profile models.Profile
	if err := attributevalue.UnmarshalMap(attrs, &profile); err != nil {
		return nil, apperrors.Internal("failed to parse profile", err)
	}
	return &profile, nil
}

// GetAlias returns a user's display alias, empty when no profile exists.
func (s *ProfileService) GetAlias(ctx context.Context, userID string) (string, error) {
	item, err := s.Dynamo.GetItem(ctx, models.ProfilesTable, profileKey(userID))
	if err != nil {
		return "", apperrors.Dependency("failed to load profile", err)
	}
	if item == nil {
		return "", nil
	}
	var profile models.Profile
	if err := attributevalue.UnmarshalMap(item, &profile); err != nil {
		return "", nil
	}
	return profile.Alias, nil
}

func profileKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
}
