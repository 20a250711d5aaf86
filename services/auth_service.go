package services

import (
	"context"
	"errors"
	"time"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	userTokenTTL  = 30 * 24 * time.Hour
	adminTokenTTL = 8 * time.Hour
)

// AuthService handles registration, login and token issuance.
type AuthService struct {
	Dynamo    DB
	JWTSecret string
	Logger    *zap.Logger
}

type AuthResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// Register creates the user account plus its empty profile.
func (s *AuthService) Register(ctx context.Context, email, password, alias string) (*AuthResult, error) {
	if email == "" || password == "" || alias == "" {
		return nil, apperrors.Validation("email, password, and alias are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	user := models.User{
		UserID:       uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
		CreatedAt:    now,
	}
	profile := models.Profile{
		UserID:    user.UserID,
		Alias:     alias,
		CreatedAt: now,
	}

	userItem, err := attributevalue.MarshalMap(user)
	if err != nil {
		return nil, apperrors.Internal("failed to marshal user", err)
	}
	profileItem, err := attributevalue.MarshalMap(profile)
	if err != nil {
		return nil, apperrors.Internal("failed to marshal profile", err)
	}

	lockItem, err := attributevalue.MarshalMap(models.EmailLock{Email: email, UserID: user.UserID})
	if err != nil {
		return nil, apperrors.Internal("failed to marshal email lock", err)
	}

	// Email reservation, user, and profile commit together or not at
	// all. The conditional put on the lock row is the uniqueness
	// check; two racing registrations cannot both pass it.
	usersTable := models.UsersTable
	profilesTable := models.ProfilesTable
	locksTable := models.EmailLocksTable
	lockCondition := "attribute_not_exists(email)"
	userCondition := "attribute_not_exists(userId)"
	items := []types.TransactWriteItem{
		{Put: &types.Put{TableName: &locksTable, Item: lockItem, ConditionExpression: &lockCondition}},
		{Put: &types.Put{TableName: &usersTable, Item: userItem, ConditionExpression: &userCondition}},
		{Put: &types.Put{TableName: &profilesTable, Item: profileItem}},
	}
	if err := s.Dynamo.TransactWriteItems(ctx, items); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return nil, apperrors.Conflict("user already exists")
		}
		return nil, apperrors.Dependency("failed to create user", err)
	}

	token, err := s.issueToken(user.UserID, false, userTokenTTL)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("user registered", zap.String("userId", user.UserID))
	return &AuthResult{Token: token, UserID: user.UserID}, nil
}

// Login verifies credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Unauthenticated("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthenticated("invalid credentials")
	}

	token, err := s.issueToken(user.UserID, false, userTokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: user.UserID}, nil
}

// AdminLogin authenticates an admin account and issues a short-lived
// token carrying the admin claim.
func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsAdmin {
		return nil, apperrors.Unauthenticated("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthenticated("invalid credentials")
	}

	token, err := s.issueToken(user.UserID, true, adminTokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, UserID: user.UserID}, nil
}

// GetMe returns the caller's account joined with their profile.
func (s *AuthService) GetMe(ctx context.Context, userID string) (map[string]interface{}, error) {
	userItem, err := s.Dynamo.GetItem(ctx, models.UsersTable, map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	})
	if err != nil {
		return nil, apperrors.Dependency("failed to load user", err)
	}
	if userItem == nil {
		return nil, apperrors.NotFound("user not found")
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(userItem, &user); err != nil {
		return nil, apperrors.Internal("failed to parse user", err)
	}

	result := map[string]interface{}{
		"userId":    user.UserID,
		"email":     user.Email,
		"createdAt": user.CreatedAt,
	}

	profileItem, err := s.Dynamo.GetItem(ctx, models.ProfilesTable, map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	})
	if err != nil {
		return nil, apperrors.Dependency("failed to load profile", err)
	}
	if profileItem != nil {
		var profile models.Profile
		if err := attributevalue.UnmarshalMap(profileItem, &profile); err == nil {
			result["alias"] = profile.Alias
			result["interests"] = profile.Interests
			result["writingStyle"] = profile.WritingStyle
			result["ageRange"] = profile.AgeRange
			result["region"] = profile.Region
			result["language"] = profile.Language
		}
	}
	return result, nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*models.User, error) {
	keyCondition := "#email = :email"
	values := map[string]types.AttributeValue{
		":email": &types.AttributeValueMemberS{Value: email},
	}
	names := map[string]string{"#email": "email"}

	items, err := s.Dynamo.QueryItemsWithIndex(ctx, models.UsersTable, models.EmailIndex, keyCondition, values, names, 1)
	if err != nil {
		return nil, apperrors.Dependency("failed to look up user", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	var user models.User
	if err := attributevalue.UnmarshalMap(items[0], &user); err != nil {
		return nil, apperrors.Internal("failed to parse user", err)
	}
	return &user, nil
}

func (s *AuthService) issueToken(userID string, isAdmin bool, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(ttl).Unix(),
		"iat":    time.Now().Unix(),
	}
	if isAdmin {
		claims["isAdmin"] = true
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.JWTSecret))
	if err != nil {
		return "", apperrors.Internal("failed to sign token", err)
	}
	return signed, nil
}
