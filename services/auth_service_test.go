package services

import (
	"context"
	"sync"
	"testing"

	"penpal_server/apperrors"
	"penpal_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthFixture() (*fakeDB, *AuthService) {
	db := newFakeDB()
	return db, &AuthService{Dynamo: db, JWTSecret: "test-secret", Logger: zap.NewNop()}
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	db, svc := newAuthFixture()
	ctx := context.Background()

	result, err := svc.Register(ctx, "alice@example.com", "hunter2!", "WanderingInk")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.NotEmpty(t, result.UserID)

	assert.Equal(t, 1, db.count(models.UsersTable))
	assert.Equal(t, 1, db.count(models.ProfilesTable))

	me, err := svc.GetMe(ctx, result.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", me["email"])
	assert.Equal(t, "WanderingInk", me["alias"])
}

func TestRegisterValidatesAndRejectsDuplicates(t *testing.T) {
	_, svc := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Register(ctx, "", "pw", "alias")
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = svc.Register(ctx, "alice@example.com", "hunter2!", "WanderingInk")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice@example.com", "other", "OtherAlias")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	db, svc := newAuthFixture()
	ctx := context.Background()

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(ctx, "dup@example.com", "hunter2!", "Inkling")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var failures []error
	for err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	require.Len(t, failures, 1, "exactly one registration may win")
	assert.True(t, apperrors.Is(failures[0], apperrors.CodeConflict))
	assert.Equal(t, 1, db.count(models.UsersTable))
	assert.Equal(t, 1, db.count(models.ProfilesTable))
	assert.Equal(t, 1, db.count(models.EmailLocksTable))
}

func TestLogin(t *testing.T) {
	_, svc := newAuthFixture()
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice@example.com", "hunter2!", "WanderingInk")
	require.NoError(t, err)

	result, err := svc.Login(ctx, "alice@example.com", "hunter2!")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, result.UserID)

	// Wrong password and unknown email produce the same error.
	_, err = svc.Login(ctx, "alice@example.com", "wrong")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthenticated))

	_, err = svc.Login(ctx, "nobody@example.com", "hunter2!")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthenticated))
}

func TestAdminLoginRequiresAdminFlag(t *testing.T) {
	db, svc := newAuthFixture()
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice@example.com", "hunter2!", "WanderingInk")
	require.NoError(t, err)

	// Plain account, even with valid credentials.
	_, err = svc.AdminLogin(ctx, "alice@example.com", "hunter2!")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthenticated))

	// Flip the admin flag and retry.
	item, err := db.GetItem(ctx, models.UsersTable, map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: registered.UserID},
	})
	require.NoError(t, err)
	var user models.User
	require.NoError(t, attributevalue.UnmarshalMap(item, &user))
	user.IsAdmin = true
	db.seed(t, models.UsersTable, user)

	result, err := svc.AdminLogin(ctx, "alice@example.com", "hunter2!")
	require.NoError(t, err)

	// The admin token carries the admin claim.
	token, err := jwt.Parse(result.Token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, true, claims["isAdmin"])
	assert.Equal(t, registered.UserID, claims["userId"])
}
