package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iknowaspot/backend/internal/database"
	"github.com/iknowaspot/backend/internal/logger"
	"github.com/iknowaspot/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database and wires the global handle
func setupTestDB(t *testing.T) *gorm.DB {
	logger.InitializeForTesting()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.FavoriteSpot{}, &models.Friendship{}, &models.FriendRequest{})
	require.NoError(t, err)

	database.DB = db
	return db
}

func TestRegisterAndLogin(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte("test-secret"))

	resp, err := svc.Register(RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
	assert.NotNil(t, resp.User.PasswordHash)
	assert.NotEqual(t, "password123", *resp.User.PasswordHash)

	login, err := svc.Login(LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte("test-secret"))

	_, err := svc.Register(RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "password123"})
	require.NoError(t, err)

	// Email matching ignores case
	_, err = svc.Register(RegisterRequest{Email: "ALICE@example.com", Username: "alice2", Password: "password123"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte("test-secret"))

	_, err := svc.Register(RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Register(RegisterRequest{Email: "other@example.com", Username: "Alice", Password: "password123"})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestLoginFailures(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte("test-secret"))

	_, err := svc.Login(LoginRequest{Email: "nobody@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Register(RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, err = svc.Login(LoginRequest{Email: "alice@example.com", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte("test-secret"))

	resp, err := svc.Register(RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "password123"})
	require.NoError(t, err)

	user, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.ValidateToken("not.a.token")
	assert.Error(t, err)

	// Tokens signed with a different secret are rejected
	other := NewService([]byte("other-secret"))
	otherResp, err := other.GenerateTokenForUser(&resp.User)
	require.NoError(t, err)
	_, err = svc.ValidateToken(otherResp.Token)
	assert.Error(t, err)
}

func TestFindUserByEmail(t *testing.T) {
	setupTestDB(t)
	svc := NewService([]byte("test-secret"))

	_, err := svc.Register(RegisterRequest{Email: "alice@example.com", Username: "alice", Password: "password123"})
	require.NoError(t, err)

	user, err := svc.FindUserByEmail("Alice@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.FindUserByEmail("missing@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
