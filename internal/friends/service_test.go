package friends

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/iknowaspot/backend/internal/errors"
	"github.com/iknowaspot/backend/internal/logger"
	"github.com/iknowaspot/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	logger.InitializeForTesting()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.FavoriteSpot{}, &models.Friendship{}, &models.FriendRequest{})
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, id, username string) *models.User {
	user := &models.User{
		ID:       id,
		Email:    username + "@example.com",
		Username: username,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func assertCode(t *testing.T, err error, code apierrors.ErrorCode) {
	t.Helper()
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, code, apiErr.Code)
}

func TestSendRequest(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")

	request, err := svc.SendRequest(ctx, "alice-id", "bob-id")
	require.NoError(t, err)
	assert.Equal(t, "alice-id", request.RequesterID)
	assert.Equal(t, "bob-id", request.RecipientID)
	assert.Equal(t, "alice", request.RequesterUsername)
	assert.Equal(t, models.FriendRequestStatusPending, request.Status)
}

func TestSendRequestToSelf(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	createTestUser(t, db, "alice-id", "alice")

	_, err := svc.SendRequest(context.Background(), "alice-id", "alice-id")
	require.Error(t, err)
	assertCode(t, err, apierrors.ErrSelfRequest)
}

func TestSendRequestDuplicatePending(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")

	_, err := svc.SendRequest(ctx, "alice-id", "bob-id")
	require.NoError(t, err)

	_, err = svc.SendRequest(ctx, "alice-id", "bob-id")
	require.Error(t, err)
	assertCode(t, err, apierrors.ErrConflict)
}

func TestSendRequestReversePending(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")

	_, err := svc.SendRequest(ctx, "alice-id", "bob-id")
	require.NoError(t, err)

	// Bob already has alice's request in his inbox; a counter-request would
	// cross it instead of resolving it
	_, err = svc.SendRequest(ctx, "bob-id", "alice-id")
	require.Error(t, err)
	assertCode(t, err, apierrors.ErrConflict)
}

func TestCrossingRequestsResolvedByOneAccept(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")

	_, err := svc.SendRequest(ctx, "alice-id", "bob-id")
	require.NoError(t, err)

	// Rows written before the reverse-pending guard can hold both directions
	require.NoError(t, db.Create(&models.FriendRequest{
		RequesterID:       "bob-id",
		RecipientID:       "alice-id",
		RequesterUsername: "bob",
	}).Error)

	require.NoError(t, svc.Respond(ctx, "bob-id", "alice-id", true))

	for _, pair := range [][2]string{{"alice-id", "bob-id"}, {"bob-id", "alice-id"}} {
		friends, err := svc.AreFriends(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, friends)
	}

	// One accept consumes both pending rows
	var pending int64
	require.NoError(t, db.Model(&models.FriendRequest{}).Count(&pending).Error)
	assert.Equal(t, int64(0), pending)

	for _, id := range []string{"alice-id", "bob-id"} {
		var user models.User
		require.NoError(t, db.First(&user, "id = ?", id).Error)
		assert.Equal(t, 1, user.FriendCount)
	}

	// The other side has nothing left to accept, and gets a typed error
	err = svc.Respond(ctx, "alice-id", "bob-id", true)
	assertCode(t, err, apierrors.ErrNotFound)
}

func TestAcceptWithExistingFriendshipConsumesRequest(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")

	// Friendship already recorded, stale request still in the inbox
	require.NoError(t, db.Create(&models.Friendship{UserID: "alice-id", FriendID: "bob-id"}).Error)
	require.NoError(t, db.Create(&models.Friendship{UserID: "bob-id", FriendID: "alice-id"}).Error)
	require.NoError(t, db.Create(&models.FriendRequest{
		RequesterID:       "alice-id",
		RecipientID:       "bob-id",
		RequesterUsername: "alice",
	}).Error)

	require.NoError(t, svc.Respond(ctx, "bob-id", "alice-id", true))

	var pending int64
	require.NoError(t, db.Model(&models.FriendRequest{}).Count(&pending).Error)
	assert.Equal(t, int64(0), pending)

	// No duplicate edges, no count drift
	var edges int64
	require.NoError(t, db.Model(&models.Friendship{}).Count(&edges).Error)
	assert.Equal(t, int64(2), edges)

	for _, id := range []string{"alice-id", "bob-id"} {
		var user models.User
		require.NoError(t, db.First(&user, "id = ?", id).Error)
		assert.Equal(t, 0, user.FriendCount)
	}
}

func TestSendRequestToExistingFriend(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")

	_, err := svc.SendRequest(ctx, "alice-id", "bob-id")
	require.NoError(t, err)
	require.NoError(t, svc.Respond(ctx, "bob-id", "alice-id", true))

	_, err = svc.SendRequest(ctx, "alice-id", "bob-id")
	require.Error(t, err)
	assertCode(t, err, apierrors.ErrConflict)
}

func TestSendRequestUnknownUsers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")

	_, err := svc.SendRequest(ctx, "ghost", "alice-id")
	assertCode(t, err, apierrors.ErrNotFound)

	_, err = svc.SendRequest(ctx, "alice-id", "ghost")
	assertCode(t, err, apierrors.ErrNotFound)
}

func TestAcceptWritesBothEdges(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")

	_, err := svc.SendRequest(ctx, "alice-id", "bob-id")
	require.NoError(t, err)
	require.NoError(t, svc.Respond(ctx, "bob-id", "alice-id", true))

	for _, pair := range [][2]string{{"alice-id", "bob-id"}, {"bob-id", "alice-id"}} {
		friends, err := svc.AreFriends(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, friends)
	}

	// Request row is gone, not archived
	var pending int64
	require.NoError(t, db.Model(&models.FriendRequest{}).Count(&pending).Error)
	assert.Equal(t, int64(0), pending)

	for _, id := range []string{"alice-id", "bob-id"} {
		var user models.User
		require.NoError(t, db.First(&user, "id = ?", id).Error)
		assert.Equal(t, 1, user.FriendCount)
	}
}

func TestDeclineOnlyRemovesRequest(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")

	_, err := svc.SendRequest(ctx, "alice-id", "bob-id")
	require.NoError(t, err)
	require.NoError(t, svc.Respond(ctx, "bob-id", "alice-id", false))

	friends, err := svc.AreFriends(ctx, "alice-id", "bob-id")
	require.NoError(t, err)
	assert.False(t, friends)

	requests, err := svc.ListRequests(ctx, "bob-id")
	require.NoError(t, err)
	assert.Empty(t, requests)

	// Declining leaves the door open for a fresh request
	_, err = svc.SendRequest(ctx, "alice-id", "bob-id")
	require.NoError(t, err)
}

func TestRespondWithoutPendingRequest(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")

	err := svc.Respond(context.Background(), "bob-id", "alice-id", true)
	require.Error(t, err)
	assertCode(t, err, apierrors.ErrNotFound)
}

func TestRemoveFriend(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")

	_, err := svc.SendRequest(ctx, "alice-id", "bob-id")
	require.NoError(t, err)
	require.NoError(t, svc.Respond(ctx, "bob-id", "alice-id", true))

	require.NoError(t, svc.RemoveFriend(ctx, "alice-id", "bob-id"))

	var edges int64
	require.NoError(t, db.Model(&models.Friendship{}).Count(&edges).Error)
	assert.Equal(t, int64(0), edges)

	for _, id := range []string{"alice-id", "bob-id"} {
		var user models.User
		require.NoError(t, db.First(&user, "id = ?", id).Error)
		assert.Equal(t, 0, user.FriendCount)
	}

	err = svc.RemoveFriend(ctx, "alice-id", "bob-id")
	assertCode(t, err, apierrors.ErrNotFound)
}

func TestListFriendsAndRequests(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")
	createTestUser(t, db, "carol-id", "carol")

	_, err := svc.SendRequest(ctx, "bob-id", "alice-id")
	require.NoError(t, err)
	_, err = svc.SendRequest(ctx, "carol-id", "alice-id")
	require.NoError(t, err)

	requests, err := svc.ListRequests(ctx, "alice-id")
	require.NoError(t, err)
	assert.Len(t, requests, 2)

	require.NoError(t, svc.Respond(ctx, "alice-id", "bob-id", true))

	friends, err := svc.ListFriends(ctx, "alice-id")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Username)

	ids, err := svc.FriendIDs(ctx, "alice-id")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob-id"}, ids)

	requests, err = svc.ListRequests(ctx, "alice-id")
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "carol-id", requests[0].RequesterID)
}

func TestSearchByUsernamePrefix(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "self-id", "searcher")
	createTestUser(t, db, "u1", "samantha")
	createTestUser(t, db, "u2", "samuel")
	createTestUser(t, db, "u3", "sandra")
	createTestUser(t, db, "u4", "tobias")

	users, err := svc.Search(ctx, "self-id", "sam", 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "samantha", users[0].Username)
	assert.Equal(t, "samuel", users[1].Username)

	// The caller never appears in their own results
	users, err = svc.Search(ctx, "self-id", "sea", 10)
	require.NoError(t, err)
	assert.Empty(t, users)

	// Empty prefix matches nothing rather than everything
	users, err = svc.Search(ctx, "self-id", "", 10)
	require.NoError(t, err)
	assert.Empty(t, users)

	users, err = svc.Search(ctx, "self-id", "s", 2)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestReconcileRepairsOneSidedEdges(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	createTestUser(t, db, "alice-id", "alice")
	createTestUser(t, db, "bob-id", "bob")
	createTestUser(t, db, "carol-id", "carol")

	// One half-written edge and one complete pair
	require.NoError(t, db.Create(&models.Friendship{UserID: "alice-id", FriendID: "bob-id"}).Error)
	require.NoError(t, db.Create(&models.Friendship{UserID: "alice-id", FriendID: "carol-id"}).Error)
	require.NoError(t, db.Create(&models.Friendship{UserID: "carol-id", FriendID: "alice-id"}).Error)

	repaired, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	friends, err := svc.AreFriends(ctx, "bob-id", "alice-id")
	require.NoError(t, err)
	assert.True(t, friends)

	// A second pass finds nothing left to repair
	repaired, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, repaired)
}
