package recommendations

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

func createTestUser(t *testing.T, db *gorm.DB, id, username string) {
	require.NoError(t, db.Create(&models.User{
		ID:       id,
		Email:    username + "@example.com",
		Username: username,
	}).Error)
}

func befriend(t *testing.T, db *gorm.DB, a, b string) {
	require.NoError(t, db.Create(&models.Friendship{UserID: a, FriendID: b}).Error)
	require.NoError(t, db.Create(&models.Friendship{UserID: b, FriendID: a}).Error)
}

func addFavorite(t *testing.T, db *gorm.DB, userID, placeID, name string, kind models.SpotType) {
	require.NoError(t, db.Create(&models.FavoriteSpot{
		UserID:  userID,
		PlaceID: placeID,
		Name:    name,
		Type:    kind,
	}).Error)
}

func TestForUserCountsDistinctFriends(t *testing.T) {
	db := setupTestDB(t)
	agg := NewAggregator(db)
	ctx := context.Background()

	createTestUser(t, db, "me", "me")
	createTestUser(t, db, "f1", "friend_one")
	createTestUser(t, db, "f2", "friend_two")
	befriend(t, db, "me", "f1")
	befriend(t, db, "me", "f2")

	addFavorite(t, db, "f1", "shared-spot", "Harbor View", models.SpotTypeScenic)
	addFavorite(t, db, "f2", "shared-spot", "Harbor View", models.SpotTypeScenic)
	addFavorite(t, db, "f1", "solo-spot", "Hole in the Wall", models.SpotTypeRestaurant)

	recs, err := agg.ForUser(ctx, "me")
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "shared-spot", recs[0].PlaceID)
	assert.Equal(t, 2, recs[0].Frequency)
	assert.ElementsMatch(t, []string{"friend_one", "friend_two"}, recs[0].RecommendedBy)

	assert.Equal(t, "solo-spot", recs[1].PlaceID)
	assert.Equal(t, 1, recs[1].Frequency)
	assert.Equal(t, []string{"friend_one"}, recs[1].RecommendedBy)
}

func TestForUserExcludesOwnFavorites(t *testing.T) {
	db := setupTestDB(t)
	agg := NewAggregator(db)

	createTestUser(t, db, "me", "me")
	createTestUser(t, db, "f1", "friend_one")
	befriend(t, db, "me", "f1")

	addFavorite(t, db, "me", "shared-spot", "Harbor View", models.SpotTypeScenic)
	addFavorite(t, db, "f1", "shared-spot", "Harbor View", models.SpotTypeScenic)
	addFavorite(t, db, "f1", "new-spot", "Ridge Trail", models.SpotTypeScenic)

	recs, err := agg.ForUser(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "new-spot", recs[0].PlaceID)
}

func TestForUserStableOrdering(t *testing.T) {
	db := setupTestDB(t)
	agg := NewAggregator(db)

	createTestUser(t, db, "me", "me")
	createTestUser(t, db, "f1", "friend_one")
	befriend(t, db, "me", "f1")

	// Same frequency everywhere, so order falls back to place id
	addFavorite(t, db, "f1", "spot-c", "Third", models.SpotTypeRestaurant)
	addFavorite(t, db, "f1", "spot-a", "First", models.SpotTypeRestaurant)
	addFavorite(t, db, "f1", "spot-b", "Second", models.SpotTypeRestaurant)

	recs, err := agg.ForUser(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "spot-a", recs[0].PlaceID)
	assert.Equal(t, "spot-b", recs[1].PlaceID)
	assert.Equal(t, "spot-c", recs[2].PlaceID)
}

func TestForUserNoFriends(t *testing.T) {
	db := setupTestDB(t)
	agg := NewAggregator(db)

	createTestUser(t, db, "me", "me")

	recs, err := agg.ForUser(context.Background(), "me")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestForUserUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	agg := NewAggregator(db)

	_, err := agg.ForUser(context.Background(), "ghost")
	require.Error(t, err)

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierrors.ErrNotFound, apiErr.Code)
}
