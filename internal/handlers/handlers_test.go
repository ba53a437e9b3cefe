package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iknowaspot/backend/internal/auth"
	"github.com/iknowaspot/backend/internal/database"
	"github.com/iknowaspot/backend/internal/favorites"
	"github.com/iknowaspot/backend/internal/friends"
	"github.com/iknowaspot/backend/internal/logger"
	"github.com/iknowaspot/backend/internal/models"
	"github.com/iknowaspot/backend/internal/recommendations"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupRouter builds a test router with an in-memory database. Requests are
// authenticated as the given user by seeding the context the way the auth
// middleware would.
func setupRouter(t *testing.T, asUser *models.User) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	logger.InitializeForTesting()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.FavoriteSpot{}, &models.Friendship{}, &models.FriendRequest{}))
	database.DB = db

	h := NewHandlers(
		auth.NewService([]byte("test-secret")),
		favorites.NewService(db),
		friends.NewService(db),
		recommendations.NewAggregator(db),
		nil,
	)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if asUser != nil {
			c.Set("user_id", asUser.ID)
			c.Set("user", asUser)
		}
		c.Next()
	})

	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	router.GET("/favorites", h.GetFavorites)
	router.POST("/favorites/toggle", h.ToggleFavorite)
	router.PATCH("/favorites/:placeID/notes", h.UpdateFavoriteNotes)
	router.GET("/favorites/:placeID/status", h.CheckFavorite)
	router.GET("/friends", h.GetFriends)
	router.POST("/friends/requests", h.SendFriendRequest)
	router.GET("/friends/requests", h.GetFriendRequests)
	router.POST("/friends/requests/:requesterID/accept", h.AcceptFriendRequest)
	router.GET("/recommendations", h.GetRecommendations)
	router.GET("/users/search", h.SearchUsers)

	return router, db
}

func seedUser(t *testing.T, db *gorm.DB, id, username string) *models.User {
	user := &models.User{
		ID:       id,
		Email:    username + "@example.com",
		Username: username,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := doJSON(router, http.MethodPost, "/auth/register", gin.H{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.User.Username)

	// Same email again conflicts
	w = doJSON(router, http.MethodPost, "/auth/register", gin.H{
		"email":    "alice@example.com",
		"username": "alice2",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := setupRouter(t, nil)

	doJSON(router, http.MethodPost, "/auth/register", gin.H{
		"email":    "alice@example.com",
		"username": "alice",
		"password": "password123",
	})

	w := doJSON(router, http.MethodPost, "/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFavoritesEndpoints(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "alice@example.com", Username: "alice"}
	router, db := setupRouter(t, user)
	require.NoError(t, db.Create(user).Error)

	toggle := gin.H{
		"place": gin.H{
			"place_id": "place-1",
			"name":     "Taqueria",
			"geometry": gin.H{"location": gin.H{"lat": 37.75, "lng": -122.41}},
		},
		"type": "restaurant",
	}

	w := doJSON(router, http.MethodPost, "/favorites/toggle", toggle)
	require.Equal(t, http.StatusOK, w.Code)

	var toggleResp struct {
		Saved bool `json:"saved"`
		Count int  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggleResp))
	assert.True(t, toggleResp.Saved)
	assert.Equal(t, 1, toggleResp.Count)

	w = doJSON(router, http.MethodGet, "/favorites/place-1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"saved":true`)

	w = doJSON(router, http.MethodPatch, "/favorites/place-1/notes", gin.H{"notes": "cash only"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cash only")

	// Editing notes on an unsaved place is a 404
	w = doJSON(router, http.MethodPatch, "/favorites/never-saved/notes", gin.H{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodPost, "/favorites/toggle", toggle)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggleResp))
	assert.False(t, toggleResp.Saved)
	assert.Equal(t, 0, toggleResp.Count)
}

func TestToggleFavoriteRejectsBadType(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "alice@example.com", Username: "alice"}
	router, db := setupRouter(t, user)
	require.NoError(t, db.Create(user).Error)

	w := doJSON(router, http.MethodPost, "/favorites/toggle", gin.H{
		"place": gin.H{"place_id": "place-1", "name": "X"},
		"type":  "museum",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFavoritesRequireAuth(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w := doJSON(router, http.MethodGet, "/favorites", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFriendRequestFlow(t *testing.T) {
	alice := &models.User{ID: "alice-id", Email: "alice@example.com", Username: "alice"}
	router, db := setupRouter(t, alice)
	require.NoError(t, db.Create(alice).Error)
	seedUser(t, db, "bob-id", "bob")

	// Bob requests alice directly through the service layer
	_, err := friends.NewService(db).SendRequest(context.Background(), "bob-id", "alice-id")
	require.NoError(t, err)

	w := doJSON(router, http.MethodGet, "/friends/requests", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bob")

	w = doJSON(router, http.MethodPost, "/friends/requests/bob-id/accept", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/friends", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bob")

	// Accepting again is a 404, the request is gone
	w = doJSON(router, http.MethodPost, "/friends/requests/bob-id/accept", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendFriendRequestSelf(t *testing.T) {
	alice := &models.User{ID: "alice-id", Email: "alice@example.com", Username: "alice"}
	router, db := setupRouter(t, alice)
	require.NoError(t, db.Create(alice).Error)

	w := doJSON(router, http.MethodPost, "/friends/requests", gin.H{"user_id": "alice-id"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRecommendationsEndpoint(t *testing.T) {
	alice := &models.User{ID: "alice-id", Email: "alice@example.com", Username: "alice"}
	router, db := setupRouter(t, alice)
	require.NoError(t, db.Create(alice).Error)
	seedUser(t, db, "bob-id", "bob")

	require.NoError(t, db.Create(&models.Friendship{UserID: "alice-id", FriendID: "bob-id"}).Error)
	require.NoError(t, db.Create(&models.Friendship{UserID: "bob-id", FriendID: "alice-id"}).Error)
	require.NoError(t, db.Create(&models.FavoriteSpot{
		UserID: "bob-id", PlaceID: "spot-1", Name: "Ridge Trail", Type: models.SpotTypeScenic,
	}).Error)

	w := doJSON(router, http.MethodGet, "/recommendations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ridge Trail")
	assert.Contains(t, w.Body.String(), `"frequency":1`)
}

func TestSearchUsersEndpoint(t *testing.T) {
	alice := &models.User{ID: "alice-id", Email: "alice@example.com", Username: "alice"}
	router, db := setupRouter(t, alice)
	require.NoError(t, db.Create(alice).Error)
	seedUser(t, db, "bob-id", "bob")
	seedUser(t, db, "bonnie-id", "bonnie")

	w := doJSON(router, http.MethodGet, "/users/search?q=bo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bob")
	assert.Contains(t, w.Body.String(), "bonnie")

	// Missing query is a 400
	w = doJSON(router, http.MethodGet, "/users/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
