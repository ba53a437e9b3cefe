package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iknowaspot/backend/internal/middleware"
	"github.com/iknowaspot/backend/internal/util"
)

// SendFriendRequest sends a friend request to another user
// POST /api/v1/friends/requests
func (h *Handlers) SendFriendRequest(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	request, err := h.friends.SendRequest(c.Request.Context(), userID, req.UserID)
	if err != nil {
		util.RespondServiceError(c, err, "Failed to send friend request")
		return
	}

	middleware.RecordFriendRequestEvent("sent")

	if h.publisher != nil {
		h.publisher.NotifyFriendRequest(c.Request.Context(), req.UserID, request.RequesterID, request.RequesterUsername)
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "pending",
		"request": request,
	})
}

// AcceptFriendRequest accepts a pending friend request
// POST /api/v1/friends/requests/:requesterID/accept
func (h *Handlers) AcceptFriendRequest(c *gin.Context) {
	h.respondToRequest(c, true)
}

// DeclineFriendRequest declines a pending friend request
// POST /api/v1/friends/requests/:requesterID/decline
func (h *Handlers) DeclineFriendRequest(c *gin.Context) {
	h.respondToRequest(c, false)
}

func (h *Handlers) respondToRequest(c *gin.Context, accept bool) {
	currentUser, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	requesterID := c.Param("requesterID")

	if err := h.friends.Respond(c.Request.Context(), currentUser.ID, requesterID, accept); err != nil {
		util.RespondServiceError(c, err, "Failed to respond to friend request")
		return
	}

	status := "declined"
	if accept {
		status = "accepted"
	}
	middleware.RecordFriendRequestEvent(status)

	if h.publisher != nil {
		h.publisher.NotifyRequestResolved(c.Request.Context(), requesterID, currentUser.ID, currentUser.Username, accept)
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// RemoveFriend dissolves a friendship from both sides
// DELETE /api/v1/friends/:id
func (h *Handlers) RemoveFriend(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	friendID := c.Param("id")

	if err := h.friends.RemoveFriend(c.Request.Context(), userID, friendID); err != nil {
		util.RespondServiceError(c, err, "Failed to remove friend")
		return
	}

	if h.publisher != nil {
		h.publisher.NotifyFriendRemoved(c.Request.Context(), friendID, userID)
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

// GetFriends returns the authenticated user's friends
// GET /api/v1/friends
func (h *Handlers) GetFriends(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	friendUsers, err := h.friends.ListFriends(c.Request.Context(), userID)
	if err != nil {
		util.RespondServiceError(c, err, "Failed to fetch friends")
		return
	}

	type FriendResponse struct {
		ID           string `json:"id"`
		Username     string `json:"username"`
		ProfileImage string `json:"profile_image,omitempty"`
	}

	response := make([]FriendResponse, len(friendUsers))
	for i, u := range friendUsers {
		response[i] = FriendResponse{
			ID:           u.ID,
			Username:     u.Username,
			ProfileImage: u.ProfileImage,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"friends": response,
		"count":   len(response),
	})
}

// GetFriendRequests returns pending requests addressed to the user
// GET /api/v1/friends/requests
func (h *Handlers) GetFriendRequests(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	requests, err := h.friends.ListRequests(c.Request.Context(), userID)
	if err != nil {
		util.RespondServiceError(c, err, "Failed to fetch friend requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// SearchUsers finds users whose username starts with the query
// GET /api/v1/users/search?q=prefix&limit=20
func (h *Handlers) SearchUsers(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	query := c.Query("q")
	if query == "" {
		util.RespondBadRequest(c, "query parameter 'q' is required")
		return
	}
	limit := util.ParseInt(c.DefaultQuery("limit", "20"), 20)

	users, err := h.friends.Search(c.Request.Context(), userID, query, limit)
	if err != nil {
		util.RespondServiceError(c, err, "Failed to search users")
		return
	}

	type UserResponse struct {
		ID           string `json:"id"`
		Username     string `json:"username"`
		ProfileImage string `json:"profile_image,omitempty"`
	}

	response := make([]UserResponse, len(users))
	for i, u := range users {
		response[i] = UserResponse{
			ID:           u.ID,
			Username:     u.Username,
			ProfileImage: u.ProfileImage,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"users": response,
		"count": len(response),
	})
}
