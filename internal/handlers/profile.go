package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iknowaspot/backend/internal/database"
	"github.com/iknowaspot/backend/internal/models"
	"github.com/iknowaspot/backend/internal/util"
	"gorm.io/gorm"
)

// PublicProfile is the view of a user shown to others
type PublicProfile struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	ProfileImage  string `json:"profile_image,omitempty"`
	FriendCount   int    `json:"friend_count"`
	FavoriteCount int    `json:"favorite_count"`
}

// GetProfile returns a user's public profile
// GET /api/v1/users/:id
func (h *Handlers) GetProfile(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		util.RespondInternalError(c, "Failed to fetch user")
		return
	}

	c.JSON(http.StatusOK, PublicProfile{
		ID:            user.ID,
		Username:      user.Username,
		ProfileImage:  user.ProfileImage,
		FriendCount:   user.FriendCount,
		FavoriteCount: user.FavoriteCount,
	})
}

// UpdateProfile updates the authenticated user's profile fields
// PATCH /api/v1/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Username     *string `json:"username" binding:"omitempty,min=3,max=30"`
		ProfileImage *string `json:"profile_image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Username != nil {
		var existing models.User
		err := database.DB.Where("LOWER(username) = LOWER(?) AND id <> ?", *req.Username, user.ID).
			First(&existing).Error
		if err == nil {
			util.RespondConflict(c, "username")
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondInternalError(c, "Failed to update profile")
			return
		}
		updates["username"] = *req.Username
	}
	if req.ProfileImage != nil {
		updates["profile_image"] = *req.ProfileImage
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, user)
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetQRCode returns the payload encoded into the user's shareable QR code
// GET /api/v1/users/me/qr
func (h *Handlers) GetQRCode(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  user.ID,
		"username": user.Username,
	})
}
