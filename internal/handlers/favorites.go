package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iknowaspot/backend/internal/middleware"
	"github.com/iknowaspot/backend/internal/models"
	"github.com/iknowaspot/backend/internal/places"
	"github.com/iknowaspot/backend/internal/util"
)

// ToggleFavoriteRequest carries the place being saved or removed
type ToggleFavoriteRequest struct {
	Place places.RawPlace `json:"place" binding:"required"`
	Type  string          `json:"type" binding:"required,oneof=restaurant scenic"`
}

// GetFavorites returns the authenticated user's saved spots
// GET /api/v1/favorites
func (h *Handlers) GetFavorites(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	favs, err := h.favorites.List(c.Request.Context(), userID)
	if err != nil {
		util.RespondServiceError(c, err, "Failed to fetch favorites")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"favorites": favs,
		"count":     len(favs),
	})
}

// ToggleFavorite saves a place, or removes it if already saved
// POST /api/v1/favorites/toggle
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req ToggleFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	saved, favs, err := h.favorites.Toggle(c.Request.Context(), userID, req.Place, models.SpotType(req.Type))
	if err != nil {
		util.RespondServiceError(c, err, "Failed to toggle favorite")
		return
	}

	middleware.RecordFavoriteToggle(saved)

	if h.publisher != nil {
		h.publisher.NotifyFavoritesChanged(c.Request.Context(), userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"saved":     saved,
		"favorites": favs,
		"count":     len(favs),
	})
}

// UpdateFavoriteNotes updates the notes on a saved spot
// PATCH /api/v1/favorites/:placeID/notes
func (h *Handlers) UpdateFavoriteNotes(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	placeID := c.Param("placeID")

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	favs, err := h.favorites.UpdateNotes(c.Request.Context(), userID, placeID, req.Notes)
	if err != nil {
		util.RespondServiceError(c, err, "Failed to update notes")
		return
	}

	if h.publisher != nil {
		h.publisher.NotifyFavoritesChanged(c.Request.Context(), userID)
	}

	c.JSON(http.StatusOK, gin.H{
		"favorites": favs,
		"count":     len(favs),
	})
}

// CheckFavorite reports whether a place is saved by the authenticated user
// GET /api/v1/favorites/:placeID/status
func (h *Handlers) CheckFavorite(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	saved, err := h.favorites.IsFavorite(c.Request.Context(), userID, c.Param("placeID"))
	if err != nil {
		util.RespondServiceError(c, err, "Failed to check favorite status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": saved})
}
