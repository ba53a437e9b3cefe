package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iknowaspot/backend/internal/middleware"
	"github.com/iknowaspot/backend/internal/util"
)

// GetRecommendations returns spots saved by the user's friends,
// most-recommended first
// GET /api/v1/recommendations
func (h *Handlers) GetRecommendations(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	middleware.RecordRecommendationQuery()

	recs, err := h.recs.ForUser(c.Request.Context(), userID)
	if err != nil {
		util.RespondServiceError(c, err, "Failed to fetch recommendations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recommendations": recs,
		"count":           len(recs),
	})
}
