package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iknowaspot/backend/internal/middleware"
	"github.com/iknowaspot/backend/internal/models"
	"github.com/iknowaspot/backend/internal/places"
	"github.com/iknowaspot/backend/internal/util"
)

const defaultSearchRadiusMeters = 1500

// SearchNearby proxies a nearby-places lookup for the map view
// GET /api/v1/places/nearby?lat=..&lng=..&radius=..&category=restaurant|scenic
func (h *Handlers) SearchNearby(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	latStr := c.Query("lat")
	lngStr := c.Query("lng")
	if latStr == "" || lngStr == "" {
		util.RespondBadRequest(c, "query parameters 'lat' and 'lng' are required")
		return
	}

	lat := util.ParseFloat(latStr, 0)
	lng := util.ParseFloat(lngStr, 0)
	radius := util.ParseInt(c.DefaultQuery("radius", ""), defaultSearchRadiusMeters)

	category := places.CategoryRestaurant
	kind := models.SpotTypeRestaurant
	if c.Query("category") == "scenic" {
		category = places.CategoryScenic
		kind = models.SpotTypeScenic
	}

	middleware.RecordPlacesLookup(string(category))

	results, err := h.places.Search(c.Request.Context(), lat, lng, radius, category)
	if err != nil {
		util.RespondServiceError(c, err, "Failed to search nearby places")
		return
	}

	// Results go out in the same canonical shape favorites are stored in.
	// Upstream rows without an id are dropped rather than failing the page.
	spots := make([]models.FavoriteSpot, 0, len(results))
	for _, raw := range results {
		spot, err := places.Normalize(raw, kind)
		if err != nil {
			continue
		}
		spots = append(spots, spot)
	}

	c.JSON(http.StatusOK, gin.H{
		"results": spots,
		"count":   len(spots),
	})
}
