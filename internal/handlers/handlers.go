// Package handlers contains the HTTP handlers for the API.
package handlers

import (
	"github.com/iknowaspot/backend/internal/auth"
	"github.com/iknowaspot/backend/internal/favorites"
	"github.com/iknowaspot/backend/internal/friends"
	"github.com/iknowaspot/backend/internal/places"
	"github.com/iknowaspot/backend/internal/realtime"
	"github.com/iknowaspot/backend/internal/recommendations"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	auth      *auth.Service
	favorites *favorites.Service
	friends   *friends.Service
	recs      *recommendations.Aggregator
	places    *places.Client
	publisher *realtime.Publisher
}

// NewHandlers creates a new handlers instance
func NewHandlers(authService *auth.Service, favs *favorites.Service, frs *friends.Service, recs *recommendations.Aggregator, placesClient *places.Client) *Handlers {
	return &Handlers{
		auth:      authService,
		favorites: favs,
		friends:   frs,
		recs:      recs,
		places:    placesClient,
	}
}

// SetPublisher sets the realtime publisher for push updates
func (h *Handlers) SetPublisher(p *realtime.Publisher) {
	h.publisher = p
}
