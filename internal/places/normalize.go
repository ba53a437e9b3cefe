// Package places talks to the places-search collaborator and converts its
// heterogeneous results into the canonical spot shape the rest of the
// system stores and shares.
package places

import (
	"time"

	"github.com/iknowaspot/backend/internal/errors"
	"github.com/iknowaspot/backend/internal/models"
)

// LatLng is the coordinate pair inside a search result's geometry
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geometry wraps the location of a search result
type Geometry struct {
	Location LatLng `json:"location"`
}

// Coordinate is the alternate coordinate shape used by user-entered edits
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RawPlace is a place as returned by the search collaborator or assembled
// from user-entered detail edits. Only one of PlaceID/ID and one of
// Geometry/Coordinate is normally populated.
type RawPlace struct {
	PlaceID          string      `json:"place_id"`
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Geometry         *Geometry   `json:"geometry"`
	Coordinate       *Coordinate `json:"coordinate"`
	Vicinity         string      `json:"vicinity"`
	FormattedAddress string      `json:"formatted_address"`
	Rating           float64     `json:"rating"`
	Types            []string    `json:"types"`

	// User-entered detail, absent on raw search results
	FavoriteDish  string `json:"favorite_dish"`
	BestTimeToGo  string `json:"best_time_to_go"`
	PersonalNotes string `json:"personal_notes"`
	Notes         string `json:"notes"`
}

// UnnamedLocation is the display name for places that arrive without one
const UnnamedLocation = "Unnamed Location"

// Normalize converts a raw place into a canonical FavoriteSpot. The spot
// type is decided by the caller from the search bucket that produced the
// candidate, never inferred from place metadata. Missing geometry degrades
// to (0,0) rather than failing; a missing id is the only hard error.
func Normalize(raw RawPlace, kind models.SpotType) (models.FavoriteSpot, error) {
	id := raw.PlaceID
	if id == "" {
		id = raw.ID
	}
	if id == "" {
		return models.FavoriteSpot{}, errors.ValidationError("place_id", "place has no id")
	}

	name := raw.Name
	if name == "" {
		name = UnnamedLocation
	}

	address := raw.Vicinity
	if address == "" {
		address = raw.FormattedAddress
	}

	var lat, lng float64
	switch {
	case raw.Geometry != nil:
		lat = raw.Geometry.Location.Lat
		lng = raw.Geometry.Location.Lng
	case raw.Coordinate != nil:
		lat = raw.Coordinate.Latitude
		lng = raw.Coordinate.Longitude
	}

	return models.FavoriteSpot{
		PlaceID:       id,
		Name:          name,
		Type:          kind,
		Address:       address,
		Latitude:      lat,
		Longitude:     lng,
		FavoriteDish:  raw.FavoriteDish,
		BestTimeToGo:  raw.BestTimeToGo,
		PersonalNotes: raw.PersonalNotes,
		Notes:         raw.Notes,
		LastUpdated:   time.Now().UTC(),
	}, nil
}
