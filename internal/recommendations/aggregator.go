// Package recommendations derives spot suggestions from friends' favorites.
// Recommendations are recomputed on every read and never persisted.
package recommendations

import (
	"context"
	"sort"

	"github.com/iknowaspot/backend/internal/errors"
	"github.com/iknowaspot/backend/internal/models"
	"gorm.io/gorm"
)

// Recommendation is a spot one or more friends have favorited that the user
// has not. Frequency counts distinct friends; RecommendedBy lists their
// usernames in the order encountered, one per count.
type Recommendation struct {
	PlaceID       string          `json:"id"`
	Name          string          `json:"name"`
	Type          models.SpotType `json:"type"`
	Address       string          `json:"address"`
	Latitude      float64         `json:"latitude"`
	Longitude     float64         `json:"longitude"`
	Frequency     int             `json:"frequency"`
	RecommendedBy []string        `json:"recommended_by"`
}

// Aggregator computes friend-favorite recommendations
type Aggregator struct {
	db *gorm.DB
}

// NewAggregator creates a recommendation aggregator
func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

// friendFavoriteRow is one friend's favorite joined with their username
type friendFavoriteRow struct {
	models.FavoriteSpot
	FriendUsername string
}

// ForUser groups friends' favorites by place id, counts how many friends
// saved each, and drops places the user already has. Friends with no
// favorites (or no surviving row) simply contribute nothing. Results are
// sorted by frequency descending, ties by place id, so the order is stable
// across reads.
func (a *Aggregator) ForUser(ctx context.Context, userID string) ([]Recommendation, error) {
	var userCount int64
	if err := a.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&userCount).Error; err != nil {
		return nil, err
	}
	if userCount == 0 {
		return nil, errors.NotFound("user")
	}

	var ownIDs []string
	err := a.db.WithContext(ctx).Model(&models.FavoriteSpot{}).
		Where("user_id = ?", userID).
		Pluck("place_id", &ownIDs).Error
	if err != nil {
		return nil, err
	}
	owned := make(map[string]struct{}, len(ownIDs))
	for _, id := range ownIDs {
		owned[id] = struct{}{}
	}

	var rows []friendFavoriteRow
	err = a.db.WithContext(ctx).
		Raw(`SELECT favorite_spots.*, users.username AS friend_username
		     FROM friendships
		     JOIN favorite_spots ON favorite_spots.user_id = friendships.friend_id
		     JOIN users ON users.id = friendships.friend_id
		     WHERE friendships.user_id = ?
		     ORDER BY favorite_spots.created_at`, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]*Recommendation)
	for _, row := range rows {
		if _, ok := owned[row.PlaceID]; ok {
			continue
		}

		if rec, ok := grouped[row.PlaceID]; ok {
			rec.Frequency++
			rec.RecommendedBy = append(rec.RecommendedBy, row.FriendUsername)
			continue
		}

		grouped[row.PlaceID] = &Recommendation{
			PlaceID:       row.PlaceID,
			Name:          row.Name,
			Type:          row.Type,
			Address:       row.Address,
			Latitude:      row.Latitude,
			Longitude:     row.Longitude,
			Frequency:     1,
			RecommendedBy: []string{row.FriendUsername},
		}
	}

	recs := make([]Recommendation, 0, len(grouped))
	for _, rec := range grouped {
		recs = append(recs, *rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Frequency != recs[j].Frequency {
			return recs[i].Frequency > recs[j].Frequency
		}
		return recs[i].PlaceID < recs[j].PlaceID
	})

	return recs, nil
}
