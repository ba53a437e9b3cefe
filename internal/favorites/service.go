// Package favorites owns a user's saved spots: listing, the save/unsave
// toggle, and note edits. Each favorite is its own row keyed by
// (user_id, place_id), so concurrent toggles from two devices contend on
// one row instead of overwriting each other's whole list.
package favorites

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/iknowaspot/backend/internal/errors"
	"github.com/iknowaspot/backend/internal/models"
	"github.com/iknowaspot/backend/internal/places"
	"gorm.io/gorm"
)

// Service handles favorite spot persistence for all users
type Service struct {
	db *gorm.DB
}

// NewService creates a favorites service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns the user's favorites in save order. A missing user is an
// error; a user with no favorites gets an empty slice.
func (s *Service) List(ctx context.Context, userID string) ([]models.FavoriteSpot, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.list(ctx, userID)
}

// Toggle saves the place if the user hasn't favorited it, or removes it if
// they have. Returns whether the place is now a favorite plus the updated
// list. The insert-or-delete runs in one transaction so the
// one-row-per-place invariant holds under concurrent toggles.
func (s *Service) Toggle(ctx context.Context, userID string, raw places.RawPlace, kind models.SpotType) (bool, []models.FavoriteSpot, error) {
	spot, err := places.Normalize(raw, kind)
	if err != nil {
		return false, nil, err
	}

	if err := s.requireUser(ctx, userID); err != nil {
		return false, nil, err
	}

	var nowFavorite bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.FavoriteSpot
		err := tx.Where("user_id = ? AND place_id = ?", userID, spot.PlaceID).First(&existing).Error

		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			nowFavorite = false
			return tx.Model(&models.User{}).Where("id = ?", userID).
				UpdateColumn("favorite_count", gorm.Expr("favorite_count - 1")).Error

		case stderrors.Is(err, gorm.ErrRecordNotFound):
			spot.UserID = userID
			if err := tx.Create(&spot).Error; err != nil {
				return err
			}
			nowFavorite = true
			return tx.Model(&models.User{}).Where("id = ?", userID).
				UpdateColumn("favorite_count", gorm.Expr("favorite_count + 1")).Error

		default:
			return err
		}
	})
	if err != nil {
		return false, nil, err
	}

	updated, err := s.list(ctx, userID)
	if err != nil {
		return nowFavorite, nil, err
	}
	return nowFavorite, updated, nil
}

// UpdateNotes replaces the notes field of one favorite, leaving every other
// field untouched, and returns the updated list. Editing a place that is
// not favorited is reported as not found rather than silently ignored.
func (s *Service) UpdateNotes(ctx context.Context, userID, placeID, notes string) ([]models.FavoriteSpot, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.FavoriteSpot{}).
		Where("user_id = ? AND place_id = ?", userID, placeID).
		Updates(map[string]interface{}{
			"notes":        notes,
			"last_updated": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, errors.NotFound("favorite")
	}

	return s.list(ctx, userID)
}

// IsFavorite reports whether the user has saved the given place
func (s *Service) IsFavorite(ctx context.Context, userID, placeID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.FavoriteSpot{}).
		Where("user_id = ? AND place_id = ?", userID, placeID).
		Count(&count).Error
	return count > 0, err
}

// FavoritePlaceIDs returns the set of place ids the user has saved
func (s *Service) FavoritePlaceIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.FavoriteSpot{}).
		Where("user_id = ?", userID).
		Pluck("place_id", &ids).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (s *Service) list(ctx context.Context, userID string) ([]models.FavoriteSpot, error) {
	spots := []models.FavoriteSpot{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Find(&spots).Error
	return spots, err
}

func (s *Service) requireUser(ctx context.Context, userID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errors.NotFound("user")
	}
	return nil
}
