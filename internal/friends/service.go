// Package friends manages the friend graph: pending requests, the symmetric
// friendship edges they resolve into, username search, and repair of
// half-written edges.
package friends

import (
	"context"
	stderrors "errors"

	"github.com/iknowaspot/backend/internal/errors"
	"github.com/iknowaspot/backend/internal/logger"
	"github.com/iknowaspot/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// usernameRangeEnd caps the prefix-range search; every username sharing the
// prefix sorts strictly below prefix + this sentinel.
const usernameRangeEnd = "\uf8ff"

// Service handles friend graph operations
type Service struct {
	db *gorm.DB
}

// NewService creates a friends service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SendRequest creates a pending friend request from one user to another.
// Self-requests, duplicate pending requests, and requests toward an
// existing friend are all rejected.
func (s *Service) SendRequest(ctx context.Context, fromID, toID string) (*models.FriendRequest, error) {
	if fromID == toID {
		return nil, errors.SelfRequest()
	}

	var requester models.User
	if err := s.db.WithContext(ctx).First(&requester, "id = ?", fromID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("user")
		}
		return nil, err
	}

	var recipientCount int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", toID).Count(&recipientCount).Error; err != nil {
		return nil, err
	}
	if recipientCount == 0 {
		return nil, errors.NotFound("user")
	}

	already, err := s.AreFriends(ctx, fromID, toID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, errors.Conflict("friendship")
	}

	var pending int64
	err = s.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("requester_id = ? AND recipient_id = ? AND status = ?", fromID, toID, models.FriendRequestStatusPending).
		Count(&pending).Error
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, errors.Conflict("friend request")
	}

	// A pending request already exists in the other direction; the caller
	// should accept that one instead of crossing it with a second edge.
	var reversePending int64
	err = s.db.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("requester_id = ? AND recipient_id = ? AND status = ?", toID, fromID, models.FriendRequestStatusPending).
		Count(&reversePending).Error
	if err != nil {
		return nil, err
	}
	if reversePending > 0 {
		return nil, errors.Conflict("friend request")
	}

	request := models.FriendRequest{
		RequesterID:       fromID,
		RecipientID:       toID,
		RequesterUsername: requester.Username,
		Status:            models.FriendRequestStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, err
	}

	return &request, nil
}

// Respond resolves a pending request addressed to selfID. Accepting writes
// both directions of the friendship and removes the request in a single
// transaction, so no observer ever sees a one-sided edge from this path.
// Declining only removes the request.
func (s *Service) Respond(ctx context.Context, selfID, requesterID string, accept bool) error {
	var request models.FriendRequest
	err := s.db.WithContext(ctx).
		Where("requester_id = ? AND recipient_id = ? AND status = ?", requesterID, selfID, models.FriendRequestStatusPending).
		First(&request).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("friend request")
		}
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&request).Error; err != nil {
			return err
		}

		// Crossing rows predating the reverse-pending guard: a request from
		// selfID back to the requester is consumed by this same resolution.
		err := tx.Where("requester_id = ? AND recipient_id = ? AND status = ?",
			selfID, requesterID, models.FriendRequestStatusPending).
			Delete(&models.FriendRequest{}).Error
		if err != nil {
			return err
		}

		if !accept {
			return nil
		}

		// The edge may already exist if an out-of-band resolution raced this
		// one; the request is consumed either way and the counts stay put.
		var existing int64
		err = tx.Model(&models.Friendship{}).
			Where("user_id = ? AND friend_id = ?", selfID, requesterID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		edges := []models.Friendship{
			{UserID: selfID, FriendID: requesterID},
			{UserID: requesterID, FriendID: selfID},
		}
		for _, edge := range edges {
			edge := edge
			if err := tx.Create(&edge).Error; err != nil {
				return err
			}
		}

		for _, id := range []string{selfID, requesterID} {
			if err := tx.Model(&models.User{}).Where("id = ?", id).
				UpdateColumn("friend_count", gorm.Expr("friend_count + 1")).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveFriend dissolves both directions of a friendship
func (s *Service) RemoveFriend(ctx context.Context, selfID, friendID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where(
			"(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			selfID, friendID, friendID, selfID,
		).Delete(&models.Friendship{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.NotFound("friendship")
		}

		for _, id := range []string{selfID, friendID} {
			if err := tx.Model(&models.User{}).Where("id = ?", id).
				UpdateColumn("friend_count", gorm.Expr("friend_count - 1")).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AreFriends reports whether a symmetric edge exists between two users
func (s *Service) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, otherID).
		Count(&count).Error
	return count > 0, err
}

// ListFriends returns the user's friends, most recent first
func (s *Service) ListFriends(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Order("friendships.created_at DESC").
		Find(&users).Error
	return users, err
}

// FriendIDs returns just the ids of the user's friends
func (s *Service) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &ids).Error
	return ids, err
}

// ListRequests returns pending requests addressed to the user, newest first
func (s *Service) ListRequests(ctx context.Context, userID string) ([]models.FriendRequest, error) {
	requests := []models.FriendRequest{}
	err := s.db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", userID, models.FriendRequestStatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// Search finds users whose username starts with prefix, excluding the
// caller. This is a lexicographic range scan, not substring matching.
func (s *Service) Search(ctx context.Context, selfID, prefix string, limit int) ([]models.User, error) {
	if prefix == "" {
		return []models.User{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("username >= ? AND username < ?", prefix, prefix+usernameRangeEnd).
		Where("id <> ?", selfID).
		Order("username").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// Reconcile finds friendships recorded in only one direction and writes the
// missing reverse edge. Returns the number of edges repaired. Run from the
// admin CLI; the accept path can no longer produce these, but rows imported
// from the old per-document store may be one-sided.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	var orphans []models.Friendship
	err := s.db.WithContext(ctx).
		Raw(`SELECT f.* FROM friendships f
		     LEFT JOIN friendships r ON r.user_id = f.friend_id AND r.friend_id = f.user_id
		     WHERE r.id IS NULL`).
		Scan(&orphans).Error
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, edge := range orphans {
		reverse := models.Friendship{UserID: edge.FriendID, FriendID: edge.UserID}
		if err := s.db.WithContext(ctx).Create(&reverse).Error; err != nil {
			logger.Error("Failed to repair one-sided friendship",
				zap.String("user_id", edge.UserID),
				zap.String("friend_id", edge.FriendID),
				zap.Error(err),
			)
			continue
		}
		repaired++
	}

	return repaired, nil
}
