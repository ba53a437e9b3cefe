package realtime

import (
	"context"

	"github.com/iknowaspot/backend/internal/favorites"
	"github.com/iknowaspot/backend/internal/friends"
	"github.com/iknowaspot/backend/internal/logger"
	"go.uber.org/zap"
)

// Publisher assembles per-user state snapshots and pushes them to every
// connection that user has open. Handlers call it after each mutation so
// all of a user's devices converge on the same view.
type Publisher struct {
	hub       *Hub
	favorites *favorites.Service
	friends   *friends.Service
}

// NewPublisher creates a Publisher backed by the given hub and services
func NewPublisher(hub *Hub, favs *favorites.Service, frs *friends.Service) *Publisher {
	return &Publisher{
		hub:       hub,
		favorites: favs,
		friends:   frs,
	}
}

// Snapshot builds the complete synchronized state for one user
func (p *Publisher) Snapshot(ctx context.Context, userID string) (*StatePayload, error) {
	favs, err := p.favorites.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	friendUsers, err := p.friends.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries := make([]FriendEntry, 0, len(friendUsers))
	for _, u := range friendUsers {
		entries = append(entries, FriendEntry{
			ID:           u.ID,
			Username:     u.Username,
			ProfileImage: u.ProfileImage,
		})
	}

	requests, err := p.friends.ListRequests(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &StatePayload{
		UserID:    userID,
		Favorites: favs,
		Friends:   entries,
		Requests:  requests,
	}, nil
}

// PushState sends a fresh state snapshot to all of a user's connections.
// Users with no open connections are skipped without building the snapshot.
func (p *Publisher) PushState(ctx context.Context, userID string) {
	if !p.hub.IsUserOnline(userID) {
		return
	}

	state, err := p.Snapshot(ctx, userID)
	if err != nil {
		logger.Log.Warn("Failed to build state snapshot",
			zap.String("user", userID),
			zap.Error(err))
		return
	}

	p.hub.SendToUser(userID, NewMessage(MessageTypeStateSync, state))
}

// NotifyFriendRequest tells the recipient about a new incoming request
// and refreshes their state.
func (p *Publisher) NotifyFriendRequest(ctx context.Context, recipientID, requesterID, requesterUsername string) {
	p.hub.SendToUser(recipientID, NewMessage(MessageTypeFriendRequestReceived, FriendRequestPayload{
		RequesterID:       requesterID,
		RequesterUsername: requesterUsername,
	}))
	p.PushState(ctx, recipientID)
}

// NotifyRequestResolved tells the requester their request was accepted or
// declined and refreshes both sides.
func (p *Publisher) NotifyRequestResolved(ctx context.Context, requesterID, recipientID, recipientUsername string, accepted bool) {
	msgType := MessageTypeFriendRequestDeclined
	if accepted {
		msgType = MessageTypeFriendRequestAccepted
	}
	p.hub.SendToUser(requesterID, NewMessage(msgType, FriendResolutionPayload{
		UserID:   recipientID,
		Username: recipientUsername,
		Accepted: accepted,
	}))
	p.PushState(ctx, requesterID)
	p.PushState(ctx, recipientID)
}

// NotifyFriendRemoved tells the removed side the friendship is gone and
// refreshes both sides.
func (p *Publisher) NotifyFriendRemoved(ctx context.Context, removedID, removerID string) {
	p.hub.SendToUser(removedID, NewMessage(MessageTypeFriendRemoved, FriendRemovedPayload{
		UserID: removerID,
	}))
	p.PushState(ctx, removedID)
	p.PushState(ctx, removerID)
}

// NotifyFavoritesChanged signals the user's other devices that their
// favorites changed, then pushes the refreshed snapshot.
func (p *Publisher) NotifyFavoritesChanged(ctx context.Context, userID string) {
	p.hub.SendToUser(userID, NewMessage(MessageTypeFavoritesChanged, FavoritesChangedPayload{
		UserID: userID,
	}))
	p.PushState(ctx, userID)
}
