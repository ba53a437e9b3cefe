package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SpotType classifies a saved place by the search bucket it came from.
type SpotType string

const (
	SpotTypeRestaurant SpotType = "restaurant"
	SpotTypeScenic     SpotType = "scenic"
)

// User represents an iknowaspot account
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`

	// Native auth fields
	PasswordHash *string `gorm:"type:text" json:"-"`

	// Profile data
	ProfileImage string `gorm:"type:text" json:"profile_image"`

	// Cached social stats, maintained alongside the source rows
	FriendCount   int `gorm:"default:0" json:"friend_count"`
	FavoriteCount int `gorm:"default:0" json:"favorite_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FavoriteSpot is a user's saved place with personal annotations.
// At most one row exists per (user_id, place_id).
type FavoriteSpot struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"-"`
	UserID string `gorm:"not null;index;uniqueIndex:idx_favorites_user_place" json:"-"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	// Canonical place fields from the places-search collaborator
	PlaceID   string   `gorm:"not null;uniqueIndex:idx_favorites_user_place" json:"id"`
	Name      string   `gorm:"not null" json:"name"`
	Type      SpotType `gorm:"not null" json:"type"`
	Address   string   `gorm:"type:text" json:"address"`
	Latitude  float64  `gorm:"default:0" json:"latitude"`
	Longitude float64  `gorm:"default:0" json:"longitude"`

	// Personal annotations. Notes and PersonalNotes are distinct channels
	// populated by different app flows.
	FavoriteDish  string `gorm:"type:text" json:"favorite_dish"`
	BestTimeToGo  string `gorm:"type:text" json:"best_time_to_go"`
	PersonalNotes string `gorm:"type:text" json:"personal_notes"`
	Notes         string `gorm:"type:text" json:"notes"`

	LastUpdated time.Time `json:"last_updated"`

	// GORM fields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// FriendRequestStatus represents the state of a friend request
type FriendRequestStatus string

const (
	FriendRequestStatusPending FriendRequestStatus = "pending"
)

// FriendRequest is a one-sided pending proposal for a symmetric friendship.
// Resolved requests are deleted, not archived.
type FriendRequest struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"request_id"`
	RequesterID string `gorm:"not null;uniqueIndex:idx_requests_pair" json:"id"`
	Requester   User   `gorm:"foreignKey:RequesterID" json:"-"`
	RecipientID string `gorm:"not null;index;uniqueIndex:idx_requests_pair" json:"-"`
	Recipient   User   `gorm:"foreignKey:RecipientID" json:"-"`

	// Username snapshot taken at request time
	RequesterUsername string `gorm:"not null" json:"username"`

	Status FriendRequestStatus `gorm:"not null;default:pending" json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

// Friendship is one direction of a symmetric friend edge. Every accepted
// request produces two rows, (A,B) and (B,A), in the same transaction.
type Friendship struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"-"`
	UserID   string `gorm:"not null;index;uniqueIndex:idx_friendships_pair" json:"-"`
	User     User   `gorm:"foreignKey:UserID" json:"-"`
	FriendID string `gorm:"not null;uniqueIndex:idx_friendships_pair" json:"friend_id"`
	Friend   User   `gorm:"foreignKey:FriendID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName ensures the pair index reads naturally in raw SQL
func (Friendship) TableName() string {
	return "friendships"
}

// BeforeCreate hooks for GORM

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (f *FavoriteSpot) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	if f.LastUpdated.IsZero() {
		f.LastUpdated = time.Now().UTC()
	}
	return nil
}

func (r *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	if r.Status == "" {
		r.Status = FriendRequestStatusPending
	}
	return nil
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
