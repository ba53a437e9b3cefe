// Package seed populates the database with development and test data.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/iknowaspot/backend/internal/logger"
	"github.com/iknowaspot/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating favorite spots...")
	if err := s.seedFavorites(users, 300); err != nil {
		return fmt.Errorf("failed to seed favorites: %w", err)
	}

	logger.Log.Info("Creating friendships...")
	if err := s.seedFriendships(users, 100); err != nil {
		return fmt.Errorf("failed to seed friendships: %w", err)
	}

	logger.Log.Info("Creating pending friend requests...")
	if err := s.seedFriendRequests(users, 30); err != nil {
		return fmt.Errorf("failed to seed friend requests: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with a fixed set of users
func (s *Seeder) SeedTest() error {
	testUserSpecs := []struct {
		username string
		email    string
	}{
		{"alice", "alice@example.com"},
		{"bob", "bob@example.com"},
		{"charlie", "charlie@example.com"},
		{"diana", "diana@example.com"},
		{"eve", "eve@example.com"},
	}

	var users []models.User
	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPasswordStr := string(hashedPassword)

		user = models.User{
			Email:        spec.email,
			Username:     spec.username,
			PasswordHash: &hashedPasswordStr,
			ProfileImage: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username),
		}

		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	if len(users) < 2 {
		return fmt.Errorf("no test users available")
	}

	if err := s.seedFavorites(users, 10); err != nil {
		return fmt.Errorf("failed to seed favorites: %w", err)
	}
	return s.seedFriendships(users, 3)
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	if err := s.db.Exec("DELETE FROM friendships").Error; err != nil {
		return fmt.Errorf("failed to clean friendships: %w", err)
	}
	if err := s.db.Exec("DELETE FROM friend_requests").Error; err != nil {
		return fmt.Errorf("failed to clean friend_requests: %w", err)
	}
	if err := s.db.Exec("DELETE FROM favorite_spots").Error; err != nil {
		return fmt.Errorf("failed to clean favorite_spots: %w", err)
	}
	if err := s.db.Exec("DELETE FROM users").Error; err != nil {
		return fmt.Errorf("failed to clean users: %w", err)
	}
	return nil
}

// seedUsers creates users with realistic data
func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		var users []models.User
		if err := s.db.Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing users, skipping creation",
			zap.Int("total_users", len(users)))
		return users, nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashedPasswordStr := string(hashedPassword)

	var users []models.User
	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := gofakeit.Email()

		// Ensure unique username/email
		var existingUser models.User
		for {
			if err := s.db.Where("username = ? OR email = ?", username, email).First(&existingUser).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
			email = gofakeit.Email()
		}

		user := models.User{
			Email:        email,
			Username:     username,
			PasswordHash: &hashedPasswordStr,
			ProfileImage: fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
		}

		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	return users, nil
}

// seedFavorites creates saved spots spread across the users
func (s *Seeder) seedFavorites(users []models.User, count int) error {
	dishes := []string{"pad thai", "margherita pizza", "ramen", "birria tacos", "pho", "carbonara", "banh mi", ""}
	times := []string{"sunset", "weekday lunch", "early morning", "late night", "weekend brunch", ""}

	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]

		kind := models.SpotTypeRestaurant
		name := gofakeit.Company()
		dish := dishes[rand.Intn(len(dishes))]
		if rand.Float32() < 0.4 {
			kind = models.SpotTypeScenic
			name = fmt.Sprintf("%s Overlook", gofakeit.City())
			dish = ""
		}

		spot := models.FavoriteSpot{
			UserID:       user.ID,
			PlaceID:      fmt.Sprintf("seed-%s", gofakeit.UUID()),
			Name:         name,
			Type:         kind,
			Address:      gofakeit.Address().Address,
			Latitude:     gofakeit.Latitude(),
			Longitude:    gofakeit.Longitude(),
			FavoriteDish: dish,
			BestTimeToGo: times[rand.Intn(len(times))],
			Notes:        gofakeit.Sentence(8),
		}

		if err := s.db.Create(&spot).Error; err != nil {
			return fmt.Errorf("failed to create favorite: %w", err)
		}
		if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("favorite_count", gorm.Expr("favorite_count + 1")).Error; err != nil {
			return err
		}
	}

	return nil
}

// seedFriendships creates symmetric friend edges between random user pairs
func (s *Seeder) seedFriendships(users []models.User, count int) error {
	for i := 0; i < count; i++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}

		var existing models.Friendship
		if err := s.db.Where("user_id = ? AND friend_id = ?", a.ID, b.ID).First(&existing).Error; err == nil {
			continue
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&models.Friendship{UserID: a.ID, FriendID: b.ID}).Error; err != nil {
				return err
			}
			if err := tx.Create(&models.Friendship{UserID: b.ID, FriendID: a.ID}).Error; err != nil {
				return err
			}
			for _, id := range []string{a.ID, b.ID} {
				if err := tx.Model(&models.User{}).Where("id = ?", id).
					UpdateColumn("friend_count", gorm.Expr("friend_count + 1")).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to create friendship: %w", err)
		}
	}

	return nil
}

// seedFriendRequests creates pending requests between users who are not friends
func (s *Seeder) seedFriendRequests(users []models.User, count int) error {
	for i := 0; i < count; i++ {
		from := users[rand.Intn(len(users))]
		to := users[rand.Intn(len(users))]
		if from.ID == to.ID {
			continue
		}

		var friendship models.Friendship
		if err := s.db.Where("user_id = ? AND friend_id = ?", from.ID, to.ID).First(&friendship).Error; err == nil {
			continue
		}
		var pending models.FriendRequest
		if err := s.db.Where("requester_id = ? AND recipient_id = ?", from.ID, to.ID).First(&pending).Error; err == nil {
			continue
		}

		request := models.FriendRequest{
			RequesterID:       from.ID,
			RecipientID:       to.ID,
			RequesterUsername: from.Username,
		}
		if err := s.db.Create(&request).Error; err != nil {
			return fmt.Errorf("failed to create friend request: %w", err)
		}
	}

	return nil
}
