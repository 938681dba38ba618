package repositories

import (
	"errors"
	"strings"

	"wingit/score/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type UserRepository struct {
	DB *gorm.DB
}

// CreateUser inserts a new user. The unique index on the normalized
// name column makes this the authoritative duplicate check; a losing
// concurrent insert gets ErrUsernameTaken, never a second row.
func (r *UserRepository) CreateUser(user *models.User) error {
	err := r.DB.Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrUsernameTaken
	}
	return err
}

func (r *UserRepository) GetUserByID(userID uint) (*models.User, error) {
	var user models.User
	err := r.DB.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername matches case-insensitively via the normalized
// column, so the lookup rides the same index that enforces uniqueness.
func (r *UserRepository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.DB.Where("username_lower = ?", strings.ToLower(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchByUsername returns up to limit users whose display name
// contains the query, case-insensitively.
func (r *UserRepository) SearchByUsername(query string, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + strings.ToLower(query) + "%"
	err := r.DB.Where("username_lower LIKE ?", pattern).Limit(limit).Find(&users).Error
	return users, err
}

// GetUsernames batch-resolves display names for a set of user ids.
func (r *UserRepository) GetUsernames(userIDs []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}
	var users []models.User
	if err := r.DB.Select("id", "username").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
