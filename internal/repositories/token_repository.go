package repositories

import (
	"errors"
	"time"

	"wingit/score/internal/models"

	"gorm.io/gorm"
)

var ErrTokenNotFound = errors.New("run token not found")

type TokenRepository struct {
	DB *gorm.DB
}

func (r *TokenRepository) Create(token *models.RunToken) error {
	return r.DB.Create(token).Error
}

func (r *TokenRepository) GetByToken(tokenStr string) (*models.RunToken, error) {
	var t models.RunToken
	err := r.DB.Where("token = ?", tokenStr).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteExpired removes unused tokens whose validity window has passed.
func (r *TokenRepository) DeleteExpired(before time.Time) (int64, error) {
	tx := r.DB.Unscoped().Where("used = ? AND expires_at <= ?", false, before).Delete(&models.RunToken{})
	return tx.RowsAffected, tx.Error
}

// DeleteUsedBefore removes consumed tokens older than the retention
// window; the Run row keeps the token value for audit.
func (r *TokenRepository) DeleteUsedBefore(before time.Time) (int64, error) {
	tx := r.DB.Unscoped().Where("used = ? AND updated_at <= ?", true, before).Delete(&models.RunToken{})
	return tx.RowsAffected, tx.Error
}
