package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository stores refresh records in the refresh_tokens table.
func NewRepository(db *gorm.DB) RefreshTokenStore {
	return &repository{
		db: db,
	}
}

func (r *repository) Save(ctx context.Context, token *RefreshToken) error {
	const op = "auth.repository.Save"

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_hash", "expires_at", "updated_at"}),
	}).Create(token).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *repository) Get(ctx context.Context, userID uuid.UUID) (*RefreshToken, error) {
	const op = "auth.repository.Get"

	var token RefreshToken
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &token, nil
}

func (r *repository) Delete(ctx context.Context, userID uuid.UUID) error {
	const op = "auth.repository.Delete"

	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&RefreshToken{}).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const op = "auth.repository.DeleteExpired"

	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&RefreshToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("%s: %w", op, result.Error)
	}
	return result.RowsAffected, nil
}
