package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petalboard/internal/models"

	"gorm.io/gorm"
)

// AccountRepositoryImpl handles database operations for accounts and
// password reset tokens.
type AccountRepositoryImpl struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepositoryImpl {
	return &AccountRepositoryImpl{db: db}
}

// Create inserts a new account. The unique index on email surfaces
// duplicate registrations as an error from the driver.
func (r *AccountRepositoryImpl) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByEmail retrieves an account by its email address.
func (r *AccountRepositoryImpl) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account

	err := r.db.WithContext(ctx).First(&account, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("account %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// GetByID retrieves an account by its KSUID.
func (r *AccountRepositoryImpl) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account

	err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *AccountRepositoryImpl) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)

	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateResetToken stores a fresh single-use reset token.
func (r *AccountRepositoryImpl) CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// ConsumeResetToken marks a token used and returns it. Expired or already
// used tokens come back as ErrNotFound so the caller cannot tell them apart
// from a token that never existed.
func (r *AccountRepositoryImpl) ConsumeResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var reset models.PasswordResetToken

	err := r.db.WithContext(ctx).First(&reset, "token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("reset token: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	now := time.Now()
	if reset.UsedAt != nil || now.After(reset.ExpiresAt) {
		return nil, fmt.Errorf("reset token: %w", ErrNotFound)
	}

	if err := r.db.WithContext(ctx).Model(&reset).Update("used_at", &now).Error; err != nil {
		return nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	reset.UsedAt = &now
	return &reset, nil
}
