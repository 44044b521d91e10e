package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// Account is a registered user of the board. Passwords are stored as bcrypt
// hashes; accounts created through the Google token exchange have no hash.
type Account struct {
	ID           string         `json:"id" gorm:"type:char(27);primaryKey"`
	Email        string         `json:"email" gorm:"type:text;not null;uniqueIndex"`
	DisplayName  string         `json:"display_name" gorm:"type:text"`
	PhotoURL     string         `json:"photo_url" gorm:"type:text"`
	PasswordHash string         `json:"-" gorm:"type:text"`
	Provider     string         `json:"provider" gorm:"type:varchar(20);not null;default:'password'"`
	CreatedAt    time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"column:deleted_at;index"`
}

// BeforeCreate hook generates KSUID before inserting
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = ksuid.New().String()
	}
	return nil
}

// PasswordResetToken is a single-use token mailed to the account owner.
// The token value itself is a UUID so it carries no ordering information.
type PasswordResetToken struct {
	Token     string     `json:"token" gorm:"type:char(36);primaryKey"`
	AccountID string     `json:"account_id" gorm:"type:char(27);not null;index"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName override
func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
