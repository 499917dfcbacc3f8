// models/account.go
package models

import "time"

// Account holds login credentials; its ID is the profile ID.
type Account struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	PasswordHash string     `json:"-" gorm:"not null"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}

// RevokedToken blocks a logged-out session token, by its jti, until the
// token would have expired anyway.
type RevokedToken struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"userId" gorm:"size:36;index"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null;index"`
	RevokedAt time.Time `json:"revokedAt"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
