package models

import "time"

// User représente un compte utilisateur possédant des liens raccourcis.
// PasswordHash is always a bcrypt hash: hashing happens explicitly in the
// user service before the record is constructed, never in a save hook.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	RefreshToken string    `gorm:"size:512" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
