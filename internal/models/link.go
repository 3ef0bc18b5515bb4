package models

import "time"

// Link représente un lien raccourci dans la base de données.
// The original URL and short code both carry unique indexes; every
// cross-request uniqueness guarantee rests on those constraints.
type Link struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	OriginalURL string     `gorm:"uniqueIndex;size:2048;not null" json:"originalUrl"`
	ShortCode   string     `gorm:"uniqueIndex;size:10;not null" json:"shortHash"`
	ExpiresAt   *time.Time `json:"expirationDate,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	VisitCount  int64      `gorm:"not null;default:0" json:"visitCount"`
	UserID      uint       `gorm:"index;not null" json:"userId"`
}

// Expired reports whether the link's expiration date is set and in the past
// relative to the supplied clock reading.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}
