package models

import "time"

// VisitEvent represents one recorded visit to a shortened URL stored in the database.
// Events are append-only: they are never updated, and individually never deleted.
// They disappear only when the owning Link is deleted (cascade).
type VisitEvent struct {
	// ID is the primary key with auto-increment functionality
	ID uint `gorm:"primaryKey" json:"id"`

	// LinkID is the foreign key referencing the Link that was visited
	// - index: creates a database index for efficient per-link queries
	LinkID uint `gorm:"index;not null" json:"urlId"`

	// VisitedAt records the exact moment when the visit occurred
	VisitedAt time.Time `json:"visitedAt"`

	// Browser stores the parsed agent family and version (e.g. "Chrome 120.0").
	// Empty when the User-Agent header was missing or unparseable.
	Browser string `gorm:"size:128" json:"browser"`

	// Device stores the derived device class (e.g. "Mobile", "Desktop").
	Device string `gorm:"size:64" json:"device"`

	// Location stores the approximate city resolved from the visitor's IP,
	// or the "Unknown Location" sentinel when the lookup failed or timed out.
	Location string `gorm:"size:128" json:"location"`
}

// VisitPayload represents a raw visit intended to be passed through channels.
// This lightweight struct is used for asynchronous processing between goroutines:
// it carries only the request metadata needed to build a VisitEvent later,
// enrichment (parsing, geo lookup) happens on the worker side.
type VisitPayload struct {
	LinkID     uint      // The ID of the link that was visited
	VisitedAt  time.Time // When the visit occurred
	RemoteAddr string    // Visitor's IP address, input to the Geo-IP lookup
	UserAgent  string    // Raw User-Agent header, input to browser/device parsing
}
