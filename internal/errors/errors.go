package errors

import (
	"errors"
	"fmt"
)

// Custom error types for the URL shortener application.
// The boundary layers map these onto HTTP status codes; storage-layer error
// text never travels further than a wrapped cause.

// ErrLinkNotFound is returned when a short code doesn't exist in the database
var ErrLinkNotFound = errors.New("link not found")

// ErrLinkExpired is returned when a link exists but its expiration date has passed.
// Kept distinct from ErrLinkNotFound so callers can render 410 instead of 404.
var ErrLinkExpired = errors.New("link has expired")

// ErrInvalidURL is returned when the provided URL is invalid
var ErrInvalidURL = errors.New("invalid URL format")

// ErrInvalidExpiration is returned when the requested expiration date is already past
var ErrInvalidExpiration = errors.New("expiration date is in the past")

// ErrDuplicateURL is returned when the original URL has already been shortened.
// The unique constraint applies system-wide, regardless of owner.
var ErrDuplicateURL = errors.New("original URL has already been shortened")

// ErrShortCodeTaken is returned by the store when a generated short code collides
// with an existing one. The create loop retries on this error only.
var ErrShortCodeTaken = errors.New("short code already in use")

// ErrCodeGenerationExhausted is returned when we can't produce a unique short code
// within the bounded number of attempts
var ErrCodeGenerationExhausted = errors.New("failed to generate unique short code")

// ErrStoreUnavailable is returned when the persistence layer fails for reasons
// other than a constraint violation or a missing row. Transient by contract.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrNotOwner is returned when an authenticated user operates on a link
// that belongs to someone else
var ErrNotOwner = errors.New("not the owner of this link")

// ErrNoVisits is returned when a link has no recorded visit events yet
var ErrNoVisits = errors.New("no analytics data available for this URL")

// ErrEmailTaken is returned when signing up with an already registered email
var ErrEmailTaken = errors.New("user already exists")

// ErrInvalidCredentials is returned when login email/password verification fails
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidToken is returned when a JWT is missing, malformed, expired or revoked
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrVisitRecordingFailed is returned when persisting a visit event fails.
// It never leaves the analytics path: the recorder logs it and moves on.
type ErrVisitRecordingFailed struct {
	LinkID uint
	Reason string
}

func (e ErrVisitRecordingFailed) Error() string {
	return fmt.Sprintf("failed to record visit for link %d: %s", e.LinkID, e.Reason)
}
