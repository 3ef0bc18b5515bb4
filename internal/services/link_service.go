// Package services contains the business logic layer for the URL shortener application
package services

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/vborgne/urlshortener/internal/cache"
	customerrors "github.com/vborgne/urlshortener/internal/errors"
	"github.com/vborgne/urlshortener/internal/hash"
	"github.com/vborgne/urlshortener/internal/models"
	"github.com/vborgne/urlshortener/internal/repository"
)

// maxCreateAttempts bounds the short-code collision retry loop.
const maxCreateAttempts = 5

// LinkService provides business logic methods for managing shortened links.
// It acts as an intermediary between the HTTP handlers and the data repository,
// and owns the uniqueness and expiration rules.
type LinkService struct {
	linkRepo  repository.LinkRepository
	visitRepo repository.VisitRepository
	generator *hash.Generator
	linkCache *cache.LinkCache // nil when caching is disabled
	logger    *zap.Logger
	now       func() time.Time
}

// NewLinkService creates and returns a new instance of LinkService.
// linkCache may be nil; every cache operation is nil-safe.
func NewLinkService(
	linkRepo repository.LinkRepository,
	visitRepo repository.VisitRepository,
	generator *hash.Generator,
	linkCache *cache.LinkCache,
	logger *zap.Logger,
) *LinkService {
	return &LinkService{
		linkRepo:  linkRepo,
		visitRepo: visitRepo,
		generator: generator,
		linkCache: linkCache,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateLink creates a new shortened link with collision retry logic.
// Uniqueness is enforced by the store's unique constraints, not by a
// check-then-act lookup: the create is attempted and the constraint violation
// decides the outcome, so two requests racing on the same generated code
// cannot both win. Only short-code collisions are retried (bounded by
// maxCreateAttempts); a duplicate original URL fails immediately with
// ErrDuplicateURL since regeneration cannot fix it.
func (s *LinkService) CreateLink(originalURL string, expiresAt *time.Time, userID uint) (*models.Link, error) {
	if _, err := url.ParseRequestURI(originalURL); err != nil {
		return nil, customerrors.ErrInvalidURL
	}
	if expiresAt != nil && expiresAt.Before(s.now()) {
		return nil, customerrors.ErrInvalidExpiration
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate short code: %w", err)
		}

		link := &models.Link{
			OriginalURL: originalURL,
			ShortCode:   code,
			ExpiresAt:   expiresAt,
			UserID:      userID,
		}

		err = s.linkRepo.CreateLink(link)
		switch {
		case err == nil:
			return link, nil
		case errors.Is(err, customerrors.ErrShortCodeTaken):
			s.logger.Warn("short code collision, retrying",
				zap.String("short_code", code),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxCreateAttempts))
		case errors.Is(err, customerrors.ErrDuplicateURL):
			return nil, customerrors.ErrDuplicateURL
		default:
			return nil, err
		}
	}

	return nil, customerrors.ErrCodeGenerationExhausted
}

// Resolve looks up a link by short code and checks its expiration.
// Terminal outcomes: ErrLinkNotFound (404), ErrLinkExpired (410), or the link.
// Dispatching the analytics event is the caller's job; this method performs
// no side effects on the visit counter.
func (s *LinkService) Resolve(shortCode string) (*models.Link, error) {
	link, hit := s.linkCache.Get(shortCode)
	if hit && link == nil {
		// Negative cache entry: the code is known to not exist.
		return nil, customerrors.ErrLinkNotFound
	}
	if !hit {
		var err error
		link, err = s.linkRepo.GetLinkByShortCode(shortCode)
		if err != nil {
			if errors.Is(err, customerrors.ErrLinkNotFound) {
				s.linkCache.SetMiss(shortCode)
			}
			return nil, err
		}
		s.linkCache.Set(link)
	}

	if link.Expired(s.now()) {
		return nil, customerrors.ErrLinkExpired
	}
	return link, nil
}

// GetOwnedLink fetches a link by short code and verifies ownership.
// Returns ErrLinkNotFound when the code is unknown and ErrNotOwner when the
// link belongs to a different user.
func (s *LinkService) GetOwnedLink(shortCode string, userID uint) (*models.Link, error) {
	link, err := s.linkRepo.GetLinkByShortCode(shortCode)
	if err != nil {
		return nil, err
	}
	if link.UserID != userID {
		return nil, customerrors.ErrNotOwner
	}
	return link, nil
}

// GetUserLinks retrieves every link owned by a user, most recent first.
// An empty list maps to ErrLinkNotFound so the boundary can render 404.
func (s *LinkService) GetUserLinks(userID uint) ([]models.Link, error) {
	links, err := s.linkRepo.GetLinksByUserID(userID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, customerrors.ErrLinkNotFound
	}
	return links, nil
}

// GetLinkAnalytics returns a link's visit counter together with its recorded
// visit events, after verifying the requester owns the link.
// A link with no events yet yields ErrNoVisits.
func (s *LinkService) GetLinkAnalytics(shortCode string, userID uint) (*models.Link, []models.VisitEvent, error) {
	link, err := s.GetOwnedLink(shortCode, userID)
	if err != nil {
		return nil, nil, err
	}

	visits, err := s.visitRepo.GetVisitsByLinkID(link.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(visits) == 0 {
		return nil, nil, customerrors.ErrNoVisits
	}
	return link, visits, nil
}

// DeleteLink removes an owned link and, through the repository transaction,
// every visit event attached to it. The cache entry is invalidated afterwards
// so a stale redirect cannot outlive the record.
func (s *LinkService) DeleteLink(shortCode string, userID uint) error {
	link, err := s.GetOwnedLink(shortCode, userID)
	if err != nil {
		return err
	}
	if err := s.linkRepo.DeleteLink(link.ID); err != nil {
		return err
	}
	s.linkCache.Invalidate(shortCode)
	return nil
}

// PurgeExpired deletes every link whose expiration date passed before the
// cutoff, cascading visit events and invalidating cache entries.
// Returns the number of links removed. Used by the cleanup sweeper.
func (s *LinkService) PurgeExpired(cutoff time.Time) (int, error) {
	expired, err := s.linkRepo.GetExpiredLinks(cutoff)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, link := range expired {
		if err := s.linkRepo.DeleteLink(link.ID); err != nil {
			s.logger.Error("failed to purge expired link",
				zap.Uint("link_id", link.ID),
				zap.String("short_code", link.ShortCode),
				zap.Error(err))
			continue
		}
		s.linkCache.Invalidate(link.ShortCode)
		purged++
	}
	return purged, nil
}
