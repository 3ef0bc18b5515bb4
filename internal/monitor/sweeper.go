// Package monitor hosts the background job removing expired links.
package monitor

import (
	"time"

	"go.uber.org/zap"

	"github.com/vborgne/urlshortener/internal/services"
)

// ExpirationSweeper periodically hard-deletes links whose expiration date
// passed longer than the grace period ago. Until the sweep, an expired link
// still resolves to a 410; afterwards its code returns 404. Deletion cascades
// to visit events and invalidates cache entries via the link service.
type ExpirationSweeper struct {
	linkService *services.LinkService
	grace       time.Duration
	logger      *zap.Logger
}

// NewExpirationSweeper creates and returns a new ExpirationSweeper.
func NewExpirationSweeper(linkService *services.LinkService, grace time.Duration, logger *zap.Logger) *ExpirationSweeper {
	return &ExpirationSweeper{
		linkService: linkService,
		grace:       grace,
		logger:      logger,
	}
}

// Sweep runs one cleanup pass. It is scheduled via cron from the server
// command; failures are logged and the next scheduled run tries again.
func (s *ExpirationSweeper) Sweep() {
	cutoff := time.Now().Add(-s.grace)
	purged, err := s.linkService.PurgeExpired(cutoff)
	if err != nil {
		s.logger.Error("expiration sweep failed", zap.Error(err))
		return
	}
	if purged > 0 {
		s.logger.Info("expiration sweep completed",
			zap.Int("purged", purged),
			zap.Time("cutoff", cutoff))
	}
}
