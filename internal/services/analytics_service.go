package services

import (
	"context"
	"strings"
	"time"

	"github.com/mileusna/useragent"
	"go.uber.org/zap"

	customerrors "github.com/vborgne/urlshortener/internal/errors"
	"github.com/vborgne/urlshortener/internal/geoip"
	"github.com/vborgne/urlshortener/internal/models"
	"github.com/vborgne/urlshortener/internal/repository"
)

// AnalyticsService derives visitor metadata and persists visit events.
// It runs entirely on the worker side of the visit channel: nothing in here
// can delay a redirect response, and nothing in here returns an error to a
// caller. Every failure is logged and swallowed.
type AnalyticsService struct {
	linkRepo   repository.LinkRepository
	visitRepo  repository.VisitRepository
	geoSvc     geoip.Resolver
	geoTimeout time.Duration
	logger     *zap.Logger
}

// NewAnalyticsService creates and returns a new instance of AnalyticsService.
// geoTimeout bounds each Geo-IP lookup independently of the request lifecycle.
func NewAnalyticsService(
	linkRepo repository.LinkRepository,
	visitRepo repository.VisitRepository,
	geoSvc geoip.Resolver,
	geoTimeout time.Duration,
	logger *zap.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		linkRepo:   linkRepo,
		visitRepo:  visitRepo,
		geoSvc:     geoSvc,
		geoTimeout: geoTimeout,
		logger:     logger,
	}
}

// Record processes one visit: it increments the link's visit counter, derives
// browser/device/location from the request metadata, and persists the event.
// The counter increment does not depend on enrichment succeeding, and a
// failed event insert does not undo the increment - analytics is best-effort
// by contract.
func (s *AnalyticsService) Record(payload models.VisitPayload) {
	// The counter update is an atomic SQL increment; safe under concurrent
	// redirects to the same link.
	if err := s.linkRepo.IncrementVisitCount(payload.LinkID); err != nil {
		s.logger.Error("failed to increment visit count",
			zap.Uint("link_id", payload.LinkID),
			zap.Error(err))
	}

	browser, device := parseUserAgent(payload.UserAgent)

	ctx, cancel := context.WithTimeout(context.Background(), s.geoTimeout)
	defer cancel()
	location := s.geoSvc.Locate(ctx, payload.RemoteAddr)

	visit := &models.VisitEvent{
		LinkID:    payload.LinkID,
		VisitedAt: payload.VisitedAt,
		Browser:   browser,
		Device:    device,
		Location:  location,
	}

	if err := s.visitRepo.CreateVisit(visit); err != nil {
		// The link may have been deleted while this event was in flight;
		// referential integrity is best-effort for analytics.
		recErr := customerrors.ErrVisitRecordingFailed{LinkID: payload.LinkID, Reason: err.Error()}
		s.logger.Error("failed to persist visit event", zap.Error(recErr))
	}
}

// parseUserAgent derives the browser (agent family + version) and a device
// class from a raw User-Agent header. Unparseable input yields empty strings
// rather than an error.
func parseUserAgent(raw string) (browser, device string) {
	if strings.TrimSpace(raw) == "" {
		return "", ""
	}

	ua := useragent.Parse(raw)
	browser = strings.TrimSpace(ua.Name + " " + ua.Version)

	switch {
	case ua.Bot:
		device = "Bot"
	case ua.Mobile:
		device = "Mobile"
	case ua.Tablet:
		device = "Tablet"
	case ua.Desktop:
		device = "Desktop"
	default:
		device = "Other"
	}
	return browser, device
}
