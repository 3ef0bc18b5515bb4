package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	customerrors "github.com/vborgne/urlshortener/internal/errors"
	"github.com/vborgne/urlshortener/internal/hash"
	"github.com/vborgne/urlshortener/internal/models"
)

// fakeLinkRepo is an in-memory LinkRepository that enforces the same unique
// constraints as the real store. The mutex makes it safe for the concurrent
// creation test.
type fakeLinkRepo struct {
	mu     sync.Mutex
	nextID uint
	byCode map[string]*models.Link
	byURL  map[string]*models.Link

	// failCodesWith, when non-empty, forces CreateLink to fail with
	// ErrShortCodeTaken for the first N calls regardless of the code.
	forcedCollisions int
	createErr        error
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{
		byCode: make(map[string]*models.Link),
		byURL:  make(map[string]*models.Link),
	}
}

func (r *fakeLinkRepo) CreateLink(link *models.Link) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	if r.forcedCollisions > 0 {
		r.forcedCollisions--
		return customerrors.ErrShortCodeTaken
	}
	if _, exists := r.byURL[link.OriginalURL]; exists {
		return customerrors.ErrDuplicateURL
	}
	if _, exists := r.byCode[link.ShortCode]; exists {
		return customerrors.ErrShortCodeTaken
	}

	r.nextID++
	link.ID = r.nextID
	link.CreatedAt = time.Now()
	stored := *link
	r.byCode[link.ShortCode] = &stored
	r.byURL[link.OriginalURL] = &stored
	return nil
}

func (r *fakeLinkRepo) GetLinkByShortCode(shortCode string) (*models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.byCode[shortCode]
	if !ok {
		return nil, customerrors.ErrLinkNotFound
	}
	copied := *link
	return &copied, nil
}

func (r *fakeLinkRepo) GetLinksByUserID(userID uint) ([]models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var links []models.Link
	for _, link := range r.byCode {
		if link.UserID == userID {
			links = append(links, *link)
		}
	}
	return links, nil
}

func (r *fakeLinkRepo) IncrementVisitCount(linkID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, link := range r.byCode {
		if link.ID == linkID {
			link.VisitCount++
			return nil
		}
	}
	return customerrors.ErrLinkNotFound
}

func (r *fakeLinkRepo) DeleteLink(linkID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, link := range r.byCode {
		if link.ID == linkID {
			delete(r.byCode, code)
			delete(r.byURL, link.OriginalURL)
			return nil
		}
	}
	return customerrors.ErrLinkNotFound
}

func (r *fakeLinkRepo) GetExpiredLinks(cutoff time.Time) ([]models.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var expired []models.Link
	for _, link := range r.byCode {
		if link.ExpiresAt != nil && link.ExpiresAt.Before(cutoff) {
			expired = append(expired, *link)
		}
	}
	return expired, nil
}

// fakeVisitRepo is an in-memory VisitRepository.
type fakeVisitRepo struct {
	mu        sync.Mutex
	nextID    uint
	visits    []models.VisitEvent
	createErr error
}

func (r *fakeVisitRepo) CreateVisit(visit *models.VisitEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	visit.ID = r.nextID
	r.visits = append(r.visits, *visit)
	return nil
}

func (r *fakeVisitRepo) GetVisitsByLinkID(linkID uint) ([]models.VisitEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.VisitEvent
	for _, v := range r.visits {
		if v.LinkID == linkID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeVisitRepo) CountVisitsByLinkID(linkID uint) (int64, error) {
	visits, _ := r.GetVisitsByLinkID(linkID)
	return int64(len(visits)), nil
}

func newTestLinkService(linkRepo *fakeLinkRepo, visitRepo *fakeVisitRepo) *LinkService {
	return NewLinkService(linkRepo, visitRepo, hash.New(hash.DefaultLength), nil, zap.NewNop())
}

func TestCreateLinkSuccess(t *testing.T) {
	svc := newTestLinkService(newFakeLinkRepo(), &fakeVisitRepo{})

	link, err := svc.CreateLink("http://example.com/page", nil, 1)
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if len(link.ShortCode) != hash.DefaultLength {
		t.Errorf("expected a %d character short code, got %q", hash.DefaultLength, link.ShortCode)
	}
	if link.UserID != 1 {
		t.Errorf("expected owner 1, got %d", link.UserID)
	}
}

func TestCreateLinkInvalidURL(t *testing.T) {
	svc := newTestLinkService(newFakeLinkRepo(), &fakeVisitRepo{})

	for _, raw := range []string{"", "not a url", "example.com/no-scheme"} {
		if _, err := svc.CreateLink(raw, nil, 1); !errors.Is(err, customerrors.ErrInvalidURL) {
			t.Errorf("CreateLink(%q): expected ErrInvalidURL, got %v", raw, err)
		}
	}
}

func TestCreateLinkPastExpiration(t *testing.T) {
	svc := newTestLinkService(newFakeLinkRepo(), &fakeVisitRepo{})

	past := time.Now().Add(-time.Hour)
	if _, err := svc.CreateLink("http://example.com", &past, 1); !errors.Is(err, customerrors.ErrInvalidExpiration) {
		t.Errorf("expected ErrInvalidExpiration, got %v", err)
	}
}

func TestCreateLinkRetriesOnCollision(t *testing.T) {
	repo := newFakeLinkRepo()
	repo.forcedCollisions = 2
	svc := newTestLinkService(repo, &fakeVisitRepo{})

	link, err := svc.CreateLink("http://example.com", nil, 1)
	if err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
	if link.ShortCode == "" {
		t.Error("expected a short code after retries")
	}
}

func TestCreateLinkExhaustsRetries(t *testing.T) {
	repo := newFakeLinkRepo()
	repo.forcedCollisions = maxCreateAttempts
	svc := newTestLinkService(repo, &fakeVisitRepo{})

	_, err := svc.CreateLink("http://example.com", nil, 1)
	if !errors.Is(err, customerrors.ErrCodeGenerationExhausted) {
		t.Errorf("expected ErrCodeGenerationExhausted after %d collisions, got %v", maxCreateAttempts, err)
	}
}

func TestCreateLinkDuplicateURLFailsFast(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := newTestLinkService(repo, &fakeVisitRepo{})

	if _, err := svc.CreateLink("http://example.com", nil, 1); err != nil {
		t.Fatalf("first CreateLink returned error: %v", err)
	}
	// Even from another owner.
	if _, err := svc.CreateLink("http://example.com", nil, 2); !errors.Is(err, customerrors.ErrDuplicateURL) {
		t.Errorf("expected ErrDuplicateURL, got %v", err)
	}
}

func TestCreateLinkConcurrentUniqueness(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := newTestLinkService(repo, &fakeVisitRepo{})

	const goroutines = 20
	codes := make(chan string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			link, err := svc.CreateLink("http://example.com/page/"+string(rune('a'+n)), nil, 1)
			if err != nil {
				t.Errorf("concurrent CreateLink returned error: %v", err)
				return
			}
			codes <- link.ShortCode
		}(i)
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for code := range codes {
		if seen[code] {
			t.Fatalf("short code %q handed out twice", code)
		}
		seen[code] = true
	}
}

func TestResolveActiveLink(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := newTestLinkService(repo, &fakeVisitRepo{})

	created, err := svc.CreateLink("http://example.com/target", nil, 1)
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}

	link, err := svc.Resolve(created.ShortCode)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if link.OriginalURL != "http://example.com/target" {
		t.Errorf("resolved wrong URL %q", link.OriginalURL)
	}
}

func TestResolveUnknownCode(t *testing.T) {
	svc := newTestLinkService(newFakeLinkRepo(), &fakeVisitRepo{})
	if _, err := svc.Resolve("zzzzzz"); !errors.Is(err, customerrors.ErrLinkNotFound) {
		t.Errorf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestResolveExpirationBoundary(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := newTestLinkService(repo, &fakeVisitRepo{})

	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	justPast := fixed.Add(-time.Second)
	stillValid := fixed.Add(time.Hour)

	if _, err := svc.CreateLink("http://example.com/old", &justPast, 1); !errors.Is(err, customerrors.ErrInvalidExpiration) {
		t.Fatalf("expected past expiration to be rejected at creation, got %v", err)
	}

	// Create while valid, then move the clock past the deadline.
	deadline := fixed.Add(30 * time.Minute)
	link, err := svc.CreateLink("http://example.com/soon", &deadline, 1)
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}

	if _, err := svc.Resolve(link.ShortCode); err != nil {
		t.Fatalf("link should still resolve before its deadline: %v", err)
	}

	svc.now = func() time.Time { return deadline.Add(time.Second) }
	if _, err := svc.Resolve(link.ShortCode); !errors.Is(err, customerrors.ErrLinkExpired) {
		t.Errorf("expected ErrLinkExpired one second past the deadline, got %v", err)
	}

	active, err := svc.CreateLink("http://example.com/later", &stillValid, 1)
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if _, err := svc.Resolve(active.ShortCode); err != nil {
		t.Errorf("link with a future deadline should resolve, got %v", err)
	}
}

func TestGetUserLinksEmpty(t *testing.T) {
	svc := newTestLinkService(newFakeLinkRepo(), &fakeVisitRepo{})
	if _, err := svc.GetUserLinks(7); !errors.Is(err, customerrors.ErrLinkNotFound) {
		t.Errorf("expected ErrLinkNotFound for a user with no links, got %v", err)
	}
}

func TestGetOwnedLinkWrongUser(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := newTestLinkService(repo, &fakeVisitRepo{})

	link, err := svc.CreateLink("http://example.com", nil, 1)
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if _, err := svc.GetOwnedLink(link.ShortCode, 2); !errors.Is(err, customerrors.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestGetLinkAnalyticsNoVisits(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := newTestLinkService(repo, &fakeVisitRepo{})

	link, err := svc.CreateLink("http://example.com", nil, 1)
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if _, _, err := svc.GetLinkAnalytics(link.ShortCode, 1); !errors.Is(err, customerrors.ErrNoVisits) {
		t.Errorf("expected ErrNoVisits, got %v", err)
	}
}

func TestDeleteLinkByOwner(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := newTestLinkService(repo, &fakeVisitRepo{})

	link, err := svc.CreateLink("http://example.com", nil, 1)
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}

	if err := svc.DeleteLink(link.ShortCode, 2); !errors.Is(err, customerrors.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for a stranger, got %v", err)
	}
	if err := svc.DeleteLink(link.ShortCode, 1); err != nil {
		t.Fatalf("DeleteLink returned error: %v", err)
	}
	if _, err := svc.Resolve(link.ShortCode); !errors.Is(err, customerrors.ErrLinkNotFound) {
		t.Errorf("expected ErrLinkNotFound after delete, got %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	repo := newFakeLinkRepo()
	svc := newTestLinkService(repo, &fakeVisitRepo{})

	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	soon := fixed.Add(time.Minute)
	far := fixed.Add(72 * time.Hour)
	if _, err := svc.CreateLink("http://example.com/a", &soon, 1); err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if _, err := svc.CreateLink("http://example.com/b", &far, 1); err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if _, err := svc.CreateLink("http://example.com/c", nil, 1); err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}

	purged, err := svc.PurgeExpired(fixed.Add(24 * time.Hour))
	if err != nil {
		t.Fatalf("PurgeExpired returned error: %v", err)
	}
	if purged != 1 {
		t.Errorf("expected 1 purged link, got %d", purged)
	}

	remaining, err := svc.GetUserLinks(1)
	if err != nil {
		t.Fatalf("GetUserLinks returned error: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("expected 2 remaining links, got %d", len(remaining))
	}
}
