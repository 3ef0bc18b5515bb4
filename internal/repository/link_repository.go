package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	customerrors "github.com/vborgne/urlshortener/internal/errors"
	"github.com/vborgne/urlshortener/internal/models"
)

// LinkRepository est une interface qui définit les méthodes d'accès aux données
type LinkRepository interface {
	CreateLink(link *models.Link) error
	GetLinkByShortCode(shortCode string) (*models.Link, error)
	GetLinksByUserID(userID uint) ([]models.Link, error)
	IncrementVisitCount(linkID uint) error
	DeleteLink(linkID uint) error
	GetExpiredLinks(cutoff time.Time) ([]models.Link, error)
}

// GormLinkRepository est l'implémentation de LinkRepository utilisant GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository crée et retourne une nouvelle instance de GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// CreateLink insère un nouveau lien dans la base de données.
// Unique-constraint violations are translated into the typed errors the
// service layer's retry loop distinguishes on: ErrDuplicateURL when the
// original URL is already shortened (never retried), ErrShortCodeTaken when
// the generated code collided (retried).
func (r *GormLinkRepository) CreateLink(link *models.Link) error {
	if err := r.db.Create(link).Error; err != nil {
		if isUniqueViolation(err, "original_url") {
			return customerrors.ErrDuplicateURL
		}
		if isUniqueViolation(err, "short_code") {
			return customerrors.ErrShortCodeTaken
		}
		return fmt.Errorf("%w: failed to create link: %v", customerrors.ErrStoreUnavailable, err)
	}
	return nil
}

// GetLinkByShortCode récupère un lien de la base de données en utilisant son shortCode.
func (r *GormLinkRepository) GetLinkByShortCode(shortCode string) (*models.Link, error) {
	var link models.Link
	if err := r.db.Where("short_code = ?", shortCode).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrLinkNotFound
		}
		return nil, fmt.Errorf("%w: failed to get link by short code: %v", customerrors.ErrStoreUnavailable, err)
	}
	return &link, nil
}

// GetLinksByUserID récupère tous les liens appartenant à un utilisateur.
// An empty result is not an error at this layer; the service decides
// whether "no links" is worth a 404.
func (r *GormLinkRepository) GetLinksByUserID(userID uint) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&links).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list links for user %d: %v", customerrors.ErrStoreUnavailable, userID, err)
	}
	return links, nil
}

// IncrementVisitCount incrémente le compteur de visites d'un lien.
// The increment is a single SQL UPDATE with an expression, never a
// read-modify-write in application code, so concurrent redirects to the
// same link cannot lose updates.
func (r *GormLinkRepository) IncrementVisitCount(linkID uint) error {
	res := r.db.Model(&models.Link{}).
		Where("id = ?", linkID).
		UpdateColumn("visit_count", gorm.Expr("visit_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("%w: failed to increment visit count for link %d: %v", customerrors.ErrStoreUnavailable, linkID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Link was deleted between resolution and the counter update.
		return customerrors.ErrLinkNotFound
	}
	return nil
}

// DeleteLink supprime un lien et tous ses événements de visite.
// Both deletes run in one transaction so a failure never leaves orphaned
// visit events behind.
func (r *GormLinkRepository) DeleteLink(linkID uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", linkID).Delete(&models.VisitEvent{}).Error; err != nil {
			return fmt.Errorf("failed to delete visit events for link %d: %w", linkID, err)
		}
		res := tx.Delete(&models.Link{}, linkID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete link %d: %w", linkID, res.Error)
		}
		if res.RowsAffected == 0 {
			return customerrors.ErrLinkNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, customerrors.ErrLinkNotFound) {
			return customerrors.ErrLinkNotFound
		}
		return fmt.Errorf("%w: %v", customerrors.ErrStoreUnavailable, err)
	}
	return nil
}

// GetExpiredLinks retourne les liens expirés avant la date de coupure donnée.
// Used by the cleanup sweeper.
func (r *GormLinkRepository) GetExpiredLinks(cutoff time.Time) ([]models.Link, error) {
	var links []models.Link
	if err := r.db.Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).Find(&links).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list expired links: %v", customerrors.ErrStoreUnavailable, err)
	}
	return links, nil
}

// isUniqueViolation reports whether err is a unique-constraint violation on
// the given column. SQLite reports the offending column as "table.column" in
// the error text; GORM's translated sentinel is checked as well.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column) {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) && strings.Contains(msg, column)
}
