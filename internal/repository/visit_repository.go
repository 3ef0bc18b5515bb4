package repository

import (
	"fmt"

	"gorm.io/gorm"

	customerrors "github.com/vborgne/urlshortener/internal/errors"
	"github.com/vborgne/urlshortener/internal/models"
)

// VisitRepository est une interface qui définit les méthodes d'accès aux données
type VisitRepository interface {
	CreateVisit(visit *models.VisitEvent) error
	GetVisitsByLinkID(linkID uint) ([]models.VisitEvent, error)
	CountVisitsByLinkID(linkID uint) (int64, error)
}

// GormVisitRepository est l'implémentation de l'interface VisitRepository utilisant GORM.
type GormVisitRepository struct {
	db *gorm.DB
}

// NewVisitRepository crée et retourne une nouvelle instance de GormVisitRepository.
func NewVisitRepository(db *gorm.DB) *GormVisitRepository {
	return &GormVisitRepository{db: db}
}

// CreateVisit insère un nouvel événement de visite dans la base de données.
func (r *GormVisitRepository) CreateVisit(visit *models.VisitEvent) error {
	if err := r.db.Create(visit).Error; err != nil {
		return fmt.Errorf("%w: failed to create visit event: %v", customerrors.ErrStoreUnavailable, err)
	}
	return nil
}

// GetVisitsByLinkID récupère tous les événements de visite pour un lien donné,
// most recent first.
func (r *GormVisitRepository) GetVisitsByLinkID(linkID uint) ([]models.VisitEvent, error) {
	var visits []models.VisitEvent
	if err := r.db.Where("link_id = ?", linkID).Order("visited_at DESC").Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to list visits for link %d: %v", customerrors.ErrStoreUnavailable, linkID, err)
	}
	return visits, nil
}

// CountVisitsByLinkID compte le nombre total de visites pour un ID de lien donné.
func (r *GormVisitRepository) CountVisitsByLinkID(linkID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.VisitEvent{}).Where("link_id = ?", linkID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: failed to count visits for link %d: %v", customerrors.ErrStoreUnavailable, linkID, err)
	}
	return count, nil
}
