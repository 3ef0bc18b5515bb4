package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	customerrors "github.com/vborgne/urlshortener/internal/errors"
	"github.com/vborgne/urlshortener/internal/models"
)

// UserRepository est une interface qui définit les méthodes d'accès aux données
type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	UpdateRefreshToken(userID uint, token string) error
}

// GormUserRepository est l'implémentation de l'interface UserRepository utilisant GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository crée et retourne une nouvelle instance de GormUserRepository.
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// CreateUser insère un nouvel utilisateur dans la base de données.
func (r *GormUserRepository) CreateUser(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		msg := err.Error()
		if strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, "email") {
			return customerrors.ErrEmailTaken
		}
		return fmt.Errorf("%w: failed to create user: %v", customerrors.ErrStoreUnavailable, err)
	}
	return nil
}

// GetUserByEmail récupère un utilisateur par son adresse email.
func (r *GormUserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: failed to get user by email: %v", customerrors.ErrStoreUnavailable, err)
	}
	return &user, nil
}

// GetUserByID récupère un utilisateur par son identifiant.
func (r *GormUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrInvalidToken
		}
		return nil, fmt.Errorf("%w: failed to get user by id: %v", customerrors.ErrStoreUnavailable, err)
	}
	return &user, nil
}

// UpdateRefreshToken remplace le refresh token stocké pour un utilisateur.
func (r *GormUserRepository) UpdateRefreshToken(userID uint, token string) error {
	if err := r.db.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("refresh_token", token).Error; err != nil {
		return fmt.Errorf("%w: failed to update refresh token: %v", customerrors.ErrStoreUnavailable, err)
	}
	return nil
}
