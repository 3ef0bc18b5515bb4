package services

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vborgne/urlshortener/internal/auth"
	customerrors "github.com/vborgne/urlshortener/internal/errors"
	"github.com/vborgne/urlshortener/internal/models"
	"github.com/vborgne/urlshortener/internal/repository"
)

// UserService handles account registration and token issuance.
// The core treats identity as a collaborator: link operations only ever see
// the numeric user ID this service authenticates.
type UserService struct {
	userRepo   repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// NewUserService creates and returns a new instance of UserService.
func NewUserService(userRepo repository.UserRepository, tokens *auth.TokenManager, bcryptCost int, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo:   userRepo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a new user account. The password is hashed here, before
// the record is constructed - there is no hashing hook hidden in the model.
func (s *UserService) Register(email, password string) error {
	hashed, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hashed,
	}
	return s.userRepo.CreateUser(user)
}

// Login verifies credentials and issues an access/refresh token pair.
// The refresh token is persisted on the user row so Refresh can verify it
// has not been superseded.
func (s *UserService) Login(email, password string) (accessToken, refreshToken string, err error) {
	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return "", "", err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", "", customerrors.ErrInvalidCredentials
	}

	accessToken, err = s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue access token: %w", err)
	}
	refreshToken, err = s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return "", "", fmt.Errorf("failed to issue refresh token: %w", err)
	}

	if err := s.userRepo.UpdateRefreshToken(user.ID, refreshToken); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// Refresh validates a refresh token and issues a new access token.
// The token must verify and match the copy stored for the user; a rotated
// or revoked token fails with ErrInvalidToken.
func (s *UserService) Refresh(refreshToken string) (string, error) {
	userID, err := s.tokens.ParseToken(refreshToken)
	if err != nil {
		return "", customerrors.ErrInvalidToken
	}

	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	if user.RefreshToken != refreshToken {
		return "", customerrors.ErrInvalidToken
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return accessToken, nil
}
