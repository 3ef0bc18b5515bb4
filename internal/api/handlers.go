package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vborgne/urlshortener/internal/auth"
	customerrors "github.com/vborgne/urlshortener/internal/errors"
	"github.com/vborgne/urlshortener/internal/models"
	"github.com/vborgne/urlshortener/internal/services"
)

// SetupRoutes configures all Gin API routes and injects necessary dependencies.
// The visit channel is passed in explicitly (no package-level state): the
// redirect handler is its only producer, the worker pool its only consumer.
func SetupRoutes(
	router *gin.Engine,
	linkService *services.LinkService,
	userService *services.UserService,
	tokens *auth.TokenManager,
	visitChan chan<- models.VisitPayload,
	baseURL string,
	logger *zap.Logger,
) {
	// Health check route - used for monitoring service availability
	router.GET("/health", HealthCheckHandler)

	requireAuth := auth.Middleware(tokens)

	api := router.Group("/api")
	{
		user := api.Group("/user")
		{
			user.POST("/signup", SignupHandler(userService))
			user.POST("/login", LoginHandler(userService))
			user.POST("/refresh", RefreshHandler(userService))
		}

		url := api.Group("/url")
		{
			url.POST("/shorten", requireAuth, ShortenHandler(linkService, baseURL, logger))
			url.GET("/analytics/:hash", requireAuth, AnalyticsHandler(linkService, logger))
		}

		manage := api.Group("/manage", requireAuth)
		{
			manage.GET("/urls", ListUserLinksHandler(linkService, logger))
			manage.DELETE("/:hash", DeleteLinkHandler(linkService, logger))
		}
	}

	// Redirection route at root level - this is where visitors land
	// (e.g. localhost:3000/abc123)
	router.GET("/:hash", RedirectHandler(linkService, visitChan, logger))
}

// HealthCheckHandler handles the /health route to verify service status.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// credentialsRequest is the JSON body for signup and login.
type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// SignupHandler handles user registration.
func SignupHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email and password (min 8 characters) are required"})
			return
		}

		if err := userService.Register(req.Email, req.Password); err != nil {
			if errors.Is(err, customerrors.ErrEmailTaken) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating user"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
	}
}

// LoginHandler handles authentication and token issuance.
func LoginHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentialsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email and password are required"})
			return
		}

		accessToken, refreshToken, err := userService.Login(req.Email, req.Password)
		if err != nil {
			if errors.Is(err, customerrors.ErrInvalidCredentials) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email or password"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error logging in"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      "Login successful",
			"accessToken":  accessToken,
			"refreshToken": refreshToken,
		})
	}
}

// refreshRequest is the JSON body for the token refresh endpoint.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshHandler exchanges a valid refresh token for a new access token.
func RefreshHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
			return
		}

		accessToken, err := userService.Refresh(req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
	}
}

// shortenRequest is the JSON body for creating a shortened URL.
// The URL itself is validated by gin's binding; the expiration date is an
// optional RFC 3339 timestamp parsed in the handler.
type shortenRequest struct {
	OriginalURL    string `json:"originalUrl" binding:"required,url"`
	ExpirationDate string `json:"expirationDate" binding:"omitempty"`
}

// ShortenHandler handles the creation of a shortened URL for the
// authenticated user. Responds with the full short URL on success.
func ShortenHandler(linkService *services.LinkService, baseURL string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.UserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access denied"})
			return
		}

		var req shortenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Original URL is required and must be a valid URL"})
			return
		}

		var expiresAt *time.Time
		if req.ExpirationDate != "" {
			parsed, err := time.Parse(time.RFC3339, req.ExpirationDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "expirationDate must be a valid date in ISO 8601 format"})
				return
			}
			expiresAt = &parsed
		}

		link, err := linkService.CreateLink(req.OriginalURL, expiresAt, userID)
		if err != nil {
			switch {
			case errors.Is(err, customerrors.ErrInvalidURL):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid URL format"})
			case errors.Is(err, customerrors.ErrInvalidExpiration):
				c.JSON(http.StatusBadRequest, gin.H{"error": "expirationDate must be in the future"})
			case errors.Is(err, customerrors.ErrDuplicateURL):
				c.JSON(http.StatusBadRequest, gin.H{"error": "This URL has already been shortened"})
			default:
				logger.Error("failed to create short link", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating shortened URL"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"shortUrl": fmt.Sprintf("%s/%s", baseURL, link.ShortCode),
		})
	}
}

// RedirectHandler resolves a short code and redirects the visitor to the
// original URL. The visit is dispatched to the analytics workers with a
// non-blocking send: a full buffer drops the event rather than delaying the
// redirect, and analytics failures can never reach the visitor.
func RedirectHandler(linkService *services.LinkService, visitChan chan<- models.VisitPayload, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		hash := c.Param("hash")

		link, err := linkService.Resolve(hash)
		if err != nil {
			switch {
			case errors.Is(err, customerrors.ErrLinkNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "URL not found"})
			case errors.Is(err, customerrors.ErrLinkExpired):
				c.JSON(http.StatusGone, gin.H{"error": "URL has expired"})
			default:
				logger.Error("failed to resolve short code", zap.String("hash", hash), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error processing the URL"})
			}
			return
		}

		payload := models.VisitPayload{
			LinkID:     link.ID,
			VisitedAt:  time.Now(),
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
		}

		select {
		case visitChan <- payload:
		default:
			// Buffer full: the visitor's redirect wins over perfect analytics.
			logger.Warn("visit channel full, dropping event",
				zap.String("hash", hash),
				zap.Uint("link_id", link.ID))
		}

		c.Redirect(http.StatusFound, link.OriginalURL)
	}
}

// visitEventResponse is one analytics entry in the response body.
type visitEventResponse struct {
	Browser   string    `json:"browser"`
	Device    string    `json:"device"`
	Location  string    `json:"location"`
	VisitedAt time.Time `json:"visitedAt"`
}

// AnalyticsHandler returns the visit counter and recorded events for an
// owned link.
func AnalyticsHandler(linkService *services.LinkService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.UserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access denied"})
			return
		}
		hash := c.Param("hash")

		link, visits, err := linkService.GetLinkAnalytics(hash, userID)
		if err != nil {
			switch {
			case errors.Is(err, customerrors.ErrLinkNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "URL not found"})
			case errors.Is(err, customerrors.ErrNoVisits):
				c.JSON(http.StatusNotFound, gin.H{"error": "No analytics data available for this URL"})
			case errors.Is(err, customerrors.ErrNotOwner):
				c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to access this URL"})
			default:
				logger.Error("failed to load analytics", zap.String("hash", hash), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving analytics data"})
			}
			return
		}

		analytics := make([]visitEventResponse, 0, len(visits))
		for _, v := range visits {
			analytics = append(analytics, visitEventResponse{
				Browser:   v.Browser,
				Device:    v.Device,
				Location:  v.Location,
				VisitedAt: v.VisitedAt,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"visitCount": link.VisitCount,
			"analytics":  analytics,
		})
	}
}

// ListUserLinksHandler returns every link owned by the authenticated user.
func ListUserLinksHandler(linkService *services.LinkService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.UserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access denied"})
			return
		}

		links, err := linkService.GetUserLinks(userID)
		if err != nil {
			if errors.Is(err, customerrors.ErrLinkNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "No URLs found for this user"})
				return
			}
			logger.Error("failed to list user links", zap.Uint("user_id", userID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching user URLs"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"userUrls": links})
	}
}

// DeleteLinkHandler deletes an owned link and its visit events.
func DeleteLinkHandler(linkService *services.LinkService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.UserIDFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access denied"})
			return
		}
		hash := c.Param("hash")

		if err := linkService.DeleteLink(hash, userID); err != nil {
			switch {
			case errors.Is(err, customerrors.ErrLinkNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "URL not found"})
			case errors.Is(err, customerrors.ErrNotOwner):
				c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to delete this URL"})
			default:
				logger.Error("failed to delete link", zap.String("hash", hash), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting URL"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": "URL deleted successfully"})
	}
}
