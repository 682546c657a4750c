package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/masab-afzaal/mindbuddy/internal/api/dto"
	"github.com/masab-afzaal/mindbuddy/internal/api/middleware"
	"github.com/masab-afzaal/mindbuddy/internal/domain/user"
	"github.com/masab-afzaal/mindbuddy/pkg/config"
	"github.com/masab-afzaal/mindbuddy/pkg/security/auth"
)

// AuthHandler handles HTTP requests for registration, login and profile
type AuthHandler struct {
	service user.Service
	cfg     config.AuthConfig
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(service user.Service, cfg config.AuthConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, cfg: cfg, logger: logger}
}

// Register creates a new account and returns a token for it.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	registered, err := h.service.Register(c.Request.Context(), user.RegisterInput{
		Name:            req.Name,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNameExists),
			errors.Is(err, user.ErrPasswordTooShort),
			errors.Is(err, user.ErrPasswordMismatch),
			errors.Is(err, user.ErrNameRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Registration failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		}
		return
	}

	token, err := auth.GenerateToken(registered.ID, registered.Name, h.cfg.JWTSecret, h.cfg.JWTIssuer, h.cfg.JWTExpiryHours)
	if err != nil {
		h.logger.Error("Token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register"})
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{
		Message: "User registered successfully",
		User:    userToResponse(registered),
		Token:   token,
	})
}

// Login authenticates and returns a fresh token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	authenticated, err := h.service.Authenticate(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidCredentials), errors.Is(err, user.ErrAccountInactive):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to login"})
		}
		return
	}

	token, err := auth.GenerateToken(authenticated.ID, authenticated.Name, h.cfg.JWTSecret, h.cfg.JWTIssuer, h.cfg.JWTExpiryHours)
	if err != nil {
		h.logger.Error("Token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to login"})
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Message: "Login successful",
		User:    userToResponse(authenticated),
		Token:   token,
	})
}

// Logout blacklists the current token until it would have expired.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, exists := middleware.GetToken(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	expiry := time.Now().Add(time.Duration(h.cfg.JWTExpiryHours) * time.Hour)
	if claims, err := auth.ValidateToken(token, h.cfg.JWTSecret); err == nil && claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	auth.GetTokenBlacklist().AddToBlacklist(token, expiry)

	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

// GetProfile returns the authenticated user's account.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	account, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("Failed to load profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userToResponse(account)})
}

// UpdateProfile changes the user's name or password.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	updated, err := h.service.UpdateProfile(c.Request.Context(), userID, user.UpdateProfileInput{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNameExists),
			errors.Is(err, user.ErrPasswordTooShort),
			errors.Is(err, user.ErrNameRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, user.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			h.logger.Error("Profile update failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": userToResponse(updated)})
}

func userToResponse(u *user.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
	}
}
