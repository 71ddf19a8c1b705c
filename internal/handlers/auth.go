package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tableizer/api/internal/middleware"
	"tableizer/api/internal/models"
	"tableizer/api/internal/repository"
	"tableizer/api/internal/security"
	"tableizer/api/internal/service"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type userResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Bio        *string   `json:"bio"`
	AvatarURL  string    `json:"avatarUrl"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:         user.ID,
		Username:   user.Username,
		Email:      user.Email,
		Bio:        user.Bio,
		AvatarURL:  user.AvatarURL(128),
		LastSeenAt: user.LastSeenAt,
	}
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) || errors.Is(err, repository.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.accounts.Login(c.Request.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken": result.AccessToken,
		"user":        toUserResponse(result.User),
	})
}

// Logout revokes the presented token; the client discards its copy. The
// token stops passing auth immediately, not just at expiry.
func (h HandlerSet) Logout(c *gin.Context) {
	claims, ok := middleware.AccessClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.accounts.Logout(c.Request.Context(), claims); err != nil {
		h.log.Error().Err(err).Str("user_id", claims.UserID).Msg("logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}

	c.Status(http.StatusNoContent)
}

type resetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h HandlerSet) RequestPasswordReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accounts.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.log.Error().Err(err).Msg("password reset request failed")
	}

	// Identical response whether or not the email is registered.
	c.JSON(http.StatusOK, gin.H{
		"message": "check your email for the instructions to reset your password",
	})
}

type resetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accounts.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, security.ErrInvalidResetToken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": security.ErrInvalidResetToken.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "your password has been reset"})
}

func (h HandlerSet) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type profileRequest struct {
	Username string  `json:"username" binding:"omitempty,min=3,max=64"`
	Bio      *string `json:"bio" binding:"omitempty"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.accounts.UpdateProfile(c.Request.Context(), user, service.ProfileInput{
		Username: req.Username,
		Bio:      req.Bio,
	})
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(updated)})
}

// profileResponse is the public view of another account: no email, no id.
type profileResponse struct {
	Username   string    `json:"username"`
	Bio        *string   `json:"bio"`
	AvatarURL  string    `json:"avatarUrl"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

func (h HandlerSet) GetProfile(c *gin.Context) {
	user, err := h.users.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "profile lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profileResponse{
		Username:   user.Username,
		Bio:        user.Bio,
		AvatarURL:  user.AvatarURL(128),
		LastSeenAt: user.LastSeenAt,
	}})
}
