package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tableizer/api/internal/config"
	"tableizer/api/internal/ids"
	"tableizer/api/internal/mail"
	"tableizer/api/internal/models"
	"tableizer/api/internal/repository"
	"tableizer/api/internal/security"
)

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords so login failures never reveal which one it was.
var ErrInvalidCredentials = errors.New("invalid username or password")

type AccountService struct {
	users   UserStore
	revoker TokenRevoker
	mailer  mail.Sender
	cfg     *config.AppConfig
	log     zerolog.Logger
}

func NewAccountService(users UserStore, revoker TokenRevoker, mailer mail.Sender, cfg *config.AppConfig, log zerolog.Logger) *AccountService {
	return &AccountService{
		users:   users,
		revoker: revoker,
		mailer:  mailer,
		cfg:     cfg,
		log:     log,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func (s *AccountService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return models.User{}, fmt.Errorf("username, email and password required")
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
	}

	// Duplicate username/email surfaces from the store as a conflict
	// sentinel; it is passed through for the handler to report.
	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, err
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	AccessToken string
	User        models.User
}

func (s *AccountService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := security.GenerateAccessToken(s.cfg.Security.JWTSecret, user.ID, user.Username, s.cfg.Security.JWTTTL)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken: token,
		User:        user,
	}, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
// Already-expired tokens need no entry; they stop verifying on their own.
func (s *AccountService) Logout(ctx context.Context, claims *security.AccessClaims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}
	s.log.Info().Str("user_id", claims.UserID).Msg("user logged out")
	return nil
}

type ProfileInput struct {
	Username string
	Bio      *string
}

func (s *AccountService) UpdateProfile(ctx context.Context, user models.User, input ProfileInput) (models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = user.Username
	}

	if err := s.users.UpdateProfile(ctx, user.ID, username, input.Bio); err != nil {
		return models.User{}, err
	}
	return s.users.GetByID(ctx, user.ID)
}

// RequestPasswordReset issues a reset token and hands it to the mailer. An
// unknown email is not an error: the caller shows the same message either
// way, so account existence never leaks.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, err := security.GenerateResetToken(s.cfg.Security.ResetSecret, user.ID, s.cfg.Security.ResetTTL)
	if err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(s.cfg.Security.ResetURL, "/"), token)
	return s.mailer.SendPasswordReset(ctx, user.Email, resetURL)
}

// ResetPassword verifies a reset token and replaces the credential hash.
// Any verification failure, including a token for a user that no longer
// exists, reports security.ErrInvalidResetToken.
func (s *AccountService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("password required")
	}

	userID, err := security.VerifyResetToken(s.cfg.Security.ResetSecret, token)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return security.ErrInvalidResetToken
		}
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return err
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}
