package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/mailer"
	"github.com/roamtrails/tours-api/pkg/auth"
	"github.com/roamtrails/tours-api/pkg/config"
	"github.com/roamtrails/tours-api/pkg/logger"
)

// UserStore is the slice of the user storage layer the auth flows need.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	SetResetToken(ctx context.Context, id bson.ObjectID, tokenHash string, expires time.Time) error
	ClearResetToken(ctx context.Context, id bson.ObjectID) error
	SetPassword(ctx context.Context, id bson.ObjectID, hash string, changedAt time.Time) error
}

type AuthService interface {
	SignUp(ctx context.Context, req *domain.SignupRequest) (*domain.User, string, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest, origin string) error
	ResetPassword(ctx context.Context, token string, req *domain.ResetPasswordRequest) (*domain.User, string, error)
	UpdatePassword(ctx context.Context, user *domain.User, req *domain.UpdatePasswordRequest) (string, error)
}

type authService struct {
	users  UserStore
	mailer mailer.Service
	config *config.Config

	// hash compared against when the email doesn't resolve, so login cost
	// doesn't reveal account existence
	decoyHash string
}

func NewAuthService(users UserStore, mailer mailer.Service, config *config.Config) AuthService {
	decoy, err := argon2id.CreateHash("decoy-password", argon2id.DefaultParams)
	if err != nil {
		logger.Error("Failed to create decoy hash", "error", err)
	}
	return &authService{
		users:     users,
		mailer:    mailer,
		config:    config,
		decoyHash: decoy,
	}
}

func (s *authService) SignUp(ctx context.Context, req *domain.SignupRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         domain.RoleUser,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    time.Now(),
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	accountURL := s.config.Frontend.BaseURL + "/account"
	if err := s.mailer.SendWelcome(created.Email, created.Name, accountURL); err != nil {
		// sign-up still succeeds when the welcome mail doesn't go out
		logger.ErrorContext(ctx, "Failed to send welcome email", "error", err, "user_id", created.ID.Hex())
	}

	token, err := s.signToken(created)
	if err != nil {
		return nil, "", err
	}
	return created, token, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// burn the same hashing cost as a real comparison
			argon2id.ComparePasswordAndHash(req.Password, s.decoyHash)
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to find user: %w", err)
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.signToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to the current user record: signature
// and expiry first, then a fresh lookup, then the staleness check against the
// last password change.
func (s *authService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := auth.Parse(token, s.config.Auth.JWTSecret)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, claims.Sub)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to resolve token user: %w", err)
	}

	if claims.IssuedAt != nil && user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, domain.ErrTokenStale
	}

	return user, nil
}

func (s *authService) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest, origin string) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	resetToken, tokenHash, err := newResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expires := time.Now().Add(s.config.Auth.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, tokenHash, expires); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if origin == "" {
		origin = s.config.Frontend.BaseURL
	}
	resetURL := fmt.Sprintf("%s/resetPassword/%s", origin, resetToken)

	if err := s.mailer.SendPasswordReset(user.Email, user.Name, resetURL); err != nil {
		// roll the token fields back so no unusable reset state persists
		if clearErr := s.users.ClearResetToken(ctx, user.ID); clearErr != nil {
			logger.ErrorContext(ctx, "Failed to clear reset token after send failure",
				"error", clearErr, "user_id", user.ID.Hex())
		}
		return &domain.UpstreamError{Op: "password reset email", Err: err}
	}

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token string, req *domain.ResetPasswordRequest) (*domain.User, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	user, err := s.users.FindByResetToken(ctx, hashToken(token), time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrTokenInvalid
		}
		return nil, "", err
	}

	if err := s.setNewPassword(ctx, user, req.Password); err != nil {
		return nil, "", err
	}

	signed, err := s.signToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, signed, nil
}

func (s *authService) UpdatePassword(ctx context.Context, user *domain.User, req *domain.UpdatePasswordRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	valid, err := argon2id.ComparePasswordAndHash(req.OldPassword, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return "", domain.ErrInvalidCredentials
	}

	if err := s.setNewPassword(ctx, user, req.Password); err != nil {
		return "", err
	}

	return s.signToken(user)
}

func (s *authService) setNewPassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// stamped slightly in the past so the token issued right after this
	// write is never considered stale
	changedAt := time.Now().Add(-time.Second)
	if err := s.users.SetPassword(ctx, user.ID, hash, changedAt); err != nil {
		return err
	}

	user.PasswordHash = hash
	user.PasswordChangedAt = changedAt
	return nil
}

func (s *authService) signToken(user *domain.User) (string, error) {
	token, err := auth.NewToken(user.ID.Hex(), user.Role, s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// newResetToken returns a high-entropy plaintext token and the sha256 hex
// digest that gets persisted. Only the digest is ever stored.
func newResetToken() (token, tokenHash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(raw)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
