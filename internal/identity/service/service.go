// Package service implements the identity authority: credential
// verification, token issuance, account registration, and designated-area
// ownership.
package service

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"presence/internal/identity/models"
	"presence/internal/identity/token"
	dErrors "presence/pkg/domainerrors"
)

// bcryptCost matches the reference system's salt rounds.
const bcryptCost = 10

// Store is the persistence surface the service needs.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.UserWithCredential, error)
	CreateUser(ctx context.Context, reg models.Registration, passwordHash string) (int64, error)
	RecordFailedLogin(ctx context.Context, userID int64, attempts int) error
	GetHomeArea(ctx context.Context, userID int64) (*models.HomeArea, error)
	UpdateHomeArea(ctx context.Context, userID int64, lat, lon float64) error
}

// Throttle limits repeated login failures per email. May be nil.
type Throttle interface {
	Failures(ctx context.Context, email string) (int, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// Service is the identity authority.
type Service struct {
	store       Store
	tokens      *token.Service
	throttle    Throttle
	maxFailures int
	logger      *slog.Logger
}

func New(store Store, tokens *token.Service, throttle Throttle, maxFailures int, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		tokens:      tokens,
		throttle:    throttle,
		maxFailures: maxFailures,
		logger:      logger,
	}
}

// Login verifies credentials and issues a signed session token embedding
// the principal. Unknown emails and bad passwords are indistinguishable
// to the caller; a password mismatch also bumps the persistent
// failed-attempt counter before the rejection goes out.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "missing_credentials")
	}

	if s.throttle != nil {
		failures, err := s.throttle.Failures(ctx, email)
		if err != nil {
			// A broken throttle must not block logins.
			s.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
		} else if failures >= s.maxFailures {
			return "", dErrors.New(dErrors.CodeUnauthorized, "too_many_failed_attempts")
		}
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		s.recordThrottleFailure(ctx, email)
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid_credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if err := s.store.RecordFailedLogin(ctx, user.User.ID, user.FailedLoginAttempts+1); err != nil {
			s.logger.ErrorContext(ctx, "failed to record login failure", "error", err)
		}
		s.recordThrottleFailure(ctx, email)
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid_credentials")
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "failed to reset login throttle", "error", err)
		}
	}

	principal := &models.Principal{
		ID:    user.User.ID,
		Name:  user.FullName(),
		Email: user.Email,
		Roles: user.Roles,
	}
	return s.tokens.Issue(principal)
}

func (s *Service) recordThrottleFailure(ctx context.Context, email string) {
	if s.throttle == nil {
		return
	}
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "failed to record throttle failure", "error", err)
	}
}

// Verify validates a token and returns the embedded principal. No store
// lookup happens here; role changes only apply once the token expires.
func (s *Service) Verify(ctx context.Context, tokenString string) (*models.Principal, error) {
	return s.tokens.Verify(tokenString)
}

// Register creates an account with the default role.
func (s *Service) Register(ctx context.Context, reg models.Registration) (int64, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.FirstName == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "missing_first_name")
	}
	if reg.Email == "" || !strings.Contains(reg.Email, "@") {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid_email")
	}
	if len(reg.Password) < 8 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "password_too_short")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcryptCost)
	if err != nil {
		return 0, err
	}
	return s.store.CreateUser(ctx, reg, string(hash))
}

// HomeArea returns the user's designated area center.
func (s *Service) HomeArea(ctx context.Context, userID int64) (*models.HomeArea, error) {
	area, err := s.store.GetHomeArea(ctx, userID)
	if err != nil {
		return nil, err
	}
	if area == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "home_area_not_set")
	}
	return area, nil
}

// UpdateHomeArea overwrites the user's designated area center.
func (s *Service) UpdateHomeArea(ctx context.Context, userID int64, lat, lon float64) (*models.HomeArea, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid_coordinate")
	}
	if err := s.store.UpdateHomeArea(ctx, userID, lat, lon); err != nil {
		return nil, err
	}
	return &models.HomeArea{Lat: lat, Lon: lon}, nil
}
