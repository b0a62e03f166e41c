package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/same-say/same-say/internal/domain/kv"
	domainSession "github.com/same-say/same-say/internal/domain/session"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrPasswordMissing = errors.New("password is required")
	ErrNotConfigured   = errors.New("admin password is not configured")
)

// Credentials is the configured admin secret. PasswordHash (bcrypt) wins
// over Password when both are set.
type Credentials struct {
	Password     string
	PasswordHash string
}

// Service handles admin login and session tokens stored in the kv store.
type Service struct {
	store      kv.Store
	creds      Credentials
	sessionTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates an auth service.
func NewService(store kv.Store, creds Credentials, sessionTTL time.Duration, logger zerolog.Logger) *Service {
	if sessionTTL <= 0 {
		sessionTTL = domainSession.DefaultTTL
	}
	return &Service{
		store:      store,
		creds:      creds,
		sessionTTL: sessionTTL,
		logger:     logger.With().Str("service", "auth").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the admin password and creates a session.
func (s *Service) Login(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrPasswordMissing
	}
	if err := s.checkPassword(password); err != nil {
		return "", err
	}

	token, err := domainSession.GenerateToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	sess := &domainSession.Session{CreatedAt: now, LastAccessedAt: now}
	if err := kv.SetJSON(ctx, s.store, domainSession.Key(token), sess, s.sessionTTL); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	s.logger.Info().Msg("admin login")
	return token, nil
}

// Validate checks a session token and refreshes its expiry.
func (s *Service) Validate(ctx context.Context, token string) (*domainSession.Session, error) {
	if token == "" {
		return nil, domainSession.ErrInvalidToken
	}
	var sess domainSession.Session
	found, err := kv.GetJSON(ctx, s.store, domainSession.Key(token), &sess)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domainSession.ErrInvalidToken
	}
	sess.LastAccessedAt = s.now()
	if err := kv.SetJSON(ctx, s.store, domainSession.Key(token), &sess, s.sessionTTL); err != nil {
		s.logger.Warn().Err(err).Msg("failed to refresh session")
	}
	return &sess, nil
}

// Logout deletes a session token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return domainSession.ErrInvalidToken
	}
	deleted, err := s.store.Delete(ctx, domainSession.Key(token))
	if err != nil {
		return err
	}
	if !deleted {
		return domainSession.ErrNotFound
	}
	s.logger.Info().Msg("admin logout")
	return nil
}

func (s *Service) checkPassword(password string) error {
	switch {
	case s.creds.PasswordHash != "":
		if err := bcrypt.CompareHashAndPassword([]byte(s.creds.PasswordHash), []byte(password)); err != nil {
			return ErrInvalidPassword
		}
		return nil
	case s.creds.Password != "":
		if subtle.ConstantTimeCompare([]byte(s.creds.Password), []byte(password)) != 1 {
			return ErrInvalidPassword
		}
		return nil
	default:
		s.logger.Error().Msg("ADMIN_PASSWORD is not configured")
		return ErrNotConfigured
	}
}
