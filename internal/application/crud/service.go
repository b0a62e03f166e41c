package crud

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/same-say/same-say/internal/domain/kv"
)

// Service exposes validated raw access to the kv store for operators.
type Service struct {
	store  kv.Store
	logger zerolog.Logger
}

// NewService creates a crud service.
func NewService(store kv.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("service", "crud").Logger(),
	}
}

// Create stores value under a new key without expiration.
func (s *Service) Create(ctx context.Context, key, value string) error {
	if err := validate(key, &value); err != nil {
		return err
	}
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", kv.ErrKeyExists, key)
	}
	if err := s.store.Set(ctx, key, value, 0); err != nil {
		return err
	}
	s.logger.Info().Str("key", key).Msg("key created")
	return nil
}

// Get returns the value and whether it exists.
func (s *Service) Get(ctx context.Context, key string) (string, bool, error) {
	if err := validate(key, nil); err != nil {
		return "", false, err
	}
	return s.store.Get(ctx, key)
}

// Update replaces the value of an existing key. The key loses any expiry.
func (s *Service) Update(ctx context.Context, key, value string) error {
	if err := validate(key, &value); err != nil {
		return err
	}
	updated, err := s.store.Update(ctx, key, value, 0)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("%w: %s", kv.ErrKeyNotFound, key)
	}
	s.logger.Info().Str("key", key).Msg("key updated")
	return nil
}

// Delete removes a key and reports whether it existed.
func (s *Service) Delete(ctx context.Context, key string) (bool, error) {
	if err := validate(key, nil); err != nil {
		return false, err
	}
	deleted, err := s.store.Delete(ctx, key)
	if err != nil {
		return false, err
	}
	s.logger.Info().Str("key", key).Bool("deleted", deleted).Msg("key deleted")
	return deleted, nil
}

func validate(key string, value *string) error {
	if err := kv.ValidateKey(key); err != nil {
		return err
	}
	if value != nil {
		return kv.ValidateValue(*value)
	}
	return nil
}
