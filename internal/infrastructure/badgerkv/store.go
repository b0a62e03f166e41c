package badgerkv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/same-say/same-say/internal/domain/kv"
)

const conflictRetries = 3

// Store implements kv.Store on an embedded badger database. Expiration
// uses badger's native entry TTL.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) a database in dir.
func Open(dir string, logger zerolog.Logger) (*Store, error) {
	return open(badger.DefaultOptions(dir), logger)
}

// OpenInMemory opens a database that lives only in memory.
func OpenInMemory(logger zerolog.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger)
}

func open(opts badger.Options, logger zerolog.Logger) (*Store, error) {
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db, logger: logger.With().Str("store", "badger").Logger()}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var (
		value []byte
		found bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", false, unavailable(err)
	}
	return string(value), found, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		return txn.SetEntry(newEntry(key, value, ttl))
	})
}

func (s *Store) Update(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	var updated bool
	err := s.update(ctx, func(txn *badger.Txn) error {
		updated = false
		if _, err := txn.Get([]byte(key)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		updated = true
		return txn.SetEntry(newEntry(key, value, ttl))
	})
	return updated, err
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	var deleted bool
	err := s.update(ctx, func(txn *badger.Txn) error {
		deleted = false
		if _, err := txn.Get([]byte(key)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		deleted = true
		return txn.Delete([]byte(key))
	})
	return deleted, err
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := s.Get(ctx, key)
	return found, err
}

// RunGC reclaims value log space. It is a no-op for in-memory databases.
func (s *Store) RunGC() error {
	for {
		err := s.db.RunValueLogGC(0.5)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			return nil
		default:
			return err
		}
	}
}

func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.logger.Debug().Int("attempt", attempt+1).Msg("transaction conflict, retrying")
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func newEntry(key, value string, ttl time.Duration) *badger.Entry {
	e := badger.NewEntry([]byte(key), []byte(value))
	if ttl > 0 {
		e = e.WithTTL(ttl)
	}
	return e
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", kv.ErrUnavailable, err)
}
