package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/same-say/same-say/internal/domain/game"
	"github.com/same-say/same-say/internal/domain/kv"
)

// ErrDeliveryDropped is passed to AfterDelivery when the announcement task
// could not be started.
var ErrDeliveryDropped = errors.New("announcement dropped")

// DefaultTTL bounds how long an unfinished game waits for its second
// participant. Every write refreshes it.
const DefaultTTL = 10 * time.Minute

// DeliveryMode selects how the finished-game announcement is sent.
type DeliveryMode int

const (
	// DeliverInline waits for the announcement before returning.
	DeliverInline DeliveryMode = iota
	// DeliverDetached hands the announcement to the spawner and returns
	// immediately.
	DeliverDetached
)

// SubmitInput is one participant's statement.
type SubmitInput struct {
	GameID        string
	ParticipantID string
	Text          string
	Delivery      DeliveryMode
	// AfterDelivery, if set, runs inside the detached task once the
	// announcement attempt finished. notifyErr is the announcement error, or
	// ErrDeliveryDropped when the task was refused and the hook runs inline.
	AfterDelivery func(ctx context.Context, result *game.Result, notifyErr error)
}

// Service runs the simultaneous-statement game.
type Service struct {
	store    kv.Store
	notifier game.Notifier
	spawner  game.Spawner
	ttl      time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a game service.
func NewService(store kv.Store, notifier game.Notifier, spawner game.Spawner, ttl time.Duration, logger zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:    store,
		notifier: notifier,
		spawner:  spawner,
		ttl:      ttl,
		logger:   logger.With().Str("service", "game").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a statement. The second distinct participant finishes the
// game: the result is announced and the record is deleted. A participant
// submitting twice gets game.ErrAlreadySubmitted.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*game.Outcome, error) {
	if in.GameID == "" || in.ParticipantID == "" || in.Text == "" {
		return nil, fmt.Errorf("%w: gameId, userId and message are required", game.ErrInvalidInput)
	}
	key := game.Key(in.GameID)

	var g game.Game
	found, err := kv.GetJSON(ctx, s.store, key, &g)
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	if !found {
		g = *game.New(s.now())
	}
	if err := g.Add(in.ParticipantID, in.Text); err != nil {
		return nil, err
	}

	if !g.Complete() {
		if err := kv.SetJSON(ctx, s.store, key, &g, s.ttl); err != nil {
			return nil, fmt.Errorf("save game: %w", err)
		}
		s.logger.Info().Str("game_id", in.GameID).Str("participant_id", in.ParticipantID).Msg("statement recorded")
		return &game.Outcome{Status: game.StatusWaiting, Messages: g.Messages}, nil
	}

	// Delete first: a retry after a failed delete must not announce twice.
	if _, err := s.store.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("delete finished game: %w", err)
	}
	s.logger.Info().Str("game_id", in.GameID).Msg("game finished")

	result := g.ResultFor(in.GameID, in.ParticipantID)
	switch in.Delivery {
	case DeliverDetached:
		s.deliverDetached(ctx, result, in.AfterDelivery)
	default:
		_ = s.announce(ctx, result)
	}
	return &game.Outcome{Status: game.StatusFinished, Messages: g.Messages, Result: result}, nil
}

func (s *Service) deliverDetached(ctx context.Context, result *game.Result, after func(context.Context, *game.Result, error)) {
	accepted := s.spawner.Go("game-announce", func(ctx context.Context) error {
		err := s.announce(ctx, result)
		if after != nil {
			after(ctx, result, err)
		}
		return err
	})
	if !accepted {
		s.logger.Error().Str("game_id", result.GameID).Msg("announcement dropped, spawner not accepting tasks")
		if after != nil {
			after(context.WithoutCancel(ctx), result, ErrDeliveryDropped)
		}
	}
}

// announce never fails the caller; errors are logged and returned for the
// detached hook.
func (s *Service) announce(ctx context.Context, result *game.Result) error {
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.NotifyFinished(ctx, result); err != nil {
		s.logger.Error().Err(err).Str("game_id", result.GameID).Msg("game announcement failed")
		return err
	}
	return nil
}
