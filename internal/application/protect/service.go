package protect

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/same-say/same-say/internal/domain/kv"
	"github.com/same-say/same-say/internal/domain/protect"
)

// Service coordinates the two team slots of a protect match. It keeps no
// state between calls; every read goes to the store.
type Service struct {
	store          kv.Store
	slotTTL        time.Duration
	allowOverwrite bool
	logger         zerolog.Logger
}

// Options configures slot retention and resubmission.
type Options struct {
	SlotTTL        time.Duration
	AllowOverwrite bool
}

// NewService creates a protect match service.
func NewService(store kv.Store, opts Options, logger zerolog.Logger) *Service {
	return &Service{
		store:          store,
		slotTTL:        opts.SlotTTL,
		allowOverwrite: opts.AllowOverwrite,
		logger:         logger.With().Str("service", "protect").Logger(),
	}
}

// StartMatch returns a fresh match id. Nothing is stored until a team
// registers.
func (s *Service) StartMatch() string {
	return protect.NewMatchID()
}

// RegisterTeam stores text in the team's slot and then reads the opposing
// slot. The two slots are separate keys, so two teams registering at the
// same instant may both see the other slot empty.
func (s *Service) RegisterTeam(ctx context.Context, matchID string, team protect.Team, text string) (*protect.Registration, error) {
	if !team.Valid() {
		return nil, fmt.Errorf("unknown team %q", team)
	}
	key := protect.SlotKey(matchID, team)
	reg := &protect.Registration{Team: team, View: protect.CompletionView{MatchID: matchID}}

	if !s.allowOverwrite {
		existing, ok, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read %s slot: %w", team, err)
		}
		if ok {
			reg.View.SetSlot(team, protect.Slot{Text: existing, Present: true})
			s.logger.Info().Str("match_id", matchID).Str("team", string(team)).Msg("registration rejected, slot taken")
			return reg, nil
		}
	}

	if err := s.store.Set(ctx, key, text, s.slotTTL); err != nil {
		return nil, fmt.Errorf("write %s slot: %w", team, err)
	}
	reg.Accepted = true
	reg.View.SetSlot(team, protect.Slot{Text: text, Present: true})

	opponent := team.Opponent()
	other, ok, err := s.store.Get(ctx, protect.SlotKey(matchID, opponent))
	if err != nil {
		return nil, fmt.Errorf("read %s slot: %w", opponent, err)
	}
	if ok {
		reg.View.SetSlot(opponent, protect.Slot{Text: other, Present: true})
	}

	s.logger.Info().
		Str("match_id", matchID).
		Str("team", string(team)).
		Str("state", string(reg.View.State())).
		Msg("team registered")
	return reg, nil
}

// CheckStatus reads both slots without writing.
func (s *Service) CheckStatus(ctx context.Context, matchID string) (*protect.CompletionView, error) {
	view := &protect.CompletionView{MatchID: matchID}
	for _, team := range []protect.Team{protect.TeamRed, protect.TeamBlue} {
		text, ok, err := s.store.Get(ctx, protect.SlotKey(matchID, team))
		if err != nil {
			return nil, fmt.Errorf("read %s slot: %w", team, err)
		}
		if ok {
			view.SetSlot(team, protect.Slot{Text: text, Present: true})
		}
	}
	return view, nil
}
