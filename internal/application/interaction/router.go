package interaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	appGame "github.com/same-say/same-say/internal/application/game"
	appProtect "github.com/same-say/same-say/internal/application/protect"
	"github.com/same-say/same-say/internal/domain/game"
	domain "github.com/same-say/same-say/internal/domain/interaction"
	"github.com/same-say/same-say/internal/domain/protect"
)

// Action names carried in component and modal custom ids.
const (
	ActionOpenRedModal  = "open-modal-red-team-register"
	ActionOpenBlueModal = "open-modal-blue-team-register"
	ActionRegisterRed   = "register-red-team-register"
	ActionRegisterBlue  = "register-blue-team"
	ActionCheck         = "check-registered"

	FieldTeamText = "team_text"
	ParamMatchID  = "match_id"

	OptionText    = "text"
	OptionMessage = "message"
)

// Commands holds the registered slash command names.
type Commands struct {
	Echo       string
	NewProtect string
	Submit     string
}

// DefaultCommands names the commands under prefix. The submit command is
// registered without a prefix.
func DefaultCommands(prefix string) Commands {
	return Commands{
		Echo:       prefix + "echo",
		NewProtect: prefix + "new-protect",
		Submit:     "submit",
	}
}

// Router dispatches a decoded interaction to its handler and composes the
// reply.
type Router struct {
	protect  *appProtect.Service
	game     *appGame.Service
	followUp domain.FollowUp
	commands Commands
	logger   zerolog.Logger
}

// NewRouter creates a router. followUp may be nil, in which case deferred
// replies are never edited.
func NewRouter(protectSvc *appProtect.Service, gameSvc *appGame.Service, followUp domain.FollowUp, commands Commands, logger zerolog.Logger) *Router {
	return &Router{
		protect:  protectSvc,
		game:     gameSvc,
		followUp: followUp,
		commands: commands,
		logger:   logger.With().Str("service", "interaction").Logger(),
	}
}

// Handle returns the reply for in. Unmatched shapes return
// domain.ErrUnknownInteraction; store failures are returned wrapped.
func (r *Router) Handle(ctx context.Context, in domain.Interaction) (domain.Response, error) {
	switch v := in.(type) {
	case domain.Ping:
		return domain.Pong(), nil
	case domain.CommandInvocation:
		return r.handleCommand(ctx, v)
	case domain.ComponentActivation:
		return r.handleComponent(ctx, v)
	case domain.FormSubmission:
		return r.handleForm(ctx, v)
	default:
		return domain.Response{}, domain.ErrUnknownInteraction
	}
}

func (r *Router) handleCommand(ctx context.Context, cmd domain.CommandInvocation) (domain.Response, error) {
	switch cmd.Name {
	case r.commands.Echo:
		return domain.Message(cmd.OptionString(OptionText), false), nil
	case r.commands.NewProtect:
		return r.newProtect(), nil
	case r.commands.Submit:
		return r.submit(ctx, cmd)
	default:
		r.logger.Warn().Str("command", cmd.Name).Msg("unknown command")
		return domain.Message(fmt.Sprintf("Unknown command: %s", cmd.Name), true), nil
	}
}

func (r *Router) newProtect() domain.Response {
	matchID := r.protect.StartMatch()
	params := map[string]string{ParamMatchID: matchID}
	r.logger.Info().Str("match_id", matchID).Msg("protect match started")
	return domain.Message("Choose your team", false, domain.ActionRow(
		domain.Button(domain.ButtonDanger, "Red team", domain.NewActionID(ActionOpenRedModal, params)),
		domain.Button(domain.ButtonPrimary, "Blue team", domain.NewActionID(ActionOpenBlueModal, params)),
		domain.Button(domain.ButtonSecondary, "Check", domain.NewActionID(ActionCheck, params)),
	))
}

func (r *Router) submit(ctx context.Context, cmd domain.CommandInvocation) (domain.Response, error) {
	meta := cmd.Metadata()
	text := cmd.OptionString(OptionMessage)
	out, err := r.game.Submit(ctx, appGame.SubmitInput{
		GameID:        meta.ChannelID,
		ParticipantID: meta.UserID,
		Text:          text,
		Delivery:      appGame.DeliverDetached,
		AfterDelivery: func(ctx context.Context, result *game.Result, _ error) {
			r.completeDeferred(ctx, meta, result)
		},
	})
	switch {
	case errors.Is(err, game.ErrAlreadySubmitted):
		return domain.Message("You have already submitted a statement.", true), nil
	case errors.Is(err, game.ErrInvalidInput):
		return domain.Message(invalidSubmitReply(meta, text), true), nil
	case err != nil:
		return domain.Response{}, err
	}
	if out.Finished() {
		return domain.Deferred(false), nil
	}
	return domain.Message("Statement received. Waiting for the other participant.", true), nil
}

func invalidSubmitReply(meta domain.Meta, text string) string {
	switch {
	case meta.ChannelID == "":
		return "Statements can only be submitted in a channel."
	case meta.UserID == "":
		return "Could not identify who sent this statement."
	case text == "":
		return "Please provide a message."
	default:
		return "Invalid statement."
	}
}

// completeDeferred replaces the "thinking" placeholder with the result.
func (r *Router) completeDeferred(ctx context.Context, meta domain.Meta, result *game.Result) {
	if r.followUp == nil {
		return
	}
	if err := r.followUp.EditOriginalResponse(ctx, meta.ApplicationID, meta.Token, result.Summary()); err != nil {
		r.logger.Error().Err(err).Str("game_id", result.GameID).Msg("failed to complete deferred response")
	}
}

func (r *Router) handleComponent(ctx context.Context, c domain.ComponentActivation) (domain.Response, error) {
	matchID := c.Action.Param(ParamMatchID)
	switch c.Action.Name {
	case ActionOpenRedModal:
		return teamModal(protect.TeamRed, ActionRegisterRed, matchID), nil
	case ActionOpenBlueModal:
		return teamModal(protect.TeamBlue, ActionRegisterBlue, matchID), nil
	case ActionCheck:
		view, err := r.protect.CheckStatus(ctx, matchID)
		if err != nil {
			return domain.Response{}, err
		}
		return domain.Message(view.StatusMessage(), !view.Complete()), nil
	default:
		return domain.Response{}, fmt.Errorf("%w: component %q", domain.ErrUnknownInteraction, c.Action.Name)
	}
}

func teamModal(team protect.Team, submitAction, matchID string) domain.Response {
	params := map[string]string{ParamMatchID: matchID}
	return domain.Modal(domain.NewActionID(submitAction, params), team.Label(), domain.TextInput{
		ID:          domain.NewActionID(FieldTeamText, params),
		Label:       "Enter your message",
		Placeholder: "Protect target",
		MaxLength:   200,
	})
}

func (r *Router) handleForm(ctx context.Context, f domain.FormSubmission) (domain.Response, error) {
	var team protect.Team
	switch f.Action.Name {
	case ActionRegisterRed:
		team = protect.TeamRed
	case ActionRegisterBlue:
		team = protect.TeamBlue
	default:
		return domain.Response{}, fmt.Errorf("%w: form %q", domain.ErrUnknownInteraction, f.Action.Name)
	}

	reg, err := r.protect.RegisterTeam(ctx, formMatchID(f), team, f.FirstValue())
	if err != nil {
		return domain.Response{}, err
	}
	return domain.Message(reg.Message(), !reg.View.Complete()), nil
}

// formMatchID prefers the form's own match id and falls back to the one
// embedded in the text field id.
func formMatchID(f domain.FormSubmission) string {
	if id := f.Action.Param(ParamMatchID); id != "" {
		return id
	}
	for _, field := range f.Fields {
		if id := field.Action.Param(ParamMatchID); id != "" {
			return id
		}
	}
	return ""
}
