package protect

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Team identifies one side of a protect match.
type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

func (t Team) Valid() bool {
	return t == TeamRed || t == TeamBlue
}

// Opponent returns the other team.
func (t Team) Opponent() Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

// Label is the display name used in replies.
func (t Team) Label() string {
	if t == TeamRed {
		return "Red team"
	}
	return "Blue team"
}

// SlotKey returns the store key holding a team's submission.
func SlotKey(matchID string, team Team) string {
	return fmt.Sprintf("protect:%s:%s_team", matchID, team)
}

// NewMatchID returns a random match identifier.
func NewMatchID() string {
	return uuid.NewString()
}

// Slot is one team's stored submission.
type Slot struct {
	Text    string
	Present bool
}

// State is the combined registration state of a match.
type State string

const (
	StateNeither  State = "NEITHER"
	StateRedOnly  State = "RED_ONLY"
	StateBlueOnly State = "BLUE_ONLY"
	StateBoth     State = "BOTH"
)

// CompletionView is the combined view of both team slots.
type CompletionView struct {
	MatchID string
	Red     Slot
	Blue    Slot
}

func (v CompletionView) Slot(team Team) Slot {
	if team == TeamRed {
		return v.Red
	}
	return v.Blue
}

func (v *CompletionView) SetSlot(team Team, s Slot) {
	if team == TeamRed {
		v.Red = s
		return
	}
	v.Blue = s
}

func (v CompletionView) State() State {
	switch {
	case v.Red.Present && v.Blue.Present:
		return StateBoth
	case v.Red.Present:
		return StateRedOnly
	case v.Blue.Present:
		return StateBlueOnly
	default:
		return StateNeither
	}
}

func (v CompletionView) Complete() bool {
	return v.State() == StateBoth
}

// StatusMessage renders the check-status reply. Submitted text is revealed
// only once both teams have registered.
func (v CompletionView) StatusMessage() string {
	switch v.State() {
	case StateBoth:
		return v.bothMessage()
	case StateRedOnly:
		return "Red team has registered. Waiting for blue team."
	case StateBlueOnly:
		return "Blue team has registered. Waiting for red team."
	default:
		return "Neither team has registered yet."
	}
}

func (v CompletionView) bothMessage() string {
	return fmt.Sprintf("Both teams have registered.\nRed: %s\nBlue: %s", v.Red.Text, v.Blue.Text)
}

// Registration is the result of one team submitting its text.
type Registration struct {
	Team Team
	View CompletionView
	// Accepted is false when the slot was already taken and overwrites
	// are disabled.
	Accepted bool
}

// Message renders the reply for the submitting team.
func (r Registration) Message() string {
	if !r.Accepted {
		return fmt.Sprintf("%s has already registered.", r.Team.Label())
	}
	if r.View.Complete() {
		return r.View.bothMessage()
	}
	return fmt.Sprintf("%s registered. Waiting for %s.", r.Team.Label(), strings.ToLower(r.Team.Opponent().Label()))
}
