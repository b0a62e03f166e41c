package game

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Players is the number of distinct participants that completes a game.
const Players = 2

var (
	ErrAlreadySubmitted = errors.New("already submitted")
	ErrInvalidInput     = errors.New("invalid input")
)

// Status of a submission.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusFinished Status = "finished"
)

// Key returns the store key for a game record.
func Key(gameID string) string {
	return "game:" + gameID
}

// Game is the persisted record of a simultaneous-statement round.
type Game struct {
	Messages  map[string]string `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
}

func New(now time.Time) *Game {
	return &Game{Messages: make(map[string]string), CreatedAt: now}
}

// Add records a participant's statement once.
func (g *Game) Add(participantID, text string) error {
	if g.Messages == nil {
		g.Messages = make(map[string]string)
	}
	if _, ok := g.Messages[participantID]; ok {
		return ErrAlreadySubmitted
	}
	g.Messages[participantID] = text
	return nil
}

func (g *Game) Complete() bool {
	return len(g.Messages) >= Players
}

// Entry is one participant's statement.
type Entry struct {
	ParticipantID string
	Text          string
}

// Result is a finished game, ready to announce.
type Result struct {
	GameID  string
	Entries []Entry
}

// ResultFor lists the earlier submitters in participant order and puts last
// the participant who completed the game.
func (g *Game) ResultFor(gameID, lastParticipantID string) *Result {
	res := &Result{GameID: gameID}
	ids := make([]string, 0, len(g.Messages))
	for id := range g.Messages {
		if id != lastParticipantID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		res.Entries = append(res.Entries, Entry{ParticipantID: id, Text: g.Messages[id]})
	}
	if text, ok := g.Messages[lastParticipantID]; ok {
		res.Entries = append(res.Entries, Entry{ParticipantID: lastParticipantID, Text: text})
	}
	return res
}

// Mention renders a participant id as a user mention.
func Mention(participantID string) string {
	return "<@" + participantID + ">"
}

// Summary renders the statements as one message.
func (r *Result) Summary() string {
	var b strings.Builder
	b.WriteString("Simultaneous statement")
	for _, e := range r.Entries {
		b.WriteString("\n")
		b.WriteString(Mention(e.ParticipantID))
		b.WriteString(": ")
		b.WriteString(e.Text)
	}
	return b.String()
}

// Outcome is returned to the submitter.
type Outcome struct {
	Status   Status
	Messages map[string]string
	Result   *Result
}

func (o *Outcome) Finished() bool {
	return o.Status == StatusFinished
}
