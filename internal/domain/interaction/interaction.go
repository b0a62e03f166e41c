package interaction

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed means the payload is not a decodable interaction.
	ErrMalformed = errors.New("malformed interaction")
	// ErrUnknownInteraction means the payload decoded but no handler
	// matches its shape.
	ErrUnknownInteraction = errors.New("unknown interaction")
)

// Type is the platform's interaction type.
type Type int

const (
	TypePing               Type = 1
	TypeApplicationCommand Type = 2
	TypeMessageComponent   Type = 3
	TypeAutocomplete       Type = 4
	TypeModalSubmit        Type = 5
)

// Meta carries the fields shared by every interaction kind.
type Meta struct {
	ID            string
	ApplicationID string
	Token         string
	ChannelID     string
	GuildID       string
	UserID        string
}

// Interaction is one of Ping, CommandInvocation, ComponentActivation or
// FormSubmission.
type Interaction interface {
	Kind() Type
	Metadata() Meta
	sealed()
}

type Ping struct {
	Meta
}

// CommandInvocation is a slash command.
type CommandInvocation struct {
	Meta
	Name    string
	Options []Option
}

// Option returns the named option, if present.
func (c CommandInvocation) Option(name string) (Option, bool) {
	for _, o := range c.Options {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// OptionString returns the named option's text or "".
func (c CommandInvocation) OptionString(name string) string {
	o, ok := c.Option(name)
	if !ok {
		return ""
	}
	return o.String()
}

// ComponentActivation is a button or select press on a message.
type ComponentActivation struct {
	Meta
	ComponentType int
	Action        ActionID
}

// FormSubmission is a submitted modal.
type FormSubmission struct {
	Meta
	Action ActionID
	Fields []Field
}

// Field is a text input leaf of a submitted modal.
type Field struct {
	Action ActionID
	Value  string
}

// FirstValue returns the first field's value, or "" for an empty form.
func (f FormSubmission) FirstValue() string {
	if len(f.Fields) == 0 {
		return ""
	}
	return f.Fields[0].Value
}

func (Ping) Kind() Type { return TypePing }
func (CommandInvocation) Kind() Type { return TypeApplicationCommand }
func (ComponentActivation) Kind() Type { return TypeMessageComponent }
func (FormSubmission) Kind() Type { return TypeModalSubmit }

func (m Meta) Metadata() Meta { return m }

func (Ping) sealed() {}
func (CommandInvocation) sealed() {}
func (ComponentActivation) sealed() {}
func (FormSubmission) sealed() {}

// Option is a command argument. Value keeps the raw JSON so string,
// number and boolean options decode alike.
type Option struct {
	Name  string          `json:"name"`
	Type  int             `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (o Option) String() string {
	if len(o.Value) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(o.Value, &s); err == nil {
		return s
	}
	if string(o.Value) == "null" {
		return ""
	}
	return string(o.Value)
}

type wireUser struct {
	ID string `json:"id"`
}

type wireComponent struct {
	Type       int             `json:"type"`
	CustomID   string          `json:"custom_id"`
	Value      string          `json:"value"`
	Components []wireComponent `json:"components"`
}

type wireData struct {
	Name          string          `json:"name"`
	Options       []Option        `json:"options"`
	CustomID      string          `json:"custom_id"`
	ComponentType int             `json:"component_type"`
	Components    []wireComponent `json:"components"`
}

type wireInteraction struct {
	ID            string `json:"id"`
	ApplicationID string `json:"application_id"`
	Type          Type   `json:"type"`
	Token         string `json:"token"`
	ChannelID     string `json:"channel_id"`
	GuildID       string `json:"guild_id"`
	Member        *struct {
		User *wireUser `json:"user"`
	} `json:"member"`
	User *wireUser        `json:"user"`
	Data *json.RawMessage `json:"data"`
}

// Decode parses a raw interaction body into its kind-specific variant.
func Decode(body []byte) (Interaction, error) {
	var w wireInteraction
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	meta := Meta{
		ID:            w.ID,
		ApplicationID: w.ApplicationID,
		Token:         w.Token,
		ChannelID:     w.ChannelID,
		GuildID:       w.GuildID,
	}
	switch {
	case w.Member != nil && w.Member.User != nil:
		meta.UserID = w.Member.User.ID
	case w.User != nil:
		meta.UserID = w.User.ID
	}

	if w.Type == TypePing {
		return Ping{Meta: meta}, nil
	}

	var data wireData
	if w.Data == nil {
		return nil, fmt.Errorf("%w: type %d without data", ErrMalformed, w.Type)
	}
	if err := json.Unmarshal(*w.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrMalformed, err)
	}

	switch w.Type {
	case TypeApplicationCommand:
		if data.Name == "" {
			return nil, fmt.Errorf("%w: command without name", ErrMalformed)
		}
		return CommandInvocation{Meta: meta, Name: data.Name, Options: data.Options}, nil
	case TypeMessageComponent:
		if data.CustomID == "" {
			return nil, fmt.Errorf("%w: component without custom_id", ErrMalformed)
		}
		return ComponentActivation{
			Meta:          meta,
			ComponentType: data.ComponentType,
			Action:        ParseActionID(data.CustomID),
		}, nil
	case TypeModalSubmit:
		if data.CustomID == "" {
			return nil, fmt.Errorf("%w: modal without custom_id", ErrMalformed)
		}
		return FormSubmission{
			Meta:   meta,
			Action: ParseActionID(data.CustomID),
			Fields: flattenFields(data.Components),
		}, nil
	default:
		return nil, fmt.Errorf("%w: type %d", ErrUnknownInteraction, w.Type)
	}
}

// flattenFields collects the leaves of nested action rows in order.
func flattenFields(rows []wireComponent) []Field {
	var out []Field
	for _, c := range rows {
		if len(c.Components) > 0 {
			out = append(out, flattenFields(c.Components)...)
			continue
		}
		if c.CustomID == "" {
			continue
		}
		out = append(out, Field{Action: ParseActionID(c.CustomID), Value: c.Value})
	}
	return out
}
