package interaction

// ResponseType selects how the platform renders a reply.
type ResponseType int

const (
	ResponsePong                   ResponseType = 1
	ResponseChannelMessage         ResponseType = 4
	ResponseDeferredChannelMessage ResponseType = 5
	ResponseModal                  ResponseType = 9
)

// FlagEphemeral makes a message visible only to the invoking user.
const FlagEphemeral = 1 << 6

// Component types and styles used in replies.
const (
	ComponentActionRow = 1
	ComponentButton    = 2
	ComponentTextInput = 4

	ButtonPrimary   = 1
	ButtonSecondary = 2
	ButtonDanger    = 4

	TextInputShort = 1
)

// Response is the JSON body returned for an interaction.
type Response struct {
	Type ResponseType  `json:"type"`
	Data *ResponseData `json:"data,omitempty"`
}

type ResponseData struct {
	Content    string      `json:"content,omitempty"`
	Flags      int         `json:"flags,omitempty"`
	CustomID   string      `json:"custom_id,omitempty"`
	Title      string      `json:"title,omitempty"`
	Components []Component `json:"components,omitempty"`
}

// Component is a message or modal component.
type Component struct {
	Type        int         `json:"type"`
	Style       int         `json:"style,omitempty"`
	Label       string      `json:"label,omitempty"`
	CustomID    string      `json:"custom_id,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Required    bool        `json:"required,omitempty"`
	MaxLength   int         `json:"max_length,omitempty"`
	Components  []Component `json:"components,omitempty"`
}

// Ephemeral reports whether the reply is private to the invoker.
func (r Response) Ephemeral() bool {
	return r.Data != nil && r.Data.Flags&FlagEphemeral != 0
}

// Pong acknowledges a ping.
func Pong() Response {
	return Response{Type: ResponsePong}
}

// Message is an immediate channel message.
func Message(content string, ephemeral bool, rows ...Component) Response {
	data := &ResponseData{Content: content, Components: rows}
	if ephemeral {
		data.Flags = FlagEphemeral
	}
	return Response{Type: ResponseChannelMessage, Data: data}
}

// Deferred acknowledges now and delivers the message later.
func Deferred(ephemeral bool) Response {
	r := Response{Type: ResponseDeferredChannelMessage}
	if ephemeral {
		r.Data = &ResponseData{Flags: FlagEphemeral}
	}
	return r
}

// TextInput describes the single field of a form.
type TextInput struct {
	ID          ActionID
	Label       string
	Placeholder string
	MaxLength   int
}

// Modal asks the user to fill a one-field form. The form id and the field
// id both carry correlation parameters.
func Modal(id ActionID, title string, input TextInput) Response {
	return Response{
		Type: ResponseModal,
		Data: &ResponseData{
			CustomID: id.String(),
			Title:    title,
			Components: []Component{
				ActionRow(Component{
					Type:        ComponentTextInput,
					Style:       TextInputShort,
					Label:       input.Label,
					CustomID:    input.ID.String(),
					Placeholder: input.Placeholder,
					Required:    true,
					MaxLength:   input.MaxLength,
				}),
			},
		},
	}
}

func ActionRow(children ...Component) Component {
	return Component{Type: ComponentActionRow, Components: children}
}

func Button(style int, label string, id ActionID) Component {
	return Component{Type: ComponentButton, Style: style, Label: label, CustomID: id.String()}
}
