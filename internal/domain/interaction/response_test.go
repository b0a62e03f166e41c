package interaction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPongJSON(t *testing.T) {
	data, err := json.Marshal(Pong())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":1}`, string(data))
}

func TestMessageEphemeral(t *testing.T) {
	r := Message("hi", true)
	assert.True(t, r.Ephemeral())
	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":4,"data":{"content":"hi","flags":64}}`, string(data))

	assert.False(t, Message("hi", false).Ephemeral())
}

func TestDeferred(t *testing.T) {
	data, err := json.Marshal(Deferred(false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":5}`, string(data))
	assert.True(t, Deferred(true).Ephemeral())
}

func TestModalCarriesCorrelationIDs(t *testing.T) {
	r := Modal(
		NewActionID("register-red-team-register", map[string]string{"match_id": "m1"}),
		"Red team",
		TextInput{
			ID:          NewActionID("team_text", map[string]string{"match_id": "m1"}),
			Label:       "Enter your message",
			Placeholder: "Protect target",
		},
	)
	assert.Equal(t, ResponseModal, r.Type)
	require.NotNil(t, r.Data)
	assert.Equal(t, "register-red-team-register?match_id=m1", r.Data.CustomID)
	require.Len(t, r.Data.Components, 1)
	row := r.Data.Components[0]
	assert.Equal(t, ComponentActionRow, row.Type)
	require.Len(t, row.Components, 1)
	input := row.Components[0]
	assert.Equal(t, ComponentTextInput, input.Type)
	assert.Equal(t, "team_text?match_id=m1", input.CustomID)
	assert.Equal(t, "Protect target", input.Placeholder)
	assert.True(t, input.Required)
}
