package discord

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/same-say/same-say/internal/domain/game"
)

type captured struct {
	method string
	path   string
	auth   string
	body   []byte
}

func newServer(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		got.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func TestClient_NotifyFinished(t *testing.T) {
	srv, got := newServer(t, http.StatusNoContent, "")
	c := NewClient(Config{WebhookURL: srv.URL + "/hook"}, zerolog.Nop())

	err := c.NotifyFinished(context.Background(), &game.Result{
		GameID: "g1",
		Entries: []game.Entry{
			{ParticipantID: "u1", Text: "hello"},
			{ParticipantID: "u2", Text: "world"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/hook", got.path)

	var msg webhookMessage
	require.NoError(t, json.Unmarshal(got.body, &msg))
	require.Len(t, msg.Embeds, 1)
	assert.Equal(t, embedColor, msg.Embeds[0].Color)
	assert.Equal(t, []embedField{
		{Name: "<@u1>", Value: "hello"},
		{Name: "<@u2>", Value: "world"},
	}, msg.Embeds[0].Fields)
}

func TestClient_NotifyFinished_MentionsNotEscaped(t *testing.T) {
	srv, got := newServer(t, http.StatusNoContent, "")
	c := NewClient(Config{WebhookURL: srv.URL}, zerolog.Nop())

	err := c.NotifyFinished(context.Background(), &game.Result{
		GameID:  "g1",
		Entries: []game.Entry{{ParticipantID: "u1", Text: "a < b & c"}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(got.body), `"<@u1>"`)
	assert.Contains(t, string(got.body), `"a < b & c"`)
	assert.NotContains(t, string(got.body), `\u003c`)
}

func TestClient_NotifyFinished_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		c := NewClient(Config{}, zerolog.Nop())
		err := c.NotifyFinished(context.Background(), &game.Result{GameID: "g1"})
		assert.ErrorIs(t, err, ErrWebhookNotConfigured)
	})

	t.Run("upstream failure", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusBadRequest, `{"message":"bad"}`)
		c := NewClient(Config{WebhookURL: srv.URL}, zerolog.Nop())
		err := c.NotifyFinished(context.Background(), &game.Result{GameID: "g1"})

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Contains(t, apiErr.Body, "bad")
	})
}

func TestClient_EditOriginalResponse(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"id":"1"}`)
	c := NewClient(Config{APIBase: srv.URL + "/"}, zerolog.Nop())

	err := c.EditOriginalResponse(context.Background(), "app1", "tok", "done")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, got.method)
	assert.Equal(t, "/webhooks/app1/tok/messages/@original", got.path)
	assert.JSONEq(t, `{"content":"done"}`, string(got.body))

	err = c.EditOriginalResponse(context.Background(), "", "tok", "done")
	assert.Error(t, err)
}

func TestClient_EditOriginalResponse_RedactsToken(t *testing.T) {
	srv, _ := newServer(t, http.StatusNotFound, `{}`)
	c := NewClient(Config{APIBase: srv.URL}, zerolog.Nop())

	err := c.EditOriginalResponse(context.Background(), "app1", "secret-token", "done")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-token")
	assert.Contains(t, err.Error(), "/webhooks/app1/***/messages/@original")
}

func TestClient_RegisterCommands(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `[{"id":"1","name":"lol-echo"},{"id":"2","name":"lol-new-protect"},{"id":"3","name":"submit"}]`)
	c := NewClient(Config{APIBase: srv.URL, BotToken: "bot"}, zerolog.Nop())
	cmds := DefaultCommands("lol-echo", "lol-new-protect", "submit")

	registered, err := c.RegisterCommands(context.Background(), "app1", "", cmds)
	require.NoError(t, err)
	assert.Len(t, registered, 3)
	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/applications/app1/commands", got.path)
	assert.Equal(t, "Bot bot", got.auth)

	var sent []Command
	require.NoError(t, json.Unmarshal(got.body, &sent))
	assert.Equal(t, cmds, sent)

	_, err = c.RegisterCommands(context.Background(), "app1", "guild9", cmds)
	require.NoError(t, err)
	assert.Equal(t, "/applications/app1/guilds/guild9/commands", got.path)
}

func TestClient_RegisterCommands_RequiresToken(t *testing.T) {
	c := NewClient(Config{}, zerolog.Nop())
	_, err := c.RegisterCommands(context.Background(), "app1", "", nil)
	assert.Error(t, err)
}
