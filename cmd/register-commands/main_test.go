package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/same-say/same-say/internal/infrastructure/discord"
)

func TestRun_DryRun(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"--dry-run", "--prefix", "x-"}, &out))

	var cmds []discord.Command
	require.NoError(t, json.Unmarshal(out.Bytes(), &cmds))
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"x-echo", "x-new-protect", "submit"}, names)
}

func TestRun_RequiresCredentials(t *testing.T) {
	t.Setenv("DISCORD_APPLICATION_ID", "")
	t.Setenv("DISCORD_TOKEN", "")
	err := run(nil, io.Discard)
	assert.Error(t, err)

	err = run([]string{"--dry-run", "extra"}, io.Discard)
	assert.Error(t, err)
}

func TestRun_Registers(t *testing.T) {
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		var cmds []discord.Command
		_ = json.NewDecoder(r.Body).Decode(&cmds)
		for i := range cmds {
			cmds[i].ID = "id-" + cmds[i].Name
		}
		_ = json.NewEncoder(w).Encode(cmds)
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := run([]string{"--app-id", "app1", "--token", "secret", "--api-base", srv.URL, "--guild", "g1"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "/applications/app1/guilds/g1/commands", path)
	assert.Equal(t, "Bot secret", auth)
	assert.Contains(t, out.String(), "id-submit\tsubmit")
}
