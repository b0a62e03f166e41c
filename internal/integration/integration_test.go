//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	httpapi "github.com/same-say/same-say/internal/api/http"
	"github.com/same-say/same-say/internal/application/auth"
	"github.com/same-say/same-say/internal/application/crud"
	"github.com/same-say/same-say/internal/application/game"
	"github.com/same-say/same-say/internal/application/interaction"
	"github.com/same-say/same-say/internal/application/protect"
	domainInteraction "github.com/same-say/same-say/internal/domain/interaction"
	"github.com/same-say/same-say/internal/infrastructure/discord"
	"github.com/same-say/same-say/internal/infrastructure/keystore"
	"github.com/same-say/same-say/internal/infrastructure/postgres"
	"github.com/same-say/same-say/internal/infrastructure/tasks"
)

func TestKVStoreIntegration(t *testing.T) {
	pool, cleanup := newTestPool(t)
	defer cleanup()
	ctx := context.Background()
	store := postgres.NewKVStore(pool, postgres.DefaultRetryPolicy, zerolog.Nop())

	if err := store.Set(ctx, "k1", "v1", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, err := store.Get(ctx, "k1"); err != nil || !ok || v != "v1" {
		t.Fatalf("get: %q %v %v", v, ok, err)
	}
	if ok, err := store.Update(ctx, "missing", "x", 0); err != nil || ok {
		t.Fatalf("update missing: %v %v", ok, err)
	}
	if ok, err := store.Update(ctx, "k1", "v2", 0); err != nil || !ok {
		t.Fatalf("update: %v %v", ok, err)
	}

	if err := store.Set(ctx, "short", "v", 50*time.Millisecond); err != nil {
		t.Fatalf("set ttl: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if ok, err := store.Exists(ctx, "short"); err != nil || ok {
		t.Fatalf("expired key still visible: %v %v", ok, err)
	}
	n, err := store.DeleteExpired(ctx)
	if err != nil || n != 1 {
		t.Fatalf("delete expired: %d %v", n, err)
	}

	if ok, err := store.Delete(ctx, "k1"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "k1"); err != nil || ok {
		t.Fatalf("second delete: %v %v", ok, err)
	}
}

func TestGameWebhookDeliveryIntegration(t *testing.T) {
	env := newTestServer(t)
	defer env.cleanup()

	hit := make(chan []byte, 1)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		hit <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer webhook.Close()
	env.webhookURL = webhook.URL
	server := env.start(t)

	var out map[string]interface{}
	postJSON(t, server.URL+"/api/discord/game", map[string]string{"gameId": "g1", "userId": "u1", "message": "hello"}, &out)
	if out["status"] != "waiting" {
		t.Fatalf("expected waiting, got %v", out)
	}
	postJSON(t, server.URL+"/api/discord/game", map[string]string{"gameId": "g1", "userId": "u2", "message": "world"}, &out)
	if out["status"] != "finished" {
		t.Fatalf("expected finished, got %v", out)
	}

	select {
	case body := <-hit:
		if !strings.Contains(string(body), "<@u1>") || !strings.Contains(string(body), "world") {
			t.Fatalf("unexpected webhook payload: %s", body)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("webhook not received")
	}
}

func TestProtectMatchIntegration(t *testing.T) {
	env := newTestServer(t)
	defer env.cleanup()
	server := env.start(t)

	prompt := env.interact(t, server.URL, map[string]interface{}{
		"type": 2,
		"data": map[string]interface{}{"name": "lol-new-protect"},
	})
	buttons := prompt.Data.Components[0].Components
	matchID := domainInteraction.ParseActionID(buttons[0].CustomID).Param(interaction.ParamMatchID)
	if matchID == "" {
		t.Fatalf("prompt carries no match id: %+v", buttons)
	}

	register := func(action, text string) domainInteraction.Response {
		return env.interact(t, server.URL, map[string]interface{}{
			"type": 5,
			"data": map[string]interface{}{
				"custom_id": action + "?match_id=" + matchID,
				"components": []interface{}{map[string]interface{}{
					"type": 1,
					"components": []interface{}{map[string]interface{}{
						"type": 4, "custom_id": "team_text?match_id=" + matchID, "value": text,
					}},
				}},
			},
		})
	}
	register(interaction.ActionRegisterRed, "X")
	both := register(interaction.ActionRegisterBlue, "Y")
	if want := "Both teams have registered.\nRed: X\nBlue: Y"; both.Data.Content != want {
		t.Fatalf("unexpected reply %q", both.Data.Content)
	}
}

type testEnv struct {
	pool       *pgxpool.Pool
	priv       ed25519.PrivateKey
	pub        ed25519.PublicKey
	webhookURL string
	tracker    *tasks.Tracker
	closers    []func()
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	pool, cleanup := newTestPool(t)
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	return &testEnv{pool: pool, priv: priv, pub: pub, closers: []func(){cleanup}}
}

func (e *testEnv) start(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zerolog.Nop()
	store := postgres.NewKVStore(e.pool, postgres.DefaultRetryPolicy, logger)
	keys, err := keystore.Parse(hex.EncodeToString(e.pub))
	if err != nil {
		t.Fatalf("keystore: %v", err)
	}
	client := discord.NewClient(discord.Config{WebhookURL: e.webhookURL}, logger)
	e.tracker = tasks.NewTracker(5*time.Second, logger)

	protectSvc := protect.NewService(store, protect.Options{SlotTTL: time.Hour, AllowOverwrite: true}, logger)
	gameSvc := game.NewService(store, client, e.tracker, game.DefaultTTL, logger)
	router := interaction.NewRouter(protectSvc, gameSvc, client, interaction.DefaultCommands("lol-"), logger)
	apiServer := httpapi.NewServer(httpapi.Deps{
		Verifier: keys,
		Router:   router,
		GameSvc:  gameSvc,
		AuthSvc:  auth.NewService(store, auth.Credentials{Password: "pw"}, time.Hour, logger),
		CrudSvc:  crud.NewService(store, logger),
	}, logger)

	server := httptest.NewServer(apiServer.Router())
	e.closers = append(e.closers, server.Close, func() { _ = e.tracker.Shutdown(context.Background()) })
	return server
}

func (e *testEnv) cleanup() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func (e *testEnv) interact(t *testing.T, baseURL string, payload interface{}) domainInteraction.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/discord", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set(domainInteraction.HeaderTimestamp, ts)
	req.Header.Set(domainInteraction.HeaderSignature, hex.EncodeToString(ed25519.Sign(e.priv, append([]byte(ts), body...))))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, data)
	}
	var out domainInteraction.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func postJSON(t *testing.T, url string, body interface{}, out interface{}) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, b)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
}

func newTestPool(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	dsn := testDatabaseURL(t)
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn, postgres.DefaultRetryPolicy, zerolog.Nop())
	if err != nil {
		t.Fatalf("db pool: %v", err)
	}
	if err := postgres.RunMigrations(ctx, pool, filepath.Join(repoRoot(t), "internal", "migrations")); err != nil {
		pool.Close()
		t.Fatalf("migrations: %v", err)
	}
	if err := resetDatabase(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("reset db: %v", err)
	}
	return pool, pool.Close
}

func testDatabaseURL(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	t.Skip("TEST_DATABASE_URL not set; skipping integration tests")
	return ""
}

func repoRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func resetDatabase(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `TRUNCATE TABLE kv_entries`)
	return err
}
