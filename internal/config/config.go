package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable with KV_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
	BackendDynamoDB = "dynamodb"
)

// Config holds service configuration.
type Config struct {
	ServerAddr      string
	LogLevel        string
	ShutdownTimeout time.Duration

	DiscordPublicKey     string
	DiscordApplicationID string
	DiscordToken         string
	DiscordWebhookURL    string
	DiscordAPIBase       string
	CommandPrefix        string
	NotifyTimeout        time.Duration

	KVBackend            string
	DatabaseURL          string
	MigrationsDir        string
	BadgerDir            string
	BadgerInMemory       bool
	DynamoDBTable        string
	AWSRegion            string
	StoreConnectAttempts int
	StoreRetryBackoff    time.Duration
	StoreSweepInterval   time.Duration

	SessionTTL            time.Duration
	GameTTL               time.Duration
	MatchTTL              time.Duration
	ProtectAllowOverwrite bool

	AdminPassword      string
	AdminPasswordHash  string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment.
func Load() (*Config, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "same_say")
		pass := getenv("POSTGRES_PASSWORD", "same_say_pass")
		db := getenv("POSTGRES_DB", "same_say")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	cfg := &Config{
		ServerAddr:      getenv("SERVER_ADDR", "0.0.0.0:8080"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		ShutdownTimeout: parseDuration(os.Getenv("SHUTDOWN_TIMEOUT"), 15*time.Second),

		DiscordPublicKey:     os.Getenv("DISCORD_PUBLIC_KEY"),
		DiscordApplicationID: os.Getenv("DISCORD_APPLICATION_ID"),
		DiscordToken:         os.Getenv("DISCORD_TOKEN"),
		DiscordWebhookURL:    os.Getenv("DISCORD_WEBHOOK_URL"),
		DiscordAPIBase:       getenv("DISCORD_API_BASE", "https://discord.com/api/v10"),
		CommandPrefix:        getenv("COMMAND_PREFIX", "lol-"),
		NotifyTimeout:        parseDuration(os.Getenv("NOTIFY_TIMEOUT"), 10*time.Second),

		KVBackend:            strings.ToLower(getenv("KV_BACKEND", BackendPostgres)),
		DatabaseURL:          dsn,
		MigrationsDir:        getenv("MIGRATIONS_DIR", "internal/migrations"),
		BadgerDir:            getenv("BADGER_DIR", "data/badger"),
		BadgerInMemory:       parseBool(os.Getenv("BADGER_IN_MEMORY"), false),
		DynamoDBTable:        getenv("DYNAMODB_TABLE", "same_say_kv"),
		AWSRegion:            getenv("AWS_REGION", "us-east-1"),
		StoreConnectAttempts: parseInt(os.Getenv("STORE_CONNECT_ATTEMPTS"), 5),
		StoreRetryBackoff:    parseDuration(os.Getenv("STORE_RETRY_BACKOFF"), 200*time.Millisecond),
		StoreSweepInterval:   parseDuration(os.Getenv("STORE_SWEEP_INTERVAL"), 5*time.Minute),

		SessionTTL:            parseDuration(os.Getenv("SESSION_TTL"), 7*24*time.Hour),
		GameTTL:               parseDuration(os.Getenv("GAME_TTL"), 10*time.Minute),
		MatchTTL:              parseDuration(os.Getenv("MATCH_TTL"), 24*time.Hour),
		ProtectAllowOverwrite: parseBool(os.Getenv("PROTECT_ALLOW_OVERWRITE"), true),

		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash:  os.Getenv("ADMIN_PASSWORD_HASH"),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	switch cfg.KVBackend {
	case BackendPostgres, BackendBadger, BackendDynamoDB:
	default:
		return nil, fmt.Errorf("unknown KV_BACKEND %q", cfg.KVBackend)
	}
	if cfg.StoreConnectAttempts < 1 {
		return nil, fmt.Errorf("STORE_CONNECT_ATTEMPTS must be at least 1")
	}
	return cfg, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

func splitList(val string) []string {
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
