// Package discord talks to the platform's REST API: channel webhooks,
// deferred-response edits and command registration.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/same-say/same-say/internal/domain/game"
)

// DefaultAPIBase is the public REST endpoint.
const DefaultAPIBase = "https://discord.com/api/v10"

const (
	embedTitle = "💬 Simultaneous statement"
	embedColor = 0x5865f2
)

// ErrWebhookNotConfigured is returned when no channel webhook URL is set.
var ErrWebhookNotConfigured = errors.New("discord webhook url not configured")

// APIError is a non-2xx reply from the platform.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Config configures a Client.
type Config struct {
	APIBase    string
	WebhookURL string
	// BotToken authorizes command registration. Not needed for webhooks
	// or interaction edits.
	BotToken   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements game.Notifier and interaction.FollowUp.
type Client struct {
	apiBase    string
	webhookURL string
	botToken   string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiBase:    apiBase,
		webhookURL: cfg.WebhookURL,
		botToken:   cfg.BotToken,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "discord").Logger(),
	}
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title  string       `json:"title"`
	Fields []embedField `json:"fields"`
	Color  int          `json:"color"`
}

type webhookMessage struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds,omitempty"`
}

// NotifyFinished posts both statements to the channel webhook as one embed.
func (c *Client) NotifyFinished(ctx context.Context, result *game.Result) error {
	if c.webhookURL == "" {
		return ErrWebhookNotConfigured
	}
	fields := make([]embedField, 0, len(result.Entries))
	for _, e := range result.Entries {
		fields = append(fields, embedField{Name: game.Mention(e.ParticipantID), Value: e.Text})
	}
	msg := webhookMessage{Embeds: []embed{{Title: embedTitle, Fields: fields, Color: embedColor}}}

	if err := c.do(ctx, http.MethodPost, c.webhookURL, "", msg, nil); err != nil {
		return fmt.Errorf("post game result: %w", err)
	}
	c.logger.Info().Str("game_id", result.GameID).Msg("game result posted")
	return nil
}

// EditOriginalResponse replaces the content of a deferred interaction reply.
func (c *Client) EditOriginalResponse(ctx context.Context, applicationID, token, content string) error {
	if applicationID == "" || token == "" {
		return errors.New("application id and interaction token are required")
	}
	url := fmt.Sprintf("%s/webhooks/%s/%s/messages/@original", c.apiBase, applicationID, token)
	if err := c.do(ctx, http.MethodPatch, url, "", webhookMessage{Content: content}, nil); err != nil {
		return fmt.Errorf("edit original response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url, auth string, in, out any) error {
	var body io.Reader
	if in != nil {
		// Mentions like <@id> must reach the API verbatim.
		buf := &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(in); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, URL: redact(url), StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// redact drops the secret token segment of webhook urls from error text.
func redact(url string) string {
	i := strings.Index(url, "/webhooks/")
	if i < 0 {
		return url
	}
	parts := strings.SplitN(url[i+len("/webhooks/"):], "/", 3)
	if len(parts) < 2 {
		return url
	}
	rest := ""
	if len(parts) == 3 {
		rest = "/" + parts[2]
	}
	return url[:i] + "/webhooks/" + parts[0] + "/***" + rest
}
