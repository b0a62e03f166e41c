package discord

import (
	"context"
	"fmt"
	"net/http"
)

// Option types used by the registered commands.
const (
	OptionTypeString = 3

	CommandTypeChatInput = 1
)

// CommandOption is one declared command argument.
type CommandOption struct {
	Type        int    `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required,omitempty"`
}

// Command is a slash command declaration.
type Command struct {
	ID          string          `json:"id,omitempty"`
	Type        int             `json:"type,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []CommandOption `json:"options,omitempty"`
}

// DefaultCommands declares the commands this service answers. Names must
// match the router's command set.
func DefaultCommands(echo, newProtect, submit string) []Command {
	return []Command{
		{
			Type:        CommandTypeChatInput,
			Name:        echo,
			Description: "Echo back the given text",
			Options: []CommandOption{
				{Type: OptionTypeString, Name: "text", Description: "Text to echo", Required: true},
			},
		},
		{
			Type:        CommandTypeChatInput,
			Name:        newProtect,
			Description: "Start a new protect match",
		},
		{
			Type:        CommandTypeChatInput,
			Name:        submit,
			Description: "Submit your statement for the simultaneous statement game",
			Options: []CommandOption{
				{Type: OptionTypeString, Name: "message", Description: "Your statement", Required: true},
			},
		},
	}
}

// RegisterCommands replaces the application's command set. An empty
// guildID registers global commands.
func (c *Client) RegisterCommands(ctx context.Context, applicationID, guildID string, commands []Command) ([]Command, error) {
	if c.botToken == "" {
		return nil, fmt.Errorf("bot token is required to register commands")
	}
	url := fmt.Sprintf("%s/applications/%s/commands", c.apiBase, applicationID)
	if guildID != "" {
		url = fmt.Sprintf("%s/applications/%s/guilds/%s/commands", c.apiBase, applicationID, guildID)
	}

	var registered []Command
	if err := c.do(ctx, http.MethodPut, url, "Bot "+c.botToken, commands, &registered); err != nil {
		return nil, fmt.Errorf("register commands: %w", err)
	}
	c.logger.Info().Str("application_id", applicationID).Str("guild_id", guildID).Int("count", len(registered)).Msg("commands registered")
	return registered, nil
}
