// Command register-commands declares the bot's slash commands with the
// platform, replacing whatever set was registered before.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/same-say/same-say/internal/application/interaction"
	"github.com/same-say/same-say/internal/infrastructure/discord"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	appID   string
	token   string
	apiBase string
	guild   string
	prefix  string
	dryRun  bool
	timeout time.Duration
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	flagSet := pflag.NewFlagSet("register-commands", pflag.ContinueOnError)
	flagSet.StringVar(&opts.appID, "app-id", os.Getenv("DISCORD_APPLICATION_ID"), "application id (default $DISCORD_APPLICATION_ID)")
	flagSet.StringVar(&opts.token, "token", os.Getenv("DISCORD_TOKEN"), "bot token (default $DISCORD_TOKEN)")
	flagSet.StringVar(&opts.apiBase, "api-base", envOr("DISCORD_API_BASE", discord.DefaultAPIBase), "REST API base url")
	flagSet.StringVar(&opts.guild, "guild", "", "register for one guild instead of globally")
	flagSet.StringVar(&opts.prefix, "prefix", envOr("COMMAND_PREFIX", "lol-"), "prefix for echo and new-protect")
	flagSet.BoolVar(&opts.dryRun, "dry-run", false, "print the command payload and exit")
	flagSet.DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if !opts.dryRun && (opts.appID == "" || opts.token == "") {
		return nil, errors.New("--app-id and --token are required")
	}
	return opts, nil
}

func run(args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	names := interaction.DefaultCommands(opts.prefix)
	commands := discord.DefaultCommands(names.Echo, names.NewProtect, names.Submit)

	if opts.dryRun {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(commands)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	client := discord.NewClient(discord.Config{APIBase: opts.apiBase, BotToken: opts.token, Timeout: opts.timeout}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()
	registered, err := client.RegisterCommands(ctx, opts.appID, opts.guild, commands)
	if err != nil {
		return err
	}
	for _, c := range registered {
		fmt.Fprintf(out, "%s\t%s\n", c.ID, c.Name)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
