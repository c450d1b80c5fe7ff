// Package app wires configuration, storage, transports and commands into a
// bot session. Both binaries build their sessions here.
package app

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/internal/commands"
	"github.com/keshon/headroom/internal/config"
	"github.com/keshon/headroom/internal/middleware"
	"github.com/keshon/headroom/internal/storage"
	"github.com/keshon/headroom/internal/transport/console"
	"github.com/keshon/headroom/internal/transport/discord"
	"github.com/keshon/headroom/internal/transport/slack"
	"github.com/keshon/headroom/pkg/cmd"
)

// cooldownBurst is how many commands a user may send back to back.
const cooldownBurst = 3

// Transport is what every chat backend provides.
type Transport interface {
	bot.Poster
	bot.Listener
}

// Middleware returns the wrappers applied to every command. The cooldown runs
// first so dropped commands are not recorded.
func Middleware(cfg *config.Config, store *storage.Storage) []cmd.Middleware {
	var rec middleware.Recorder
	if store != nil {
		rec = store
	}
	mws := []cmd.Middleware{
		middleware.Only(middleware.WithTeamOnly(), "history", "history-clear"),
		middleware.WithCommandLogger(rec),
	}
	if cfg.Cooldown > 0 {
		mws = append(mws, middleware.NewCooldown(cfg.Cooldown, cooldownBurst).Middleware())
	}
	return mws
}

// NewTransport builds the transport selected in cfg. in and out are only used
// by the console transport.
func NewTransport(cfg *config.Config, logger zerolog.Logger, in io.Reader, out io.Writer) (Transport, error) {
	switch cfg.Transport {
	case config.TransportSlack:
		tr, err := slack.New(slack.Options{
			BotToken:  cfg.SlackBotToken,
			AppToken:  cfg.SlackAppToken,
			Logger:    logger,
			PostRate:  cfg.PostRate,
			PostBurst: cfg.PostBurst,
		})
		if err != nil {
			return nil, err
		}
		return tr, nil
	case config.TransportDiscord:
		tr, err := discord.New(discord.Options{
			Token:     cfg.DiscordToken,
			Logger:    logger,
			PostRate:  cfg.PostRate,
			PostBurst: cfg.PostBurst,
		})
		if err != nil {
			return nil, err
		}
		return tr, nil
	case config.TransportConsole:
		return console.New(in, out, console.Options{BotName: cfg.BotName}), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// NewSession builds a session with the built-in commands. store may be nil,
// in which case history is neither recorded nor offered.
func NewSession(cfg *config.Config, logger zerolog.Logger, store *storage.Storage, tr Transport) (*bot.Session, error) {
	return bot.New(bot.Options{
		Name:       cfg.BotName,
		Logger:     logger,
		Poster:     tr,
		Listener:   tr,
		Commands:   commands.All(commands.Deps{Storage: store}),
		Middleware: Middleware(cfg, store),
	})
}
