package middleware

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/internal/storage"
	"github.com/keshon/headroom/pkg/cmd"
	"github.com/keshon/headroom/pkg/util"
)

// Recorder stores executed commands. *storage.Storage implements it.
type Recorder interface {
	AppendCommand(teamID string, rec storage.CommandRecord) error
}

// WithCommandLogger logs every command execution and, when rec is not nil,
// records it in the team's command history. Names of the channel, team and
// user are resolved through the session directory when one is available.
// The command's own error is returned unchanged.
func WithCommandLogger(rec Recorder) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return wrapBot(c, func(ctx context.Context, bc *bot.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			log := bc.Logger()
			level := zerolog.InfoLevel
			if err != nil {
				level = zerolog.WarnLevel
			}
			log.WithLevel(level).Err(err).
				Str("command", c.Name()).
				Dur("took", time.Since(start)).
				Msg("command executed")

			if rec == nil {
				return err
			}
			entry := storage.CommandRecord{
				ChannelID: bc.ChannelID(),
				UserID:    bc.UserID(),
				Command:   c.Name(),
				Text:      inv.Text,
				Datetime:  start.UTC(),
			}
			resolveNames(ctx, bc, &entry)
			if e := rec.AppendCommand(bc.TeamID(), entry); e != nil {
				log.Warn().Err(e).Str("command", c.Name()).Msg("failed to record command")
			}
			return err
		})
	}
}

// resolveNames fills in channel, team and user names. Lookups run
// concurrently, each writing its own field; failures leave the name empty.
func resolveNames(ctx context.Context, bc *bot.Context, entry *storage.CommandRecord) {
	if bc.Session().Directory() == nil {
		return
	}
	log := bc.Logger()

	lookups := []func(context.Context) error{
		func(ctx context.Context) error {
			ch, err := bc.Channel(ctx)
			if err == nil {
				entry.ChannelName = ch.Name
			}
			return err
		},
		func(ctx context.Context) error {
			u, err := bc.User(ctx)
			if err == nil {
				entry.Username = u.Name
			}
			return err
		},
	}
	if bc.TeamID() != "" {
		lookups = append(lookups, func(ctx context.Context) error {
			t, err := bc.Team(ctx)
			if err == nil {
				entry.TeamName = t.Name
			}
			return err
		})
	}

	_ = util.Parallel(ctx, lookups, len(lookups), func(ctx context.Context, lookup func(context.Context) error) error {
		if err := lookup(ctx); err != nil {
			log.Debug().Err(err).Msg("failed to resolve name")
		}
		return nil
	})
}
