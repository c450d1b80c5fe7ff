// Package middleware holds command wrappers shared by every transport.
package middleware

import (
	"context"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/pkg/cmd"
)

// wrapBot wraps c so that run receives the bot context. Invocations without
// a bot context go straight to c.
func wrapBot(c cmd.Command, run func(ctx context.Context, bc *bot.Context, inv *cmd.Invocation) error) cmd.Command {
	return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
		bc, ok := bot.ContextOf(inv)
		if !ok {
			return c.Run(ctx, inv)
		}
		return run(ctx, bc, inv)
	})
}

// WithTeamOnly skips the command for messages that carry no team id
// (direct messages on some transports).
func WithTeamOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return wrapBot(c, func(ctx context.Context, bc *bot.Context, inv *cmd.Invocation) error {
			if bc.TeamID() == "" {
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}

// Only applies mw to the commands named in names and leaves the rest as is.
func Only(mw cmd.Middleware, names ...string) cmd.Middleware {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(c cmd.Command) cmd.Command {
		if !set[c.Name()] {
			return c
		}
		return mw(c)
	}
}
