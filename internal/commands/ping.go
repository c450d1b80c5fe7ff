package commands

import (
	"context"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/pkg/cmd"
)

func Ping() cmd.Command {
	return bot.MustCommand("ping", "ping", "Checks whether the bot is alive.",
		bot.HandlerFunc(func(ctx context.Context, c *bot.Context) error {
			return c.Reply(ctx, "🏓 Pong!")
		}))
}
