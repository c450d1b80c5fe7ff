package commands

import (
	"context"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/pkg/cmd"
)

// Echo repeats a single word back, in the thread it came from.
func Echo() cmd.Command {
	return bot.MustCommand("echo", "echo :word", "Repeats a word back to you.",
		bot.HandlerFunc(func(ctx context.Context, c *bot.Context) error {
			return c.Say(ctx, bot.Message{
				Text:     c.Param("word"),
				ThreadTS: c.Event().ThreadTimestamp,
			})
		}))
}
