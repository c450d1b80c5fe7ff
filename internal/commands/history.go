package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/internal/storage"
	"github.com/keshon/headroom/pkg/cmd"
	"github.com/keshon/headroom/pkg/util"
)

// History lists the commands recorded for the current team, newest first.
func History(store *storage.Storage) cmd.Command {
	return bot.MustCommand("history", "history", "Lists the most recent commands run in this team.",
		bot.HandlerFunc(func(ctx context.Context, c *bot.Context) error {
			records, err := store.CommandHistory(c.TeamID())
			if err != nil {
				return fmt.Errorf("fetch history: %w", err)
			}
			return c.Reply(ctx, formatHistory(records))
		}))
}

// ClearHistory forgets the commands recorded for the current team.
func ClearHistory(store *storage.Storage) cmd.Command {
	return bot.MustCommand("history-clear", "history clear", "Forgets the commands recorded in this team.",
		bot.HandlerFunc(func(ctx context.Context, c *bot.Context) error {
			if err := store.ClearHistory(c.TeamID()); err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			return c.Reply(ctx, "History cleared.")
		}))
}

func formatHistory(records []storage.CommandRecord) string {
	if len(records) == 0 {
		return "No commands recorded yet."
	}
	var sb strings.Builder
	sb.WriteString("Recent commands:")
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		who := r.Username
		if who == "" {
			who = r.UserID
		}
		where := r.ChannelName
		if where == "" {
			where = r.ChannelID
		}
		fmt.Fprintf(&sb, "\n%s `%s` by %s in %s", util.FormatTime(r.Datetime.UTC(), "YYYY-MM-DD hh:mm:ss"), r.Text, who, where)
	}
	return sb.String()
}
