package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/keshon/headroom/internal/bot"
	"github.com/keshon/headroom/internal/version"
	"github.com/keshon/headroom/pkg/cmd"
)

func Uptime() cmd.Command {
	return bot.MustCommand("uptime", "uptime", "Shows how long the bot has been running.",
		bot.HandlerFunc(func(ctx context.Context, c *bot.Context) error {
			s := c.Session()
			return c.Reply(ctx, uptimeText(s.Name(), s.StartedAt(), time.Now())+"\n"+s.JobStatus())
		}))
}

func uptimeText(name string, started, now time.Time) string {
	up := now.Sub(started).Truncate(time.Second)
	return fmt.Sprintf("%s (%s %s) has been up for %s, since %s.",
		name, version.AppName, version.Version, up, started.UTC().Format(time.RFC1123))
}
