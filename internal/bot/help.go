package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/headroom/pkg/cmd"
)

const helpHeader = "Here's a list of available commands:"

// Help returns the built-in help command. It is always registered first.
func Help() cmd.Command {
	return MustCommand("help", "help",
		"Returns instructions about what commands are available.",
		HandlerFunc(func(ctx context.Context, c *Context) error {
			return c.Say(ctx, Message{Text: HelpText(c.Session().Commands())})
		}))
}

// HelpText renders one line per command in the given order.
func HelpText(cmds []cmd.Command) string {
	lines := make([]string, 0, len(cmds))
	for _, c := range cmds {
		p := ""
		if c.Pattern() != nil {
			p = c.Pattern().String()
		}
		lines = append(lines, fmt.Sprintf("`%s`: %s", p, c.Description()))
	}
	return helpHeader + "\n\n" + strings.Join(lines, "\n")
}
