package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	pkgcmd "github.com/keshon/headroom/pkg/cmd"
	"github.com/keshon/headroom/pkg/pattern"
)

var matchCommand string

var matchCmd = &cobra.Command{
	Use:   "match <text>",
	Short: "Show which command a message would trigger, without running it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(nil, io.Discard)
		if err != nil {
			return err
		}
		defer e.Close()

		text := strings.Join(args, " ")
		out := cmd.OutOrStdout()

		var (
			c      pkgcmd.Command
			params pattern.Params
			ok     bool
		)
		if matchCommand != "" {
			c = e.session.Registry().Get(matchCommand)
			if c == nil {
				return fmt.Errorf("unknown command %q", matchCommand)
			}
			if p := c.Pattern(); p != nil {
				params, ok = p.Match(text)
			}
		} else {
			c, params, ok = e.session.Registry().Match(text)
		}
		if !ok {
			fmt.Fprintf(out, "no command matches %q\n", text)
			return nil
		}

		fmt.Fprintf(out, "%s (%s)\n", c.Name(), c.Pattern())
		for _, k := range paramOrder(c.Pattern(), params) {
			fmt.Fprintf(out, "  %s = %q\n", k, params[k])
		}
		return nil
	},
}

// paramOrder lists params in placeholder order for path patterns and
// alphabetically otherwise.
func paramOrder(p pattern.Pattern, params pattern.Params) []string {
	if path, ok := p.(*pattern.Path); ok {
		return path.Names()
	}
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func init() {
	matchCmd.Flags().StringVarP(&matchCommand, "command", "c", "", "only try the named command")
	rootCmd.AddCommand(matchCmd)
}
