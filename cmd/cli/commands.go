package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/keshon/headroom/internal/bot"
)

var markdown bool

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the commands the bot understands, in dispatch order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(nil, io.Discard)
		if err != nil {
			return err
		}
		defer e.Close()

		out := cmd.OutOrStdout()
		if !markdown {
			fmt.Fprintln(out, bot.HelpText(e.session.Commands()))
			return nil
		}
		fmt.Fprintln(out, "### Commands")
		fmt.Fprintln(out)
		for _, c := range e.session.Commands() {
			fmt.Fprintf(out, "* **`%s`**\n  %s\n\n", c.Pattern(), c.Description())
		}
		return nil
	},
}

func init() {
	commandsCmd.Flags().BoolVar(&markdown, "markdown", false, "print a README section instead of the help text")
	rootCmd.AddCommand(commandsCmd)
}
