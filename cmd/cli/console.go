package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the bot on the terminal",
	Long:  "Reads one message per line from stdin until EOF or Ctrl-C and prints the bot's replies.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return e.session.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
