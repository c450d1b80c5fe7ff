package main

import (
	"fmt"

	"github.com/spf13/cobra"

	v "github.com/keshon/headroom/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", v.AppName, v.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
