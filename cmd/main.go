/*
Package main is the entry point of the livesync command.

The run command loads configuration, initializes the global logging system, restores or
establishes a session, keeps it synchronized through the push channel, optionally serves
the local inspection API and handles operating system interrupt signals (SIGINT, SIGTERM)
to close everything cleanly.
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "livesync",
	Short:         "Client-side sync layer for the chat service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "livesync", version)
	},
}

func init() {
	rootCmd.AddCommand(runCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}
