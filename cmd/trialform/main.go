package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trialform",
		Short: "Free trial signup form",
		Long: `trialform serves the free trial signup form.

The form asks for first name, last name, email address and password,
validates each field, and shows a success message for a few seconds
after an accepted submission before clearing itself.

Configuration is read from an optional YAML file and TRIALFORM_*
environment variables (a .env file in the working directory is loaded
first).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		promptCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trialform %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
