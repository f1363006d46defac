package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/seuss/internal/seuss/app"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seuss",
		Short: "Redfish session service",
		Long: `Seuss serves the Redfish service root and SessionService, authenticating
requests with HTTP Basic credentials or X-Auth-Token sessions.

Configuration is read from SEUSS_* environment variables.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(createAccountCmd())
	rootCmd.AddCommand(setPasswordCmd())
	rootCmd.AddCommand(hashPasswordCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(app.LoadConfig())
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}
}
