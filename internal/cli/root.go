package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "portalctl",
		Short: "CLI tool for the community portal",
		Long: `portalctl is a CLI tool for the community portal's JSON API.

It signs in and out, checks route access, reads public content and the
member profile, and streams session changes in real time. The session
lives on the server under a client id, which is kept in a file between runs.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load client id from file if not provided via flag/env
			if err := cfg.LoadClientID(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL, cfg.ClientID, cfg.SaveClientID)
			client.verbose = cfg.Verbose
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: PORTAL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "Client id (env: PORTAL_CLIENT_ID)")
	rootCmd.PersistentFlags().StringVar(&cfg.ClientFile, "client-file", cfg.ClientFile, "Client id file path (env: PORTAL_CLIENT_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newAccessCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newContentCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
