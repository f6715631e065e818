// File: cmd/app/main.go
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	dev        bool
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "everyone-bot",
		Short:         "Telegram bot that mentions every member of a group",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to YAML config file (optional)")
	cmd.PersistentFlags().BoolVar(&opts.dev, "dev", false, "developer mode: console logs, unredacted secrets")
	cmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "log outgoing messages instead of sending them")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
}
