// Package cmd provides the CLI commands for taskdeck.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "taskdeck - authenticated task tracking server",
	Long: `taskdeck is a task tracking server with token-based authentication.

It issues short-lived access tokens and rotating refresh tokens, and
enforces per-task authorization: users see their own tasks, admins see
everything, and only admins can delete.

Quick start:
  1. Create a config file: taskdeck config init
  2. Set a signing secret: export TASKDECK_AUTH_JWT_SECRET=<random string>
  3. Run: taskdeck serve

Configuration:
  Config is loaded from taskdeck.yaml in the current directory,
  $HOME/.taskdeck/, or /etc/taskdeck/.

  Environment variables can override config values with the TASKDECK_ prefix.
  Example: TASKDECK_SERVER_HTTP_ADDR=:9090

Commands:
  serve       Start the API server
  seed-admin  Create (or promote) an administrator account
  config      Configuration helpers
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./taskdeck.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
