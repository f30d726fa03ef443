// Command boardview serves a read-only dashboard over a single board and
// exports point-in-time reports of it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"boardview/internal/cli"
	"boardview/internal/config"
	"boardview/internal/log"
)

var (
	envFile  string
	logLevel string

	logger *log.Logger
	cfg    *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "boardview",
	Short: "Read-only dashboard for a project board",
	Long: `boardview fetches labels, cards, lists and members from a board on
every request and renders filtered views of them: in progress, backlog,
done, upcoming, per label, per member, monthly highlights and event
attendance.

Configuration comes from the environment (optionally a .env file).`,
	SilenceUsage: true,
}

// setup loads the env file, logger and validated configuration for a
// subcommand.
func setup() error {
	if err := cli.LoadEnvFile(envFile); err != nil {
		return err
	}
	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	logger = cli.SetupLogger(level)

	c, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Env file to load (default: ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: LOG_LEVEL or info)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
