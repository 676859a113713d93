package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rwm/internal/core"
	"rwm/internal/storage/config"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// ErrCancelled is returned when the user backs out of a prompt.
// When returned from a command, Execute exits with code 2.
var ErrCancelled = errors.New("cancelled")

var (
	version = "0.3.0"

	// Global flags
	configDir string
	verbose   bool
	debug     bool
	noHooks   bool
	noColor   bool

	logger = newLogger()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rwm",
	Short: "RimWorld mod manager - install Steam Workshop mods with steamcmd",
	Long: `rwm installs RimWorld mods from the Steam Workshop without the Steam client.

Mods are found by name or workshop ID, downloaded with an anonymous steamcmd
session, linked into the game's Mods directory and their declared
dependencies installed after them.

Run 'rwm setup' once to download steamcmd and locate the game.`,
	Version:       version,
	SilenceUsage:  true, // Runtime errors should not print usage
	SilenceErrors: true, // We handle error output in Execute()
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: $XDG_CONFIG_HOME/rwm or ~/.config/rwm)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "show progress information")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "show everything, including steamcmd attempts")
	rootCmd.PersistentFlags().BoolVar(&noHooks, "no-hooks", false, "disable install hooks")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func newLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "rwm",
		Level:  log.WarnLevel,
	})
}

func configureLogger() {
	switch {
	case debug:
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	case verbose:
		logger.SetLevel(log.InfoLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}
}

// colorEnabled returns true if colored output should be used (respects --no-color and NO_COLOR env).
func colorEnabled() bool {
	if noColor {
		return false
	}
	return os.Getenv("NO_COLOR") == ""
}

// Execute runs the root command. Exit codes: 0 = success, 1 = error, 2 = user cancelled.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveConfigDir applies --config and the environment fallbacks
func resolveConfigDir() (string, error) {
	return config.ResolveDir(configDir, os.Getenv)
}

// initService creates and initializes the core service
func initService() (*core.Service, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}

	return core.NewService(core.ServiceConfig{
		ConfigDir: dir,
		Logger:    logger,
	})
}
