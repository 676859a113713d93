package main

import (
	"fmt"
	"path/filepath"

	"rwm/internal/core"
	"rwm/internal/domain"

	"github.com/spf13/cobra"
)

var (
	setupForce      bool
	setupSkipUpdate bool
	setupGamePath   string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Download steamcmd and locate the game",
	Long: `Download a private copy of steamcmd into the config directory, let it
update itself, and record where RimWorld is installed.

The game is looked up in the Steam libraries and the usual install
locations unless --game-path is given.

Examples:
  rwm setup
  rwm setup --game-path ~/Games/RimWorld
  rwm setup --force`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVar(&setupForce, "force", false, "download steamcmd even if it is already installed")
	setupCmd.Flags().BoolVar(&setupSkipUpdate, "skip-update", false, "don't run steamcmd's self-update")
	setupCmd.Flags().StringVar(&setupGamePath, "game-path", "", "RimWorld install directory")

	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	fmt.Println("Installing steamcmd...")
	script, err := svc.Bootstrapper().Install(ctx, filepath.Dir(svc.SteamCmdPath()), setupForce, func(p core.BundleProgress) {
		if p.Total > 0 {
			fmt.Printf("\r  Downloading: %.1f%%", p.Percent())
		}
	})
	fmt.Println()
	if err != nil {
		return fmt.Errorf("installing steamcmd: %w", err)
	}
	fmt.Printf("%s steamcmd at %s\n", paint(okStyle, "✓"), script)

	if !setupSkipUpdate {
		fmt.Println("Updating steamcmd...")
		result, err := svc.SteamCmd(nil).Execute(ctx, "", svc.Config().Download.AdminAttempts)
		if err != nil {
			return fmt.Errorf("running steamcmd: %w", err)
		}
		if result.Status != domain.ExecSuccess {
			return fmt.Errorf("steamcmd did not start a session after %d attempts: %s", result.Attempts, result.Output)
		}
		fmt.Printf("%s steamcmd is up to date\n", paint(okStyle, "✓"))
	}

	gamePath := setupGamePath
	if gamePath == "" {
		gamePath = svc.Config().GamePath
	}
	if gamePath == "" {
		logger.Warn("RimWorld not found", "hint", "rwm setup --game-path <dir>")
		return svc.SaveConfig()
	}

	if err := svc.SetConfig("game_path", gamePath); err != nil {
		return err
	}
	if err := svc.SaveConfig(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("%s game at %s\n", paint(okStyle, "✓"), svc.Config().GamePath)
	return nil
}
