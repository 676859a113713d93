package main

import (
	"fmt"
	"strings"

	"rwm/internal/domain"

	"github.com/spf13/cobra"
)

var (
	pullResolve bool
	pullYes     bool
)

var pullCmd = &cobra.Command{
	Use:   "pull [ignored-mod]...",
	Short: "Reinstall every installed workshop mod",
	Long: `Download the latest version of every installed workshop mod.

Mods named on the command line, by workshop ID or title, are left alone.
Mods without a workshop ID (local or DLC folders) are always skipped.

Examples:
  rwm pull
  rwm pull -r
  rwm pull "Combat Extended" 2009463077`,
	Aliases: []string{"update", "upgrade"},
	RunE:    runPull,
}

func init() {
	pullCmd.Flags().BoolVarP(&pullResolve, "resolve", "r", false, "also install missing dependencies")
	pullCmd.Flags().BoolVarP(&pullYes, "yes", "y", false, "take the first match instead of asking")

	rootCmd.AddCommand(pullCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	mods, err := svc.LocalMods()
	if err != nil {
		return err
	}
	installed, err := mods.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning installed mods: %w", err)
	}

	ids := pullTargets(installed, args)
	if len(ids) == 0 {
		fmt.Println("Nothing to update")
		return nil
	}
	logger.Info("updating mods", "count", len(ids), "ignored", len(args))

	return installMods(ctx, svc, domain.NewInstallRequest(ids, pullResolve), pullYes, false)
}

// pullTargets returns the workshop IDs of installed mods not named in ignored
func pullTargets(installed []domain.Candidate, ignored []string) []string {
	skip := make(map[string]bool, len(ignored))
	for _, name := range ignored {
		skip[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var ids []string
	for _, m := range installed {
		if m.ID == 0 {
			continue
		}
		if skip[m.IDString()] || skip[strings.ToLower(m.Title)] {
			continue
		}
		ids = append(ids, m.IDString())
	}
	return ids
}
