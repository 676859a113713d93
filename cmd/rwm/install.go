package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"rwm/internal/core"
	"rwm/internal/domain"

	"github.com/spf13/cobra"
)

var (
	installFilter   filterFlags
	installResolve  bool
	installYes      bool
	installNoDeploy bool
	installSkip     bool
)

var installCmd = &cobra.Command{
	Use:   "install <mod>...",
	Short: "Install mods from the Steam Workshop",
	Long: `Install one or more mods by workshop ID, workshop URL or name.

Names are looked up on the Steam Workshop. When a name matches several mods,
you are asked to pick one; use --filter to narrow the matches, or --yes to
take the first. --filter matches the mod name against the fields picked with
--name, --author, --steam-id, --description or --all (title by default);
--query matches other text instead. With --resolve, the dependencies each mod
declares in its About.xml are installed after it.

Examples:
  rwm install 818773962
  rwm install HugsLib -r
  rwm install "Combat Extended" -f -a
  rwm install Harmony --query pardeike --author`,
	Aliases: []string{"i", "add"},
	Args:    cobra.MinimumNArgs(1),
	PreRunE: validateInstallFlags,
	RunE:    runInstall,
}

func init() {
	installFilter.register(installCmd.Flags(), true)
	installCmd.Flags().BoolVarP(&installResolve, "resolve", "r", false, "also install declared dependencies")
	installCmd.Flags().BoolVar(&installResolve, "resolve-dependencies", false, "alias for --resolve")
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "take the first match instead of asking")
	installCmd.Flags().BoolVar(&installNoDeploy, "no-deploy", false, "download only, don't link into the game's Mods directory")
	installCmd.Flags().BoolVar(&installSkip, "skip-installed", false, "don't reinstall mods already in the Mods directory")
	_ = installCmd.Flags().MarkHidden("resolve-dependencies")

	rootCmd.AddCommand(installCmd)
}

func validateInstallFlags(cmd *cobra.Command, args []string) error {
	return installFilter.validate()
}

func runInstall(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	req := domain.NewInstallRequest(args, installResolve)
	req.Filter = installFilter.spec()

	if installSkip {
		local, err := svc.LocalMods()
		if err != nil {
			return err
		}
		mods, err := local.Scan(cmd.Context())
		if err != nil {
			return fmt.Errorf("scanning installed mods: %w", err)
		}
		req.Visited = installedIDs(mods)
	}

	return installMods(cmd.Context(), svc, req, installYes, installNoDeploy)
}

// installMods runs an install request with hooks and prints each outcome as
// it completes. It fails when any mod failed.
func installMods(ctx context.Context, svc *core.Service, req *domain.InstallRequest, yes, noDeploy bool) error {
	if err := requireSteamCmd(svc); err != nil {
		return err
	}

	deploy := !noDeploy
	if deploy && svc.Config().GamePath == "" {
		logger.Warn("game path not configured, mods stay in the workshop cache", "hint", "rwm config set game_path <dir>")
		deploy = false
	}

	out := io.Writer(os.Stdout)
	hooks := svc.InstallHooks(!noHooks)

	installer, err := svc.Installer(core.InstallOptions{
		Chooser: chooser(yes),
		OnRetry: func(attempt int, reason string) {
			logger.Debug("retrying steamcmd", "attempt", attempt, "reason", reason)
		},
		OnOutcome: func(o domain.InstallOutcome) {
			printOutcome(out, o)
			hooks.AfterEach(ctx, o)
		},
		Deploy: deploy,
	})
	if err != nil {
		return err
	}

	hooks.BeforeAll(ctx)
	outcomes, err := installer.Install(ctx, req)
	hooks.AfterAll(ctx)
	if err != nil {
		return fmt.Errorf("installing mods: %w", err)
	}

	return summarize(out, outcomes)
}
