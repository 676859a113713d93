package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cleanDownloads bool
	cleanDryRun    bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired search results and unused downloads",
	Long: `Remove cached workshop searches older than catalog.cache_ttl.

With --downloads, items steamcmd downloaded that were never linked into the
game (for example with install --no-deploy) are deleted too.

Examples:
  rwm clean
  rwm clean --downloads --dry-run`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVar(&cleanDownloads, "downloads", false, "also delete downloads that aren't deployed")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "show what would be deleted")

	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	report, err := svc.Clean(cleanDownloads, cleanDryRun)
	if err != nil {
		return err
	}

	verb := "Removed"
	if cleanDryRun {
		verb = "Would remove"
	} else {
		fmt.Printf("Removed %d expired searches\n", report.Searches)
	}
	for _, id := range report.Downloads {
		fmt.Printf("  %s %d\n", verb, id)
	}
	if cleanDownloads {
		fmt.Printf("%s %d downloads\n", verb, len(report.Downloads))
	}
	return nil
}
