package main

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"rwm/internal/core"
	"rwm/internal/domain"

	"github.com/spf13/cobra"
)

var (
	listDisplay displayFlags
	listOrder   bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed mods",
	Long: `List the mods in the game's Mods directory.

With --order, mods are listed so every mod comes after the mods it depends
on, and dependencies that aren't installed are reported.

Examples:
  rwm list
  rwm list --large --pager
  rwm list --order`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listDisplay.register(listCmd.Flags())
	listCmd.Flags().BoolVar(&listOrder, "order", false, "sort by load order and report missing dependencies")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	local, err := svc.LocalMods()
	if err != nil {
		return err
	}
	mods, err := local.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning installed mods: %w", err)
	}
	if len(mods) == 0 {
		fmt.Printf("No mods installed in %s\n", local.Dir())
		return nil
	}

	var buf bytes.Buffer
	if listOrder {
		order, err := core.SortLoadOrder(mods)
		if err != nil {
			return err
		}
		mods = order.Mods
		writeCandidates(&buf, mods, titleWidth(mods), listDisplay.large)
		writeMissing(&buf, order.Missing)
	} else {
		writeCandidates(&buf, mods, titleWidth(mods), listDisplay.large)
	}
	fmt.Fprintf(&buf, "\n%d mods\n", len(mods))

	return show(ctx, &buf, listDisplay.usePager(svc.Config().UsePager), svc.Config().Pager)
}

// writeMissing reports declared dependencies that aren't installed
func writeMissing(w io.Writer, missing map[string][]string) {
	if len(missing) == 0 {
		return
	}
	titles := make([]string, 0, len(missing))
	for title := range missing {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	fmt.Fprintln(w, "\nMissing dependencies:")
	for _, title := range titles {
		fmt.Fprintf(w, "  %s %s needs %s\n", paint(failStyle, "!"), title, strings.Join(missing[title], ", "))
	}
}

// installedIDs returns the workshop IDs among mods
func installedIDs(mods []domain.Candidate) domain.VisitedSet {
	ids := make(domain.VisitedSet, len(mods))
	for _, m := range mods {
		if m.ID != 0 {
			ids.Add(m.ID)
		}
	}
	return ids
}
