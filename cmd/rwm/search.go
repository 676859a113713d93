package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"rwm/internal/core"
	"rwm/internal/domain"
	"rwm/internal/source"

	"github.com/spf13/cobra"
)

var (
	searchFilter  filterFlags
	searchDisplay displayFlags
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the Steam Workshop or installed mods",
	Long: `Search the Steam Workshop or the mods installed in the game.

The field switches (--name, --author, --steam-id, --description, --all) narrow
the results to mods whose chosen fields fuzzy-match the query.

Examples:
  rwm search steam "Combat Extended"
  rwm search steam pardeike --author
  rwm search local hugs`,
	Aliases: []string{"s"},
}

var searchSteamCmd = &cobra.Command{
	Use:     "steam <query>...",
	Short:   "Search the Steam Workshop",
	Aliases: []string{"workshop", "remote"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, args, false)
	},
}

var searchLocalCmd = &cobra.Command{
	Use:     "local [query]...",
	Short:   "Search installed mods",
	Aliases: []string{"installed"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, args, true)
	},
}

func init() {
	searchFilter.register(searchCmd.PersistentFlags(), false)
	searchDisplay.register(searchCmd.PersistentFlags())

	searchCmd.AddCommand(searchSteamCmd, searchLocalCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string, installed bool) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	svc, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer svc.Close()

	var catalog source.Catalog
	if installed {
		local, err := svc.LocalMods()
		if err != nil {
			return err
		}
		catalog = local
	} else {
		catalog = svc.Workshop()
	}

	mods, width, err := searchCatalog(ctx, catalog, query, searchFilter.fields(), installed)
	if err != nil {
		return err
	}
	if len(mods) == 0 {
		fmt.Printf("No mods match %q\n", query)
		return nil
	}

	var buf bytes.Buffer
	writeCandidates(&buf, mods, width, searchDisplay.large)
	return show(ctx, &buf, searchDisplay.usePager(svc.Config().UsePager), svc.Config().Pager)
}

// searchCatalog runs query against catalog. With fields selected, results
// are narrowed to those whose fields fuzzy-match query. listAll asks the
// catalog for everything first, for catalogs that can list their contents.
func searchCatalog(ctx context.Context, catalog source.Catalog, query string, fields domain.Field, listAll bool) ([]domain.Candidate, int, error) {
	text := query
	if listAll && fields != 0 {
		text = ""
	}
	results, err := catalog.Search(ctx, text)
	if err != nil {
		return nil, 0, err
	}
	if fields == 0 || query == "" {
		return results, titleWidth(results), nil
	}
	filtered := core.Filter(results, domain.FilterSpec{Fields: fields, Enabled: true}, query)
	return filtered.Records, filtered.TitleWidth, nil
}
