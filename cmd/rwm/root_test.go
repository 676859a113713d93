package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"rwm/internal/domain"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCommand(t *testing.T, path ...string) *cobra.Command {
	t.Helper()
	cmd, _, err := rootCmd.Find(path)
	require.NoError(t, err)
	return cmd
}

func TestRootCmd_Subcommands(t *testing.T) {
	for _, path := range [][]string{
		{"install"}, {"pull"}, {"list"}, {"setup"}, {"set"}, {"clean"},
		{"search", "steam"}, {"search", "local"},
		{"config", "show"}, {"config", "get"}, {"config", "set"},
	} {
		cmd := findCommand(t, path...)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestRootCmd_Aliases(t *testing.T) {
	assert.Equal(t, "install", findCommand(t, "i").Name())
	assert.Equal(t, "pull", findCommand(t, "update").Name())
	assert.Equal(t, "list", findCommand(t, "ls").Name())
}

func parseFilterFlags(t *testing.T, args ...string) (filterFlags, []string) {
	t.Helper()
	var f filterFlags
	fs := pflag.NewFlagSet("install", pflag.ContinueOnError)
	f.register(fs, true)
	require.NoError(t, fs.Parse(args))
	return f, fs.Args()
}

func TestInstallCmd_FilterFlagsRegistered(t *testing.T) {
	for _, name := range []string{"filter", "query", "author", "name", "steam-id", "description", "all", "resolve", "yes", "no-deploy", "skip-installed"} {
		assert.NotNil(t, installCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "f", installCmd.Flags().Lookup("filter").Shorthand)
	assert.Equal(t, "q", installCmd.Flags().Lookup("query").Shorthand)
}

func TestFilterFlags_QueryDoesNotSwallowMods(t *testing.T) {
	f, args := parseFilterFlags(t, "Harmony", "--query", "pardeike", "--author")
	assert.Equal(t, []string{"Harmony"}, args)
	require.NoError(t, f.validate())

	spec := f.spec()
	assert.True(t, spec.Enabled)
	assert.Equal(t, "pardeike", spec.Query)
	assert.Equal(t, domain.FieldAuthor, spec.Fields)
}

func TestFilterFlags_BareFilterUsesModName(t *testing.T) {
	f, args := parseFilterFlags(t, "-f", "Combat Extended", "-a", "-s")
	assert.Equal(t, []string{"Combat Extended"}, args)
	require.NoError(t, f.validate())

	spec := f.spec()
	assert.True(t, spec.Enabled)
	assert.Empty(t, spec.Query, "the identifier is the query")
	assert.Equal(t, domain.FieldAuthor|domain.FieldID, spec.Fields)
}

func TestFilterFlags_FieldsRequireFilter(t *testing.T) {
	f, args := parseFilterFlags(t, "Harmony", "--author")
	assert.Equal(t, []string{"Harmony"}, args)
	assert.Error(t, f.validate())

	f, _ = parseFilterFlags(t, "Harmony")
	require.NoError(t, f.validate())
	assert.False(t, f.spec().Enabled)
	assert.Equal(t, domain.FieldTitle, f.spec().Effective())
}

func TestFilterFlags_All(t *testing.T) {
	f, _ := parseFilterFlags(t, "Harmony", "-f", "--all")
	assert.Equal(t, domain.FieldAll, f.spec().Effective())
}

func TestDisplayFlags_UsePager(t *testing.T) {
	assert.False(t, (&displayFlags{}).usePager(false))
	assert.True(t, (&displayFlags{}).usePager(true))
	assert.True(t, (&displayFlags{pager: true}).usePager(false))
	assert.False(t, (&displayFlags{noPager: true}).usePager(true))
}

func TestPullTargets(t *testing.T) {
	installed := []domain.Candidate{
		{ID: 2009463077, Title: "Harmony"},
		{ID: 818773962, Title: "HugsLib"},
		{Title: "Local Tweaks"},
		{ID: 1631756268, Title: "Combat Extended"},
	}

	assert.Equal(t, []string{"2009463077", "818773962", "1631756268"}, pullTargets(installed, nil))
	assert.Equal(t, []string{"2009463077"}, pullTargets(installed, []string{"hugslib", "1631756268"}))
}

func TestInstalledIDs(t *testing.T) {
	ids := installedIDs([]domain.Candidate{{ID: 5, Title: "Five"}, {Title: "No ID"}})
	assert.True(t, ids.Has(5))
	assert.Len(t, ids, 1)
}

func TestWriteCandidates(t *testing.T) {
	noColor = true
	t.Cleanup(func() { noColor = false })

	mods := []domain.Candidate{
		{ID: 818773962, Title: "HugsLib", Author: "UnlimitedHugs", Description: "Library\nfor mods"},
		{Title: "Tweaks", Author: "me"},
	}

	var buf bytes.Buffer
	writeCandidates(&buf, mods, titleWidth(mods), false)
	assert.Equal(t, "   818773962  HugsLib  UnlimitedHugs\n           -  Tweaks   me\n", buf.String())

	buf.Reset()
	writeCandidates(&buf, mods[:1], 7, true)
	assert.Contains(t, buf.String(), "              Library\n              for mods\n")
}

func TestPrintOutcome(t *testing.T) {
	noColor = true
	t.Cleanup(func() { noColor = false })

	var buf bytes.Buffer
	printOutcome(&buf, domain.InstallOutcome{Identifier: "HugsLib", ID: 818773962, Title: "HugsLib", Succeeded: true})
	printOutcome(&buf, domain.InstallOutcome{Identifier: "Nope", Depth: 1, Err: domain.ErrNoCandidates})
	assert.Equal(t, "✓ HugsLib (818773962)\n  ✗ Nope: no matching mods found\n", buf.String())
}

func TestSummarize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, summarize(&buf, []domain.InstallOutcome{{Succeeded: true}}))
	assert.Contains(t, buf.String(), "Installed 1 of 1 mods")

	buf.Reset()
	err := summarize(&buf, []domain.InstallOutcome{{Succeeded: true}, {}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 mods failed")
}

func TestWriteMissing(t *testing.T) {
	noColor = true
	t.Cleanup(func() { noColor = false })

	var buf bytes.Buffer
	writeMissing(&buf, nil)
	assert.Empty(t, buf.String())

	writeMissing(&buf, map[string][]string{"Vanilla Expanded": {"Royalty", "Ideology"}, "A Mod": {"Biotech"}})
	assert.Equal(t, "\nMissing dependencies:\n  ! A Mod needs Biotech\n  ! Vanilla Expanded needs Royalty, Ideology\n", buf.String())
}

func TestFirstChooser(t *testing.T) {
	c, err := firstChooser{}.Choose(context.Background(), "harmony", []domain.Candidate{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), c.ID)

	_, err = firstChooser{}.Choose(context.Background(), "harmony", nil)
	assert.ErrorIs(t, err, domain.ErrNoCandidates)
}

type stubCatalog struct {
	results []domain.Candidate
	queries []string
	err     error
}

func (c *stubCatalog) ID() string   { return "stub" }
func (c *stubCatalog) Name() string { return "Stub" }
func (c *stubCatalog) Search(_ context.Context, query string) ([]domain.Candidate, error) {
	c.queries = append(c.queries, query)
	return c.results, c.err
}

func TestSearchCatalog(t *testing.T) {
	catalog := &stubCatalog{results: []domain.Candidate{
		{ID: 1, Title: "Harmony", Author: "Andreas Pardeike"},
		{ID: 2, Title: "HugsLib", Author: "UnlimitedHugs"},
	}}

	mods, width, err := searchCatalog(context.Background(), catalog, "harmony", 0, false)
	require.NoError(t, err)
	assert.Len(t, mods, 2)
	assert.Equal(t, 7, width)

	mods, _, err = searchCatalog(context.Background(), catalog, "hugs", domain.FieldAuthor, true)
	require.NoError(t, err)
	require.Len(t, mods, 1)
	assert.Equal(t, "HugsLib", mods[0].Title)
	assert.Equal(t, []string{"harmony", ""}, catalog.queries, "listing catalogs are asked for everything")

	catalog.err = errors.New("offline")
	_, _, err = searchCatalog(context.Background(), catalog, "x", 0, false)
	assert.Error(t, err)
}

func TestInitService_UsesConfigFlag(t *testing.T) {
	configDir = filepath.Join(t.TempDir(), "rwm")
	t.Cleanup(func() { configDir = "" })

	svc, err := initService()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, svc.Close())
	})

	assert.Equal(t, configDir, svc.ConfigDir())
	assert.Equal(t, filepath.Join(configDir, "steamcmd", "steamcmd.sh"), svc.SteamCmdPath())
	assert.NotNil(t, svc.Workshop())
}

func TestRequireSteamCmd(t *testing.T) {
	configDir = t.TempDir()
	t.Cleanup(func() { configDir = "" })

	svc, err := initService()
	require.NoError(t, err)
	defer svc.Close()

	err = requireSteamCmd(svc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rwm setup")
}
