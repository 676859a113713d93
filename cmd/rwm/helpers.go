package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"rwm/internal/core"
	"rwm/internal/domain"
	"rwm/internal/tui"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

func paint(style lipgloss.Style, s string) string {
	if !colorEnabled() {
		return s
	}
	return style.Render(s)
}

// filterFlags are the search field switches shared by install and search
type filterFlags struct {
	enabled     bool
	query       string
	title       bool
	author      bool
	steamID     bool
	description bool
	all         bool
}

// register adds the field switches. withFilter adds -f/--filter, which turns
// filtering on, and -q/--query, the text to filter with (default: the mod
// name itself).
func (f *filterFlags) register(fs *pflag.FlagSet, withFilter bool) {
	if withFilter {
		fs.BoolVarP(&f.enabled, "filter", "f", false, "narrow the matches of each mod name using the field switches")
		fs.StringVarP(&f.query, "query", "q", "", "text to filter with, implies --filter (default: the mod name)")
	}
	fs.BoolVarP(&f.title, "name", "n", false, "match on the mod title")
	fs.BoolVarP(&f.author, "author", "a", false, "match on the author")
	fs.BoolVarP(&f.steamID, "steam-id", "s", false, "match on the workshop ID")
	fs.BoolVarP(&f.description, "description", "d", false, "match on the description")
	fs.BoolVar(&f.all, "all", false, "match on every field")
}

func (f filterFlags) fields() domain.Field {
	var fields domain.Field
	if f.title {
		fields |= domain.FieldTitle
	}
	if f.author {
		fields |= domain.FieldAuthor
	}
	if f.steamID {
		fields |= domain.FieldID
	}
	if f.description {
		fields |= domain.FieldDescription
	}
	if f.all {
		fields |= domain.FieldAll
	}
	return fields
}

func (f filterFlags) active() bool {
	return f.enabled || strings.TrimSpace(f.query) != ""
}

// validate rejects field switches given without a filter to apply them to
func (f filterFlags) validate() error {
	if f.fields() != 0 && !f.active() {
		return errors.New("field switches (--name, --author, --steam-id, --description, --all) require --filter or --query")
	}
	return nil
}

// spec builds the filter for an install request
func (f filterFlags) spec() domain.FilterSpec {
	return domain.FilterSpec{
		Fields:  f.fields(),
		Query:   strings.TrimSpace(f.query),
		Enabled: f.active(),
	}
}

// displayFlags control how tables are printed
type displayFlags struct {
	large   bool
	pager   bool
	noPager bool
}

func (d *displayFlags) register(fs *pflag.FlagSet) {
	fs.BoolVarP(&d.large, "large", "l", false, "show descriptions too")
	fs.BoolVar(&d.pager, "pager", false, "page the output")
	fs.BoolVar(&d.noPager, "no-pager", false, "never page the output")
}

// usePager reports whether output goes through the pager
func (d *displayFlags) usePager(configured bool) bool {
	return d.pager || (configured && !d.noPager)
}

// writeCandidates prints one row per candidate. Titles are padded to
// titleWidth so authors line up.
func writeCandidates(w io.Writer, mods []domain.Candidate, titleWidth int, large bool) {
	for _, m := range mods {
		title := m.Title + strings.Repeat(" ", max(0, titleWidth-lipgloss.Width(m.Title)))
		id := "-"
		if m.ID != 0 {
			id = m.IDString()
		}
		fmt.Fprintf(w, "%12s  %s  %s\n", id, title, paint(dimStyle, m.Author))
		if large && m.Description != "" {
			for _, line := range strings.Split(strings.TrimSpace(m.Description), "\n") {
				fmt.Fprintf(w, "%14s%s\n", "", strings.TrimSpace(line))
			}
			fmt.Fprintln(w)
		}
	}
}

func titleWidth(mods []domain.Candidate) int {
	width := 0
	for _, m := range mods {
		width = max(width, lipgloss.Width(m.Title))
	}
	return width
}

// show writes buf to stdout, through the pager when asked. A pager that
// can't be started falls back to plain output.
func show(ctx context.Context, buf *bytes.Buffer, paged bool, pager string) error {
	fields := strings.Fields(pager)
	if !paged || len(fields) == 0 || !term.IsTerminal(int(os.Stdout.Fd())) {
		_, err := io.Copy(os.Stdout, buf)
		return err
	}

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Stdin = bytes.NewReader(buf.Bytes())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}
		logger.Warn("pager failed, printing directly", "pager", pager, "error", err)
		_, err = io.Copy(os.Stdout, buf)
		return err
	}
	return nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// firstChooser takes the first candidate without asking
type firstChooser struct{}

func (firstChooser) Choose(_ context.Context, identifier string, candidates []domain.Candidate) (domain.Candidate, error) {
	if len(candidates) == 0 {
		return domain.Candidate{}, fmt.Errorf("%w: %s", domain.ErrNoCandidates, identifier)
	}
	logger.Info("picked first match", "query", identifier, "mod", candidates[0].Title, "id", candidates[0].ID)
	return candidates[0], nil
}

// chooser returns how ambiguous names get settled: the first match with
// --yes, the interactive picker on a terminal, and nothing otherwise.
func chooser(yes bool) core.Chooser {
	switch {
	case yes:
		return firstChooser{}
	case stdinIsTerminal():
		return &tui.Chooser{In: os.Stdin, Out: os.Stderr}
	default:
		return nil
	}
}

// printOutcome writes one line per attempted mod, indented by dependency depth
func printOutcome(w io.Writer, o domain.InstallOutcome) {
	indent := strings.Repeat("  ", o.Depth)
	name := o.Title
	if name == "" {
		name = o.Identifier
	}
	if o.ID != 0 {
		name = fmt.Sprintf("%s (%d)", name, o.ID)
	}

	if o.Succeeded {
		fmt.Fprintf(w, "%s%s %s\n", indent, paint(okStyle, "✓"), name)
		return
	}
	reason := "failed"
	if o.Err != nil {
		reason = o.Err.Error()
	}
	fmt.Fprintf(w, "%s%s %s: %s\n", indent, paint(failStyle, "✗"), name, reason)
	if o.Message != "" {
		logger.Debug("steamcmd output", "mod", name, "output", o.Message)
	}
}

// summarize prints the closing line and returns an error when anything failed
func summarize(w io.Writer, outcomes []domain.InstallOutcome) error {
	failed := domain.CountFailed(outcomes)
	fmt.Fprintf(w, "\nInstalled %d of %d mods\n", len(outcomes)-failed, len(outcomes))
	if failed > 0 {
		return fmt.Errorf("%d of %d mods failed to install", failed, len(outcomes))
	}
	return nil
}

// requireSteamCmd checks the launcher exists before any work starts
func requireSteamCmd(svc *core.Service) error {
	path := svc.SteamCmdPath()
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return fmt.Errorf("steamcmd not found at %s; run 'rwm setup' first", path)
	}
	return nil
}
