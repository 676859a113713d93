package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rwm/internal/domain"

	"github.com/charmbracelet/log"
)

// Local implements source.Catalog over an installed Mods directory
type Local struct {
	modsDir string
	logger  *log.Logger
}

// New creates a catalog over modsDir (usually <game>/Mods)
func New(modsDir string, logger *log.Logger) *Local {
	return &Local{modsDir: modsDir, logger: logger}
}

// ID returns the source identifier
func (l *Local) ID() string {
	return "local"
}

// Name returns the display name
func (l *Local) Name() string {
	return "Installed mods"
}

// Dir returns the scanned directory
func (l *Local) Dir() string {
	return l.modsDir
}

// Scan reads every mod folder, sorted by title. Folders whose About.xml
// can't be parsed are skipped with a warning. A missing Mods directory
// yields no mods.
func (l *Local) Scan(ctx context.Context) ([]domain.Candidate, error) {
	entries, err := os.ReadDir(l.modsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading mods directory: %w", err)
	}

	var mods []domain.Candidate
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.IsDir() {
			continue
		}

		dir := filepath.Join(l.modsDir, e.Name())
		mod, err := readMod(dir)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) && l.logger != nil {
				l.logger.Warn("skipping mod", "dir", dir, "err", err)
			}
			continue
		}
		mods = append(mods, mod)
	}

	sort.SliceStable(mods, func(i, j int) bool {
		return strings.ToLower(mods[i].Title) < strings.ToLower(mods[j].Title)
	})
	return mods, nil
}

// Search returns installed mods whose title, author, package ID or workshop
// ID contains query, ignoring case. Mods without a workshop ID never match
// on it. An empty query returns every mod.
func (l *Local) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	mods, err := l.Scan(ctx)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return mods, nil
	}

	var out []domain.Candidate
	for _, m := range mods {
		fields := []string{m.Title, m.Author, m.PackageID}
		if m.ID != 0 {
			fields = append(fields, m.IDString())
		}
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), query) {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func readMod(dir string) (domain.Candidate, error) {
	about, err := ReadAbout(dir)
	if err != nil {
		return domain.Candidate{}, err
	}

	mod := domain.Candidate{
		Title:        about.Name,
		Author:       about.Author,
		Description:  about.Description,
		Dependencies: about.DependencyIdentifiers(),
		PackageID:    about.PackageID,
		Versions:     about.SupportedVersions,
		Path:         dir,
	}
	if mod.Title == "" {
		mod.Title = filepath.Base(dir)
	}

	// Deployed workshop folders are named after their ID
	if id, ok := readPublishedID(dir); ok {
		mod.ID = id
	} else if id, ok := domain.ParseWorkshopID(filepath.Base(dir)); ok {
		mod.ID = id
	}
	return mod, nil
}
