package steam

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// ErrAppNotFound is returned when no Steam library holds the app
var ErrAppNotFound = errors.New("app not found in any steam library")

// Roots returns existing Steam installation roots in search order.
// $STEAM_ROOT comes first when set.
func Roots(getenv func(string) string) []string {
	if getenv == nil {
		getenv = os.Getenv
	}
	var candidates []string
	if p := getenv("STEAM_ROOT"); p != "" {
		candidates = append(candidates, p)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
			filepath.Join(home, ".var", "app", "com.valvesoftware.Steam", ".local", "share", "Steam"),
		)
	}

	seen := make(map[string]bool)
	var out []string
	for _, p := range candidates {
		resolved := p
		if r, err := filepath.EvalSymlinks(p); err == nil {
			resolved = r
		}
		if seen[resolved] {
			continue
		}
		if info, err := os.Stat(resolved); err != nil || !info.IsDir() {
			continue
		}
		seen[resolved] = true
		out = append(out, p)
	}
	return out
}

// Libraries lists the library folders declared in a root's
// steamapps/libraryfolders.vdf. A root without the file is its own only
// library.
func Libraries(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, "steamapps", "libraryfolders.vdf"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{root}, nil
		}
		return nil, fmt.Errorf("reading libraryfolders: %w", err)
	}
	defer f.Close()

	kv, err := ParseVDF(f)
	if err != nil {
		return nil, fmt.Errorf("parsing libraryfolders: %w", err)
	}
	paths := libraryPaths(kv)
	if len(paths) == 0 {
		return []string{root}, nil
	}
	return paths, nil
}

// libraryPaths reads libraryfolders -> "0","1",... -> path in index order
func libraryPaths(kv KeyValues) []string {
	folders, ok := kv.Block("libraryfolders")
	if !ok {
		return nil
	}

	type entry struct {
		index int
		path  string
	}
	var entries []entry
	for key := range folders {
		idx, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		block, ok := folders.Block(key)
		if !ok {
			continue
		}
		if p := block.String("path"); p != "" {
			entries = append(entries, entry{idx, p})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	return paths
}

// AppManifest holds the fields of an appmanifest_<id>.acf file used here
type AppManifest struct {
	AppID      string
	Name       string
	InstallDir string
}

// ReadAppManifest parses <library>/steamapps/appmanifest_<appID>.acf
func ReadAppManifest(library, appID string) (AppManifest, error) {
	f, err := os.Open(filepath.Join(library, "steamapps", "appmanifest_"+appID+".acf"))
	if err != nil {
		return AppManifest{}, err
	}
	defer f.Close()

	kv, err := ParseVDF(f)
	if err != nil {
		return AppManifest{}, err
	}
	state, ok := kv.Block("AppState")
	if !ok {
		return AppManifest{}, fmt.Errorf("vdf: missing AppState")
	}
	return AppManifest{
		AppID:      state.String("appid"),
		Name:       state.String("name"),
		InstallDir: state.String("installdir"),
	}, nil
}

// FindApp returns the install directory of appID in the first library
// under roots that has it installed.
func FindApp(roots []string, appID string) (string, error) {
	for _, root := range roots {
		libraries, err := Libraries(root)
		if err != nil {
			continue
		}
		for _, lib := range libraries {
			manifest, err := ReadAppManifest(lib, appID)
			if err != nil || manifest.InstallDir == "" {
				continue
			}
			dir := filepath.Join(lib, "steamapps", "common", manifest.InstallDir)
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				return dir, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrAppNotFound, appID)
}
