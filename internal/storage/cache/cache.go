package cache

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"rwm/internal/domain"
)

// Cache reads steamcmd's workshop content directory
type Cache struct {
	basePath string
}

// New creates a cache rooted at steamcmd's install directory
func New(basePath string) *Cache {
	return &Cache{basePath: basePath}
}

// ContentDir returns the directory holding every downloaded RimWorld item
func (c *Cache) ContentDir() string {
	return filepath.Join(c.basePath, "steamapps", "workshop", "content", domain.WorkshopAppID)
}

// ModPath returns the path where a workshop item's files are stored
func (c *Cache) ModPath(id uint64) string {
	return filepath.Join(c.ContentDir(), strconv.FormatUint(id, 10))
}

// Exists checks if a workshop item has been downloaded
func (c *Cache) Exists(id uint64) bool {
	info, err := os.Stat(c.ModPath(id))
	return err == nil && info.IsDir()
}

// Store saves a file into an item's directory
func (c *Cache) Store(id uint64, relativePath string, content []byte) error {
	fullPath := filepath.Join(c.ModPath(id), relativePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return fmt.Errorf("writing cached file: %w", err)
	}
	return nil
}

// ListFiles returns all files of a downloaded item, relative to ModPath
func (c *Cache) ListFiles(id uint64) ([]string, error) {
	modPath := c.ModPath(id)

	var files []string
	err := filepath.WalkDir(modPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(modPath, path)
		if err != nil {
			return err
		}
		files = append(files, relPath)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("listing cached files: %w", err)
	}

	return files, nil
}

// GetFilePath returns the full path to a cached file
func (c *Cache) GetFilePath(id uint64, relativePath string) string {
	return filepath.Join(c.ModPath(id), relativePath)
}

// Items returns the IDs of every downloaded item, sorted
func (c *Cache) Items() ([]uint64, error) {
	entries, err := os.ReadDir(c.ContentDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading content dir: %w", err)
	}

	var ids []uint64
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if id, ok := domain.ParseWorkshopID(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Delete removes a downloaded item
func (c *Cache) Delete(id uint64) error {
	if err := os.RemoveAll(c.ModPath(id)); err != nil {
		return fmt.Errorf("deleting cached mod: %w", err)
	}
	return nil
}
