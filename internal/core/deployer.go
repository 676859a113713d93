package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"rwm/internal/linker"
	"rwm/internal/storage/cache"
	"rwm/internal/storage/db"

	"github.com/charmbracelet/log"
)

// Deployer links downloaded workshop content into the game's Mods directory
type Deployer struct {
	cache   *cache.Cache
	linker  linker.Linker
	modsDir string
	db      *db.DB // Optional: enables removal of files dropped by an update
	logger  *log.Logger
}

// NewDeployer creates a new deployer. The db parameter is optional.
func NewDeployer(c *cache.Cache, l linker.Linker, modsDir string, database *db.DB, logger *log.Logger) *Deployer {
	return &Deployer{
		cache:   c,
		linker:  l,
		modsDir: modsDir,
		db:      database,
		logger:  loggerOrDiscard(logger),
	}
}

// TargetDir returns where an item is deployed
func (d *Deployer) TargetDir(id uint64) string {
	return filepath.Join(d.modsDir, strconv.FormatUint(id, 10))
}

// Deploy links every file of a downloaded item into <mods>/<id>
func (d *Deployer) Deploy(ctx context.Context, id uint64) error {
	if !d.cache.Exists(id) {
		return fmt.Errorf("mod not in cache: %d (%s)", id, d.cache.ModPath(id))
	}

	files, err := d.cache.ListFiles(id)
	if err != nil {
		return err
	}

	target := d.TargetDir(id)
	current := make(map[string]bool, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.linker.Deploy(d.cache.GetFilePath(id, file), filepath.Join(target, file)); err != nil {
			return fmt.Errorf("deploying %s: %w", file, err)
		}
		current[file] = true
	}
	d.logger.Debug("deployed", "id", id, "files", len(files), "method", d.linker.Method())

	if d.db == nil {
		return nil
	}

	previous, err := d.db.GetDeployedFiles(id)
	if err != nil {
		return err
	}
	for _, file := range previous {
		if current[file] {
			continue
		}
		dst := filepath.Join(target, file)
		if err := d.linker.Undeploy(dst); err != nil {
			d.logger.Warn("could not remove stale file", "path", dst, "err", err)
			continue
		}
		linker.PruneEmptyDirs(target, filepath.Dir(dst))
	}

	return d.db.SaveDeployedFiles(id, files)
}
