// Package linker places downloaded workshop files into the game's Mods directory.
package linker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"rwm/internal/domain"
)

// Linker deploys and undeploys single files
type Linker interface {
	Deploy(src, dst string) error
	Undeploy(dst string) error
	Method() domain.LinkMethod
}

// New creates a linker for the given method
func New(method domain.LinkMethod) Linker {
	switch method {
	case domain.LinkHardlink:
		return hardlinker{}
	case domain.LinkCopy:
		return copier{}
	default:
		return symlinker{}
	}
}

type symlinker struct{}

func (symlinker) Method() domain.LinkMethod { return domain.LinkSymlink }

func (symlinker) Deploy(src, dst string) error {
	if err := prepare(dst); err != nil {
		return err
	}
	if err := os.Symlink(src, dst); err != nil {
		return fmt.Errorf("creating symlink: %w", err)
	}
	return nil
}

func (symlinker) Undeploy(dst string) error { return remove(dst) }

type hardlinker struct{}

func (hardlinker) Method() domain.LinkMethod { return domain.LinkHardlink }

func (hardlinker) Deploy(src, dst string) error {
	if err := prepare(dst); err != nil {
		return err
	}
	if err := os.Link(src, dst); err != nil {
		return fmt.Errorf("creating hardlink: %w", err)
	}
	return nil
}

func (hardlinker) Undeploy(dst string) error { return remove(dst) }

type copier struct{}

func (copier) Method() domain.LinkMethod { return domain.LinkCopy }

// Deploy copies through a temporary file so a failed copy never leaves a
// truncated file in the Mods directory
func (copier) Deploy(src, dst string) error {
	if err := prepare(dst); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".rwm-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return fmt.Errorf("copying file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("moving into place: %w", err)
	}
	return nil
}

func (copier) Undeploy(dst string) error { return remove(dst) }

// prepare creates dst's parent and removes whatever dst currently is
func prepare(dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating destination dir: %w", err)
	}
	return remove(dst)
}

func remove(dst string) error {
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", dst, err)
	}
	return nil
}

// PruneEmptyDirs removes empty directories from dir up to, but not
// including, root
func PruneEmptyDirs(root, dir string) {
	root = filepath.Clean(root)
	for dir = filepath.Clean(dir); dir != root && len(dir) > len(root); dir = filepath.Dir(dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
	}
}
