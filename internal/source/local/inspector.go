package local

import (
	"context"
	"errors"
	"io/fs"
)

// ContentLocator maps a workshop ID to its downloaded directory
type ContentLocator interface {
	ModPath(id uint64) string
}

// Inspector reads declared dependencies from downloaded workshop content
type Inspector struct {
	content ContentLocator
}

// NewInspector creates an inspector over steamcmd's content directory
func NewInspector(content ContentLocator) *Inspector {
	return &Inspector{content: content}
}

// Dependencies returns the dependency identifiers declared by the About.xml
// of a downloaded item. Content without an About.xml declares none.
func (i *Inspector) Dependencies(ctx context.Context, id uint64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	about, err := ReadAbout(i.content.ModPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return about.DependencyIdentifiers(), nil
}
