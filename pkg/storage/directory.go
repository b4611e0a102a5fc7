package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kerbaras/tilegrab/pkg/data"
)

// Directory writes tiles to {root}/{z}/{x}/{y}.{ext} on the local filesystem.
type Directory struct {
	root string
	ext  string
}

func NewDirectory(root, ext string) *Directory {
	return &Directory{root: root, ext: strings.TrimPrefix(ext, ".")}
}

// Path returns the destination file of tile.
func (d *Directory) Path(tile data.Tile) string {
	return filepath.Join(d.root, strconv.Itoa(tile.Z()), strconv.Itoa(tile.X()), strconv.Itoa(tile.Y())+"."+d.ext)
}

// Clear empties the root directory, creating it when missing. The root itself is kept.
func (d *Directory) Clear(_ context.Context) error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(d.root)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(d.root, entry.Name())); err != nil {
			return fmt.Errorf("clear output directory: %w", err)
		}
	}
	return nil
}

func (d *Directory) Write(_ context.Context, tile data.Tile, content []byte) error {
	path := d.Path(tile)

	// MkdirAll treats an existing directory as success, so concurrent
	// writers racing on the same {z}/{x} directory are fine.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create tile directory for %s: %w", tile, err)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write tile %s: %w", tile, err)
	}
	return nil
}

func (d *Directory) Close() error {
	return nil
}
