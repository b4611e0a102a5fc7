package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kerbaras/tilegrab/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryPath(t *testing.T) {
	d := NewDirectory("tiles", ".png")
	assert.Equal(t, filepath.Join("tiles", "3", "1", "2.png"), d.Path(data.MustTile(3, 1, 2)))
}

func TestDirectoryWrite(t *testing.T) {
	root := t.TempDir()
	d := NewDirectory(root, "png")
	tile := data.MustTile(4, 9, 3)

	require.NoError(t, d.Write(context.Background(), tile, []byte("first")))

	got, err := os.ReadFile(filepath.Join(root, "4", "9", "3.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got)

	// whole-file overwrite
	require.NoError(t, d.Write(context.Background(), tile, []byte("2nd")))
	got, err = os.ReadFile(d.Path(tile))
	require.NoError(t, err)
	assert.Equal(t, []byte("2nd"), got)
}

func TestDirectoryWriteConcurrentSameColumn(t *testing.T) {
	root := t.TempDir()
	d := NewDirectory(root, "png")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for y := 0; y < 16; y++ {
		wg.Add(1)
		go func(y int) {
			defer wg.Done()
			errs <- d.Write(context.Background(), data.MustTile(4, 2, y), []byte{byte(y)})
		}(y)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "4", "2"))
	require.NoError(t, err)
	assert.Len(t, entries, 16)
}

func TestDirectoryWriteFailure(t *testing.T) {
	root := t.TempDir()
	// a regular file where the zoom directory should go
	require.NoError(t, os.WriteFile(filepath.Join(root, "1"), []byte("x"), 0o644))

	d := NewDirectory(root, "png")
	err := d.Write(context.Background(), data.MustTile(1, 0, 0), []byte("tile"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{ z: 1, x: 0, y: 0 }")
}

func TestDirectoryClear(t *testing.T) {
	root := filepath.Join(t.TempDir(), "tiles")
	d := NewDirectory(root, "png")

	require.NoError(t, d.Clear(context.Background()), "clear should create a missing root")
	require.DirExists(t, root)

	require.NoError(t, d.Write(context.Background(), data.MustTile(2, 1, 1), []byte("old")))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644))

	require.NoError(t, d.Clear(context.Background()))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.DirExists(t, root)
}

func TestOpenSelectsDirectory(t *testing.T) {
	s, err := Open(context.Background(), t.TempDir(), "png")
	require.NoError(t, err)
	defer s.Close()

	_, ok := s.(*Directory)
	assert.True(t, ok, "expected *Directory, got %T", s)
}
