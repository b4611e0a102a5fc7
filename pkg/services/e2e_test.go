package services

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kerbaras/tilegrab/pkg/config"
	"github.com/kerbaras/tilegrab/pkg/data"
	"github.com/kerbaras/tilegrab/pkg/failures"
	"github.com/kerbaras/tilegrab/pkg/sources"
	"github.com/kerbaras/tilegrab/pkg/storage"
	"github.com/kerbaras/tilegrab/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// E2E tests for the full download pipeline

func newTileServer(t *testing.T, missing string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == missing {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		fmt.Fprintf(w, "tile%s", r.URL.Path)
	}))
	t.Cleanup(server.Close)
	return server
}

func snapshotTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		files[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	require.NoError(t, err)
	return files
}

func newPipeline(serverURL, root, logPath string, batchSize int) *Downloader {
	source := sources.NewXYZ(serverURL+"/{z}/{x}/{y}.png", utils.NewAPI(5*time.Second, "tilegrab-test"))
	return NewDownloader(source, storage.NewDirectory(root, "png"), failures.NewFileLog(logPath), batchSize)
}

func TestE2E_FullDownloadPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	server := newTileServer(t, "")
	dir := t.TempDir()
	root := filepath.Join(dir, "tiles")

	downloader := newPipeline(server.URL, root, filepath.Join(dir, "error.log"), 4)
	defer downloader.Close()

	report, err := downloader.Run(context.Background(), data.ZoomRange{Min: 0, Max: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(21), report.Succeeded)

	tree := snapshotTree(t, root)
	assert.Len(t, tree, 21)
	assert.Equal(t, "tile/2/3/1.png", tree["2/3/1.png"])
	assert.Equal(t, "tile/0/0/0.png", tree["0/0/0.png"])
}

func TestE2E_DownloadWithErrors(t *testing.T) {
	server := newTileServer(t, "/2/1/2.png")
	dir := t.TempDir()
	root := filepath.Join(dir, "tiles")
	logPath := filepath.Join(dir, "error.log")

	downloader := newPipeline(server.URL, root, logPath, 4)
	defer downloader.Close()

	report, err := downloader.Run(context.Background(), data.ZoomRange{Min: 2, Max: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(15), report.Succeeded)
	assert.Equal(t, uint64(1), report.Failed)

	assert.NoFileExists(t, filepath.Join(root, "2", "1", "2.png"))
	assert.Len(t, snapshotTree(t, root), 15)

	f, err := os.Open(logPath)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 1)
	assert.True(t, strings.HasSuffix(lines[0], " failed: { z: 2, x: 1, y: 2 }."), lines[0])
}

func TestE2E_RerunIsIdempotent(t *testing.T) {
	server := newTileServer(t, "")
	dir := t.TempDir()
	root := filepath.Join(dir, "tiles")
	logPath := filepath.Join(dir, "error.log")

	// leftovers from an older run
	require.NoError(t, os.MkdirAll(filepath.Join(root, "9", "9"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "9", "9", "9.png"), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(logPath, []byte("old failure\n"), 0o644))

	zooms := data.ZoomRange{Min: 1, Max: 2}

	first := newPipeline(server.URL, root, logPath, 3)
	_, err := first.Run(context.Background(), zooms)
	require.NoError(t, err)
	first.Close()
	tree1 := snapshotTree(t, root)

	second := newPipeline(server.URL, root, logPath, 1)
	_, err = second.Run(context.Background(), zooms)
	require.NoError(t, err)
	second.Close()
	tree2 := snapshotTree(t, root)

	assert.Equal(t, tree1, tree2)
	assert.Len(t, tree2, 20)
	assert.NotContains(t, tree2, "9/9/9.png")

	info, err := os.Stat(logPath)
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "failure log should be truncated")
}

func TestE2E_ControllerWithManifest(t *testing.T) {
	server := newTileServer(t, "/1/0/0.png")
	dir := t.TempDir()

	cfg := config.Default()
	cfg.MinZoom, cfg.MaxZoom = 0, 1
	cfg.URL = server.URL + "/{z}/{x}/{y}.png"
	cfg.Output = filepath.Join(dir, "tiles")
	cfg.FailureLog = filepath.Join(dir, "error.log")
	cfg.Manifest = filepath.Join(dir, "manifest.duckdb")

	controller, err := NewTileController(context.Background(), cfg)
	require.NoError(t, err)

	report, err := controller.Downloader().Run(context.Background(), controller.Zooms())
	require.NoError(t, err)
	assert.Equal(t, uint64(4), report.Succeeded)
	assert.Equal(t, uint64(1), report.Failed)

	n, err := controller.manifest.CountTiles()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	summaries, err := controller.manifest.ZoomSummaries()
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, int64(3), summaries[1].Tiles, "the failed z=1 tile is not recorded")

	controller.Downloader().Close()
	require.NoError(t, controller.Close())
}
