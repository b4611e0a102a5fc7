package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kerbaras/tilegrab/pkg/config"
	"github.com/kerbaras/tilegrab/pkg/failures"
	"github.com/kerbaras/tilegrab/pkg/storage"
)

func TestNewTileController(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Output = filepath.Join(dir, "tiles")
	cfg.FailureLog = filepath.Join(dir, "error.log")

	controller, err := NewTileController(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewTileController() error = %v", err)
	}
	defer controller.Close()

	if controller.source == nil {
		t.Error("Controller source not initialized")
	}
	if _, ok := controller.store.(*storage.Directory); !ok {
		t.Errorf("Expected directory store, got %T", controller.store)
	}
	if _, ok := controller.failures.(*failures.FileLog); !ok {
		t.Errorf("Expected file failure log, got %T", controller.failures)
	}
	if controller.manifest != nil {
		t.Error("Manifest should be disabled by default")
	}
	if controller.Downloader() == nil {
		t.Error("Controller downloader not initialized")
	}
	if controller.Zooms().Max != 18 {
		t.Errorf("Expected default max zoom 18, got %d", controller.Zooms().Max)
	}
}

func TestNewTileControllerBucketOutput(t *testing.T) {
	cfg := config.Default()
	cfg.Output = "mem://"
	cfg.FailureLog = filepath.Join(t.TempDir(), "error.log")

	controller, err := NewTileController(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewTileController() error = %v", err)
	}
	defer controller.Close()

	if _, ok := controller.store.(*storage.Bucket); !ok {
		t.Errorf("Expected bucket store, got %T", controller.store)
	}
}

func TestNewTileControllerInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.BatchSize = 0

	if _, err := NewTileController(context.Background(), cfg); err == nil {
		t.Error("Expected invalid config to be rejected")
	}
}

func TestNewTileControllerBadBucket(t *testing.T) {
	cfg := config.Default()
	cfg.Output = "nosuchscheme://bucket"

	if _, err := NewTileController(context.Background(), cfg); err == nil {
		t.Error("Expected unknown bucket scheme to fail")
	}
}
