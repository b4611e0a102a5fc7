package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kerbaras/tilegrab/pkg/config"
	"github.com/kerbaras/tilegrab/pkg/data"
	"github.com/kerbaras/tilegrab/pkg/failures"
	"github.com/kerbaras/tilegrab/pkg/sources"
	"github.com/kerbaras/tilegrab/pkg/storage"
	"github.com/kerbaras/tilegrab/pkg/utils"
)

// TileController owns the resources of one configured run.
type TileController struct {
	config     config.Config
	source     sources.Source
	store      storage.Store
	failures   failures.Recorder
	manifest   *data.Repository
	downloader *Downloader
}

// NewTileController opens the store, failure log and optional manifest named by cfg.
func NewTileController(ctx context.Context, cfg config.Config) (*TileController, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &TileController{config: cfg}
	c.source = sources.NewXYZ(cfg.URL, utils.NewAPI(cfg.Timeout, cfg.UserAgent))

	store, err := storage.Open(ctx, cfg.Output, cfg.Extension)
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}
	c.store = store

	failureLog, err := failures.Open(cfg.FailureLog)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open failure log: %w", err)
	}
	c.failures = failureLog

	c.downloader = NewDownloader(c.source, c.store, c.failures, cfg.BatchSize)

	if cfg.Manifest != "" {
		repo, err := data.NewDuckDBRepository(cfg.Manifest)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to open manifest: %w", err)
		}
		c.manifest = repo
		c.downloader.SetManifest(repo)
	}

	return c, nil
}

func (c *TileController) Downloader() *Downloader {
	return c.downloader
}

func (c *TileController) Zooms() data.ZoomRange {
	return c.config.Zooms()
}

// Close releases the store, failure log and manifest.
func (c *TileController) Close() error {
	var errs []error
	if c.store != nil {
		errs = append(errs, c.store.Close())
	}
	if c.failures != nil {
		errs = append(errs, c.failures.Close())
	}
	if c.manifest != nil {
		errs = append(errs, c.manifest.Close())
	}
	return errors.Join(errs...)
}
