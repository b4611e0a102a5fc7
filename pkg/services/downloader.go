package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kerbaras/tilegrab/pkg/data"
	"github.com/kerbaras/tilegrab/pkg/failures"
	"github.com/kerbaras/tilegrab/pkg/sources"
	"github.com/kerbaras/tilegrab/pkg/storage"
)

// ErrClear is returned when the output or the failure log cannot be reset
// before a run. No tile is fetched in that case.
var ErrClear = errors.New("clear previous run")

// Progress statuses
const (
	StatusClearing    = "clearing"
	StatusCleared     = "cleared"
	StatusDownloading = "downloading"
	StatusComplete    = "complete"
	StatusError       = "error"
)

// DownloadProgress represents the progress of a single tile
type DownloadProgress struct {
	Tile   data.Tile
	Index  uint64 // 1-based position in enumeration order
	Total  uint64
	Status string
	Error  error
	Time   time.Time
}

// Manifest records written tiles. Optional.
type Manifest interface {
	Reset() error
	SaveTile(tile data.Tile, size int, runID string, at time.Time) error
}

// Downloader fetches a zoom range tile by tile, in batches of concurrent requests
type Downloader struct {
	source       sources.Source
	store        storage.Store
	failures     failures.Recorder
	manifest     Manifest
	batchSize    int
	progressChan chan DownloadProgress
	now          func() time.Time
}

// NewDownloader creates a new Downloader instance
func NewDownloader(source sources.Source, store storage.Store, failureLog failures.Recorder, batchSize int) *Downloader {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Downloader{
		source:       source,
		store:        store,
		failures:     failureLog,
		batchSize:    batchSize,
		progressChan: make(chan DownloadProgress, 100),
		now:          time.Now,
	}
}

// SetManifest enables recording of written tiles.
func (d *Downloader) SetManifest(m Manifest) {
	d.manifest = m
}

// GetProgressChannel returns the channel for receiving download progress updates
func (d *Downloader) GetProgressChannel() <-chan DownloadProgress {
	return d.progressChan
}

// Run clears the previous output, then downloads every tile of zooms.
// Tile failures are logged and counted, never returned. Cancelling ctx stops
// the run after the batch in flight has settled.
func (d *Downloader) Run(ctx context.Context, zooms data.ZoomRange) (data.RunReport, error) {
	report := data.RunReport{
		RunID:   uuid.NewString(),
		Started: d.now(),
		Total:   zooms.Count(),
	}

	d.sendProgress(DownloadProgress{Status: StatusClearing, Total: report.Total, Time: d.now()})
	if err := d.clear(ctx); err != nil {
		return report, fmt.Errorf("%w: %w", ErrClear, err)
	}
	d.sendProgress(DownloadProgress{Status: StatusCleared, Total: report.Total, Time: d.now()})

	var succeeded, failed atomic.Uint64
	var index uint64

	for batch := range data.Batches(zooms.Tiles(), d.batchSize) {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		// in-flight tiles finish even if ctx is cancelled mid-batch
		batchCtx := context.WithoutCancel(ctx)

		var g errgroup.Group
		for i, tile := range batch {
			pos := index + uint64(i) + 1
			g.Go(func() error {
				if d.dispatch(batchCtx, report.RunID, tile, pos, report.Total) {
					succeeded.Add(1)
				} else {
					failed.Add(1)
				}
				return nil
			})
		}
		g.Wait()
		index += uint64(len(batch))
		report.Batches++
	}

	report.Succeeded = succeeded.Load()
	report.Failed = failed.Load()
	report.Elapsed = d.now().Sub(report.Started)
	return report, nil
}

func (d *Downloader) clear(ctx context.Context) error {
	if err := d.store.Clear(ctx); err != nil {
		return err
	}
	if err := d.failures.Clear(ctx); err != nil {
		return err
	}
	if d.manifest != nil {
		if err := d.manifest.Reset(); err != nil {
			return fmt.Errorf("reset manifest: %w", err)
		}
	}
	return nil
}

// dispatch fetches and stores one tile, reporting whether it succeeded.
func (d *Downloader) dispatch(ctx context.Context, runID string, tile data.Tile, index, total uint64) bool {
	d.sendProgress(DownloadProgress{
		Tile:   tile,
		Index:  index,
		Total:  total,
		Status: StatusDownloading,
		Time:   d.now(),
	})

	err := d.downloadTile(ctx, runID, tile)
	if err != nil {
		d.recordFailure(ctx, tile)
		d.sendProgress(DownloadProgress{
			Tile:   tile,
			Index:  index,
			Total:  total,
			Status: StatusError,
			Error:  err,
			Time:   d.now(),
		})
		return false
	}

	d.sendProgress(DownloadProgress{
		Tile:   tile,
		Index:  index,
		Total:  total,
		Status: StatusComplete,
		Time:   d.now(),
	})
	return true
}

// downloadTile fetches a single tile and writes it to the store.
func (d *Downloader) downloadTile(ctx context.Context, runID string, tile data.Tile) error {
	outcome := d.source.Fetch(ctx, tile)
	if !outcome.OK() {
		return outcome.Err
	}

	if err := d.store.Write(ctx, tile, outcome.Data); err != nil {
		return err
	}

	if d.manifest != nil {
		// Non-fatal, the tile itself is on disk
		if err := d.manifest.SaveTile(tile, len(outcome.Data), runID, d.now()); err != nil {
			log.Printf("Warning: failed to record %s in manifest: %v", tile, err)
		}
	}
	return nil
}

// recordFailure appends tile to the failure log. A failing log only warns.
func (d *Downloader) recordFailure(ctx context.Context, tile data.Tile) {
	if err := d.failures.Record(ctx, tile, d.now()); err != nil {
		log.Printf("Warning: failed to record failure of %s: %v", tile, err)
	}
}

// sendProgress sends a progress update (non-blocking)
func (d *Downloader) sendProgress(progress DownloadProgress) {
	select {
	case d.progressChan <- progress:
	default:
		// Channel full, skip this update
	}
}

// Close closes the progress channel. The Downloader must not be run afterwards.
func (d *Downloader) Close() {
	close(d.progressChan)
}
