package storage

import (
	"context"
	"strings"

	"github.com/kerbaras/tilegrab/pkg/data"
)

// Store persists tile bytes under a {z}/{x}/{y}.{ext} layout.
type Store interface {
	// Clear removes everything a previous run left behind.
	Clear(ctx context.Context) error
	// Write stores data for tile, overwriting any existing tile.
	Write(ctx context.Context, tile data.Tile, data []byte) error
	Close() error
}

// Open returns a Bucket store when output is a URL (mem://, file://, s3://)
// and a Directory store otherwise.
func Open(ctx context.Context, output, ext string) (Store, error) {
	if strings.Contains(output, "://") {
		return OpenBucket(ctx, output, ext)
	}
	return NewDirectory(output, ext), nil
}
