package sources

import (
	"context"

	"github.com/kerbaras/tilegrab/pkg/data"
)

// Source fetches the raw bytes of a single tile.
type Source interface {
	Fetch(ctx context.Context, tile data.Tile) data.Outcome
}
