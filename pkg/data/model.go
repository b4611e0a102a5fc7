package data

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb/maptile"
)

// MaxZoom is the deepest pyramid level a Tile can address.
const MaxZoom = 30

var ErrOutOfRange = errors.New("tile coordinate out of range")

// Tile identifies one tile of the slippy map pyramid.
type Tile struct {
	mt maptile.Tile
}

// NewTile validates z, x and y and returns the tile they address.
func NewTile(z, x, y int) (Tile, error) {
	if z < 0 || z > MaxZoom {
		return Tile{}, fmt.Errorf("%w: zoom %d not in [0, %d]", ErrOutOfRange, z, MaxZoom)
	}
	limit := 1 << z
	if x < 0 || x >= limit {
		return Tile{}, fmt.Errorf("%w: x %d not in [0, %d) for zoom %d", ErrOutOfRange, x, limit, z)
	}
	if y < 0 || y >= limit {
		return Tile{}, fmt.Errorf("%w: y %d not in [0, %d) for zoom %d", ErrOutOfRange, y, limit, z)
	}
	return Tile{mt: maptile.New(uint32(x), uint32(y), maptile.Zoom(z))}, nil
}

// MustTile is NewTile for coordinates known to be valid.
func MustTile(z, x, y int) Tile {
	t, err := NewTile(z, x, y)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Tile) Z() int { return int(t.mt.Z) }
func (t Tile) X() int { return int(t.mt.X) }
func (t Tile) Y() int { return int(t.mt.Y) }

// MapTile returns the orb representation of the tile.
func (t Tile) MapTile() maptile.Tile { return t.mt }

func (t Tile) String() string {
	return fmt.Sprintf("{ z: %d, x: %d, y: %d }", t.Z(), t.X(), t.Y())
}

// Outcome is the result of fetching one tile: Data on success, Err on failure.
type Outcome struct {
	Tile Tile
	Data []byte
	Err  error
}

func Success(tile Tile, data []byte) Outcome {
	return Outcome{Tile: tile, Data: data}
}

func Failure(tile Tile, err error) Outcome {
	return Outcome{Tile: tile, Err: err}
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// RunReport summarizes a finished download run
type RunReport struct {
	RunID     string
	Started   time.Time
	Elapsed   time.Duration
	Total     uint64
	Batches   uint64
	Succeeded uint64
	Failed    uint64
	Cancelled bool // stopped before every tile was dispatched
}

// Dispatched is the number of tiles that were attempted.
func (r RunReport) Dispatched() uint64 {
	return r.Succeeded + r.Failed
}
