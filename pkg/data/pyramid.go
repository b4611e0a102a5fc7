package data

import (
	"iter"

	"github.com/paulmach/orb/maptile"
)

// ZoomRange is an inclusive range of pyramid levels.
type ZoomRange struct {
	Min int
	Max int
}

// Empty reports whether the range holds no levels.
func (r ZoomRange) Empty() bool {
	return r.Min > r.Max || r.Max < 0
}

func (r ZoomRange) bounds() (int, int) {
	lo, hi := r.Min, r.Max
	if lo < 0 {
		lo = 0
	}
	if hi > MaxZoom {
		hi = MaxZoom
	}
	return lo, hi
}

// LevelCount returns the number of tiles at zoom z (4^z).
func LevelCount(z int) uint64 {
	if z < 0 || z > MaxZoom {
		return 0
	}
	return uint64(1) << (2 * uint(z))
}

// Count returns the number of tiles Tiles yields.
func (r ZoomRange) Count() uint64 {
	if r.Empty() {
		return 0
	}
	lo, hi := r.bounds()
	var total uint64
	for z := lo; z <= hi; z++ {
		total += LevelCount(z)
	}
	return total
}

// Tiles yields every tile in the range ordered by ascending z, then x, then y.
// The sequence is lazy and can be iterated any number of times.
func (r ZoomRange) Tiles() iter.Seq[Tile] {
	return func(yield func(Tile) bool) {
		if r.Empty() {
			return
		}
		lo, hi := r.bounds()
		for z := lo; z <= hi; z++ {
			n := uint32(1) << uint(z)
			for x := uint32(0); x < n; x++ {
				for y := uint32(0); y < n; y++ {
					if !yield(Tile{mt: maptile.New(x, y, maptile.Zoom(z))}) {
						return
					}
				}
			}
		}
	}
}

// Batches groups seq into consecutive slices of at most size tiles, in order.
func Batches(seq iter.Seq[Tile], size int) iter.Seq[[]Tile] {
	if size < 1 {
		size = 1
	}
	return func(yield func([]Tile) bool) {
		batch := make([]Tile, 0, size)
		for t := range seq {
			batch = append(batch, t)
			if len(batch) == size {
				if !yield(batch) {
					return
				}
				batch = make([]Tile, 0, size)
			}
		}
		if len(batch) > 0 {
			yield(batch)
		}
	}
}
