package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kerbaras/tilegrab/pkg/data"
	"github.com/kerbaras/tilegrab/pkg/utils"
)

var ErrUnexpectedStatus = errors.New("unexpected status")

// FetchError describes why a tile could not be fetched. StatusCode is zero
// when the request never produced a response.
type FetchError struct {
	Tile       data.Tile
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tile %s: %s %d %s", e.Tile, e.Err, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("tile %s: %v", e.Tile, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Resolve substitutes the tile's coordinates into the {z}, {x} and {y} placeholders.
func Resolve(template string, tile data.Tile) string {
	return strings.NewReplacer(
		"{z}", strconv.Itoa(tile.Z()),
		"{x}", strconv.Itoa(tile.X()),
		"{y}", strconv.Itoa(tile.Y()),
	).Replace(template)
}

// XYZ fetches tiles from a server addressed by a URL template such as
// https://tile.openstreetmap.org/{z}/{x}/{y}.png.
type XYZ struct {
	api      *utils.API
	template string
}

func NewXYZ(template string, api *utils.API) *XYZ {
	return &XYZ{api: api, template: template}
}

// Fetch issues exactly one GET for tile. Only 200 counts as success.
func (s *XYZ) Fetch(ctx context.Context, tile data.Tile) data.Outcome {
	url := Resolve(s.template, tile)

	resp, err := s.api.Get(ctx, url)
	if err != nil {
		return data.Failure(tile, &FetchError{Tile: tile, URL: url, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return data.Failure(tile, &FetchError{Tile: tile, URL: url, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus})
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return data.Failure(tile, &FetchError{Tile: tile, URL: url, Err: fmt.Errorf("read body: %w", err)})
	}

	return data.Success(tile, content)
}
