package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strconv"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/kerbaras/tilegrab/pkg/data"
)

// Bucket writes tiles as objects keyed {z}/{x}/{y}.{ext}.
type Bucket struct {
	bucket      *blob.Bucket
	ext         string
	contentType string
}

// OpenBucket opens a gocloud bucket URL. The standard "prefix" query
// parameter scopes all keys, e.g. s3://tiles?region=eu-west-1&prefix=osm/.
func OpenBucket(ctx context.Context, url, ext string) (*Bucket, error) {
	bkt, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open bucket: %w", err)
	}
	return NewBucket(bkt, ext), nil
}

func NewBucket(bkt *blob.Bucket, ext string) *Bucket {
	ext = strings.TrimPrefix(ext, ".")
	return &Bucket{
		bucket:      bkt,
		ext:         ext,
		contentType: mime.TypeByExtension("." + ext),
	}
}

// Key returns the object key of tile.
func (b *Bucket) Key(tile data.Tile) string {
	return path.Join(strconv.Itoa(tile.Z()), strconv.Itoa(tile.X()), strconv.Itoa(tile.Y())+"."+b.ext)
}

// Clear deletes every object in the bucket.
func (b *Bucket) Clear(ctx context.Context) error {
	it := b.bucket.List(nil)
	for {
		obj, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list bucket: %w", err)
		}
		if obj.IsDir {
			continue
		}
		if err := b.bucket.Delete(ctx, obj.Key); err != nil {
			return fmt.Errorf("delete %s: %w", obj.Key, err)
		}
	}
}

func (b *Bucket) Write(ctx context.Context, tile data.Tile, content []byte) error {
	opts := &blob.WriterOptions{ContentType: b.contentType}
	if err := b.bucket.WriteAll(ctx, b.Key(tile), content, opts); err != nil {
		return fmt.Errorf("write tile %s: %w", tile, err)
	}
	return nil
}

func (b *Bucket) Close() error {
	return b.bucket.Close()
}
