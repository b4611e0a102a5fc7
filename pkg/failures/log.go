package failures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kerbaras/tilegrab/pkg/data"
)

// Recorder is an append-only sink of failed tiles.
type Recorder interface {
	// Clear truncates the sink. It is only called before a run starts.
	Clear(ctx context.Context) error
	Record(ctx context.Context, tile data.Tile, at time.Time) error
	Close() error
}

// Line formats one failure entry without the trailing newline.
func Line(tile data.Tile, at time.Time) string {
	return fmt.Sprintf("%s failed: %s.", at.Format(time.RFC3339), tile)
}

// Open returns a RedisLog for redis:// and rediss:// specs, otherwise a FileLog at that path.
func Open(spec string) (Recorder, error) {
	if strings.HasPrefix(spec, "redis://") || strings.HasPrefix(spec, "rediss://") {
		return OpenRedis(spec)
	}
	return NewFileLog(spec), nil
}

// FileLog appends failures to a plain text file, one per line.
type FileLog struct {
	path string
	mu   sync.Mutex
}

func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

func (l *FileLog) Clear(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create failure log directory: %w", err)
		}
	}
	if err := os.WriteFile(l.path, nil, 0o644); err != nil {
		return fmt.Errorf("truncate failure log: %w", err)
	}
	return nil
}

func (l *FileLog) Record(_ context.Context, tile data.Tile, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open failure log: %w", err)
	}

	if _, err := f.WriteString(Line(tile, at) + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("append failure log: %w", err)
	}
	return f.Close()
}

func (l *FileLog) Close() error {
	return nil
}
