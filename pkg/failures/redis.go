package failures

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kerbaras/tilegrab/pkg/data"
)

const DefaultRedisKey = "tilegrab:failures"

// RedisLog appends failures to a Redis list. RPUSH is atomic, so concurrent
// records never interleave.
type RedisLog struct {
	client *redis.Client
	key    string
}

// OpenRedis parses redis://[user:pass@]host:port/db?key=name. The key
// parameter selects the list and defaults to DefaultRedisKey.
func OpenRedis(spec string) (*RedisLog, error) {
	u, err := url.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse failure log url: %w", err)
	}

	q := u.Query()
	key := q.Get("key")
	if key == "" {
		key = DefaultRedisKey
	}
	q.Del("key")
	u.RawQuery = q.Encode()

	opts, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, fmt.Errorf("parse failure log url: %w", err)
	}
	return NewRedisLog(redis.NewClient(opts), key), nil
}

func NewRedisLog(client *redis.Client, key string) *RedisLog {
	return &RedisLog{client: client, key: key}
}

func (l *RedisLog) Key() string {
	return l.key
}

func (l *RedisLog) Clear(ctx context.Context) error {
	if err := l.client.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("clear failure list: %w", err)
	}
	return nil
}

func (l *RedisLog) Record(ctx context.Context, tile data.Tile, at time.Time) error {
	if err := l.client.RPush(ctx, l.key, Line(tile, at)).Err(); err != nil {
		return fmt.Errorf("append failure list: %w", err)
	}
	return nil
}

// Lines returns every recorded entry in append order.
func (l *RedisLog) Lines(ctx context.Context) ([]string, error) {
	return l.client.LRange(ctx, l.key, 0, -1).Result()
}

func (l *RedisLog) Close() error {
	return l.client.Close()
}
