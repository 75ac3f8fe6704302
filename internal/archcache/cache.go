package archcache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openinglab/chesstrail/internal/chesscom"
)

// Cache keeps fetched month archives in Redis. Completed months never
// change upstream, so serving them from cache skips a network round trip.
// A nil *Cache is valid and behaves as a permanent miss, which lets the
// cache stay optional in wiring.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{rdb: rdb, ttl: ttl}
}

// Open connects a go-redis client from a redis:// or rediss:// URL and
// verifies it with a ping.
func Open(redisURL string) (*redis.Client, error) {
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func keyMonth(username string, year, month int) string {
	return fmt.Sprintf("arch:%s:%04d:%02d", strings.ToLower(strings.TrimSpace(username)), year, month)
}

// Completed reports whether the month lies strictly before the current
// month in UTC. Only completed months are safe to cache.
func Completed(year, month int, now time.Time) bool {
	now = now.UTC()
	if year != now.Year() {
		return year < now.Year()
	}
	return month < int(now.Month())
}

// LoadMonth returns the cached games for a month. The second return is
// false on a miss; a cached empty month is a hit with zero games.
func (c *Cache) LoadMonth(ctx context.Context, username string, year, month int) ([]chesscom.Game, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	raw, err := c.rdb.Get(ctx, keyMonth(username, year, month)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var games []chesscom.Game
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, false, err
	}
	return games, true, nil
}

func (c *Cache) SaveMonth(ctx context.Context, username string, year, month int, games []chesscom.Game) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	if games == nil {
		games = []chesscom.Game{}
	}
	raw, err := json.Marshal(games)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyMonth(username, year, month), raw, c.ttl).Err()
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
