package sentiment

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"sentcorr/internal/interfaces"
	"sentcorr/internal/logger"
)

// ScoreCache is a file-backed memo of capability scores keyed by
// capability name and text.
type ScoreCache struct {
	dir   string
	ttl   time.Duration
	clock clockwork.Clock
	mu    sync.RWMutex
}

type cacheEntry struct {
	Capability string    `json:"capability"`
	Text       string    `json:"text"`
	Score      float64   `json:"score"`
	StoredAt   time.Time `json:"stored_at"`
}

// NewScoreCache creates dir if needed.
func NewScoreCache(dir string, ttl time.Duration, clock clockwork.Clock) (*ScoreCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create score cache dir: %w", err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ScoreCache{dir: dir, ttl: ttl, clock: clock}, nil
}

// Get returns a cached score that has not expired.
func (c *ScoreCache) Get(capability, text string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := os.ReadFile(c.path(capability, text))
	if err != nil {
		return 0, false
	}
	var e cacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return 0, false
	}
	if e.Capability != capability || e.Text != text {
		return 0, false
	}
	if c.ttl > 0 && c.clock.Since(e.StoredAt) > c.ttl {
		return 0, false
	}
	return e.Score, true
}

// Set stores a score.
func (c *ScoreCache) Set(capability, text string, score float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(cacheEntry{Capability: capability, Text: text, Score: score, StoredAt: c.clock.Now()})
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(capability, text), data, 0o644)
}

// CleanupExpired removes entries older than the TTL and returns how many
// were removed.
func (c *ScoreCache) CleanupExpired() (int, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		p := filepath.Join(c.dir, entry.Name())
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var e cacheEntry
		if json.Unmarshal(data, &e) != nil || c.clock.Since(e.StoredAt) > c.ttl {
			if os.Remove(p) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

func (c *ScoreCache) path(capability, text string) string {
	hash := md5.Sum([]byte(capability + "\x00" + text))
	return filepath.Join(c.dir, fmt.Sprintf("%x.json", hash))
}

type cached struct {
	inner interfaces.SentimentCapability
	cache *ScoreCache
}

var _ interfaces.SentimentCapability = (*cached)(nil)

// WithCache memoizes successful scores of inner in cache.
func WithCache(inner interfaces.SentimentCapability, cache *ScoreCache) interfaces.SentimentCapability {
	return &cached{inner: inner, cache: cache}
}

func (c *cached) Name() string { return c.inner.Name() }

func (c *cached) Score(ctx context.Context, text string) (float64, error) {
	if v, ok := c.cache.Get(c.inner.Name(), text); ok {
		return v, nil
	}
	v, err := c.inner.Score(ctx, text)
	if err != nil {
		return 0, err
	}
	if err := c.cache.Set(c.inner.Name(), text, v); err != nil {
		logger.Warn(ctx, "Failed to store score in cache", "capability", c.inner.Name(), "error", err)
	}
	return v, nil
}
