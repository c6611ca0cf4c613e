package interpret

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"finintel/internal/logging"
	"finintel/internal/mode"
)

// DefaultCacheSize bounds the memoized analyses kept by a Cache.
const DefaultCacheSize = 256

// Cache memoizes Analyze for renderers that redraw the same transcript
// many times per second.
type Cache struct {
	entries *lru.Cache[string, Analysis]
}

// NewCache creates a Cache holding up to size analyses.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, Analysis](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: c}, nil
}

// Analyze returns the cached analysis of text, computing it on a miss.
// Callers get their own copy; mutating it never reaches the cache.
func (c *Cache) Analyze(m mode.Mode, text string) Analysis {
	key := cacheKey(m, text)
	if a, ok := c.entries.Get(key); ok {
		return a.Clone()
	}
	a := Analyze(m, text)
	c.entries.Add(key, a)
	logging.InterpretDebug("analysis cached: mode=%s len=%d", m, len(text))
	return a.Clone()
}

// Len returns the number of cached analyses.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func cacheKey(m mode.Mode, text string) string {
	sum := sha256.Sum256([]byte(text))
	return string(m) + ":" + hex.EncodeToString(sum[:])
}
