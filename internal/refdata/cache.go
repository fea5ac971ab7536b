package refdata

import (
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sha1n/mcp-reflookup-server/internal/domain"
)

// queryCache memoizes search results per dataset generation.
// A nil *queryCache is a valid, disabled cache.
type queryCache struct {
	entries *lru.Cache[string, []*domain.Record]
}

// newQueryCache returns nil when size is not positive.
func newQueryCache(size int) (*queryCache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[string, []*domain.Record](size)
	if err != nil {
		return nil, err
	}
	return &queryCache{entries: entries}, nil
}

func cacheKey(generation uint64, query string, limit int) string {
	return strconv.FormatUint(generation, 10) + "\x00" + strconv.Itoa(limit) + "\x00" + query
}

// get returns a copy of the cached results.
func (c *queryCache) get(key string) ([]*domain.Record, bool) {
	if c == nil {
		return nil, false
	}
	cached, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return copyRecords(cached), true
}

// add stores a private copy of results.
func (c *queryCache) add(key string, results []*domain.Record) {
	if c == nil {
		return
	}
	c.entries.Add(key, copyRecords(results))
}

func (c *queryCache) purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func (c *queryCache) len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func copyRecords(records []*domain.Record) []*domain.Record {
	out := make([]*domain.Record, len(records))
	copy(out, records)
	return out
}
