package transform

import (
	"fmt"
	"hash/fnv"

	lru "github.com/hashicorp/golang-lru/v2"
)

// transpileCache memoizes per-file transpile outcomes across pipeline runs,
// keyed by path and content so an edited file never hits a stale entry.
// Failures are cached too; transpilation is deterministic.
type transpileCache struct {
	entries *lru.Cache[string, transpileOutcome]
}

type transpileOutcome struct {
	code    string
	failure string
}

func newTranspileCache(size int) *transpileCache {
	entries, err := lru.New[string, transpileOutcome](size)
	if err != nil {
		panic(fmt.Sprintf("transform: bad cache size %d: %v", size, err))
	}
	return &transpileCache{entries: entries}
}

func (c *transpileCache) get(key string) (transpileOutcome, bool) {
	return c.entries.Get(key)
}

func (c *transpileCache) set(key string, outcome transpileOutcome) {
	c.entries.Add(key, outcome)
}

func contentKey(path, content string) string {
	h := fnv.New64a()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(content))
	return fmt.Sprintf("%x", h.Sum64())
}
