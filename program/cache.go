package program

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the number of programs kept by a Cache by default.
const DefaultCapacity = 128

// Stats contains program cache statistics.
type Stats struct {
	Hits            uint64
	Misses          uint64
	CompileFailures uint64
	Evictions       uint64
	Len             int
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("ProgramCache[%d programs, %d hits, %d misses, %d failures, %d evictions]",
		s.Len, s.Hits, s.Misses, s.CompileFailures, s.Evictions)
}

type entry struct {
	key     Key
	program Program
}

// Cache maps program keys to compiled programs, evicting the least recently
// used program once more than its capacity are held.
//
// Cache is not safe for concurrent use.
type Cache struct {
	compiler Compiler
	programs *lru.Cache[Key, *entry]
	builder  KeyBuilder

	// destroyOnEvict is cleared while ReleaseAll drops programs of a lost
	// context; purging keeps those drops out of the eviction count.
	destroyOnEvict bool
	purging        bool

	// While holding, evicted programs may still be bound in a recorded
	// pass; their destruction waits for Unhold.
	holding bool
	held    []Program

	stats Stats
}

// NewCache creates a cache compiling through c. A capacity <= 0 selects
// DefaultCapacity.
func NewCache(c Compiler, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	pc := &Cache{compiler: c, destroyOnEvict: true}
	// NewWithEvict only fails for a non-positive size.
	pc.programs, _ = lru.NewWithEvict[Key, *entry](capacity, pc.onEvict)
	return pc
}

// GetProgram returns the program for creator, compiling it on a miss.
// A compile failure is not cached and is reported as ErrCompile.
func (c *Cache) GetProgram(creator Creator) (Program, error) {
	c.builder.Reset()
	creator.ComputeKey(c.compiler, &c.builder)
	key := c.builder.Key()

	if e, ok := c.programs.Get(key); ok {
		c.stats.Hits++
		return e.program, nil
	}
	c.stats.Misses++

	p, err := creator.Create(c.compiler)
	if err != nil {
		c.stats.CompileFailures++
		slogger().Warn("program: compile failed", "key", key.Hash(), "err", err)
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	c.programs.Add(key, &entry{key: key, program: p})
	slogger().Debug("program: compiled", "label", p.Desc().Label, "key", key.Hash(),
		"programs", c.programs.Len())
	return p, nil
}

// Contains reports whether creator's program is cached, without touching
// the recency order.
func (c *Cache) Contains(creator Creator) bool {
	c.builder.Reset()
	creator.ComputeKey(c.compiler, &c.builder)
	return c.programs.Contains(c.builder.Key())
}

// Len returns the number of cached programs.
func (c *Cache) Len() int { return c.programs.Len() }

// ReleaseAll empties the cache. When releaseGPU is false the programs are
// dropped without native calls because the context was lost.
func (c *Cache) ReleaseAll(releaseGPU bool) {
	if releaseGPU {
		c.Unhold()
	} else {
		c.holding = false
		c.held = nil
	}
	c.destroyOnEvict = releaseGPU
	c.purging = true
	c.programs.Purge()
	c.purging = false
	c.destroyOnEvict = true
}

// Stats returns current statistics.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Len = c.programs.Len()
	return s
}

func (c *Cache) onEvict(_ Key, e *entry) {
	if !c.purging {
		c.stats.Evictions++
		slogger().Debug("program: evicted", "label", e.program.Desc().Label, "key", e.key.Hash())
	}
	switch {
	case !c.destroyOnEvict:
	case c.holding && !c.purging:
		c.held = append(c.held, e.program)
	default:
		e.program.Destroy()
	}
}

// Hold defers the destruction of programs evicted from now on until
// Unhold. The drawing manager holds the cache for the length of a flush.
func (c *Cache) Hold() { c.holding = true }

// Unhold destroys the programs evicted while holding.
func (c *Cache) Unhold() {
	c.holding = false
	for _, p := range c.held {
		p.Destroy()
	}
	clear(c.held)
	c.held = c.held[:0]
}
