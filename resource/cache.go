package resource

import (
	"fmt"
)

// DefaultLimit is the default budget for budgeted resources (256 MB).
const DefaultLimit uint64 = 256 * 1024 * 1024

// Stats contains resource cache usage statistics.
type Stats struct {
	// Limit is the budget in bytes.
	Limit uint64

	// BudgetedBytes counts budgeted resources, referenced or not.
	BudgetedBytes uint64

	// PurgeableBytes counts budgeted resources nobody references.
	PurgeableBytes uint64

	// Resources is the number of live resources in the cache.
	Resources int

	// Purgeable is the number of resources on the purgeable list.
	Purgeable int

	// Evictions counts resources dropped to satisfy the budget.
	Evictions uint64

	// Released counts backings destroyed for any reason.
	Released uint64
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("ResourceCache[%d resources, %d purgeable, %d/%d KB, %d evictions]",
		s.Resources, s.Purgeable, s.BudgetedBytes/1024, s.Limit/1024, s.Evictions)
}

// Cache indexes the resources of one context and enforces the byte budget.
//
// Apart from [Cache.InvalidateUniqueKey], [Cache.PurgeResource] and
// [Resource.Unref], all methods must be called from the owning goroutine.
type Cache struct {
	inbox inbox

	resources map[ID]*Resource
	unique    map[UniqueKey]*Resource
	scratch   map[ScratchKey][]*Resource
	purgeable lruList[*Resource]

	limit          uint64
	budgetedBytes  uint64
	purgeableBytes uint64
	tick           uint64

	evictions uint64
	released  uint64

	closed bool
}

// NewCache creates an empty cache. A zero limit selects DefaultLimit.
func NewCache(limit uint64) *Cache {
	if limit == 0 {
		limit = DefaultLimit
	}
	return &Cache{
		resources: make(map[ID]*Resource),
		unique:    make(map[UniqueKey]*Resource),
		scratch:   make(map[ScratchKey][]*Resource),
		limit:     limit,
	}
}

// Add registers a freshly created resource and trims the cache back to its
// budget. Resources already owned by a cache are ignored.
func (c *Cache) Add(r *Resource) {
	if c.closed {
		slogger().Warn("resource: add to closed cache", "id", r.id)
		r.state = stateAbandoned
		r.backing = nil
		return
	}
	if r.state != stateLive || !r.owner.CompareAndSwap(nil, c) {
		slogger().Warn("resource: resource already owned", "id", r.id)
		return
	}

	c.resources[r.id] = r
	c.touch(r)
	if r.budgeted {
		c.budgetedBytes += r.size
	}
	if r.scratchKey.IsValid() {
		c.scratch[r.scratchKey] = append(c.scratch[r.scratchKey], r)
	}
	if k := r.uniqueKey; k.IsValid() {
		r.uniqueKey = UniqueKey{}
		c.SetUniqueKey(r, k)
	}
	if r.refs.Load() == 0 {
		c.becameUnreferenced(r)
	}

	c.PurgeUntilBudget(c.limit)
}

// FindUnique returns the resource holding key with a new reference taken,
// or nil.
func (c *Cache) FindUnique(key UniqueKey) *Resource {
	r := c.unique[key]
	if r == nil {
		return nil
	}
	c.refAndTouch(r)
	return r
}

// FindScratch returns an unreferenced resource with an equal scratch key,
// with a new reference taken, or nil. Resources holding a unique key are
// never handed out as scratch.
func (c *Cache) FindScratch(key ScratchKey) *Resource {
	for _, r := range c.scratch[key] {
		if r.refs.Load() == 0 && !r.uniqueKey.IsValid() {
			c.refAndTouch(r)
			return r
		}
	}
	return nil
}

// SetUniqueKey assigns key to r. If another resource holds key it loses it.
// An invalid key removes r's current key.
func (c *Cache) SetUniqueKey(r *Resource, key UniqueKey) {
	if !key.IsValid() {
		c.RemoveUniqueKey(r)
		return
	}
	if c.resources[r.id] != r {
		return
	}
	if old := c.unique[key]; old != nil && old != r {
		c.RemoveUniqueKey(old)
	}
	if r.uniqueKey.IsValid() {
		delete(c.unique, r.uniqueKey)
	}
	r.uniqueKey = key
	c.unique[key] = r
}

// RemoveUniqueKey drops r's unique key. An unreferenced resource that is no
// longer reachable through any key is released.
func (c *Cache) RemoveUniqueKey(r *Resource) {
	if !r.uniqueKey.IsValid() {
		return
	}
	if c.unique[r.uniqueKey] == r {
		delete(c.unique, r.uniqueKey)
	}
	r.uniqueKey = UniqueKey{}
	if r.node != nil && !r.hasKey() {
		c.release(r)
	}
}

// InvalidateUniqueKey asks the owner to drop key. Safe on any goroutine;
// takes effect in ProcessMessages.
func (c *Cache) InvalidateUniqueKey(key UniqueKey) {
	if key.IsValid() {
		c.inbox.postPurge(purgeRequest{key: key})
	}
}

// PurgeResource asks the owner to remove r from the cache. Safe on any
// goroutine; takes effect in ProcessMessages. A referenced resource loses
// its keys and is released once unreferenced.
func (c *Cache) PurgeResource(r *Resource) {
	if r != nil {
		c.inbox.postPurge(purgeRequest{res: r})
	}
}

// ProcessMessages drains the unreferenced and pending-purge queues.
func (c *Cache) ProcessMessages() {
	if c.closed {
		return
	}
	unref, purges := c.inbox.take()
	for _, r := range unref {
		if c.resources[r.id] == r && r.refs.Load() == 0 {
			c.becameUnreferenced(r)
		}
	}
	for _, req := range purges {
		if req.res != nil {
			c.purgeResource(req.res)
			continue
		}
		if r := c.unique[req.key]; r != nil {
			c.RemoveUniqueKey(r)
		}
	}
	if len(unref)+len(purges) > 0 {
		slogger().Debug("resource: processed messages",
			"unreferenced", len(unref), "purges", len(purges))
	}
}

// PendingMessages returns the number of queued inbox messages.
func (c *Cache) PendingMessages() int { return c.inbox.pending() }

// PurgeUntilBudget evicts purgeable resources from the least recently used
// end until budgeted bytes are at most target. Referenced resources are
// never evicted.
func (c *Cache) PurgeUntilBudget(target uint64) {
	for c.budgetedBytes > target {
		r, ok := c.purgeable.Oldest()
		if !ok {
			return
		}
		c.release(r)
		c.evictions++
	}
}

// PurgeAsNeeded drains the inbox and trims the cache to its limit.
func (c *Cache) PurgeAsNeeded() {
	c.ProcessMessages()
	c.PurgeUntilBudget(c.limit)
}

// PurgeNotUsedSince releases purgeable resources last used before tick.
func (c *Cache) PurgeNotUsedSince(tick uint64) {
	c.purgeable.Each(func(n *lruNode[*Resource]) {
		if n.key.lastUsed < tick {
			c.release(n.key)
		}
	})
}

// PurgeUnreferenced releases every purgeable resource.
func (c *Cache) PurgeUnreferenced() {
	c.ProcessMessages()
	c.purgeable.Each(func(n *lruNode[*Resource]) {
		c.release(n.key)
	})
}

// Touch records a use of r, moving it to the most recently used position.
func (c *Cache) Touch(r *Resource) {
	if c.resources[r.id] != r {
		return
	}
	c.touch(r)
	if r.node != nil {
		c.purgeable.MoveToFront(r.node)
	}
}

// Tick returns the current use counter.
func (c *Cache) Tick() uint64 { return c.tick }

// Limit returns the budget in bytes.
func (c *Cache) Limit() uint64 { return c.limit }

// SetLimit changes the budget and evicts down to it.
func (c *Cache) SetLimit(limit uint64) {
	c.limit = limit
	c.PurgeUntilBudget(limit)
}

// Closed reports whether the cache was abandoned or released.
func (c *Cache) Closed() bool { return c.closed }

// Abandon drops every backing without native calls. Used when the device is
// lost. Later calls on the cache are inert.
func (c *Cache) Abandon() {
	if c.closed {
		return
	}
	c.inbox.close()
	for _, r := range c.resources {
		r.state = stateAbandoned
		r.backing = nil
		r.node = nil
	}
	slogger().Debug("resource: cache abandoned", "resources", len(c.resources))
	c.reset()
}

// ReleaseAll destroys every backing natively. Used for orderly teardown.
// Later calls on the cache are inert.
func (c *Cache) ReleaseAll() {
	if c.closed {
		return
	}
	c.inbox.close()
	n := len(c.resources)
	for _, r := range c.resources {
		c.release(r)
	}
	slogger().Debug("resource: cache released", "resources", n)
	c.reset()
}

// Stats returns current usage statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Limit:          c.limit,
		BudgetedBytes:  c.budgetedBytes,
		PurgeableBytes: c.purgeableBytes,
		Resources:      len(c.resources),
		Purgeable:      c.purgeable.Len(),
		Evictions:      c.evictions,
		Released:       c.released,
	}
}

func (c *Cache) touch(r *Resource) {
	c.tick++
	r.lastUsed = c.tick
}

func (c *Cache) refAndTouch(r *Resource) {
	if r.node != nil {
		c.purgeable.Remove(r.node)
		r.node = nil
		c.purgeableBytes -= r.size
	}
	r.Ref()
	c.touch(r)
}

// becameUnreferenced moves r to the purgeable list, or releases it when the
// cache could never hand it out again.
func (c *Cache) becameUnreferenced(r *Resource) {
	if r.node != nil {
		return
	}
	if !r.budgeted || !r.hasKey() {
		c.release(r)
		return
	}
	r.node = c.purgeable.PushFront(r)
	c.purgeableBytes += r.size
}

func (c *Cache) purgeResource(r *Resource) {
	if c.resources[r.id] != r {
		return
	}
	if r.refs.Load() == 0 {
		c.release(r)
		return
	}
	if r.uniqueKey.IsValid() {
		c.RemoveUniqueKey(r)
	}
	c.removeScratch(r)
	r.scratchKey = ScratchKey{}
}

func (c *Cache) removeScratch(r *Resource) {
	if !r.scratchKey.IsValid() {
		return
	}
	list := c.scratch[r.scratchKey]
	for i, s := range list {
		if s == r {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.scratch, r.scratchKey)
	} else {
		c.scratch[r.scratchKey] = list
	}
}

// release removes r from every index and destroys its backing.
func (c *Cache) release(r *Resource) {
	if c.resources[r.id] != r {
		return
	}
	delete(c.resources, r.id)
	if r.uniqueKey.IsValid() && c.unique[r.uniqueKey] == r {
		delete(c.unique, r.uniqueKey)
	}
	c.removeScratch(r)
	if r.node != nil {
		c.purgeable.Remove(r.node)
		r.node = nil
		c.purgeableBytes -= r.size
	}
	if r.budgeted {
		c.budgetedBytes -= r.size
	}

	r.state = stateReleased
	b := r.backing
	r.backing = nil
	if b != nil {
		b.Destroy()
	}
	c.released++
	slogger().Debug("resource: released", "id", r.id, "kind", r.kind, "bytes", r.size)
}

func (c *Cache) reset() {
	c.resources = make(map[ID]*Resource)
	c.unique = make(map[UniqueKey]*Resource)
	c.scratch = make(map[ScratchKey][]*Resource)
	c.purgeable.Clear()
	c.budgetedBytes = 0
	c.purgeableBytes = 0
	c.closed = true
}
