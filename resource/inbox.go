package resource

import "sync"

// purgeRequest asks the owning goroutine to drop either every resource
// holding key or one specific resource.
type purgeRequest struct {
	key UniqueKey
	res *Resource
}

// inbox collects messages posted from arbitrary goroutines until the cache
// owner drains them.
type inbox struct {
	mu           sync.Mutex
	unreferenced []*Resource
	purges       []purgeRequest
	closed       bool
}

func (b *inbox) postUnreferenced(r *Resource) {
	b.mu.Lock()
	if !b.closed {
		b.unreferenced = append(b.unreferenced, r)
	}
	b.mu.Unlock()
}

func (b *inbox) postPurge(req purgeRequest) {
	b.mu.Lock()
	if !b.closed {
		b.purges = append(b.purges, req)
	}
	b.mu.Unlock()
}

// take swaps out both queues.
func (b *inbox) take() ([]*Resource, []purgeRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	unref, purges := b.unreferenced, b.purges
	b.unreferenced, b.purges = nil, nil
	return unref, purges
}

func (b *inbox) pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.unreferenced) + len(b.purges)
}

// close drops queued messages and ignores later posts.
func (b *inbox) close() {
	b.mu.Lock()
	b.unreferenced, b.purges = nil, nil
	b.closed = true
	b.mu.Unlock()
}
