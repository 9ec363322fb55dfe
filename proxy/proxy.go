package proxy

import (
	"runtime"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/resource"
)

// ID is a process-unique proxy identifier.
type ID uint64

var lastID atomic.Uint64

func nextID() ID { return ID(lastID.Add(1)) }

// Proxy is the common interface of texture and render target proxies.
type Proxy interface {
	ID() ID

	// Dimensions returns the described size before instantiation and the
	// backing resource's size after.
	Dimensions() (width, height int)

	// Format returns the described format before instantiation and the
	// format actually chosen by the backend after.
	Format() gputypes.TextureFormat

	IsInstantiated() bool

	// Instantiate creates or finds the backing resource. Calling it again
	// after success is a no-op. Owner goroutine only.
	Instantiate(p *resource.Provider) error

	// Resource returns the backing resource, or nil while deferred.
	Resource() *resource.Resource

	// Ref adds a reference to the proxy. Ops referencing a proxy hold one.
	Ref()

	// Release drops a reference. The last release drops the backing
	// resource, from any goroutine.
	Release()

	AsTextureProxy() *TextureProxy
	AsRenderTargetProxy() *RenderTargetProxy
}

// holder owns the resource reference of a proxy. It is separate from the
// proxy so the GC cleanup can reach it without keeping the proxy alive.
type holder struct {
	res atomic.Pointer[resource.Resource]
}

func (h *holder) drop() {
	if r := h.res.Swap(nil); r != nil {
		r.Unref()
	}
}

// lifetime tracks proxy references and the GC safety net.
type lifetime struct {
	refs     atomic.Int32
	released atomic.Bool
	holder   *holder
	cleanup  runtime.Cleanup
}

func (l *lifetime) init() {
	l.refs.Store(1)
	l.holder = &holder{}
}

// track attaches a GC cleanup to ptr that unrefs the backing resource if the
// proxy becomes unreachable without being released.
func track[T any](ptr *T, l *lifetime) {
	l.cleanup = runtime.AddCleanup(ptr, (*holder).drop, l.holder)
}

func (l *lifetime) ref() { l.refs.Add(1) }

// tryRef adds a reference unless the count already reached zero. A
// released proxy never comes back.
func (l *lifetime) tryRef() bool {
	for {
		n := l.refs.Load()
		if n <= 0 {
			return false
		}
		if l.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release returns true when the last reference went away.
func (l *lifetime) release() bool {
	if l.refs.Add(-1) != 0 {
		return false
	}
	l.released.Store(true)
	l.cleanup.Stop()
	l.holder.drop()
	return true
}
