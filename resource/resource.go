package resource

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// ID is a process-unique resource identifier.
type ID uint64

var lastID atomic.Uint64

func nextID() ID { return ID(lastID.Add(1)) }

// Backing is the backend-native object behind a Resource.
//
// Destroy releases the native object. It is only ever called on the goroutine
// that owns the cache, at most once.
type Backing interface {
	Destroy()
}

// FormatReporter is implemented by texture backings whose actual format
// differs from the requested one (a backend may substitute a close format).
type FormatReporter interface {
	Format() gputypes.TextureFormat
}

type state uint8

const (
	stateLive state = iota
	stateReleased
	stateAbandoned
)

// Resource is a reference-counted GPU object tracked by a Cache.
//
// A freshly created Resource holds one reference owned by its creator.
type Resource struct {
	id       ID
	kind     Kind
	texture  TextureDesc
	buffer   BufferDesc
	size     uint64
	budgeted bool

	refs  atomic.Int32
	owner atomic.Pointer[Cache]

	// Fields below are only touched on the owning goroutine.
	backing    Backing
	state      state
	uniqueKey  UniqueKey
	scratchKey ScratchKey
	lastUsed   uint64
	node       *lruNode[*Resource]
}

// NewTexture wraps a texture backing. The returned resource holds one
// reference for the caller.
func NewTexture(desc TextureDesc, backing Backing, budgeted bool) *Resource {
	r := &Resource{
		id:       nextID(),
		kind:     KindTexture,
		texture:  desc,
		size:     desc.SizeBytes(),
		budgeted: budgeted,
		backing:  backing,
	}
	r.refs.Store(1)
	return r
}

// NewBuffer wraps a buffer backing. The returned resource holds one
// reference for the caller.
func NewBuffer(desc BufferDesc, backing Backing, budgeted bool) *Resource {
	r := &Resource{
		id:       nextID(),
		kind:     KindBuffer,
		buffer:   desc,
		size:     desc.Size,
		budgeted: budgeted,
		backing:  backing,
	}
	r.refs.Store(1)
	return r
}

// ID returns the process-unique identifier.
func (r *Resource) ID() ID { return r.id }

// Kind reports whether the resource is a texture or a buffer.
func (r *Resource) Kind() Kind { return r.kind }

// Backing returns the native object, or nil once the resource was released
// or abandoned.
func (r *Resource) Backing() Backing { return r.backing }

// SizeBytes returns the memory estimate used for budgeting.
func (r *Resource) SizeBytes() uint64 { return r.size }

// Budgeted reports whether the resource counts against the cache limit.
func (r *Resource) Budgeted() bool { return r.budgeted }

// TextureDesc returns the descriptor the texture was created with.
func (r *Resource) TextureDesc() TextureDesc { return r.texture }

// BufferDesc returns the descriptor the buffer was created with.
func (r *Resource) BufferDesc() BufferDesc { return r.buffer }

// Width returns the texture width, or zero for buffers.
func (r *Resource) Width() int { return r.texture.Width }

// Height returns the texture height, or zero for buffers.
func (r *Resource) Height() int { return r.texture.Height }

// Format returns the texel format actually in use.
func (r *Resource) Format() gputypes.TextureFormat {
	if fr, ok := r.backing.(FormatReporter); ok {
		return fr.Format()
	}
	return r.texture.Format
}

// SampleCount returns the texture's sample count (at least 1).
func (r *Resource) SampleCount() uint32 { return r.texture.Samples() }

// UniqueKey returns the content key, or the zero key.
func (r *Resource) UniqueKey() UniqueKey { return r.uniqueKey }

// ScratchKey returns the scratch key, or the zero key.
func (r *Resource) ScratchKey() ScratchKey { return r.scratchKey }

// LastUsed returns the cache tick at which the resource was last used.
func (r *Resource) LastUsed() uint64 { return r.lastUsed }

// IsDestroyed reports whether the backing was released or abandoned.
func (r *Resource) IsDestroyed() bool { return r.state != stateLive }

// Ref adds an external reference. The caller must already hold one, or be on
// the goroutine that owns the cache.
func (r *Resource) Ref() { r.refs.Add(1) }

// Unref drops an external reference. It is safe on any goroutine. When the
// last reference goes away the resource is posted to its cache's inbox; the
// backing is never destroyed inline.
func (r *Resource) Unref() {
	n := r.refs.Add(-1)
	switch {
	case n > 0:
		return
	case n < 0:
		slogger().Warn("resource: unref below zero", "id", r.id)
		r.refs.Store(0)
		return
	}
	if c := r.owner.Load(); c != nil {
		c.inbox.postUnreferenced(r)
	}
}

// RefCount returns the number of external references.
func (r *Resource) RefCount() int { return int(r.refs.Load()) }

// IsPurgeable reports whether no external owner holds the resource.
func (r *Resource) IsPurgeable() bool { return r.refs.Load() == 0 }

// hasKey reports whether a cache can hand the resource out again.
func (r *Resource) hasKey() bool {
	return r.uniqueKey.IsValid() || r.scratchKey.IsValid()
}
