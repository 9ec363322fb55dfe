package resource

import (
	"fmt"
)

// DefaultMaxTextureSize is used when an Allocator reports no limit.
const DefaultMaxTextureSize = 8192

// Allocator creates backend-native objects. It is implemented by backends
// and only called on the goroutine that owns the cache.
type Allocator interface {
	// CreateTexture allocates a texture, optionally initialized with tightly
	// packed pixels in desc.Format.
	CreateTexture(desc TextureDesc, pixels []byte) (Backing, error)

	// CreateBuffer allocates a buffer, optionally initialized with data.
	CreateBuffer(desc BufferDesc, data []byte) (Backing, error)

	// WriteBuffer uploads data at offset into a buffer backing.
	WriteBuffer(b Backing, offset uint64, data []byte) error

	// MaxTextureSize returns the largest supported texture dimension,
	// or zero for DefaultMaxTextureSize.
	MaxTextureSize() int
}

// Provider creates resources through an Allocator and registers them with a
// Cache, reusing scratch and uniquely keyed resources where possible.
type Provider struct {
	cache *Cache
	alloc Allocator
}

// NewProvider returns a provider backed by cache and alloc.
func NewProvider(cache *Cache, alloc Allocator) *Provider {
	return &Provider{cache: cache, alloc: alloc}
}

// Cache returns the cache new resources are registered with.
func (p *Provider) Cache() *Cache { return p.cache }

// MaxTextureSize returns the backend texture dimension limit.
func (p *Provider) MaxTextureSize() int {
	if n := p.alloc.MaxTextureSize(); n > 0 {
		return n
	}
	return DefaultMaxTextureSize
}

// CreateTexture allocates a new texture. pixels may be nil.
func (p *Provider) CreateTexture(desc TextureDesc, budgeted bool, pixels []byte) (*Resource, error) {
	if p.cache.Closed() {
		return nil, ErrAbandoned
	}
	if err := desc.Validate(p.MaxTextureSize()); err != nil {
		return nil, err
	}
	b, err := p.alloc.CreateTexture(desc, pixels)
	if err != nil {
		return nil, fmt.Errorf("%w: texture %dx%d: %w", ErrAllocation, desc.Width, desc.Height, err)
	}
	r := NewTexture(desc, b, budgeted)
	p.cache.Add(r)
	return r, nil
}

// FindOrCreateScratchTexture returns an unreferenced texture matching desc
// or allocates a new one under desc's scratch key.
func (p *Provider) FindOrCreateScratchTexture(desc TextureDesc) (*Resource, error) {
	if p.cache.Closed() {
		return nil, ErrAbandoned
	}
	key := desc.ScratchKey()
	if r := p.cache.FindScratch(key); r != nil {
		return r, nil
	}
	if err := desc.Validate(p.MaxTextureSize()); err != nil {
		return nil, err
	}
	b, err := p.alloc.CreateTexture(desc, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: scratch texture %dx%d: %w", ErrAllocation, desc.Width, desc.Height, err)
	}
	r := NewTexture(desc, b, true)
	r.scratchKey = key
	p.cache.Add(r)
	return r, nil
}

// CreateBuffer allocates a new unkeyed buffer. data may be nil.
func (p *Provider) CreateBuffer(desc BufferDesc, data []byte) (*Resource, error) {
	if p.cache.Closed() {
		return nil, ErrAbandoned
	}
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrInvalidDescriptor)
	}
	b, err := p.alloc.CreateBuffer(desc, data)
	if err != nil {
		return nil, fmt.Errorf("%w: buffer of %d bytes: %w", ErrAllocation, desc.Size, err)
	}
	r := NewBuffer(desc, b, true)
	p.cache.Add(r)
	return r, nil
}

// FindOrCreateScratchBuffer returns an unreferenced buffer matching desc or
// allocates a new one under desc's scratch key.
func (p *Provider) FindOrCreateScratchBuffer(desc BufferDesc) (*Resource, error) {
	if p.cache.Closed() {
		return nil, ErrAbandoned
	}
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: empty buffer", ErrInvalidDescriptor)
	}
	key := desc.ScratchKey()
	if r := p.cache.FindScratch(key); r != nil {
		return r, nil
	}
	b, err := p.alloc.CreateBuffer(desc, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: scratch buffer of %d bytes: %w", ErrAllocation, desc.Size, err)
	}
	r := NewBuffer(desc, b, true)
	r.scratchKey = key
	p.cache.Add(r)
	return r, nil
}

// WriteBuffer uploads data to the start of a buffer resource.
func (p *Provider) WriteBuffer(r *Resource, data []byte) error {
	if p.cache.Closed() || r.IsDestroyed() {
		return ErrAbandoned
	}
	if r.kind != KindBuffer {
		return fmt.Errorf("%w: write to %s", ErrWrongKind, r.kind)
	}
	if uint64(len(data)) > r.buffer.Size {
		return fmt.Errorf("%w: %d bytes into buffer of %d", ErrInvalidDescriptor, len(data), r.buffer.Size)
	}
	if err := p.alloc.WriteBuffer(r.backing, 0, data); err != nil {
		return fmt.Errorf("%w: write buffer: %w", ErrAllocation, err)
	}
	p.cache.Touch(r)
	return nil
}

// FindByUniqueKey returns the resource holding key with a reference taken,
// or nil.
func (p *Provider) FindByUniqueKey(key UniqueKey) *Resource {
	if p.cache.Closed() {
		return nil
	}
	return p.cache.FindUnique(key)
}

// AssignUniqueKey gives r the content key.
func (p *Provider) AssignUniqueKey(r *Resource, key UniqueKey) {
	p.cache.SetUniqueKey(r, key)
}
