package proxy

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/resource"
)

// source is where a texture proxy gets its contents from.
type source uint8

const (
	sourceDeferred source = iota
	sourcePixels
	sourceGenerator
	sourceWrapped
)

func (s source) String() string {
	switch s {
	case sourceDeferred:
		return "deferred"
	case sourcePixels:
		return "pixels"
	case sourceGenerator:
		return "generator"
	case sourceWrapped:
		return "wrapped"
	default:
		return fmt.Sprintf("source(%d)", s)
	}
}

// TextureProxy is a deferred handle to a sampled texture.
type TextureProxy struct {
	lifetime

	id       ID
	desc     resource.TextureDesc
	budgeted bool
	src      source

	// Owner goroutine only after construction.
	pixels []byte
	gen    ImageGenerator

	keyMu     sync.Mutex
	uniqueKey resource.UniqueKey
}

func newTexture(desc resource.TextureDesc, budgeted bool, src source) *TextureProxy {
	p := &TextureProxy{id: nextID(), desc: desc, budgeted: budgeted, src: src}
	p.lifetime.init()
	track(p, &p.lifetime)
	return p
}

// ID implements Proxy.
func (p *TextureProxy) ID() ID { return p.id }

// Dimensions implements Proxy.
func (p *TextureProxy) Dimensions() (int, int) {
	if r := p.holder.res.Load(); r != nil {
		return r.Width(), r.Height()
	}
	return p.desc.Width, p.desc.Height
}

// Format implements Proxy.
func (p *TextureProxy) Format() gputypes.TextureFormat {
	if r := p.holder.res.Load(); r != nil {
		return r.Format()
	}
	return p.desc.Format
}

// Desc returns the descriptor the proxy was created with.
func (p *TextureProxy) Desc() resource.TextureDesc { return p.desc }

// Budgeted reports whether the backing counts against the cache budget.
func (p *TextureProxy) Budgeted() bool { return p.budgeted }

// UniqueKey returns the content key assigned to the proxy.
func (p *TextureProxy) UniqueKey() resource.UniqueKey {
	p.keyMu.Lock()
	defer p.keyMu.Unlock()
	return p.uniqueKey
}

func (p *TextureProxy) setUniqueKey(key resource.UniqueKey) (old resource.UniqueKey) {
	p.keyMu.Lock()
	defer p.keyMu.Unlock()
	old, p.uniqueKey = p.uniqueKey, key
	return old
}

// IsInstantiated implements Proxy.
func (p *TextureProxy) IsInstantiated() bool { return p.holder.res.Load() != nil }

// Resource implements Proxy.
func (p *TextureProxy) Resource() *resource.Resource { return p.holder.res.Load() }

// Backing returns the native texture, or ErrNotReady while deferred.
func (p *TextureProxy) Backing() (resource.Backing, error) {
	r := p.holder.res.Load()
	if r == nil {
		return nil, ErrNotReady
	}
	if r.IsDestroyed() {
		return nil, resource.ErrAbandoned
	}
	return r.Backing(), nil
}

// Ref implements Proxy.
func (p *TextureProxy) Ref() { p.lifetime.ref() }

// Release implements Proxy.
func (p *TextureProxy) Release() { p.lifetime.release() }

// AsTextureProxy implements Proxy.
func (p *TextureProxy) AsTextureProxy() *TextureProxy { return p }

// AsRenderTargetProxy implements Proxy.
func (p *TextureProxy) AsRenderTargetProxy() *RenderTargetProxy { return nil }

// Instantiate implements Proxy. A failure leaves the proxy deferred.
func (p *TextureProxy) Instantiate(rp *resource.Provider) error {
	if err := p.checkInstantiated(rp); err != nil || p.IsInstantiated() {
		return err
	}

	r, err := p.createResource(rp)
	if err != nil {
		slogger().Warn("proxy: instantiate failed", "id", p.id, "source", p.src,
			"width", p.desc.Width, "height", p.desc.Height, "err", err)
		return err
	}
	p.adopt(rp, r)
	return nil
}

// checkInstantiated handles the already-instantiated and released cases.
func (p *TextureProxy) checkInstantiated(rp *resource.Provider) error {
	if p.released.Load() {
		return ErrReleased
	}
	r := p.holder.res.Load()
	if r == nil {
		return nil
	}
	if r.IsDestroyed() {
		return resource.ErrAbandoned
	}
	if key := p.UniqueKey(); key.IsValid() && r.UniqueKey() != key {
		rp.AssignUniqueKey(r, key)
	}
	rp.Cache().Touch(r)
	return nil
}

func (p *TextureProxy) createResource(rp *resource.Provider) (*resource.Resource, error) {
	key := p.UniqueKey()
	if key.IsValid() {
		if r := rp.FindByUniqueKey(key); r != nil {
			return r, nil
		}
	}

	switch p.src {
	case sourcePixels:
		return rp.CreateTexture(p.desc, p.budgeted, p.pixels)
	case sourceGenerator:
		pixels := make([]byte, p.desc.Width*p.desc.Height*resource.BytesPerPixel(p.desc.Format))
		info := ImageInfo{Width: p.desc.Width, Height: p.desc.Height, Format: p.desc.Format}
		if err := p.gen.ReadPixels(info, pixels); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecodeUnavailable, err)
		}
		return rp.CreateTexture(p.desc, p.budgeted, pixels)
	case sourceWrapped:
		// Wrapped proxies are born instantiated; reaching here means the
		// wrapped resource was already dropped.
		return nil, ErrReleased
	default:
		if p.budgeted && !key.IsValid() {
			return rp.FindOrCreateScratchTexture(p.desc)
		}
		return rp.CreateTexture(p.desc, p.budgeted, nil)
	}
}

// adopt installs r as the backing. The proxy takes over the reference r
// was returned with.
func (p *TextureProxy) adopt(rp *resource.Provider, r *resource.Resource) {
	if key := p.UniqueKey(); key.IsValid() && r.UniqueKey() != key {
		rp.AssignUniqueKey(r, key)
	}
	p.holder.res.Store(r)
	p.pixels = nil
	p.gen = nil
	if p.released.Load() {
		// The last reference went away while r was being created.
		p.holder.drop()
		return
	}
	slogger().Debug("proxy: instantiated", "id", p.id, "resource", r.ID(), "source", p.src)
}
