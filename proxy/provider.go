package proxy

import (
	"fmt"
	"sync"
	"weak"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/resource"
)

// Usage of sampled-only textures.
const textureUsage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc

// Provider creates proxies. It is safe for concurrent use by recording
// goroutines; it never touches the GPU.
type Provider struct {
	cache   *resource.Cache
	maxSize int

	mu    sync.Mutex
	keyed map[resource.UniqueKey]weak.Pointer[TextureProxy]
}

// NewProvider returns a provider whose proxies are validated against
// maxTextureSize and whose key invalidations are posted to cache.
func NewProvider(cache *resource.Cache, maxTextureSize int) *Provider {
	if maxTextureSize <= 0 {
		maxTextureSize = resource.DefaultMaxTextureSize
	}
	return &Provider{
		cache:   cache,
		maxSize: maxTextureSize,
		keyed:   make(map[resource.UniqueKey]weak.Pointer[TextureProxy]),
	}
}

// CreateTextureProxy returns a deferred proxy for an uninitialized texture.
func (p *Provider) CreateTextureProxy(desc resource.TextureDesc, budgeted bool) (*TextureProxy, error) {
	desc = p.normalize(desc, textureUsage)
	if err := desc.Validate(p.maxSize); err != nil {
		return nil, err
	}
	return newTexture(desc, budgeted, sourceDeferred), nil
}

// CreateProxyFromPixels returns a proxy uploading tightly packed pixels in
// desc.Format on instantiation. The provider keeps pixels until then.
func (p *Provider) CreateProxyFromPixels(desc resource.TextureDesc, pixels []byte) (*TextureProxy, error) {
	desc = p.normalize(desc, textureUsage)
	if err := desc.Validate(p.maxSize); err != nil {
		return nil, err
	}
	if want := desc.Width * desc.Height * resource.BytesPerPixel(desc.Format); len(pixels) != want {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrPixelsSize, len(pixels), want)
	}
	tp := newTexture(desc, true, sourcePixels)
	tp.pixels = pixels
	return tp, nil
}

// CreateProxyFromGenerator returns a proxy whose pixels are produced by gen
// on instantiation.
func (p *Provider) CreateProxyFromGenerator(gen ImageGenerator) (*TextureProxy, error) {
	desc := p.normalize(resource.TextureDesc{
		Width:  gen.Width(),
		Height: gen.Height(),
		Format: gputypes.TextureFormatRGBA8Unorm,
		Label:  "generated",
	}, textureUsage)
	if err := desc.Validate(p.maxSize); err != nil {
		return nil, err
	}
	if eg, ok := gen.(*EncodedGenerator); ok {
		eg.Prefetch()
	}
	tp := newTexture(desc, true, sourceGenerator)
	tp.gen = gen
	return tp, nil
}

// CreateRenderTargetProxy returns a deferred render target. A sample count
// above one also creates the single-sample resolve proxy.
func (p *Provider) CreateRenderTargetProxy(desc resource.TextureDesc, budgeted bool) (*RenderTargetProxy, error) {
	samples := desc.Samples()
	usage := renderTargetUsage
	if samples > 1 {
		usage = msaaUsage
	}
	desc = p.normalize(desc, usage)
	desc.SampleCount = samples
	if err := desc.Validate(p.maxSize); err != nil {
		return nil, err
	}
	rt := newRenderTarget(desc, budgeted, sourceDeferred)
	if samples > 1 {
		rdesc := desc
		rdesc.SampleCount = 1
		rdesc.Usage = renderTargetUsage
		rdesc.Label = desc.Label + "_resolve"
		rt.resolve = newTexture(rdesc, budgeted, sourceDeferred)
	}
	return rt, nil
}

// WrapResource returns an instantiated proxy around an existing texture
// resource. The proxy takes over one reference of r. Renderable resources
// become render target proxies.
func (p *Provider) WrapResource(r *resource.Resource) (Proxy, error) {
	if r == nil || r.Kind() != resource.KindTexture {
		return nil, fmt.Errorf("%w: wrap a non-texture", resource.ErrWrongKind)
	}
	if r.IsDestroyed() {
		return nil, resource.ErrAbandoned
	}
	desc := r.TextureDesc()
	if desc.Usage&gputypes.TextureUsageRenderAttachment != 0 {
		rt := newRenderTarget(desc, r.Budgeted(), sourceWrapped)
		rt.holder.res.Store(r)
		return rt, nil
	}
	tp := newTexture(desc, r.Budgeted(), sourceWrapped)
	tp.holder.res.Store(r)
	return tp, nil
}

// AssignUniqueKey gives tp a content key. The backing resource picks the
// key up the next time tp is instantiated.
func (p *Provider) AssignUniqueKey(tp *TextureProxy, key resource.UniqueKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old := tp.setUniqueKey(key); old.IsValid() {
		delete(p.keyed, old)
	}
	if key.IsValid() {
		p.keyed[key] = weak.Make(tp)
	}
}

// FindOrCreateByUniqueKey returns the live proxy holding key with a new
// reference, or a new generator proxy for key.
func (p *Provider) FindOrCreateByUniqueKey(key resource.UniqueKey, gen ImageGenerator) (*TextureProxy, error) {
	p.mu.Lock()
	if wp, ok := p.keyed[key]; ok {
		if tp := wp.Value(); tp != nil && tp.tryRef() {
			p.mu.Unlock()
			return tp, nil
		}
		delete(p.keyed, key)
	}
	p.mu.Unlock()

	tp, err := p.CreateProxyFromGenerator(gen)
	if err != nil {
		return nil, err
	}
	p.AssignUniqueKey(tp, key)
	return tp, nil
}

// InvalidateUniqueKey forgets key and asks the cache owner to drop the
// resource holding it.
func (p *Provider) InvalidateUniqueKey(key resource.UniqueKey) {
	p.mu.Lock()
	delete(p.keyed, key)
	p.mu.Unlock()
	p.cache.InvalidateUniqueKey(key)
}

func (p *Provider) normalize(desc resource.TextureDesc, usage gputypes.TextureUsage) resource.TextureDesc {
	if desc.Format == gputypes.TextureFormatUndefined {
		desc.Format = gputypes.TextureFormatRGBA8Unorm
	}
	if desc.Usage == 0 {
		desc.Usage = usage
	}
	return desc
}
