package gr

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
	"github.com/gogpu/gr/resource"
)

// Context owns the GPU state of one backend: the resource cache, the
// program cache, the proxy provider and the drawing manager that records
// and flushes ops.
//
// A Context must be used from a single goroutine. Proxies it hands out may
// be released from any goroutine.
type Context struct {
	backend   ops.Backend
	cache     *resource.Cache
	resources *resource.Provider
	programs  *program.Cache
	proxies   *proxy.Provider
	decodes   *proxy.DecodeCache
	manager   *ops.DrawingManager
	log       *slog.Logger

	abandoned bool
	released  bool
}

// NewContext creates a context drawing with b. The caller keeps ownership
// of b and closes it after releasing the context.
func NewContext(b ops.Backend, opts ...Option) (*Context, error) {
	if b == nil {
		return nil, ErrNilBackend
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cache := resource.NewCache(o.cacheLimit)
	resources := resource.NewProvider(cache, b)
	programs := program.NewCache(b, o.programCache)
	c := &Context{
		backend:   b,
		cache:     cache,
		resources: resources,
		programs:  programs,
		proxies:   proxy.NewProvider(cache, resources.MaxTextureSize()),
		decodes:   proxy.NewDecodeCache(0),
		manager:   ops.NewDrawingManager(b, resources, programs),
		log:       o.logger,
	}
	c.logger().Info("gr: context created",
		"cache_limit", o.cacheLimit,
		"program_cache", o.programCache,
		"max_texture_size", resources.MaxTextureSize())
	return c, nil
}

func (c *Context) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return Logger()
}

// Backend returns the backend the context draws with.
func (c *Context) Backend() ops.Backend { return c.backend }

// ProxyProvider returns the provider creating the context's proxies.
func (c *Context) ProxyProvider() *proxy.Provider { return c.proxies }

// ResourceProvider returns the provider allocating the context's resources.
func (c *Context) ResourceProvider() *resource.Provider { return c.resources }

// ProgramCache returns the context's compiled program cache.
func (c *Context) ProgramCache() *program.Cache { return c.programs }

// DrawingManager returns the manager recording the context's ops.
func (c *Context) DrawingManager() *ops.DrawingManager { return c.manager }

// IsAbandoned reports whether Abandon or Release was called.
func (c *Context) IsAbandoned() bool { return c.abandoned || c.released }

func (c *Context) closedErr() error {
	switch {
	case c.released:
		return ErrReleased
	case c.abandoned:
		return fmt.Errorf("gr: %w", resource.ErrAbandoned)
	default:
		return nil
	}
}

// NewSurface creates a render target of w×h pixels in format with the
// given MSAA sample count (0 or 1 for none) and returns a draw context
// recording into it. The backing texture is created at the first flush.
func (c *Context) NewSurface(w, h int, format gputypes.TextureFormat, samples uint32) (*SurfaceDrawContext, error) {
	if err := c.closedErr(); err != nil {
		return nil, err
	}
	rt, err := c.proxies.CreateRenderTargetProxy(resource.TextureDesc{
		Width:       w,
		Height:      h,
		Format:      format,
		SampleCount: samples,
		Label:       "surface",
	}, true)
	if err != nil {
		return nil, fmt.Errorf("gr: new surface: %w", err)
	}
	return &SurfaceDrawContext{ctx: c, rt: rt}, nil
}

// MakeTexture returns a texture proxy whose pixels are read from img when
// the proxy is first used.
func (c *Context) MakeTexture(img image.Image) (*proxy.TextureProxy, error) {
	if err := c.closedErr(); err != nil {
		return nil, err
	}
	tp, err := c.proxies.CreateProxyFromGenerator(proxy.ImageSource{Image: img})
	if err != nil {
		return nil, fmt.Errorf("gr: make texture: %w", err)
	}
	return tp, nil
}

// MakeTextureFromEncoded returns a texture proxy for an encoded image.
// Decoding starts in the background; the first flush that uses the proxy
// waits for it to finish. Identical data passed again reuses the decode.
func (c *Context) MakeTextureFromEncoded(data []byte) (*proxy.TextureProxy, error) {
	if err := c.closedErr(); err != nil {
		return nil, err
	}
	gen, err := c.decodes.Generator(data)
	if err != nil {
		return nil, fmt.Errorf("gr: make texture: %w", err)
	}
	tp, err := c.proxies.CreateProxyFromGenerator(gen)
	if err != nil {
		return nil, fmt.Errorf("gr: make texture: %w", err)
	}
	return tp, nil
}

// Flush executes every recorded op. Tasks that fail are dropped and their
// errors joined into the result; the remaining tasks still execute.
func (c *Context) Flush() error {
	if err := c.closedErr(); err != nil {
		return err
	}
	executed, err := c.manager.Flush()
	if err != nil {
		c.logger().Warn("gr: flush dropped work", "executed", executed, "err", err)
		if errors.Is(err, resource.ErrAbandoned) {
			c.Abandon()
		}
		return err
	}
	c.logger().Debug("gr: flushed", "tasks", executed)
	return nil
}

// Abandon marks the device as lost. Recorded work is discarded and every
// GPU object is forgotten without native calls. Later operations fail with
// an error classified as ClassLostContext.
func (c *Context) Abandon() {
	if c.abandoned || c.released {
		return
	}
	c.abandoned = true
	c.manager.Abandon()
	c.backend.Abandon()
	c.cache.Abandon()
	c.programs.ReleaseAll(false)
	c.decodes.Purge()
	c.logger().Warn("gr: context abandoned")
}

// Release discards recorded work and destroys every GPU object the
// context owns. The backend itself is left to the caller.
func (c *Context) Release() {
	if c.released {
		return
	}
	c.released = true
	c.decodes.Purge()
	if c.abandoned {
		return
	}
	c.manager.Abandon()
	c.programs.ReleaseAll(true)
	c.cache.ReleaseAll()
	c.logger().Debug("gr: context released")
}

// PurgeUnlockedResources destroys every cached resource nobody references.
func (c *Context) PurgeUnlockedResources() {
	if c.IsAbandoned() {
		return
	}
	before := c.cache.Stats()
	c.cache.PurgeUnreferenced()
	after := c.cache.Stats()
	c.logger().Debug("gr: purged resources",
		"resources", before.Resources-after.Resources,
		"bytes", before.BudgetedBytes-after.BudgetedBytes)
}

// ResourceCacheUsage returns the number of resources held by the cache and
// the bytes counted against its budget.
func (c *Context) ResourceCacheUsage() (count int, bytes uint64) {
	s := c.cache.Stats()
	return s.Resources, s.BudgetedBytes
}

// DecodeCacheStats reports how often encoded images were shared.
func (c *Context) DecodeCacheStats() proxy.DecodeCacheStats { return c.decodes.Stats() }

// ResourceCacheLimit returns the cache budget in bytes.
func (c *Context) ResourceCacheLimit() uint64 { return c.cache.Limit() }

// SetResourceCacheLimit changes the cache budget, purging down to it.
func (c *Context) SetResourceCacheLimit(bytes uint64) {
	if c.IsAbandoned() {
		return
	}
	c.cache.SetLimit(bytes)
}

// pixelReader is implemented by backends that can read textures back.
type pixelReader interface {
	ReadPixels(resource.Backing) (*image.RGBA, error)
}

// ReadPixels flushes and returns the contents of the surface. Multisampled
// surfaces return their resolve texture, which holds what the last Resolve
// produced.
func (c *Context) ReadPixels(s *SurfaceDrawContext) (*image.RGBA, error) {
	if s.ctx != c {
		return nil, ErrForeignSurface
	}
	r, ok := c.backend.(pixelReader)
	if !ok {
		return nil, ErrReadbackUnsupported
	}
	if err := c.Flush(); err != nil {
		return nil, err
	}
	bk, err := s.rt.SampledProxy().Backing()
	if err != nil {
		return nil, fmt.Errorf("gr: read pixels: %w", err)
	}
	img, err := r.ReadPixels(bk)
	if err != nil {
		return nil, fmt.Errorf("gr: read pixels: %w", err)
	}
	return img, nil
}
