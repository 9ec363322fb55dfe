package software

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/gr/backend"
	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/resource"
)

// DefaultMaxTextureSize is the largest texture dimension unless
// WithMaxTextureSize says otherwise.
const DefaultMaxTextureSize = 8192

// Dialect is the program.Caps dialect reported by the backend.
const Dialect = "software"

func init() {
	backend.Register(backend.BackendSoftware, func() (backend.Backend, error) {
		return New(), nil
	})
}

// Stats counts objects created by the backend.
type Stats struct {
	Textures  int64
	Buffers   int64
	Programs  int64
	Destroyed int64
	Passes    int64
	Submits   int64
}

// Live returns the number of objects created and not yet destroyed.
func (s Stats) Live() int64 { return s.Textures + s.Buffers + s.Programs - s.Destroyed }

// Option configures a Backend.
type Option func(*Backend)

// WithMaxTextureSize sets the largest texture dimension.
func WithMaxTextureSize(n int) Option {
	return func(b *Backend) { b.maxTextureSize = n }
}

// WithMaxSampleCount sets the largest MSAA sample count reported in Caps.
func WithMaxSampleCount(n uint32) Option {
	return func(b *Backend) { b.maxSamples = n }
}

// Backend renders on the CPU. Methods other than Abandon are called from
// the goroutine that owns the context.
type Backend struct {
	maxTextureSize int
	maxSamples     uint32

	abandoned atomic.Bool

	textures atomic.Int64
	buffers  atomic.Int64
	programs atomic.Int64
	destroys atomic.Int64
	passes   atomic.Int64
	submits  atomic.Int64
}

var _ backend.Backend = (*Backend)(nil)

// New returns a software backend.
func New(opts ...Option) *Backend {
	b := &Backend{maxTextureSize: DefaultMaxTextureSize, maxSamples: 4}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return backend.BackendSoftware }

// Close implements backend.Backend. Later allocations fail.
func (b *Backend) Close() { b.abandoned.Store(true) }

// Abandon implements ops.Backend.
func (b *Backend) Abandon() {
	if !b.abandoned.Swap(true) {
		slogger().Warn("software: backend abandoned")
	}
}

// Stats returns a snapshot of the object counters.
func (b *Backend) Stats() Stats {
	return Stats{
		Textures:  b.textures.Load(),
		Buffers:   b.buffers.Load(),
		Programs:  b.programs.Load(),
		Destroyed: b.destroys.Load(),
		Passes:    b.passes.Load(),
		Submits:   b.submits.Load(),
	}
}

func (b *Backend) destroyed() { b.destroys.Add(1) }

// MaxTextureSize implements resource.Allocator.
func (b *Backend) MaxTextureSize() int { return b.maxTextureSize }

// CreateTexture implements resource.Allocator.
func (b *Backend) CreateTexture(desc resource.TextureDesc, pixels []byte) (resource.Backing, error) {
	if b.abandoned.Load() {
		return nil, backend.ErrDeviceLost
	}
	if err := desc.Validate(b.maxTextureSize); err != nil {
		return nil, err
	}
	if want := desc.Width * desc.Height * resource.BytesPerPixel(desc.Format); pixels != nil && len(pixels) < want {
		return nil, fmt.Errorf("%w: %d pixel bytes, want %d", resource.ErrInvalidDescriptor, len(pixels), want)
	}
	b.textures.Add(1)
	return &Texture{owner: b, desc: desc, img: newImage(desc, pixels)}, nil
}

// CreateBuffer implements resource.Allocator.
func (b *Backend) CreateBuffer(desc resource.BufferDesc, data []byte) (resource.Backing, error) {
	if b.abandoned.Load() {
		return nil, backend.ErrDeviceLost
	}
	if desc.Size == 0 || uint64(len(data)) > desc.Size {
		return nil, fmt.Errorf("%w: buffer size %d, data %d", resource.ErrInvalidDescriptor, desc.Size, len(data))
	}
	buf := &Buffer{owner: b, desc: desc, data: make([]byte, desc.Size)}
	copy(buf.data, data)
	b.buffers.Add(1)
	return buf, nil
}

// WriteBuffer implements resource.Allocator.
func (b *Backend) WriteBuffer(bk resource.Backing, offset uint64, data []byte) error {
	if b.abandoned.Load() {
		return backend.ErrDeviceLost
	}
	buf, ok := bk.(*Buffer)
	if !ok {
		return fmt.Errorf("%w: %T", backend.ErrForeignObject, bk)
	}
	if buf.data == nil {
		return ErrDestroyed
	}
	if offset+uint64(len(data)) > uint64(len(buf.data)) {
		return fmt.Errorf("%w: write %d bytes at %d into %d", ErrOutOfRange, len(data), offset, len(buf.data))
	}
	copy(buf.data[offset:], data)
	return nil
}

// Caps implements program.Compiler.
func (b *Backend) Caps() program.Caps {
	return program.Caps{Dialect: Dialect, MaxSampleCount: b.maxSamples}
}

// Compile implements program.Compiler. The WGSL is parsed, lowered and
// validated with naga and both entry points must exist.
func (b *Backend) Compile(desc *program.Desc) (program.Program, error) {
	if b.abandoned.Load() {
		return nil, backend.ErrDeviceLost
	}
	switch desc.Shading {
	case program.ShadingSolid, program.ShadingTextured:
	default:
		return nil, fmt.Errorf("%w: %s: unsupported shading %v", ErrShader, desc.Label, desc.Shading)
	}
	if err := validateWGSL(desc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrShader, desc.Label, err)
	}
	b.programs.Add(1)
	slogger().Debug("software: program compiled", "label", desc.Label)
	return &Program{owner: b, desc: *desc, live: true}, nil
}

func validateWGSL(desc *program.Desc) error {
	ast, err := naga.Parse(desc.WGSL)
	if err != nil {
		return err
	}
	module, err := naga.LowerWithSource(ast, desc.WGSL)
	if err != nil {
		return err
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return err
	}
	if len(verrs) > 0 {
		return &verrs[0]
	}
	for _, ep := range []struct {
		name  string
		stage ir.ShaderStage
	}{{desc.VertexEntry, ir.StageVertex}, {desc.FragmentEntry, ir.StageFragment}} {
		if !hasEntryPoint(module, ep.name, ep.stage) {
			return fmt.Errorf("missing entry point %q", ep.name)
		}
	}
	return nil
}

func hasEntryPoint(m *ir.Module, name string, stage ir.ShaderStage) bool {
	for _, ep := range m.EntryPoints {
		if ep.Name == name && ep.Stage == stage {
			return true
		}
	}
	return false
}

// BeginRenderPass implements ops.Backend.
func (b *Backend) BeginRenderPass(target ops.Target) (ops.RenderPass, error) {
	if b.abandoned.Load() {
		return nil, backend.ErrDeviceLost
	}
	tex, ok := target.Texture.(*Texture)
	if !ok {
		return nil, fmt.Errorf("%w: %T", backend.ErrForeignObject, target.Texture)
	}
	if tex.img == nil {
		return nil, ErrDestroyed
	}
	return &pass{backend: b, target: tex, info: target}, nil
}

// Submit implements ops.Backend. The recorded commands are replayed into
// the target in order.
func (b *Backend) Submit(rp ops.RenderPass) error {
	p, ok := rp.(*pass)
	if !ok || p.backend != b {
		return fmt.Errorf("%w: %T", backend.ErrForeignObject, rp)
	}
	if b.abandoned.Load() {
		return backend.ErrDeviceLost
	}
	if !p.ended || p.submitted {
		return fmt.Errorf("%w: submit", backend.ErrPassState)
	}
	p.submitted = true
	b.submits.Add(1)
	return p.replay()
}

// ReadPixels returns a copy of a texture's pixels as premultiplied RGBA.
func (b *Backend) ReadPixels(bk resource.Backing) (*image.RGBA, error) {
	tex, ok := bk.(*Texture)
	if !ok {
		return nil, fmt.Errorf("%w: %T", backend.ErrForeignObject, bk)
	}
	if tex.img == nil {
		return nil, ErrDestroyed
	}
	out := image.NewRGBA(tex.img.Rect)
	copy(out.Pix, tex.img.Pix)
	return out, nil
}
