package native

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gr/backend"
	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/resource"
)

// Defaults for Backend options.
const (
	DefaultMaxTextureSize = 8192
	DefaultFenceTimeout   = 5 * time.Second
)

// Dialect is the program.Caps dialect reported by the backend.
const Dialect = "spirv"

func init() {
	backend.Register(backend.BackendNative, func() (backend.Backend, error) {
		return Open()
	})
}

// Option configures a Backend.
type Option func(*Backend)

// WithMaxTextureSize sets the largest texture dimension.
func WithMaxTextureSize(n int) Option {
	return func(b *Backend) { b.maxTextureSize = n }
}

// WithFenceTimeout sets how long Submit waits for the GPU.
func WithFenceTimeout(d time.Duration) Option {
	return func(b *Backend) { b.fenceTimeout = d }
}

// Backend renders through a HAL device and queue.
type Backend struct {
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance
	owned    bool

	maxTextureSize int
	fenceTimeout   time.Duration

	abandoned atomic.Bool
	live      atomic.Int64

	// internal holds the programs passes use for scissored clears and
	// copies, keyed by target format and sample count.
	internal map[internalKey]*Program
}

type internalKey struct {
	shading program.Shading
	format  gputypes.TextureFormat
	samples uint32
}

var _ backend.Backend = (*Backend)(nil)

// New returns a backend using an existing device and queue. Close does
// not destroy them.
func New(device hal.Device, queue hal.Queue, opts ...Option) *Backend {
	b := &Backend{
		device:         device,
		queue:          queue,
		maxTextureSize: DefaultMaxTextureSize,
		fenceTimeout:   DefaultFenceTimeout,
		internal:       make(map[internalKey]*Program),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open creates its own Vulkan instance and device, preferring a discrete
// or integrated GPU.
func Open(opts ...Option) (*Backend, error) {
	hb, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not linked", ErrNoGPU)
	}
	instance, err := hb.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", ErrNoGPU, err)
	}
	b := New(openDev.Device, openDev.Queue, opts...)
	b.instance = instance
	b.owned = true
	slogger().Info("native: device opened", "adapter", selected.Info.Name)
	return b, nil
}

// NewFromProvider shares the device of an external provider (for example a
// gogpu window). The provider must expose HalDevice() and HalQueue().
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Backend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHAL, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHAL, hp.HalQueue())
	}
	return New(device, queue, opts...), nil
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return backend.BackendNative }

// Close implements backend.Backend. The device and instance are destroyed
// only if Open created them.
func (b *Backend) Close() {
	for k, p := range b.internal {
		p.Destroy()
		delete(b.internal, k)
	}
	b.abandoned.Store(true)
	if b.owned {
		b.device.Destroy()
		if b.instance != nil {
			b.instance.Destroy()
		}
		b.owned = false
	}
}

// Abandon implements ops.Backend. Later destroys skip the device.
func (b *Backend) Abandon() {
	if !b.abandoned.Swap(true) {
		slogger().Warn("native: device abandoned")
	}
}

// LiveObjects returns the number of textures, buffers and programs created
// and not yet destroyed.
func (b *Backend) LiveObjects() int64 { return b.live.Load() }

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
	t, err := b.newTexture(desc, pixels)
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	return t, nil
}

// CreateBuffer implements resource.Allocator.
func (b *Backend) CreateBuffer(desc resource.BufferDesc, data []byte) (resource.Backing, error) {
	if b.abandoned.Load() {
		return nil, backend.ErrDeviceLost
	}
	if desc.Size == 0 || uint64(len(data)) > desc.Size {
		return nil, fmt.Errorf("%w: buffer size %d, data %d", resource.ErrInvalidDescriptor, desc.Size, len(data))
	}
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	if len(data) > 0 {
		b.queue.WriteBuffer(buf, 0, data)
	}
	b.live.Add(1)
	return &Buffer{owner: b, desc: desc, buf: buf}, nil
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
	if buf.buf == nil {
		return ErrBufferDestroyed
	}
	if offset+uint64(len(data)) > buf.desc.Size {
		return fmt.Errorf("%w: write %d bytes at %d into %d", resource.ErrInvalidDescriptor, len(data), offset, buf.desc.Size)
	}
	b.queue.WriteBuffer(buf.buf, offset, data)
	return nil
}

// Caps implements program.Compiler.
func (b *Backend) Caps() program.Caps {
	return program.Caps{Dialect: Dialect, MaxSampleCount: 4}
}

// Compile implements program.Compiler.
func (b *Backend) Compile(desc *program.Desc) (program.Program, error) {
	if b.abandoned.Load() {
		return nil, backend.ErrDeviceLost
	}
	p, err := b.createProgram(desc)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", desc.Label, err)
	}
	slogger().Debug("native: program compiled", "label", desc.Label)
	return p, nil
}

// internalProgram returns a BlendSrc builtin used for pass-level clears
// and copies.
func (b *Backend) internalProgram(shading program.Shading, format gputypes.TextureFormat, samples uint32) (*Program, error) {
	key := internalKey{shading: shading, format: format, samples: samples}
	if p, ok := b.internal[key]; ok {
		return p, nil
	}
	var c program.Creator = program.SolidColor{Format: format, Blend: program.BlendSrc, SampleCount: samples}
	if shading == program.ShadingTextured {
		c = program.TexturedQuad{Format: format, Blend: program.BlendSrc, SampleCount: samples}
	}
	prog, err := c.Create(b)
	if err != nil {
		return nil, err
	}
	p := prog.(*Program) //nolint:forcetypeassert // Compile always returns *Program
	b.internal[key] = p
	return p, nil
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
	if tex.tex == nil {
		return nil, ErrTextureDestroyed
	}
	return &pass{backend: b, target: tex, info: target}, nil
}

// Submit implements ops.Backend. It waits for the GPU to finish the pass
// so transient objects can be released.
func (b *Backend) Submit(rp ops.RenderPass) error {
	p, ok := rp.(*pass)
	if !ok || p.backend != b {
		return fmt.Errorf("%w: %T", backend.ErrForeignObject, rp)
	}
	if !p.ended || p.submitted || p.cmdBuf == nil {
		return fmt.Errorf("%w: submit", backend.ErrPassState)
	}
	p.submitted = true
	defer p.release()
	if b.abandoned.Load() {
		return backend.ErrDeviceLost
	}
	return b.submitAndWait(p.cmdBuf)
}

func (b *Backend) submitAndWait(cmdBuf hal.CommandBuffer) error {
	fence, err := b.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer b.device.DestroyFence(fence)

	if err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := b.device.Wait(fence, 1, b.fenceTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		return ErrGPUTimeout
	}
	return nil
}
