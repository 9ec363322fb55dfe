//go:build !nogpu

package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gr/backend"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
	"github.com/gogpu/gr/resource"
)

// newNoopBackend returns a backend on a noop device.
func newNoopBackend(t *testing.T) *Backend {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	b := New(openDev.Device, openDev.Queue)
	t.Cleanup(func() {
		b.Close()
		openDev.Device.Destroy()
		instance.Destroy()
	})
	return b
}

func TestTextureAndBufferLifetime(t *testing.T) {
	b := newNoopBackend(t)
	tex, err := b.CreateTexture(resource.TextureDesc{
		Width: 8, Height: 8, Format: gputypes.TextureFormatRGBA8Unorm,
	}, make([]byte, 8*8*4))
	if err != nil {
		t.Fatal(err)
	}
	buf, err := b.CreateBuffer(resource.BufferDesc{Size: 64, Usage: gputypes.BufferUsageVertex}, []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if n := b.LiveObjects(); n != 2 {
		t.Errorf("LiveObjects = %d, want 2", n)
	}
	if err := b.WriteBuffer(buf, 60, make([]byte, 8)); err == nil {
		t.Error("overflowing WriteBuffer succeeded")
	}
	if err := b.WriteBuffer(tex, 0, []byte{1}); !errors.Is(err, backend.ErrForeignObject) {
		t.Errorf("WriteBuffer(texture) err = %v, want ErrForeignObject", err)
	}

	tex.Destroy()
	tex.Destroy()
	buf.Destroy()
	if n := b.LiveObjects(); n != 0 {
		t.Errorf("LiveObjects after destroy = %d, want 0", n)
	}
	if err := b.WriteBuffer(buf, 0, []byte{1}); !errors.Is(err, ErrBufferDestroyed) {
		t.Errorf("WriteBuffer after destroy err = %v", err)
	}
}

func TestCreateTextureErrors(t *testing.T) {
	b := newNoopBackend(t)
	if _, err := b.CreateTexture(resource.TextureDesc{Width: 0, Height: 1}, nil); !errors.Is(err, resource.ErrInvalidDescriptor) {
		t.Errorf("empty texture err = %v", err)
	}
	if _, err := b.CreateTexture(resource.TextureDesc{Width: DefaultMaxTextureSize + 1, Height: 1}, nil); !errors.Is(err, resource.ErrTooLarge) {
		t.Errorf("oversized texture err = %v", err)
	}
}

func TestCompileBuiltins(t *testing.T) {
	b := newNoopBackend(t)
	for _, c := range []program.Creator{
		program.SolidColor{Format: gputypes.TextureFormatBGRA8Unorm},
		program.TexturedQuad{Format: gputypes.TextureFormatBGRA8Unorm, SampleCount: 4},
	} {
		p, err := c.Create(b)
		if err != nil {
			t.Fatalf("%T: %v", c, err)
		}
		if p.Desc().ColorFormat != gputypes.TextureFormatBGRA8Unorm {
			t.Errorf("ColorFormat = %v", p.Desc().ColorFormat)
		}
		p.Destroy()
	}
	if n := b.LiveObjects(); n != 0 {
		t.Errorf("LiveObjects = %d, want 0", n)
	}
}

func TestCompileRejectsBadWGSL(t *testing.T) {
	b := newNoopBackend(t)
	_, err := b.Compile(&program.Desc{Label: "bad", Shading: program.ShadingSolid, WGSL: "fn ("})
	if err == nil {
		t.Fatal("Compile of invalid WGSL succeeded")
	}
}

func TestAbandon(t *testing.T) {
	b := newNoopBackend(t)
	tex, err := b.CreateTexture(resource.TextureDesc{Width: 4, Height: 4}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b.Abandon()
	if _, err := b.CreateTexture(resource.TextureDesc{Width: 4, Height: 4}, nil); !errors.Is(err, backend.ErrDeviceLost) {
		t.Errorf("CreateTexture after Abandon err = %v", err)
	}
	if _, err := b.BeginRenderPass(ops.Target{Texture: tex, Width: 4, Height: 4}); !errors.Is(err, backend.ErrDeviceLost) {
		t.Errorf("BeginRenderPass after Abandon err = %v", err)
	}
	// Destroying after the device is lost only drops the handles.
	tex.Destroy()
	if n := b.LiveObjects(); n != 0 {
		t.Errorf("LiveObjects = %d, want 0", n)
	}
}

func TestPassErrors(t *testing.T) {
	b := newNoopBackend(t)
	tex, err := b.CreateTexture(resource.TextureDesc{Width: 4, Height: 4, Format: gputypes.TextureFormatBGRA8Unorm}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Destroy()
	target := ops.Target{Texture: tex, Width: 4, Height: 4, Format: gputypes.TextureFormatBGRA8Unorm, SampleCount: 1}

	tests := []struct {
		name   string
		record func(ops.RenderPass)
		want   error
	}{
		{"draw without pipeline", func(p ops.RenderPass) { p.Draw(3, 0) }, backend.ErrPassState},
		{"resolve into two textures", func(p ops.RenderPass) {
			p.Resolve(tex, geom.IRectWH(4, 4))
			other, _ := b.CreateTexture(resource.TextureDesc{Width: 4, Height: 4}, nil)
			defer other.Destroy()
			p.Resolve(other, geom.IRectWH(4, 4))
		}, backend.ErrPassState},
		{"resolve outside target", func(p ops.RenderPass) { p.Resolve(tex, geom.IRectWH(8, 8)) }, backend.ErrPassState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := b.BeginRenderPass(target)
			if err != nil {
				t.Fatal(err)
			}
			if err := p.Begin(); err != nil {
				t.Fatal(err)
			}
			tt.record(p)
			if err := p.End(); !errors.Is(err, tt.want) {
				t.Errorf("End err = %v, want %v", err, tt.want)
			}
			if err := b.Submit(p); !errors.Is(err, backend.ErrPassState) {
				t.Errorf("Submit of failed pass err = %v, want ErrPassState", err)
			}
		})
	}
}

func TestFlushThroughDrawingManager(t *testing.T) {
	b := newNoopBackend(t)
	cache := resource.NewCache(resource.DefaultLimit)
	rp := resource.NewProvider(cache, b)
	programs := program.NewCache(b, program.DefaultCapacity)
	proxies := proxy.NewProvider(cache, rp.MaxTextureSize())
	dm := ops.NewDrawingManager(b, rp, programs)
	defer func() {
		programs.ReleaseAll(true)
		cache.ReleaseAll()
	}()

	src, err := proxies.CreateProxyFromPixels(resource.TextureDesc{
		Width: 4, Height: 4, Format: gputypes.TextureFormatRGBA8Unorm,
	}, make([]byte, 4*4*4))
	if err != nil {
		t.Fatal(err)
	}
	rt, err := proxies.CreateRenderTargetProxy(resource.TextureDesc{
		Width: 16, Height: 16, Format: gputypes.TextureFormatBGRA8Unorm, SampleCount: 4,
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	red := ops.Color{R: 1, A: 1}
	dm.AddOp(rt, ops.NewClearOp(geom.IRectWH(16, 16), red))
	dm.AddOp(rt, ops.NewClearOp(geom.IRectXYWH(2, 2, 4, 4), ops.Transparent))
	dm.AddOp(rt, ops.NewFillRectOp(geom.RectXYWH(4, 4, 8, 8), red.ModulateAlpha(0.5), program.BlendSrcOver))
	dm.AddOp(rt, ops.NewTextureOp(src, geom.RectXYWH(0, 0, 4, 4), geom.RectXYWH(8, 8, 4, 4), 1, ops.FilterNearest))
	dm.AddOp(rt, ops.NewCopyOp(src, geom.IRectWH(4, 4), geom.IPoint{X: 12, Y: 12}))
	dm.AddOp(rt, ops.NewResolveOp(rt.ResolveProxy(), geom.IRectWH(16, 16)))

	n, err := dm.Flush()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("executed tasks = %d, want 1", n)
	}

	bk, err := rt.ResolveProxy().Backing()
	if err != nil {
		t.Fatal(err)
	}
	img, err := b.ReadPixels(bk)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Dx(); got != 16 {
		t.Errorf("readback width = %d, want 16", got)
	}

	msaa, err := rt.Backing()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.ReadPixels(msaa); !errors.Is(err, resource.ErrInvalidDescriptor) {
		t.Errorf("ReadPixels(msaa) err = %v, want ErrInvalidDescriptor", err)
	}
}

func TestNewFromProviderWithoutHAL(t *testing.T) {
	if _, err := NewFromProvider(nil); !errors.Is(err, ErrNoHAL) {
		t.Errorf("err = %v, want ErrNoHAL", err)
	}
}
