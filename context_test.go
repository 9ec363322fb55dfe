package gr

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/resource"
)

var (
	red         = color.RGBA{R: 255, A: 255}
	blue        = color.RGBA{B: 255, A: 255}
	white       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	transparent = color.RGBA{}
)

func TestSurfaceClearAndFill(t *testing.T) {
	ctx := newTestContext(t)
	sdc := newTestSurface(t, ctx, 8, 8, 1)

	sdc.Clear(sdc.Bounds(), color.White)
	sdc.FillRect(geom.RectLTRB(2, 2, 6, 6), color.RGBA{R: 128, A: 128})
	img := readPixels(t, ctx, sdc)

	assertPixel(t, img, 0, 0, white)
	assertPixel(t, img, 3, 3, color.RGBA{R: 255, G: 127, B: 127, A: 255})
	assertPixel(t, img, 6, 6, white)
}

func TestSurfaceClearClipsToBounds(t *testing.T) {
	ctx := newTestContext(t)
	sdc := newTestSurface(t, ctx, 4, 4, 1)

	sdc.Clear(sdc.Bounds(), color.Transparent)
	sdc.Clear(geom.IRect{Left: 2, Top: 2, Right: 100, Bottom: 100}, red)
	sdc.Clear(geom.IRect{Left: 10, Top: 10, Right: 20, Bottom: 20}, blue)
	img := readPixels(t, ctx, sdc)

	assertPixel(t, img, 1, 1, transparent)
	assertPixel(t, img, 3, 3, red)
}

func TestSurfaceDrawTexture(t *testing.T) {
	ctx := newTestContext(t)
	sdc := newTestSurface(t, ctx, 8, 8, 1)

	src := solidImage(2, 2, red)
	src.SetRGBA(1, 0, blue)
	src.SetRGBA(0, 1, white)
	tex, err := ctx.MakeTexture(src)
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	sdc.Clear(sdc.Bounds(), color.Transparent)
	sdc.DrawTexture(tex, geom.RectLTRB(0, 0, 2, 2), geom.RectLTRB(4, 4, 6, 6), 1, ops.FilterNearest)
	img := readPixels(t, ctx, sdc)

	assertPixel(t, img, 4, 4, red)
	assertPixel(t, img, 5, 4, blue)
	assertPixel(t, img, 4, 5, white)
	assertPixel(t, img, 5, 5, red)
	assertPixel(t, img, 3, 3, transparent)
	assertPixel(t, img, 6, 6, transparent)
}

func TestSurfaceDrawEncodedTexture(t *testing.T) {
	ctx := newTestContext(t)
	sdc := newTestSurface(t, ctx, 4, 4, 1)

	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(4, 4, blue)); err != nil {
		t.Fatal(err)
	}
	tex, err := ctx.MakeTextureFromEncoded(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	sdc.Clear(sdc.Bounds(), color.Transparent)
	sdc.DrawTexture(tex, geom.RectLTRB(0, 0, 4, 4), geom.RectLTRB(0, 0, 4, 4), 1, ops.FilterLinear)
	img := readPixels(t, ctx, sdc)

	assertPixel(t, img, 1, 1, blue)

	again, err := ctx.MakeTextureFromEncoded(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	defer again.Release()
	if s := ctx.DecodeCacheStats(); s.Hits != 1 {
		t.Errorf("decode cache hits = %d, want 1", s.Hits)
	}
}

func TestSurfaceCopyFrom(t *testing.T) {
	ctx := newTestContext(t)
	src := newTestSurface(t, ctx, 4, 4, 1)
	dst := newTestSurface(t, ctx, 8, 8, 1)

	src.Clear(src.Bounds(), red)
	dst.Clear(dst.Bounds(), color.Transparent)
	dst.CopyFrom(src.Texture(), geom.IRectWH(4, 4), geom.IPoint{X: 2, Y: 2})
	img := readPixels(t, ctx, dst)

	assertPixel(t, img, 1, 1, transparent)
	assertPixel(t, img, 2, 2, red)
	assertPixel(t, img, 5, 5, red)
	assertPixel(t, img, 6, 6, transparent)
}

func TestSurfaceMSAAResolve(t *testing.T) {
	ctx := newTestContext(t)
	sdc := newTestSurface(t, ctx, 4, 4, 4)
	if got := sdc.SampleCount(); got != 4 {
		t.Fatalf("SampleCount() = %d, want 4", got)
	}

	sdc.Clear(sdc.Bounds(), blue)
	sdc.FillRect(geom.RectLTRB(0, 0, 2, 2), red)
	sdc.Resolve()
	img := readPixels(t, ctx, sdc)

	assertPixel(t, img, 0, 0, red)
	assertPixel(t, img, 3, 3, blue)
}

func TestNewSurfaceRejectsBadDimensions(t *testing.T) {
	ctx := newTestContext(t)
	for _, tt := range []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 4},
		{"negative height", 4, -1},
		{"too large", 1 << 20, 4},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ctx.NewSurface(tt.w, tt.h, gputypes.TextureFormatRGBA8Unorm, 1); err == nil {
				t.Error("NewSurface succeeded")
			}
		})
	}
}

func TestContextAbandon(t *testing.T) {
	ctx := newTestContext(t)
	sdc := newTestSurface(t, ctx, 4, 4, 1)
	tex, err := ctx.MakeTexture(solidImage(2, 2, red))
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	sdc.Clear(sdc.Bounds(), red)
	ctx.Abandon()
	if !ctx.IsAbandoned() {
		t.Fatal("IsAbandoned() = false after Abandon")
	}

	sdc.DrawTexture(tex, geom.RectLTRB(0, 0, 2, 2), geom.RectLTRB(0, 0, 2, 2), 1, ops.FilterNearest)
	if n := ctx.DrawingManager().NumTasks(); n != 0 {
		t.Errorf("NumTasks() = %d after Abandon, want 0", n)
	}

	err = ctx.Flush()
	if got := ClassifyError(err); got != ClassLostContext {
		t.Errorf("Flush() = %v (%v), want LostContext", err, got)
	}
	if _, err := ctx.NewSurface(4, 4, gputypes.TextureFormatRGBA8Unorm, 1); ClassifyError(err) != ClassLostContext {
		t.Errorf("NewSurface() after Abandon = %v", err)
	}
}

func TestContextReleaseDestroysEverything(t *testing.T) {
	ctx, b := newTestContextWithBackend(t)
	sdc := newTestSurface(t, ctx, 8, 8, 1)
	tex, err := ctx.MakeTexture(solidImage(2, 2, red))
	if err != nil {
		t.Fatal(err)
	}
	defer tex.Release()

	sdc.Clear(sdc.Bounds(), white)
	sdc.FillRect(geom.RectLTRB(0, 0, 4, 4), blue)
	sdc.DrawTexture(tex, geom.RectLTRB(0, 0, 2, 2), geom.RectLTRB(4, 4, 6, 6), 1, ops.FilterNearest)
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}
	if b.Stats().Live() == 0 {
		t.Fatal("no live backend objects after flush")
	}

	ctx.Release()
	if live := b.Stats().Live(); live != 0 {
		t.Errorf("live backend objects after Release = %d, want 0 (%+v)", live, b.Stats())
	}
	if err := ctx.Flush(); !errors.Is(err, ErrReleased) {
		t.Errorf("Flush() after Release = %v, want ErrReleased", err)
	}
}

func TestPurgeUnlockedResources(t *testing.T) {
	ctx := newTestContext(t)
	sdc := newTestSurface(t, ctx, 8, 8, 1)

	sdc.Clear(sdc.Bounds(), white)
	sdc.FillRect(geom.RectLTRB(0, 0, 4, 4), blue)
	if err := ctx.Flush(); err != nil {
		t.Fatal(err)
	}
	if n, size := ctx.ResourceCacheUsage(); n == 0 || size == 0 {
		t.Fatalf("ResourceCacheUsage() = %d, %d after flush", n, size)
	}

	sdc.Release()
	ctx.PurgeUnlockedResources()
	if n, size := ctx.ResourceCacheUsage(); n != 0 || size != 0 {
		t.Errorf("ResourceCacheUsage() = %d, %d after purge, want 0, 0", n, size)
	}
}

func TestReleasedSurfaceDropsDraws(t *testing.T) {
	ctx := newTestContext(t)
	sdc := newTestSurface(t, ctx, 4, 4, 1)
	sdc.Release()
	sdc.Release()

	sdc.Clear(geom.IRectWH(4, 4), red)
	if n := ctx.DrawingManager().NumTasks(); n != 0 {
		t.Errorf("NumTasks() = %d, want 0", n)
	}
}

type noReadback struct{ ops.Backend }

func TestReadPixelsErrors(t *testing.T) {
	ctx := newTestContext(t)
	other := newTestContext(t)
	sdc := newTestSurface(t, other, 4, 4, 1)
	if _, err := ctx.ReadPixels(sdc); !errors.Is(err, ErrForeignSurface) {
		t.Errorf("ReadPixels(foreign) = %v, want ErrForeignSurface", err)
	}

	nr, err := NewContext(noReadback{ctx.Backend()})
	if err != nil {
		t.Fatal(err)
	}
	defer nr.Release()
	s := newTestSurface(t, nr, 4, 4, 1)
	if _, err := nr.ReadPixels(s); !errors.Is(err, ErrReadbackUnsupported) {
		t.Errorf("ReadPixels() = %v, want ErrReadbackUnsupported", err)
	}
}

func TestResourceCacheLimit(t *testing.T) {
	ctx := newTestContext(t)
	ctx.SetResourceCacheLimit(1 << 10)
	if got := ctx.ResourceCacheLimit(); got != 1<<10 {
		t.Errorf("ResourceCacheLimit() = %d", got)
	}
	if _, size := ctx.ResourceCacheUsage(); size > resource.DefaultLimit {
		t.Errorf("budgeted bytes %d above limit", size)
	}
}
