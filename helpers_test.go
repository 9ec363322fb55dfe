package gr

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/backend/software"
)

func newTestContext(t *testing.T, opts ...Option) *Context {
	t.Helper()
	ctx, _ := newTestContextWithBackend(t, opts...)
	return ctx
}

func newTestContextWithBackend(t *testing.T, opts ...Option) (*Context, *software.Backend) {
	t.Helper()
	b := software.New()
	ctx, err := NewContext(b, opts...)
	if err != nil {
		t.Fatalf("NewContext() = %v", err)
	}
	t.Cleanup(func() {
		ctx.Release()
		b.Close()
	})
	return ctx, b
}

func newTestSurface(t *testing.T, ctx *Context, w, h int, samples uint32) *SurfaceDrawContext {
	t.Helper()
	sdc, err := ctx.NewSurface(w, h, gputypes.TextureFormatRGBA8Unorm, samples)
	if err != nil {
		t.Fatalf("NewSurface(%d, %d) = %v", w, h, err)
	}
	return sdc
}

func readPixels(t *testing.T, ctx *Context, sdc *SurfaceDrawContext) *image.RGBA {
	t.Helper()
	img, err := ctx.ReadPixels(sdc)
	if err != nil {
		t.Fatalf("ReadPixels() = %v", err)
	}
	return img
}

// solidImage returns a w×h image filled with c.
func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func assertPixel(t *testing.T, img *image.RGBA, x, y int, want color.RGBA) {
	t.Helper()
	got := img.RGBAAt(x, y)
	if !near(got.R, want.R) || !near(got.G, want.G) || !near(got.B, want.B) || !near(got.A, want.A) {
		t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
	}
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -1 && d <= 1
}
