package proxy

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"

	// Standard decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gogpu/gputypes"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"
)

// ImageInfo describes the pixels a generator is asked to produce. Pixels are
// tightly packed, premultiplied, 8 bits per channel.
type ImageInfo struct {
	Width  int
	Height int
	Format gputypes.TextureFormat
}

// ImageGenerator produces pixels on demand, typically by decoding.
type ImageGenerator interface {
	Width() int
	Height() int

	// ReadPixels fills dst (len Width*Height*4) in info.Format, which is
	// RGBA8Unorm or BGRA8Unorm.
	ReadPixels(info ImageInfo, dst []byte) error
}

// decodeSem bounds the number of images decoded concurrently.
var decodeSem = semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))

// EncodedGenerator decodes PNG, JPEG, GIF, BMP, TIFF or WebP data on a
// bounded background pool. Dimensions are read from the header up front;
// ReadPixels blocks until decoding finishes.
type EncodedGenerator struct {
	data   []byte
	width  int
	height int
	format string

	once sync.Once
	done chan struct{}
	img  *image.RGBA
	err  error
}

// NewEncodedGenerator parses the image header in data. The data must not be
// modified afterwards.
func NewEncodedGenerator(data []byte) (*EncodedGenerator, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeUnavailable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty %s image", ErrDecodeUnavailable, format)
	}
	return &EncodedGenerator{
		data:   data,
		width:  cfg.Width,
		height: cfg.Height,
		format: format,
		done:   make(chan struct{}),
	}, nil
}

// Width implements ImageGenerator.
func (g *EncodedGenerator) Width() int { return g.width }

// Height implements ImageGenerator.
func (g *EncodedGenerator) Height() int { return g.height }

// EncodingFormat returns the name of the detected codec, such as "png".
func (g *EncodedGenerator) EncodingFormat() string { return g.format }

// Prefetch starts decoding in the background. Safe to call repeatedly.
func (g *EncodedGenerator) Prefetch() {
	g.once.Do(func() {
		go g.decode()
	})
}

// Ready reports whether decoding finished, successfully or not.
func (g *EncodedGenerator) Ready() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

// TryReadPixels is ReadPixels without blocking: it returns ErrNotReady
// while the decode is still running.
func (g *EncodedGenerator) TryReadPixels(info ImageInfo, dst []byte) error {
	g.Prefetch()
	if !g.Ready() {
		return ErrNotReady
	}
	return g.copyPixels(info, dst)
}

// ReadPixels implements ImageGenerator.
func (g *EncodedGenerator) ReadPixels(info ImageInfo, dst []byte) error {
	g.Prefetch()
	<-g.done
	return g.copyPixels(info, dst)
}

func (g *EncodedGenerator) decode() {
	defer close(g.done)
	if err := decodeSem.Acquire(context.Background(), 1); err != nil {
		g.err = err
		return
	}
	defer decodeSem.Release(1)

	src, _, err := image.Decode(bytes.NewReader(g.data))
	if err != nil {
		g.err = fmt.Errorf("%w: decode %s: %w", ErrDecodeUnavailable, g.format, err)
		slogger().Warn("proxy: decode failed", "format", g.format, "err", err)
		return
	}
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) {
		b := src.Bounds()
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(rgba, rgba.Rect, src, b.Min, xdraw.Src)
	}
	g.img = rgba
	g.data = nil
}

func (g *EncodedGenerator) copyPixels(info ImageInfo, dst []byte) error {
	if g.err != nil {
		return g.err
	}
	if info.Width != g.width || info.Height != g.height {
		return fmt.Errorf("%w: want %dx%d, image is %dx%d",
			ErrPixelsSize, info.Width, info.Height, g.width, g.height)
	}
	if len(dst) < g.width*g.height*4 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrPixelsSize, len(dst), g.width, g.height)
	}
	row := g.width * 4
	for y := range g.height {
		copy(dst[y*row:(y+1)*row], g.img.Pix[y*g.img.Stride:])
	}
	if info.Format == gputypes.TextureFormatBGRA8Unorm {
		swapRB(dst[:row*g.height])
	}
	return nil
}

// swapRB converts between RGBA and BGRA in place.
func swapRB(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// ImageSource adapts an in-memory image to ImageGenerator.
type ImageSource struct {
	Image image.Image
}

// Width implements ImageGenerator.
func (s ImageSource) Width() int { return s.Image.Bounds().Dx() }

// Height implements ImageGenerator.
func (s ImageSource) Height() int { return s.Image.Bounds().Dy() }

// ReadPixels implements ImageGenerator.
func (s ImageSource) ReadPixels(info ImageInfo, dst []byte) error {
	b := s.Image.Bounds()
	if info.Width != b.Dx() || info.Height != b.Dy() || len(dst) < info.Width*info.Height*4 {
		return ErrPixelsSize
	}
	rgba := &image.RGBA{Pix: dst, Stride: info.Width * 4, Rect: image.Rect(0, 0, info.Width, info.Height)}
	xdraw.Draw(rgba, rgba.Rect, s.Image, b.Min, xdraw.Src)
	if info.Format == gputypes.TextureFormatBGRA8Unorm {
		swapRB(dst[:info.Width*info.Height*4])
	}
	return nil
}
