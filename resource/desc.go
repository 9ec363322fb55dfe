package resource

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// Kind distinguishes the two families of GPU objects a Resource can wrap.
type Kind uint8

const (
	KindTexture Kind = iota
	KindBuffer
)

func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindBuffer:
		return "buffer"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// TextureDesc describes a 2D texture.
type TextureDesc struct {
	Width  int
	Height int
	Format gputypes.TextureFormat

	// SampleCount is the MSAA sample count. Zero is treated as 1.
	SampleCount uint32

	Usage gputypes.TextureUsage
	Label string
}

// Samples returns the effective sample count (at least 1).
func (d TextureDesc) Samples() uint32 {
	if d.SampleCount == 0 {
		return 1
	}
	return d.SampleCount
}

// Validate reports whether the descriptor can be allocated at all.
func (d TextureDesc) Validate(maxSize int) error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: texture %dx%d", ErrInvalidDescriptor, d.Width, d.Height)
	}
	if maxSize > 0 && (d.Width > maxSize || d.Height > maxSize) {
		return fmt.Errorf("%w: texture %dx%d, max %d", ErrTooLarge, d.Width, d.Height, maxSize)
	}
	return nil
}

// SizeBytes estimates the memory footprint of a texture with this descriptor.
func (d TextureDesc) SizeBytes() uint64 {
	//nolint:gosec // G115: dimensions validated positive
	return uint64(d.Width) * uint64(d.Height) * uint64(BytesPerPixel(d.Format)) * uint64(d.Samples())
}

// ScratchKey returns the key under which interchangeable textures are pooled.
func (d TextureDesc) ScratchKey() ScratchKey {
	return ScratchKey{
		kind:    KindTexture,
		width:   d.Width,
		height:  d.Height,
		format:  d.Format,
		samples: d.Samples(),
		usage:   uint64(d.Usage),
	}
}

// BufferDesc describes a linear GPU buffer.
type BufferDesc struct {
	Size  uint64
	Usage gputypes.BufferUsage
	Label string
}

// ScratchKey returns the key under which interchangeable buffers are pooled.
func (d BufferDesc) ScratchKey() ScratchKey {
	return ScratchKey{
		kind:  KindBuffer,
		size:  d.Size,
		usage: uint64(d.Usage),
	}
}

// BytesPerPixel returns the size of one texel in the given format.
// Unknown formats are assumed to be four bytes wide.
func BytesPerPixel(f gputypes.TextureFormat) int {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm,
		gputypes.TextureFormatDepth24PlusStencil8:
		return 4
	default:
		return 4
	}
}
