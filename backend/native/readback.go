package native

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gr/backend"
	"github.com/gogpu/gr/resource"
)

// copyPitchAlignment is the row alignment required for texture-to-buffer
// copies.
const copyPitchAlignment = 256

// ReadPixels copies a single-sampled texture back to the CPU as
// premultiplied RGBA. It blocks until the GPU is done.
func (b *Backend) ReadPixels(bk resource.Backing) (*image.RGBA, error) {
	if b.abandoned.Load() {
		return nil, backend.ErrDeviceLost
	}
	t, ok := bk.(*Texture)
	if !ok {
		return nil, fmt.Errorf("%w: %T", backend.ErrForeignObject, bk)
	}
	if t.tex == nil {
		return nil, ErrTextureDestroyed
	}
	if t.desc.Samples() > 1 {
		return nil, fmt.Errorf("%w: cannot read a multisampled texture", resource.ErrInvalidDescriptor)
	}

	w, h := uint32(t.desc.Width), uint32(t.desc.Height) //nolint:gosec // G115: validated positive
	bpp := uint32(resource.BytesPerPixel(t.desc.Format)) //nolint:gosec // G115: 1 or 4
	bytesPerRow := w * bpp
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "gr_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gr_readback"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("gr_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	if err := b.submitAndWait(cmdBuf); err != nil {
		return nil, err
	}
	readback := make([]byte, stagingSize)
	if err := b.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, t.desc.Width, t.desc.Height))
	for y := 0; y < t.desc.Height; y++ {
		row := readback[y*int(alignedBytesPerRow):]
		out := img.Pix[y*img.Stride : y*img.Stride+4*t.desc.Width]
		for x := 0; x < t.desc.Width; x++ {
			switch t.desc.Format {
			case gputypes.TextureFormatBGRA8Unorm:
				out[4*x+0], out[4*x+1], out[4*x+2], out[4*x+3] = row[4*x+2], row[4*x+1], row[4*x+0], row[4*x+3]
			case gputypes.TextureFormatR8Unorm:
				out[4*x+0], out[4*x+3] = row[x], 0xff
			default:
				copy(out[4*x:4*x+4], row[4*x:4*x+4])
			}
		}
	}
	return img, nil
}
