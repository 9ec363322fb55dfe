package native

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gr/resource"
)

// Texture is a HAL texture with its default view.
type Texture struct {
	owner *Backend
	desc  resource.TextureDesc
	tex   hal.Texture
	view  hal.TextureView
}

// Format implements resource.FormatReporter.
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }

// Raw returns the HAL texture, or nil once destroyed.
func (t *Texture) Raw() hal.Texture { return t.tex }

// View returns the default view, or nil once destroyed.
func (t *Texture) View() hal.TextureView { return t.view }

// Destroy implements resource.Backing. The HAL objects are leaked rather
// than destroyed when the device is lost.
func (t *Texture) Destroy() {
	if t.tex == nil {
		return
	}
	if !t.owner.abandoned.Load() {
		t.owner.device.DestroyTextureView(t.view)
		t.owner.device.DestroyTexture(t.tex)
	}
	t.tex, t.view = nil, nil
	t.owner.live.Add(-1)
}

func textureUsage(desc resource.TextureDesc) gputypes.TextureUsage {
	if desc.Samples() > 1 {
		return gputypes.TextureUsageRenderAttachment
	}
	u := desc.Usage
	if u == 0 {
		u = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageRenderAttachment
	}
	return u | gputypes.TextureUsageCopyDst | gputypes.TextureUsageCopySrc
}

func (b *Backend) newTexture(desc resource.TextureDesc, pixels []byte) (*Texture, error) {
	w, h := uint32(desc.Width), uint32(desc.Height) //nolint:gosec // G115: validated positive
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   desc.Samples(),
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         textureUsage(desc),
	})
	if err != nil {
		return nil, err
	}
	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: desc.Label + "_view"})
	if err != nil {
		b.device.DestroyTexture(tex)
		return nil, err
	}
	if pixels != nil {
		bpp := uint32(resource.BytesPerPixel(desc.Format)) //nolint:gosec // G115: 1 or 4
		b.queue.WriteTexture(
			&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
			pixels,
			&hal.ImageDataLayout{Offset: 0, BytesPerRow: w * bpp, RowsPerImage: h},
			&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		)
	}
	b.live.Add(1)
	return &Texture{owner: b, desc: desc, tex: tex, view: view}, nil
}
