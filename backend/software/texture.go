package software

import (
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr/resource"
)

// Texture is a texture backing. Pixels are kept as premultiplied RGBA
// whatever the requested format; BGRA and R8 are converted on upload.
type Texture struct {
	owner *Backend
	desc  resource.TextureDesc
	img   *image.RGBA
}

// Format implements resource.FormatReporter.
func (t *Texture) Format() gputypes.TextureFormat { return t.desc.Format }

// Desc returns the descriptor the texture was created with.
func (t *Texture) Desc() resource.TextureDesc { return t.desc }

// Destroy implements resource.Backing.
func (t *Texture) Destroy() {
	if t.img == nil {
		return
	}
	t.img = nil
	t.owner.destroyed()
}

func newImage(desc resource.TextureDesc, pixels []byte) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	if pixels == nil {
		return img
	}
	switch desc.Format {
	case gputypes.TextureFormatBGRA8Unorm:
		for i := 0; i+3 < len(pixels) && i+3 < len(img.Pix); i += 4 {
			img.Pix[i+0] = pixels[i+2]
			img.Pix[i+1] = pixels[i+1]
			img.Pix[i+2] = pixels[i+0]
			img.Pix[i+3] = pixels[i+3]
		}
	case gputypes.TextureFormatR8Unorm:
		for i, v := range pixels {
			if 4*i+3 >= len(img.Pix) {
				break
			}
			img.Pix[4*i+0] = v
			img.Pix[4*i+3] = 0xff
		}
	default:
		copy(img.Pix, pixels)
	}
	return img
}
