package ops

import "image/color"

// Color is a premultiplied RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Transparent is the zero color.
var Transparent = Color{}

// ColorFrom converts any color.Color. The result is premultiplied.
func ColorFrom(c color.Color) Color {
	r, g, b, a := c.RGBA()
	return Color{
		R: float32(r) / 0xffff,
		G: float32(g) / 0xffff,
		B: float32(b) / 0xffff,
		A: float32(a) / 0xffff,
	}
}

// ModulateAlpha scales every component by alpha.
func (c Color) ModulateAlpha(alpha float32) Color {
	return Color{R: c.R * alpha, G: c.G * alpha, B: c.B * alpha, A: c.A * alpha}
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return to16(c.R), to16(c.G), to16(c.B), to16(c.A)
}

func to16(v float32) uint32 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xffff
	default:
		return uint32(v*0xffff + 0.5)
	}
}
