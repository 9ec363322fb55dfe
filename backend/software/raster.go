package software

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/program"
)

// vertex is a vertex in target pixel space. attr holds the color for
// solid programs and (u, v, alpha) for textured ones.
type vertex struct {
	x, y float64
	attr [4]float32
}

// rgba is a premultiplied color with components in [0, 1].
type rgba [4]float32

func (p *pass) drawTriangles(st bindings, idx []uint32) error {
	if st.vertices.data == nil || st.uniform.data == nil {
		return ErrDestroyed
	}
	vw := float64(st.uniform.float32At(st.uniformOff))
	vh := float64(st.uniform.float32At(st.uniformOff + 4))
	if vw <= 0 || vh <= 0 {
		return fmt.Errorf("%w: viewport %gx%g", ErrOutOfRange, vw, vh)
	}
	// The builtin vertex stages map pixels to NDC by the viewport uniform;
	// mapping back to the target gives the scale below.
	sx := float64(p.info.Width) / vw
	sy := float64(p.info.Height) / vh

	stride := st.prog.stride()
	fetch := func(i uint32) (vertex, error) {
		off := st.vertexOff + uint64(i)*stride
		if off+stride > uint64(len(st.vertices.data)) {
			return vertex{}, fmt.Errorf("%w: vertex %d", ErrOutOfRange, i)
		}
		b := st.vertices
		v := vertex{
			x: float64(b.float32At(off)) * sx,
			y: float64(b.float32At(off+4)) * sy,
		}
		n := 4
		if st.prog.desc.Shading == program.ShadingTextured {
			n = 3
		}
		for k := 0; k < n; k++ {
			v.attr[k] = b.float32At(off + 8 + uint64(4*k)) //nolint:gosec // G115: k < 4
		}
		return v, nil
	}

	shade := solidShader
	if st.prog.desc.Shading == program.ShadingTextured {
		if st.tex.img == nil {
			return ErrDestroyed
		}
		shade = textureShader(st.tex.img, st.filter)
	}

	clip := p.target.img.Rect
	for i := 0; i+2 < len(idx); i += 3 {
		var tri [3]vertex
		for k := range tri {
			v, err := fetch(idx[i+k])
			if err != nil {
				return err
			}
			tri[k] = v
		}
		rasterize(p.target.img, clip, tri, shade, st.prog.desc.Blend)
	}
	return nil
}

type shader func(attr [4]float32) rgba

func solidShader(attr [4]float32) rgba { return rgba(attr) }

// textureShader samples img at (u, v) and scales by alpha. Nearest
// sampling matches the texel fetch of textured.wgsl.
func textureShader(img *image.RGBA, filter ops.Filter) shader {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	return func(attr [4]float32) rgba {
		u, v, alpha := float64(attr[0])*float64(w), float64(attr[1])*float64(h), attr[2]
		var c rgba
		if filter == ops.FilterLinear {
			c = bilinear(img, u-0.5, v-0.5)
		} else {
			c = texel(img, clampInt(int(math.Floor(u)), 0, w-1), clampInt(int(math.Floor(v)), 0, h-1))
		}
		for k := range c {
			c[k] *= alpha
		}
		return c
	}
}

func texel(img *image.RGBA, x, y int) rgba {
	i := img.PixOffset(img.Rect.Min.X+x, img.Rect.Min.Y+y)
	p := img.Pix[i : i+4 : i+4]
	return rgba{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255, float32(p[3]) / 255}
}

func bilinear(img *image.RGBA, x, y float64) rgba {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := float32(x-x0), float32(y-y0)
	ix, iy := int(x0), int(y0)
	c00 := texel(img, clampInt(ix, 0, w-1), clampInt(iy, 0, h-1))
	c10 := texel(img, clampInt(ix+1, 0, w-1), clampInt(iy, 0, h-1))
	c01 := texel(img, clampInt(ix, 0, w-1), clampInt(iy+1, 0, h-1))
	c11 := texel(img, clampInt(ix+1, 0, w-1), clampInt(iy+1, 0, h-1))
	var out rgba
	for k := range out {
		top := c00[k] + (c10[k]-c00[k])*fx
		bot := c01[k] + (c11[k]-c01[k])*fx
		out[k] = top + (bot-top)*fy
	}
	return out
}

// rasterize fills the pixels whose centers lie inside the triangle.
// Pixels on a shared edge belong to the triangle for which the edge is a
// top or left edge, so adjacent triangles never touch a pixel twice.
func rasterize(dst *image.RGBA, clip image.Rectangle, tri [3]vertex, shade shader, blend program.Blend) {
	v0, v1, v2 := tri[0], tri[1], tri[2]
	area := edge(v0, v1, v2.x, v2.y)
	if area == 0 || math.IsNaN(area) {
		return
	}
	if area < 0 {
		v1, v2 = v2, v1
		area = -area
	}

	minX := int(math.Floor(min(v0.x, v1.x, v2.x)))
	minY := int(math.Floor(min(v0.y, v1.y, v2.y)))
	maxX := int(math.Ceil(max(v0.x, v1.x, v2.x)))
	maxY := int(math.Ceil(max(v0.y, v1.y, v2.y)))
	r := image.Rect(minX, minY, maxX, maxY).Intersect(clip)
	if r.Empty() {
		return
	}

	tl0, tl1, tl2 := isTopLeft(v1, v2), isTopLeft(v2, v0), isTopLeft(v0, v1)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		cy := float64(y) + 0.5
		for x := r.Min.X; x < r.Max.X; x++ {
			cx := float64(x) + 0.5
			w0 := edge(v1, v2, cx, cy)
			w1 := edge(v2, v0, cx, cy)
			w2 := edge(v0, v1, cx, cy)
			if !inside(w0, tl0) || !inside(w1, tl1) || !inside(w2, tl2) {
				continue
			}
			b0, b1, b2 := float32(w0/area), float32(w1/area), float32(w2/area)
			var attr [4]float32
			for k := range attr {
				attr[k] = v0.attr[k]*b0 + v1.attr[k]*b1 + v2.attr[k]*b2
			}
			blendPixel(dst, x, y, shade(attr), blend)
		}
	}
}

func edge(a, b vertex, px, py float64) float64 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func isTopLeft(a, b vertex) bool {
	return (a.y == b.y && b.x > a.x) || b.y < a.y
}

func inside(w float64, topLeft bool) bool {
	return w > 0 || (w == 0 && topLeft)
}

func blendPixel(dst *image.RGBA, x, y int, src rgba, blend program.Blend) {
	i := dst.PixOffset(x, y)
	p := dst.Pix[i : i+4 : i+4]
	if blend == program.BlendSrc {
		for k := range p {
			p[k] = to8(src[k])
		}
		return
	}
	inv := 1 - clamp01(src[3])
	for k := range p {
		p[k] = to8(src[k] + float32(p[k])/255*inv)
	}
}

func to8(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func clamp01(v float32) float32 {
	switch {
	case v < 0 || math.IsNaN(float64(v)):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
