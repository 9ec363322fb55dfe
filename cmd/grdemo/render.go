package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gr"
	"github.com/gogpu/gr/geom"
	"github.com/gogpu/gr/ops"
	"github.com/gogpu/gr/program"
	"github.com/gogpu/gr/proxy"
)

// render records sc into a new surface, flushes it and reads it back.
// Relative texture paths are resolved against dir.
func render(ctx *gr.Context, sc *Scene, dir string) (*image.RGBA, error) {
	sdc, err := ctx.NewSurface(sc.Width, sc.Height, gputypes.TextureFormatRGBA8Unorm, sc.Samples)
	if err != nil {
		return nil, err
	}
	defer sdc.Release()

	textures := make(map[string]*proxy.TextureProxy, len(sc.Textures))
	defer func() {
		for _, tp := range textures {
			tp.Release()
		}
	}()
	for _, td := range sc.Textures {
		tp, err := makeTexture(ctx, td, dir)
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", td.Name, err)
		}
		textures[td.Name] = tp
	}

	// Colors were checked by validate.
	bg, _ := parseColor(sc.Background)
	sdc.Clear(sdc.Bounds(), bg)

	for _, r := range sc.Rects {
		c, _ := parseColor(r.Color)
		blend := program.BlendSrcOver
		if r.Blend == "src" {
			blend = program.BlendSrc
		}
		sdc.FillRectBlend(geom.RectXYWH(r.X, r.Y, r.W, r.H), c, blend)
	}

	for _, d := range sc.Draws {
		tp := textures[d.Texture]
		w, h := tp.Dimensions()
		src := geom.RectXYWH(0, 0, float64(w), float64(h))
		sdc.DrawTexture(tp, src, geom.RectXYWH(d.X, d.Y, d.W, d.H), d.Alpha, parseFilter(d.Filter))
	}

	if len(sc.Layers) > 0 {
		layers := make([]gr.Layer3D, len(sc.Layers))
		for i, l := range sc.Layers {
			layers[i] = gr.Layer3D{
				Texture:   textures[l.Texture],
				Rect:      geom.RectXYWH(0, 0, l.W, l.H),
				Transform: layerTransform(l),
				Alpha:     l.Alpha,
				Filter:    parseFilter(l.Filter),
			}
		}
		n, err := ctx.Composite3D(sdc, layers)
		if err != nil {
			return nil, err
		}
		gr.Logger().Debug("grdemo: layers composited", "fragments", n)
	}

	sdc.Resolve()
	return ctx.ReadPixels(sdc)
}

// layerTransform places a w×h layer at (x, y, z), rotated about its center
// and seen through a perspective of the given distance centered on the
// layer.
func layerTransform(l LayerDef) geom.Matrix44 {
	cx, cy := l.X+l.W/2, l.Y+l.H/2
	m := geom.Identity44()
	if l.Perspective > 0 {
		m = geom.Translate44(cx, cy, 0).
			Multiply(geom.Perspective44(l.Perspective)).
			Multiply(geom.Translate44(-cx, -cy, 0))
	}
	return m.
		Multiply(geom.Translate44(cx, cy, l.Z)).
		Multiply(geom.RotateY44(l.RotateY)).
		Multiply(geom.RotateX44(l.RotateX)).
		Multiply(geom.Translate44(-l.W/2, -l.H/2, 0))
}

func parseFilter(s string) ops.Filter {
	if s == "linear" {
		return ops.FilterLinear
	}
	return ops.FilterNearest
}

func makeTexture(ctx *gr.Context, td TextureDef, dir string) (*proxy.TextureProxy, error) {
	if td.Path == "" {
		a, _ := parseColor(td.Colors[0])
		b, _ := parseColor(td.Colors[1])
		img := image.NewNRGBA(image.Rect(0, 0, td.Width, td.Height))
		for y := range td.Height {
			for x := range td.Width {
				c := a
				if (x/td.Cell+y/td.Cell)%2 == 1 {
					c = b
				}
				img.SetNRGBA(x, y, c)
			}
		}
		return ctx.MakeTexture(img)
	}
	path := td.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ctx.MakeTextureFromEncoded(data)
}
