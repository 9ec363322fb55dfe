package main

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Scene is the TOML description of a frame.
type Scene struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Samples    uint32 `toml:"samples"`
	Background string `toml:"background"`

	Textures []TextureDef `toml:"texture"`
	Rects    []RectDef    `toml:"rect"`
	Draws    []DrawDef    `toml:"draw"`
	Layers   []LayerDef   `toml:"layer"`
}

// TextureDef names a texture loaded from an image file or generated as a
// checkerboard.
type TextureDef struct {
	Name string `toml:"name"`
	Path string `toml:"path"`

	// Checkerboard parameters, used when Path is empty.
	Width  int      `toml:"width"`
	Height int      `toml:"height"`
	Cell   int      `toml:"cell"`
	Colors []string `toml:"colors"`
}

// RectDef is a solid rectangle.
type RectDef struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	W float64 `toml:"w"`
	H float64 `toml:"h"`

	Color string `toml:"color"`
	Blend string `toml:"blend"`
}

// DrawDef draws a whole texture into a destination rectangle.
type DrawDef struct {
	Texture string `toml:"texture"`

	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	W float64 `toml:"w"`
	H float64 `toml:"h"`

	Alpha  float32 `toml:"alpha"`
	Filter string  `toml:"filter"`
}

// LayerDef places a texture in 3D. The layer rotates about its center.
type LayerDef struct {
	Texture string `toml:"texture"`

	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	W float64 `toml:"w"`
	H float64 `toml:"h"`

	Z           float64 `toml:"z"`
	RotateX     float64 `toml:"rotate_x"`
	RotateY     float64 `toml:"rotate_y"`
	Perspective float64 `toml:"perspective"`
	Alpha       float32 `toml:"alpha"`
	Filter      string  `toml:"filter"`
}

var errScene = errors.New("grdemo: invalid scene")

// loadScene reads a scene from path, or the built-in scene when path is
// empty.
func loadScene(path string) (*Scene, error) {
	data := []byte(defaultScene)
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return parseScene(data)
}

func parseScene(data []byte) (*Scene, error) {
	sc := &Scene{Width: 512, Height: 384, Samples: 1, Background: "#ffffff"}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(sc); err != nil {
		return nil, fmt.Errorf("%w: %w", errScene, err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *Scene) validate() error {
	if sc.Width <= 0 || sc.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", errScene, sc.Width, sc.Height)
	}
	if _, err := parseColor(sc.Background); err != nil {
		return err
	}
	names := make(map[string]bool, len(sc.Textures))
	for _, t := range sc.Textures {
		if t.Name == "" || names[t.Name] {
			return fmt.Errorf("%w: texture name %q missing or repeated", errScene, t.Name)
		}
		names[t.Name] = true
		if t.Path == "" && (t.Width <= 0 || t.Height <= 0 || t.Cell <= 0 || len(t.Colors) != 2) {
			return fmt.Errorf("%w: texture %q needs a path or width, height, cell and two colors", errScene, t.Name)
		}
	}
	for _, r := range sc.Rects {
		if _, err := parseColor(r.Color); err != nil {
			return err
		}
	}
	for _, d := range sc.Draws {
		if !names[d.Texture] {
			return fmt.Errorf("%w: draw uses unknown texture %q", errScene, d.Texture)
		}
	}
	for _, l := range sc.Layers {
		if !names[l.Texture] {
			return fmt.Errorf("%w: layer uses unknown texture %q", errScene, l.Texture)
		}
	}
	return nil
}

// parseColor parses #rgb, #rrggbb or #rrggbbaa into a straight-alpha color.
func parseColor(s string) (color.NRGBA, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.NRGBA{}, fmt.Errorf("%w: color %q must start with #", errScene, s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: color %q", errScene, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: color %q: %w", errScene, s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

const defaultScene = `
width = 512
height = 384
samples = 4
background = "#1e2430"

[[texture]]
name = "checker"
width = 64
height = 64
cell = 8
colors = ["#f2f2f2", "#3a7bd5"]

[[texture]]
name = "warm"
width = 64
height = 64
cell = 16
colors = ["#ffb347", "#cc3333"]

[[rect]]
x = 24
y = 24
w = 200
h = 120
color = "#2e8b57"

[[rect]]
x = 120
y = 80
w = 200
h = 120
color = "#ff450080"

[[rect]]
x = 400
y = 24
w = 88
h = 88
color = "#00000000"
blend = "src"

[[draw]]
texture = "checker"
x = 24
y = 220
w = 128
h = 128
alpha = 1
filter = "nearest"

[[draw]]
texture = "warm"
x = 168
y = 220
w = 128
h = 128
alpha = 0.6
filter = "linear"

[[layer]]
texture = "checker"
x = 330
y = 200
w = 150
h = 150
rotate_y = 0.6
perspective = 600
alpha = 1

[[layer]]
texture = "warm"
x = 330
y = 200
w = 150
h = 150
rotate_y = -0.6
perspective = 600
alpha = 0.85
`
