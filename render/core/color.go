package core

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"golang.org/x/image/colornames"
)

// LinearRgba is a color in linear space with straight alpha. It is the
// layout uniforms carry to shaders.
type LinearRgba struct {
	R, G, B, A float32
}

var (
	Black = LinearRgba{0, 0, 0, 1}
	White = LinearRgba{1, 1, 1, 1}
)

func (c LinearRgba) Vec4() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}

// FromSRGB converts an 8-bit sRGB color to linear space.
func FromSRGB(c color.RGBA) LinearRgba {
	return LinearRgba{
		R: srgbToLinear(c.R),
		G: srgbToLinear(c.G),
		B: srgbToLinear(c.B),
		A: float32(c.A) / 255,
	}
}

func srgbToLinear(v uint8) float32 {
	f := float64(v) / 255
	if f <= 0.04045 {
		return float32(f / 12.92)
	}
	return float32(math.Pow((f+0.055)/1.055, 2.4))
}

// ColorByName resolves an SVG 1.1 color keyword ("black", "gold", ...).
func ColorByName(name string) (LinearRgba, error) {
	c, ok := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return LinearRgba{}, fmt.Errorf("unknown color name %q", name)
	}
	return FromSRGB(c), nil
}
