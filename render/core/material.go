package core

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidOutlineWidth = errors.New("outline width must be a finite value greater than zero")

// OutlineMaterial describes the silhouette shell drawn around a mesh. Width
// is in screen pixels.
type OutlineMaterial struct {
	Width float32
	Color LinearRgba
}

func NewOutlineMaterial(width float32, color LinearRgba) (OutlineMaterial, error) {
	m := OutlineMaterial{Width: width, Color: color}
	if err := m.Validate(); err != nil {
		return OutlineMaterial{}, err
	}
	return m, nil
}

func (m OutlineMaterial) Validate() error {
	w := float64(m.Width)
	if !(w > 0) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidOutlineWidth, m.Width)
	}
	return nil
}

// ColorMaterial is the flat-colored material used for the base mesh draw.
type ColorMaterial struct {
	Color LinearRgba
	Unlit bool
}

func DefaultColorMaterial() ColorMaterial {
	return ColorMaterial{Color: White}
}
