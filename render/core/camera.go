package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Projection is a perspective projection with reversed depth: the near
// plane maps to depth 1 and the far plane to 0, so depth tests use Greater
// and the depth buffer clears to 0.
type Projection struct {
	FovY float32 // radians
	Near float32
	Far  float32
}

func DefaultProjection() Projection {
	return Projection{
		FovY: mgl32.DegToRad(45),
		Near: 0.1,
		Far:  1000,
	}
}

// Matrix builds the reversed-Z clip matrix for a viewport aspect ratio.
func (p Projection) Matrix(aspect float32) mgl32.Mat4 {
	return PerspectiveReversedZ(p.FovY, aspect, p.Near, p.Far)
}

// PerspectiveReversedZ is a right-handed perspective projection into the
// WebGPU [0,1] depth range with near and far swapped.
func PerspectiveReversedZ(fovy, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1 / math.Tan(float64(fovy)/2))
	depth := far - near
	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = near / depth
	m[11] = -1
	m[14] = far * near / depth
	return m
}

// View places a camera at Eye looking at Target.
type View struct {
	Eye    mgl32.Vec3
	Target mgl32.Vec3
	Up     mgl32.Vec3
}

func (v View) Matrix() mgl32.Mat4 {
	up := v.Up
	if up.Len() == 0 {
		up = mgl32.Vec3{0, 1, 0}
	}
	return mgl32.LookAtV(v.Eye, v.Target, up)
}

// ExtractFrustum returns the six clip planes of a reversed-Z view-projection
// in Left, Right, Bottom, Top, Near, Far order. Plane normals point inside.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(i, 0), vp.At(i, 1), vp.At(i, 2), vp.At(i, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes := [6]mgl32.Vec4{
		r3.Add(r0),
		r3.Sub(r0),
		r3.Add(r1),
		r3.Sub(r1),
		r3.Sub(r2), // z <= w at the near plane
		r2,         // z >= 0 at the far plane
	}
	for i := range planes {
		l := planes[i].Vec3().Len()
		if l > 0 {
			planes[i] = planes[i].Mul(1 / l)
		}
	}
	return planes
}

// AABBInFrustum reports whether the box touches the volume bounded by planes.
// For each plane it tests the corner furthest along the inside normal.
func AABBInFrustum(min, max mgl32.Vec3, planes [6]mgl32.Vec4) bool {
	for _, plane := range planes {
		var p mgl32.Vec3
		for k := 0; k < 3; k++ {
			if plane[k] > 0 {
				p[k] = max[k]
			} else {
				p[k] = min[k]
			}
		}
		if plane.Vec3().Dot(p)+plane[3] < 0 {
			return false
		}
	}
	return true
}
