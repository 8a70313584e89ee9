package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// ObjectToWorld returns T * R * S.
func (t Transform) ObjectToWorld() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Normalize().Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return translate.Mul4(rotate).Mul4(scale)
}

// NormalMatrix is the inverse transpose of the upper 3x3 of ObjectToWorld,
// padded to a Mat4 so it keeps WGSL mat4x4 alignment.
func (t Transform) NormalMatrix() mgl32.Mat4 {
	return t.ObjectToWorld().Mat3().Inv().Transpose().Mat4()
}

// TransformAABB returns the world bounds of a local box under m.
func TransformAABB(min, max mgl32.Vec3, m mgl32.Mat4) (mgl32.Vec3, mgl32.Vec3) {
	corners := aabbCorners(min, max)
	wmin := m.Mul4x1(corners[0].Vec4(1)).Vec3()
	wmax := wmin
	for _, c := range corners[1:] {
		p := m.Mul4x1(c.Vec4(1)).Vec3()
		for k := 0; k < 3; k++ {
			if p[k] < wmin[k] {
				wmin[k] = p[k]
			}
			if p[k] > wmax[k] {
				wmax[k] = p[k]
			}
		}
	}
	return wmin, wmax
}

func aabbCorners(min, max mgl32.Vec3) [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{min[0], min[1], min[2]},
		{max[0], min[1], min[2]},
		{min[0], max[1], min[2]},
		{max[0], max[1], min[2]},
		{min[0], min[1], max[2]},
		{max[0], min[1], max[2]},
		{min[0], max[1], max[2]},
		{max[0], max[1], max[2]},
	}
}
