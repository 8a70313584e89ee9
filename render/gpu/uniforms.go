package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/outline/render/core"
	"github.com/go-gl/mathgl/mgl32"
)

// Uniform sizes match the WGSL structs in render/shaders.
const (
	ViewUniformSize            = 112
	MeshUniformSize            = 128
	ColorMaterialUniformSize   = 32
	OutlineMaterialUniformSize = 32
	ViewportScaleUniformSize   = 16
)

type ViewUniform struct {
	ViewProj       mgl32.Mat4
	WorldPosition  mgl32.Vec3
	LightDirection mgl32.Vec3
	Viewport       mgl32.Vec4 // x, y, width, height
}

func (u ViewUniform) Bytes() []byte {
	buf := make([]byte, 0, ViewUniformSize)
	buf = appendFloat32s(buf, u.ViewProj[:]...)
	buf = appendFloat32s(buf, u.WorldPosition[0], u.WorldPosition[1], u.WorldPosition[2], 1)
	buf = appendFloat32s(buf, u.LightDirection[0], u.LightDirection[1], u.LightDirection[2], 0)
	buf = appendFloat32s(buf, u.Viewport[:]...)
	return buf
}

type MeshUniform struct {
	Model  mgl32.Mat4
	Normal mgl32.Mat4
}

func (u MeshUniform) Bytes() []byte {
	buf := make([]byte, 0, MeshUniformSize)
	buf = appendFloat32s(buf, u.Model[:]...)
	buf = appendFloat32s(buf, u.Normal[:]...)
	return buf
}

const colorMaterialFlagUnlit uint32 = 1

func colorMaterialBytes(m core.ColorMaterial) []byte {
	var flags uint32
	if m.Unlit {
		flags |= colorMaterialFlagUnlit
	}
	buf := make([]byte, 0, ColorMaterialUniformSize)
	buf = appendFloat32s(buf, m.Color.R, m.Color.G, m.Color.B, m.Color.A)
	buf = binary.LittleEndian.AppendUint32(buf, flags)
	return append(buf, make([]byte, 12)...)
}

// outlineMaterialBytes lays out {color: vec4, width: f32} padded to 32 bytes.
func outlineMaterialBytes(m core.OutlineMaterial) []byte {
	buf := make([]byte, 0, OutlineMaterialUniformSize)
	buf = appendFloat32s(buf, m.Color.R, m.Color.G, m.Color.B, m.Color.A)
	buf = appendFloat32s(buf, m.Width, 0, 0, 0)
	return buf
}

func viewportScaleBytes(scale [2]float32) []byte {
	return appendFloat32s(make([]byte, 0, ViewportScaleUniformSize), scale[0], scale[1], 0, 0)
}

func appendFloat32s(dst []byte, fs ...float32) []byte {
	for _, f := range fs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}
