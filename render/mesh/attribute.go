package mesh

import (
	"encoding/binary"
	"fmt"
	"math"
)

type VertexFormat uint32

const (
	VertexFormatFloat32x2 VertexFormat = iota + 1
	VertexFormatFloat32x3
	VertexFormatFloat32x4
)

// Size returns the byte size of one element in this format.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32x2:
		return 8
	case VertexFormatFloat32x3:
		return 12
	case VertexFormatFloat32x4:
		return 16
	}
	return 0
}

func (f VertexFormat) String() string {
	switch f {
	case VertexFormatFloat32x2:
		return "Float32x2"
	case VertexFormatFloat32x3:
		return "Float32x3"
	case VertexFormatFloat32x4:
		return "Float32x4"
	}
	return fmt.Sprintf("VertexFormat(%d)", uint32(f))
}

// VertexAttribute names a per-vertex stream. Id orders attributes inside the
// interleaved vertex buffer, so it must be unique per attribute.
type VertexAttribute struct {
	Name   string
	Id     uint64
	Format VertexFormat
}

var (
	AttributePosition = VertexAttribute{Name: "Vertex_Position", Id: 0, Format: VertexFormatFloat32x3}
	AttributeNormal   = VertexAttribute{Name: "Vertex_Normal", Id: 1, Format: VertexFormatFloat32x3}
	AttributeUV0      = VertexAttribute{Name: "Vertex_Uv", Id: 2, Format: VertexFormatFloat32x2}
	AttributeColor    = VertexAttribute{Name: "Vertex_Color", Id: 5, Format: VertexFormatFloat32x4}

	// AttributeOutlineNormal carries the position-averaged normal the outline
	// shell is inflated along.
	AttributeOutlineNormal = VertexAttribute{Name: "OutlineNormal", Id: 9885409170, Format: VertexFormatFloat32x3}
)

// AtShaderLocation binds the attribute to a vertex shader input location.
func (a VertexAttribute) AtShaderLocation(location uint32) VertexAttributeDescriptor {
	return VertexAttributeDescriptor{
		ShaderLocation: location,
		Id:             a.Id,
		Name:           a.Name,
	}
}

type VertexAttributeDescriptor struct {
	ShaderLocation uint32
	Id             uint64
	Name           string
}

// AttributeValues is the typed storage behind one vertex attribute.
type AttributeValues interface {
	Format() VertexFormat
	Len() int
	appendVertex(dst []byte, i int) []byte
}

type Float32x2 [][2]float32
type Float32x3 [][3]float32
type Float32x4 [][4]float32

func (v Float32x2) Format() VertexFormat { return VertexFormatFloat32x2 }
func (v Float32x3) Format() VertexFormat { return VertexFormatFloat32x3 }
func (v Float32x4) Format() VertexFormat { return VertexFormatFloat32x4 }

func (v Float32x2) Len() int { return len(v) }
func (v Float32x3) Len() int { return len(v) }
func (v Float32x4) Len() int { return len(v) }

func (v Float32x2) appendVertex(dst []byte, i int) []byte { return appendFloats(dst, v[i][:]) }
func (v Float32x3) appendVertex(dst []byte, i int) []byte { return appendFloats(dst, v[i][:]) }
func (v Float32x4) appendVertex(dst []byte, i int) []byte { return appendFloats(dst, v[i][:]) }

func appendFloats(dst []byte, fs []float32) []byte {
	for _, f := range fs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}
