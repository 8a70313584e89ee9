package gpu

import (
	"encoding/binary"
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/outline/render/mesh"
)

var ErrEmptyMesh = errors.New("mesh has no vertices")

// ExtractedMesh is the render-world copy of a mesh: interleaved vertex
// bytes plus the layout that describes them.
type ExtractedMesh struct {
	Vertices    []byte
	VertexCount uint32
	Indices     []uint32
	Layout      *mesh.MeshVertexBufferLayout
	Topology    mesh.PrimitiveTopology
}

func ExtractMesh(m *mesh.Mesh) ExtractedMesh {
	indices := make([]uint32, len(m.Indices()))
	copy(indices, m.Indices())
	return ExtractedMesh{
		Vertices:    m.InterleavedVertexData(),
		VertexCount: uint32(m.VertexCount()),
		Indices:     indices,
		Layout:      m.VertexBufferLayout(),
		Topology:    m.Topology(),
	}
}

type GpuMesh struct {
	VertexBuffer *wgpu.Buffer
	IndexBuffer  *wgpu.Buffer
	VertexCount  uint32
	IndexCount   uint32
	Layout       *mesh.MeshVertexBufferLayout
	Topology     mesh.PrimitiveTopology
}

func PrepareMesh(device Device, m ExtractedMesh) PrepareResult[*GpuMesh] {
	if m.VertexCount == 0 || len(m.Vertices) == 0 {
		return Failed[*GpuMesh](ErrEmptyMesh)
	}
	vertices, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "MeshVertexBuffer",
		Contents: m.Vertices,
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return ResultOf[*GpuMesh](nil, err)
	}

	gm := &GpuMesh{
		VertexBuffer: vertices,
		VertexCount:  m.VertexCount,
		Layout:       m.Layout,
		Topology:     m.Topology,
	}
	if len(m.Indices) > 0 {
		data := make([]byte, 0, len(m.Indices)*4)
		for _, idx := range m.Indices {
			data = binary.LittleEndian.AppendUint32(data, idx)
		}
		gm.IndexBuffer, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    "MeshIndexBuffer",
			Contents: data,
			Usage:    wgpu.BufferUsageIndex,
		})
		if err != nil {
			device.Release(vertices)
			return ResultOf[*GpuMesh](nil, err)
		}
		gm.IndexCount = uint32(len(m.Indices))
	}
	return Ready(gm)
}

func ReleaseMesh(device Device, m *GpuMesh) {
	if m == nil {
		return
	}
	device.Release(m.VertexBuffer)
	if m.IndexBuffer != nil {
		device.Release(m.IndexBuffer)
	}
}
