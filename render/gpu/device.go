package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/outline/render/mesh"
)

// Device is the slice of the wgpu device and queue the renderer needs.
// WgpuDevice adapts a real device; tests use gputest.RecordingDevice.
type Device interface {
	CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error)
	CreateBufferInit(desc *wgpu.BufferInitDescriptor) (*wgpu.Buffer, error)
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error)
	CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error)
	CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error)
	CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error)
	CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error)
	WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error
	Release(res Releasable)
}

// Releasable is any wgpu handle that owns native memory.
type Releasable interface {
	Release()
}

type WgpuDevice struct {
	*wgpu.Device
	Queue *wgpu.Queue
}

func NewWgpuDevice(device *wgpu.Device) *WgpuDevice {
	return &WgpuDevice{
		Device: device,
		Queue:  device.GetQueue(),
	}
}

func (d *WgpuDevice) WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error {
	return d.Queue.WriteBuffer(buffer, offset, data)
}

func (d *WgpuDevice) Release(res Releasable) {
	if res != nil {
		res.Release()
	}
}

// VertexFormat maps a mesh attribute format onto its wgpu counterpart.
func VertexFormat(f mesh.VertexFormat) (wgpu.VertexFormat, error) {
	switch f {
	case mesh.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2, nil
	case mesh.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3, nil
	case mesh.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4, nil
	}
	return 0, fmt.Errorf("unsupported vertex format %s", f)
}

func PrimitiveTopology(t mesh.PrimitiveTopology) wgpu.PrimitiveTopology {
	switch t {
	case mesh.TopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	case mesh.TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case mesh.TopologyLineStrip:
		return wgpu.PrimitiveTopologyLineStrip
	case mesh.TopologyTriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip
	}
	return wgpu.PrimitiveTopologyTriangleList
}

func stripIndexFormat(t mesh.PrimitiveTopology) wgpu.IndexFormat {
	if t == mesh.TopologyLineStrip || t == mesh.TopologyTriangleStrip {
		return wgpu.IndexFormatUint32
	}
	return wgpu.IndexFormatUndefined
}

// VertexBufferLayout converts a selected mesh layout into a per-vertex wgpu
// buffer layout.
func VertexBufferLayout(l mesh.VertexBufferLayout) (wgpu.VertexBufferLayout, error) {
	attrs := make([]wgpu.VertexAttribute, 0, len(l.Attributes))
	for _, a := range l.Attributes {
		format, err := VertexFormat(a.Format)
		if err != nil {
			return wgpu.VertexBufferLayout{}, err
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         format,
			Offset:         a.Offset,
			ShaderLocation: a.ShaderLocation,
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: l.ArrayStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, nil
}
