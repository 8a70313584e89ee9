package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/outline/render/core"
	"github.com/gekko3d/outline/render/mesh"
	"github.com/gekko3d/outline/render/shaders"
)

// Bind group slots used by the outline pipeline. Slots 0 and 1 belong to
// the mesh pipeline.
const (
	OutlineViewGroup          = 0
	OutlineMeshGroup          = 1
	OutlineMaterialGroup      = 2
	OutlineViewportScaleGroup = 3
)

// OutlinePipeline draws the silhouette shell of a mesh: the mesh inflated
// along its smoothed normals with front faces culled, so only the ring
// around the original silhouette survives the depth test.
type OutlinePipeline struct {
	mesh *MeshPipeline

	MaterialLayout      *wgpu.BindGroupLayout
	ViewportScaleLayout *wgpu.BindGroupLayout
	Shader              *wgpu.ShaderModule

	device Device
}

func NewOutlinePipeline(device Device, meshPipeline *MeshPipeline) (*OutlinePipeline, error) {
	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "OutlineShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.OutlineWGSL},
	})
	if err != nil {
		return nil, err
	}
	materialLayout, err := uniformLayout(device, "OutlineMaterialBGL", OutlineMaterialUniformSize,
		wgpu.ShaderStageVertex|wgpu.ShaderStageFragment)
	if err != nil {
		return nil, err
	}
	scaleLayout, err := uniformLayout(device, "OutlineViewportScaleBGL", ViewportScaleUniformSize, wgpu.ShaderStageVertex)
	if err != nil {
		return nil, err
	}
	return &OutlinePipeline{
		mesh:                meshPipeline,
		MaterialLayout:      materialLayout,
		ViewportScaleLayout: scaleLayout,
		Shader:              shader,
		device:              device,
	}, nil
}

// Specialize builds the outline variant matching a mesh pipeline key. The
// mesh must carry positions and smoothed outline normals.
func (p *OutlinePipeline) Specialize(key MeshPipelineKey, layout *mesh.MeshVertexBufferLayout) (*RenderPipelineDescriptor, error) {
	vertexLayout, err := layout.GetLayout([]mesh.VertexAttributeDescriptor{
		mesh.AttributePosition.AtShaderLocation(0),
		mesh.AttributeOutlineNormal.AtShaderLocation(1),
	})
	if err != nil {
		return nil, &SpecializationError{Pipeline: "OutlinePipeline", Layout: layout.Key(), Err: err}
	}
	buffer, err := VertexBufferLayout(vertexLayout)
	if err != nil {
		return nil, &SpecializationError{Pipeline: "OutlinePipeline", Layout: layout.Key(), Err: err}
	}

	return &RenderPipelineDescriptor{
		Label: fmt.Sprintf("OutlinePipeline(%s,msaa=%d)", key.Topology, key.MsaaSamples),
		BindGroupLayouts: []*wgpu.BindGroupLayout{
			p.mesh.ViewLayout,
			p.mesh.MeshLayout,
			p.MaterialLayout,
			p.ViewportScaleLayout,
		},
		Shader:             p.Shader,
		VertexEntryPoint:   "vs_main",
		FragmentEntryPoint: "fs_main",
		VertexBuffers:      []wgpu.VertexBufferLayout{buffer},
		Primitive: wgpu.PrimitiveState{
			Topology:         PrimitiveTopology(key.Topology),
			StripIndexFormat: stripIndexFormat(key.Topology),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeFront,
		},
		DepthStencil: opaqueDepthState(),
		Multisample:  multisample(key.MsaaSamples),
		Targets: []wgpu.ColorTargetState{
			{
				Format:    p.mesh.ColorFormat,
				Blend:     &wgpu.BlendStateReplace,
				WriteMask: wgpu.ColorWriteMaskAll,
			},
		},
	}, nil
}

// PreparedOutlineMaterial is the GPU form of an OutlineMaterial.
type PreparedOutlineMaterial struct {
	Buffer    *wgpu.Buffer
	BindGroup *wgpu.BindGroup
	Material  core.OutlineMaterial
}

// PrepareMaterial uploads m and binds it against MaterialLayout.
func (p *OutlinePipeline) PrepareMaterial(m core.OutlineMaterial) PrepareResult[*PreparedOutlineMaterial] {
	if err := m.Validate(); err != nil {
		return Failed[*PreparedOutlineMaterial](err)
	}
	buffer, group, err := UniformBindGroup(p.device, "OutlineMaterial", p.MaterialLayout, outlineMaterialBytes(m))
	if err != nil {
		return ResultOf[*PreparedOutlineMaterial](nil, err)
	}
	return Ready(&PreparedOutlineMaterial{Buffer: buffer, BindGroup: group, Material: m})
}

func (p *OutlinePipeline) ReleaseMaterial(m *PreparedOutlineMaterial) {
	if m == nil {
		return
	}
	p.device.Release(m.BindGroup)
	p.device.Release(m.Buffer)
}
