package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/outline/render/core"
	"github.com/gekko3d/outline/render/mesh"
	"github.com/gekko3d/outline/render/shaders"
)

// DepthFormat is the depth attachment format of the main opaque pass.
const DepthFormat = wgpu.TextureFormatDepth32Float

// MeshPipelineKey selects a variant of the mesh pipeline. Pipelines that
// draw into the same pass as meshes reuse it so their variants line up.
type MeshPipelineKey struct {
	MsaaSamples uint32
	Topology    mesh.PrimitiveTopology
	HasNormals  bool
}

func MeshPipelineKeyFor(layout *mesh.MeshVertexBufferLayout, topology mesh.PrimitiveTopology, msaaSamples uint32) MeshPipelineKey {
	if msaaSamples == 0 {
		msaaSamples = 1
	}
	return MeshPipelineKey{
		MsaaSamples: msaaSamples,
		Topology:    topology,
		HasNormals:  layout.Contains(mesh.AttributeNormal),
	}
}

// MeshPipeline draws flat-colored meshes. Its view (group 0) and mesh
// (group 1) layouts are shared with every pipeline drawn in the same pass.
type MeshPipeline struct {
	ViewLayout     *wgpu.BindGroupLayout
	MeshLayout     *wgpu.BindGroupLayout
	MaterialLayout *wgpu.BindGroupLayout
	Shader         *wgpu.ShaderModule
	ColorFormat    wgpu.TextureFormat

	device Device
}

func NewMeshPipeline(device Device, colorFormat wgpu.TextureFormat) (*MeshPipeline, error) {
	shader, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "MeshShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.MeshWGSL},
	})
	if err != nil {
		return nil, err
	}

	viewLayout, err := uniformLayout(device, "MeshViewBGL", ViewUniformSize, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment)
	if err != nil {
		return nil, err
	}
	meshLayout, err := uniformLayout(device, "MeshBGL", MeshUniformSize, wgpu.ShaderStageVertex)
	if err != nil {
		return nil, err
	}
	materialLayout, err := uniformLayout(device, "ColorMaterialBGL", ColorMaterialUniformSize, wgpu.ShaderStageFragment)
	if err != nil {
		return nil, err
	}

	return &MeshPipeline{
		ViewLayout:     viewLayout,
		MeshLayout:     meshLayout,
		MaterialLayout: materialLayout,
		Shader:         shader,
		ColorFormat:    colorFormat,
		device:         device,
	}, nil
}

func (p *MeshPipeline) Specialize(key MeshPipelineKey, layout *mesh.MeshVertexBufferLayout) (*RenderPipelineDescriptor, error) {
	attrs := []mesh.VertexAttributeDescriptor{mesh.AttributePosition.AtShaderLocation(0)}
	vs, fs := "vs_unlit", "fs_unlit"
	if key.HasNormals {
		attrs = append(attrs, mesh.AttributeNormal.AtShaderLocation(1))
		vs, fs = "vs_lit", "fs_lit"
	}

	vertexLayout, err := layout.GetLayout(attrs)
	if err != nil {
		return nil, &SpecializationError{Pipeline: "MeshPipeline", Layout: layout.Key(), Err: err}
	}
	buffer, err := VertexBufferLayout(vertexLayout)
	if err != nil {
		return nil, &SpecializationError{Pipeline: "MeshPipeline", Layout: layout.Key(), Err: err}
	}

	return &RenderPipelineDescriptor{
		Label:              fmt.Sprintf("MeshPipeline(%s,msaa=%d,normals=%t)", key.Topology, key.MsaaSamples, key.HasNormals),
		BindGroupLayouts:   []*wgpu.BindGroupLayout{p.ViewLayout, p.MeshLayout, p.MaterialLayout},
		Shader:             p.Shader,
		VertexEntryPoint:   vs,
		FragmentEntryPoint: fs,
		VertexBuffers:      []wgpu.VertexBufferLayout{buffer},
		Primitive: wgpu.PrimitiveState{
			Topology:         PrimitiveTopology(key.Topology),
			StripIndexFormat: stripIndexFormat(key.Topology),
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         wgpu.CullModeBack,
		},
		DepthStencil: opaqueDepthState(),
		Multisample:  multisample(key.MsaaSamples),
		Targets: []wgpu.ColorTargetState{
			{
				Format:    p.ColorFormat,
				Blend:     &wgpu.BlendStateReplace,
				WriteMask: wgpu.ColorWriteMaskAll,
			},
		},
	}, nil
}

// PreparedColorMaterial is the GPU form of a core.ColorMaterial.
type PreparedColorMaterial struct {
	Buffer    *wgpu.Buffer
	BindGroup *wgpu.BindGroup
}

func (p *MeshPipeline) PrepareMaterial(m core.ColorMaterial) PrepareResult[*PreparedColorMaterial] {
	buffer, group, err := UniformBindGroup(p.device, "ColorMaterial", p.MaterialLayout, colorMaterialBytes(m))
	if err != nil {
		return ResultOf[*PreparedColorMaterial](nil, err)
	}
	return Ready(&PreparedColorMaterial{Buffer: buffer, BindGroup: group})
}

func (p *MeshPipeline) ReleaseMaterial(m *PreparedColorMaterial) {
	if m == nil {
		return
	}
	p.device.Release(m.BindGroup)
	p.device.Release(m.Buffer)
}

// opaqueDepthState is reversed-Z: nearer fragments carry greater depth.
func opaqueDepthState() *wgpu.DepthStencilState {
	return &wgpu.DepthStencilState{
		Format:            DepthFormat,
		DepthWriteEnabled: true,
		DepthCompare:      wgpu.CompareFunctionGreater,
		StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
	}
}

func multisample(samples uint32) wgpu.MultisampleState {
	if samples == 0 {
		samples = 1
	}
	return wgpu.MultisampleState{
		Count: samples,
		Mask:  0xFFFFFFFF,
	}
}

func uniformLayout(device Device, label string, size uint64, visibility wgpu.ShaderStage) (*wgpu.BindGroupLayout, error) {
	return device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: label,
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: visibility,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: size,
				},
			},
		},
	})
}

// UniformBindGroup creates a buffer and a bind group exposing it at
// binding 0 of layout.
func UniformBindGroup(device Device, label string, layout *wgpu.BindGroupLayout, contents []byte) (*wgpu.Buffer, *wgpu.BindGroup, error) {
	buffer, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label,
		Contents: contents,
		Usage:    wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, nil, err
	}
	group, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label + "BG",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buffer, Size: uint64(len(contents))},
		},
	})
	if err != nil {
		device.Release(buffer)
		return nil, nil, err
	}
	return buffer, group, nil
}
