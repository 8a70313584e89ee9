package outline

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/outline/render/core"
	"github.com/gekko3d/outline/render/gpu"
)

// RenderDevice is the device every render system allocates through.
type RenderDevice struct {
	Device      gpu.Device
	ColorFormat wgpu.TextureFormat
	MsaaSamples uint32
}

type RenderSettings struct {
	ClearColor      core.LinearRgba
	LightDirection  mgl32.Vec3
	DefaultMaterial AssetId
}

type MeshPipelines struct {
	*gpu.SpecializedMeshPipelines[gpu.MeshPipelineKey]
}

type OutlinePipelines struct {
	*gpu.SpecializedMeshPipelines[gpu.MeshPipelineKey]
}

type RenderMeshes = gpu.RenderAssets[AssetId, gpu.ExtractedMesh, *gpu.GpuMesh]
type RenderColorMaterials = gpu.RenderAssets[AssetId, core.ColorMaterial, *gpu.PreparedColorMaterial]
type RenderOutlineMaterials = gpu.RenderAssets[AssetId, core.OutlineMaterial, *gpu.PreparedOutlineMaterial]

// ViewUniforms holds one group-0 bind group per extracted view.
type ViewUniforms struct {
	*gpu.UniformSlots[EntityId]
}

// MeshUniforms holds one group-1 bind group per extracted mesh instance.
type MeshUniforms struct {
	*gpu.UniformSlots[EntityId]
}

// Everything below is rebuilt by the Extract stage each frame. Prepare,
// Queue and Render read it and never touch the main-world components.

type ExtractedView struct {
	Entity   EntityId
	ViewProj mgl32.Mat4
	Position mgl32.Vec3
	Width    uint32
	Height   uint32
	Visible  []EntityId
}

type ExtractedViews struct {
	Views []ExtractedView
}

type ExtractedMeshInstance struct {
	Mesh     AssetId
	Material AssetId
	Model    mgl32.Mat4
	Normal   mgl32.Mat4
}

type ExtractedMeshInstances struct {
	Instances map[EntityId]ExtractedMeshInstance
}

type ExtractedAssets struct {
	Meshes                []gpu.ExtractedAsset[AssetId, gpu.ExtractedMesh]
	RemovedMeshes         []AssetId
	ColorMaterials        []gpu.ExtractedAsset[AssetId, core.ColorMaterial]
	RemovedColorMaterials []AssetId

	meshVersions     map[AssetId]uint64
	materialVersions map[AssetId]uint64
}

func newExtractedAssets() *ExtractedAssets {
	return &ExtractedAssets{
		meshVersions:     make(map[AssetId]uint64),
		materialVersions: make(map[AssetId]uint64),
	}
}
