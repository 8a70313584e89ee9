package outline

import (
	"github.com/google/uuid"

	"github.com/gekko3d/outline/render/core"
	"github.com/gekko3d/outline/render/mesh"
)

type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

type colorMaterialAsset struct {
	version  uint64
	material core.ColorMaterial
}

// outlineMaterialAsset is shared by every entity pointing at its id. It lives
// until the last reference is released.
type outlineMaterialAsset struct {
	version  uint64
	refs     int
	material core.OutlineMaterial
}

type AssetServer struct {
	meshes           map[AssetId]*mesh.Mesh
	colorMaterials   map[AssetId]*colorMaterialAsset
	outlineMaterials map[AssetId]*outlineMaterialAsset

	removedMeshes           []AssetId
	removedColorMaterials   []AssetId
	removedOutlineMaterials []AssetId
}

type AssetServerModule struct{}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewAssetServer())
}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		meshes:           make(map[AssetId]*mesh.Mesh),
		colorMaterials:   make(map[AssetId]*colorMaterialAsset),
		outlineMaterials: make(map[AssetId]*outlineMaterialAsset),
	}
}

func (server *AssetServer) AddMesh(m *mesh.Mesh) AssetId {
	id := makeAssetId()
	server.meshes[id] = m
	return id
}

// Mesh returns the stored mesh. Mutating it bumps its version, which is
// what extraction uses to notice the change.
func (server *AssetServer) Mesh(id AssetId) (*mesh.Mesh, bool) {
	m, ok := server.meshes[id]
	return m, ok
}

func (server *AssetServer) RemoveMesh(id AssetId) {
	if _, ok := server.meshes[id]; !ok {
		return
	}
	delete(server.meshes, id)
	server.removedMeshes = append(server.removedMeshes, id)
}

func (server *AssetServer) AddColorMaterial(material core.ColorMaterial) AssetId {
	id := makeAssetId()
	server.colorMaterials[id] = &colorMaterialAsset{version: 1, material: material}
	return id
}

func (server *AssetServer) ColorMaterial(id AssetId) (core.ColorMaterial, bool) {
	asset, ok := server.colorMaterials[id]
	if !ok {
		return core.ColorMaterial{}, false
	}
	return asset.material, true
}

func (server *AssetServer) SetColorMaterial(id AssetId, material core.ColorMaterial) bool {
	asset, ok := server.colorMaterials[id]
	if !ok {
		return false
	}
	asset.material = material
	asset.version++
	return true
}

func (server *AssetServer) RemoveColorMaterial(id AssetId) {
	if _, ok := server.colorMaterials[id]; !ok {
		return
	}
	delete(server.colorMaterials, id)
	server.removedColorMaterials = append(server.removedColorMaterials, id)
}

// AddOutlineMaterial stores a material holding one reference. The width is
// validated when the material is prepared for the GPU.
func (server *AssetServer) AddOutlineMaterial(material core.OutlineMaterial) AssetId {
	id := makeAssetId()
	server.outlineMaterials[id] = &outlineMaterialAsset{version: 1, refs: 1, material: material}
	return id
}

func (server *AssetServer) OutlineMaterial(id AssetId) (core.OutlineMaterial, bool) {
	asset, ok := server.outlineMaterials[id]
	if !ok {
		return core.OutlineMaterial{}, false
	}
	return asset.material, true
}

func (server *AssetServer) SetOutlineMaterial(id AssetId, material core.OutlineMaterial) bool {
	asset, ok := server.outlineMaterials[id]
	if !ok {
		return false
	}
	asset.material = material
	asset.version++
	return true
}

func (server *AssetServer) RetainOutlineMaterial(id AssetId) bool {
	asset, ok := server.outlineMaterials[id]
	if !ok {
		return false
	}
	asset.refs++
	return true
}

// ReleaseOutlineMaterial drops one reference. It reports whether the
// material was freed.
func (server *AssetServer) ReleaseOutlineMaterial(id AssetId) bool {
	asset, ok := server.outlineMaterials[id]
	if !ok {
		return false
	}
	asset.refs--
	if asset.refs > 0 {
		return false
	}
	delete(server.outlineMaterials, id)
	server.removedOutlineMaterials = append(server.removedOutlineMaterials, id)
	return true
}

func (server *AssetServer) OutlineMaterialRefs(id AssetId) int {
	if asset, ok := server.outlineMaterials[id]; ok {
		return asset.refs
	}
	return 0
}

func drain(ids *[]AssetId) []AssetId {
	res := *ids
	*ids = nil
	return res
}
