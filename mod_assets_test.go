package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/outline/render/core"
	"github.com/gekko3d/outline/render/mesh"
)

func TestAssetServer_Meshes(t *testing.T) {
	server := NewAssetServer()
	id := server.AddMesh(mesh.Plane(1))
	other := server.AddMesh(mesh.Plane(2))
	assert.NotEqual(t, id, other)

	m, ok := server.Mesh(id)
	require.True(t, ok)
	assert.Equal(t, 4, m.VertexCount())

	server.RemoveMesh(id)
	server.RemoveMesh(id)
	_, ok = server.Mesh(id)
	assert.False(t, ok)
	assert.Equal(t, []AssetId{id}, drain(&server.removedMeshes))
	assert.Empty(t, server.removedMeshes)
}

func TestAssetServer_ColorMaterialVersions(t *testing.T) {
	server := NewAssetServer()
	id := server.AddColorMaterial(core.ColorMaterial{Color: core.Black})
	assert.Equal(t, uint64(1), server.colorMaterials[id].version)

	require.True(t, server.SetColorMaterial(id, core.ColorMaterial{Color: core.White}))
	assert.Equal(t, uint64(2), server.colorMaterials[id].version)
	got, _ := server.ColorMaterial(id)
	assert.Equal(t, core.White, got.Color)

	assert.False(t, server.SetColorMaterial("missing", core.ColorMaterial{}))

	server.RemoveColorMaterial(id)
	assert.Equal(t, []AssetId{id}, server.removedColorMaterials)
}

func TestAssetServer_OutlineMaterialRefcount(t *testing.T) {
	server := NewAssetServer()
	id := server.AddOutlineMaterial(core.OutlineMaterial{Width: 2, Color: core.Black})
	assert.Equal(t, 1, server.OutlineMaterialRefs(id))

	require.True(t, server.RetainOutlineMaterial(id))
	require.True(t, server.RetainOutlineMaterial(id))
	assert.Equal(t, 3, server.OutlineMaterialRefs(id))

	assert.False(t, server.ReleaseOutlineMaterial(id))
	assert.False(t, server.ReleaseOutlineMaterial(id))
	assert.Empty(t, server.removedOutlineMaterials)

	assert.True(t, server.ReleaseOutlineMaterial(id))
	_, ok := server.OutlineMaterial(id)
	assert.False(t, ok)
	assert.Equal(t, 0, server.OutlineMaterialRefs(id))
	assert.Equal(t, []AssetId{id}, server.removedOutlineMaterials)

	// a freed material can be neither retained nor released again
	assert.False(t, server.RetainOutlineMaterial(id))
	assert.False(t, server.ReleaseOutlineMaterial(id))
	assert.Len(t, server.removedOutlineMaterials, 1)
}

func TestAssetServer_SetOutlineMaterialBumpsVersion(t *testing.T) {
	server := NewAssetServer()
	id := server.AddOutlineMaterial(core.OutlineMaterial{Width: 2})

	require.True(t, server.SetOutlineMaterial(id, core.OutlineMaterial{Width: 4}))
	got, _ := server.OutlineMaterial(id)
	assert.Equal(t, float32(4), got.Width)
	assert.Equal(t, uint64(2), server.outlineMaterials[id].version)
	assert.Equal(t, 1, server.OutlineMaterialRefs(id))
}
