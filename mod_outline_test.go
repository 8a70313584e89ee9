package outline

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/outline/render/core"
	"github.com/gekko3d/outline/render/gpu"
	"github.com/gekko3d/outline/render/gpu/gputest"
	"github.com/gekko3d/outline/render/mesh"
)

func decodeScale(t *testing.T, w gputest.BufferWrite) [2]float32 {
	t.Helper()
	require.GreaterOrEqual(t, len(w.Data), 8)
	return [2]float32{
		math.Float32frombits(binary.LittleEndian.Uint32(w.Data[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(w.Data[4:8])),
	}
}

func trianglesWithoutNormals() *mesh.Mesh {
	m := mesh.New(mesh.TopologyTriangleList)
	if err := m.InsertAttribute(mesh.AttributePosition, mesh.Float32x3{{-1, -1, 0}, {1, -1, 0}, {0, 1, 0}}); err != nil {
		panic(err)
	}
	m.SetIndices([]uint32{0, 1, 2})
	return m
}

func TestOutlineModule_RequiresRenderModule(t *testing.T) {
	assert.Panics(t, func() {
		NewAppBuilder().UseModule(AssetServerModule{}, OutlineModule{}).Build()
	})
}

func TestOutline_DrawsShellAfterBaseMesh(t *testing.T) {
	h := newOutlineHarness(t)
	view := h.spawnCamera()
	cube := h.server.AddMesh(mesh.Cuboid(1, 1, 1))
	red := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 4, Color: core.LinearRgba{R: 1, A: 1}})
	e := h.spawnOutlined(cube, mgl32.Vec3{}, red)

	h.app.Step()

	m, _ := h.server.Mesh(cube)
	assert.True(t, m.ContainsAttribute(mesh.AttributeOutlineNormal))

	items := h.phaseItems(view)
	require.Len(t, items, 2)
	assert.Equal(t, h.drawFunction(drawColorMeshName), items[0].Key.DrawFunction)
	assert.Equal(t, h.drawFunction(drawOutlineName), items[1].Key.DrawFunction)
	assert.Equal(t, e, items[0].Entity)
	assert.Equal(t, e, items[1].Entity)

	rec, stats := h.render()
	assert.Equal(t, RenderStats{Drawn: 2}, stats)
	assert.Equal(t, 2, rec.Count(gputest.CmdDrawIndexed))
	assert.Equal(t, 2, rec.Count(gputest.CmdSetPipeline))

	meta, _ := Resource[gpu.ViewportScaleMeta](h.app)
	assert.Equal(t, []*wgpu.BindGroup{meta.BindGroup}, rec.BindGroupsAt(gpu.OutlineViewportScaleGroup))

	pipelines, _ := Resource[OutlinePipelines](h.app)
	assert.Equal(t, 1, pipelines.Len())
	assert.Empty(t, h.errors())
}

// The viewport buffer is written on the frame a new size is observed, and
// never for an empty viewport.
func TestOutline_ViewportScaleWrittenOnResize(t *testing.T) {
	h := newOutlineHarness(t)
	meta, _ := Resource[gpu.ViewportScaleMeta](h.app)
	assert.Empty(t, h.device.WritesTo(meta.Buffer))

	h.app.Step()
	writes := h.device.WritesTo(meta.Buffer)
	require.Len(t, writes, 1)
	assert.Equal(t, [2]float32{2.0 / 800, 2.0 / 600}, decodeScale(t, writes[0]))
	first := meta.BindGroup
	require.NotNil(t, first)

	h.app.Step()
	assert.Len(t, h.device.WritesTo(meta.Buffer), 1)

	h.window.Resize(1000, 500)
	h.app.Step()
	writes = h.device.WritesTo(meta.Buffer)
	require.Len(t, writes, 2)
	assert.Equal(t, [2]float32{2.0 / 1000, 2.0 / 500}, decodeScale(t, writes[1]))
	assert.Equal(t, [2]float32{2.0 / 1000, 2.0 / 500}, meta.Scale)
	assert.True(t, h.released(first), "the old bind group is released")

	h.app.Step()
	assert.Len(t, h.device.WritesTo(meta.Buffer), 2)

	h.window.Resize(0, 500)
	h.app.Step()
	assert.Len(t, h.device.WritesTo(meta.Buffer), 2)
	assert.Equal(t, [2]float32{2.0 / 1000, 2.0 / 500}, meta.Scale)

	h.window.Resize(1000, 500)
	h.app.Step()
	assert.Len(t, h.device.WritesTo(meta.Buffer), 3)
	assert.Empty(t, h.errors())
}

func TestOutline_MeshWithoutNormalsKeepsBaseDraw(t *testing.T) {
	h := newOutlineHarness(t)
	view := h.spawnCamera()
	material := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 3, Color: core.Black})

	flat := h.server.AddMesh(trianglesWithoutNormals())
	cube := h.server.AddMesh(mesh.Cuboid(1, 1, 1))
	broken := h.spawnOutlined(flat, mgl32.Vec3{-2, 0, 0}, material)
	fine := h.spawnOutlined(cube, mgl32.Vec3{2, 0, 0}, material)

	for i := 0; i < 3; i++ {
		h.app.Step()
	}

	errs := h.errors()
	require.Len(t, errs, 1, "the smoothing failure is reported once")
	assert.Contains(t, errs[0].Message, string(flat))

	outlineFn := h.drawFunction(drawOutlineName)
	var outlined []EntityId
	drawn := map[EntityId]int{}
	for _, item := range h.phaseItems(view) {
		drawn[item.Entity]++
		if item.Key.DrawFunction == outlineFn {
			outlined = append(outlined, item.Entity)
		}
	}
	assert.Equal(t, []EntityId{fine}, outlined)
	assert.Equal(t, 1, drawn[broken])

	_, stats := h.render()
	assert.Equal(t, RenderStats{Drawn: 3}, stats)
}

func TestOutline_SharedMaterialPreparedOnce(t *testing.T) {
	h := newOutlineHarness(t)
	view := h.spawnCamera()
	shared := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 5, Color: core.Black})
	cube := h.server.AddMesh(mesh.Cuboid(1, 1, 1))
	sphere := h.server.AddMesh(mesh.UVSphere(1, 16, 8))

	a := h.spawnOutlined(cube, mgl32.Vec3{-2, 0, 0}, shared)
	b := h.spawnOutlined(sphere, mgl32.Vec3{2, 0, 0}, shared)
	assert.Equal(t, 3, h.server.OutlineMaterialRefs(shared))

	h.app.Step()

	materials, _ := Resource[RenderOutlineMaterials](h.app)
	assert.Equal(t, 1, materials.Len())
	prepared, ok := materials.Get(shared)
	require.True(t, ok)

	outlineFn := h.drawFunction(drawOutlineName)
	var outlined []EntityId
	for _, item := range h.phaseItems(view) {
		if item.Key.DrawFunction != outlineFn {
			continue
		}
		outlined = append(outlined, item.Entity)
		assert.Same(t, prepared.BindGroup, item.Key.MaterialBindGroup)
	}
	assert.ElementsMatch(t, []EntityId{a, b}, outlined)

	_, stats := h.render()
	assert.Equal(t, RenderStats{Drawn: 4}, stats)
}

func TestOutline_NormalsFollowPositionChanges(t *testing.T) {
	h := newOutlineHarness(t)
	h.spawnCamera()
	material := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 2, Color: core.Black})
	id := h.server.AddMesh(mesh.Cuboid(1, 1, 1))
	h.spawnOutlined(id, mgl32.Vec3{}, material)

	h.app.Step()
	m, _ := h.server.Mesh(id)
	before, ok := m.AttributeVersion(mesh.AttributeOutlineNormal)
	require.True(t, ok)

	// a second frame with no edits leaves the derived normals alone
	h.app.Step()
	again, _ := m.AttributeVersion(mesh.AttributeOutlineNormal)
	assert.Equal(t, before, again)

	positions, err := m.Float3(mesh.AttributePosition)
	require.NoError(t, err)
	stretched := make(mesh.Float32x3, len(positions))
	for i, p := range positions {
		stretched[i] = [3]float32{p[0] * 3, p[1], p[2]}
	}
	require.NoError(t, m.InsertAttribute(mesh.AttributePosition, stretched))
	assert.True(t, needsOutlineNormals(m))

	h.app.Step()
	after, _ := m.AttributeVersion(mesh.AttributeOutlineNormal)
	positionVersion, _ := m.AttributeVersion(mesh.AttributePosition)
	assert.Greater(t, after, positionVersion)
	assert.False(t, needsOutlineNormals(m))

	want, err := mesh.SmoothedNormals(m)
	require.NoError(t, err)
	got, err := m.Float3(mesh.AttributeOutlineNormal)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestOutline_RemoveOutlineReleasesMaterial(t *testing.T) {
	h := newOutlineHarness(t)
	view := h.spawnCamera()
	material := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 3, Color: core.White})
	cube := h.server.AddMesh(mesh.Cuboid(1, 1, 1))
	a := h.spawnOutlined(cube, mgl32.Vec3{-2, 0, 0}, material)
	b := h.spawnOutlined(cube, mgl32.Vec3{2, 0, 0}, material)
	h.server.ReleaseOutlineMaterial(material)

	h.app.Step()
	materials, _ := Resource[RenderOutlineMaterials](h.app)
	prepared, ok := materials.Get(material)
	require.True(t, ok)

	RemoveOutline(h.cmd, h.server, a)
	h.app.Step()
	assert.Equal(t, 1, h.server.OutlineMaterialRefs(material))
	_, ok = materials.Get(material)
	assert.True(t, ok)
	_, ok = GetComponent[OutlineRendered](h.cmd, a)
	assert.False(t, ok)

	outlineFn := h.drawFunction(drawOutlineName)
	for _, item := range h.phaseItems(view) {
		if item.Key.DrawFunction == outlineFn {
			assert.Equal(t, b, item.Entity)
		}
	}

	RemoveOutline(h.cmd, h.server, b)
	h.app.Step()
	assert.Zero(t, materials.Len())
	assert.True(t, h.released(prepared.Buffer))
	assert.True(t, h.released(prepared.BindGroup))

	_, stats := h.render()
	assert.Equal(t, RenderStats{Drawn: 2}, stats, "both base meshes still draw")
}

func TestOutline_InvalidWidthSkipsOnlyThatMaterial(t *testing.T) {
	h := newOutlineHarness(t)
	view := h.spawnCamera()
	bad := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 0, Color: core.Black})
	good := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 2, Color: core.Black})
	cube := h.server.AddMesh(mesh.Cuboid(1, 1, 1))
	withBad := h.spawnOutlined(cube, mgl32.Vec3{-2, 0, 0}, bad)
	withGood := h.spawnOutlined(cube, mgl32.Vec3{2, 0, 0}, good)

	h.app.Step()
	h.app.Step()

	errs := h.errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, string(bad))

	outlined := func() []EntityId {
		var res []EntityId
		for _, item := range h.phaseItems(view) {
			if item.Key.DrawFunction == h.drawFunction(drawOutlineName) {
				res = append(res, item.Entity)
			}
		}
		return res
	}
	assert.Equal(t, []EntityId{withGood}, outlined())

	require.True(t, h.server.SetOutlineMaterial(bad, core.OutlineMaterial{Width: 1, Color: core.Black}))
	h.app.Step()
	assert.ElementsMatch(t, []EntityId{withBad, withGood}, outlined())
}

func TestOutline_HiddenAndCulledEntitiesAreNotQueued(t *testing.T) {
	h := newOutlineHarness(t)
	view := h.spawnCamera()
	material := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 2, Color: core.Black})
	cube := h.server.AddMesh(mesh.Cuboid(1, 1, 1))

	hidden := h.spawnMesh(cube, mgl32.Vec3{}, VisibilityComponent{Hidden: true})
	behind := h.spawnMesh(cube, mgl32.Vec3{0, 0, 50})
	h.app.FlushCommands()
	AddOutline(h.cmd, h.server, hidden, material)
	AddOutline(h.cmd, h.server, behind, material)

	h.app.Step()

	assert.Empty(t, h.phaseItems(view))
	visible, ok := GetComponent[VisibleEntitiesComponent](h.cmd, view)
	require.True(t, ok)
	assert.Empty(t, visible.Entities)
}

func TestOutline_ExtractWindowSizeChangedOnce(t *testing.T) {
	window := NewPrimaryWindow(640, 480)
	size := &ExtractedWindowSize{}

	ExtractWindowSizeSystem(window, size)
	assert.True(t, size.Changed)
	assert.Equal(t, uint32(640), size.Width)

	ExtractWindowSizeSystem(window, size)
	assert.False(t, size.Changed)

	window.Resize(640, 480)
	ExtractWindowSizeSystem(window, size)
	assert.False(t, size.Changed, "same size is not a change")

	window.Resize(320, 240)
	ExtractWindowSizeSystem(window, size)
	assert.True(t, size.Changed)
	assert.Equal(t, uint32(240), size.Height)
}

func TestAddOutline_UnknownMaterial(t *testing.T) {
	h := newOutlineHarness(t)
	cube := h.server.AddMesh(mesh.Cuboid(1, 1, 1))
	e := h.spawnMesh(cube, mgl32.Vec3{})

	assert.False(t, AddOutline(h.cmd, h.server, e, "missing"))
	h.app.FlushCommands()
	_, ok := GetComponent[OutlineRendered](h.cmd, e)
	assert.False(t, ok)
}

// outlinedEntities lists the entities queued with the outline draw function.
func outlinedEntities(h *harness, view EntityId) []EntityId {
	outlineFn := h.drawFunction(drawOutlineName)
	var outlined []EntityId
	for _, item := range h.phaseItems(view) {
		if item.Key.DrawFunction == outlineFn {
			outlined = append(outlined, item.Entity)
		}
	}
	return outlined
}

func TestOutline_NormalsRemovedAfterSmoothing(t *testing.T) {
	h := newOutlineHarness(t)
	view := h.spawnCamera()
	material := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 3, Color: core.Black})
	id := h.server.AddMesh(mesh.Cuboid(1, 1, 1))
	e := h.spawnOutlined(id, mgl32.Vec3{}, material)

	h.app.Step()
	require.Equal(t, []EntityId{e}, outlinedEntities(h, view))

	m, _ := h.server.Mesh(id)
	_, ok := m.RemoveAttribute(mesh.AttributeNormal)
	require.True(t, ok)
	assert.True(t, needsOutlineNormals(m))

	for i := 0; i < 3; i++ {
		h.app.Step()
	}

	errs := h.errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, string(id))
	assert.False(t, m.ContainsAttribute(mesh.AttributeOutlineNormal))
	assert.Empty(t, outlinedEntities(h, view))
	assert.Len(t, h.phaseItems(view), 1, "the base mesh still draws")
}

func TestOutline_PositionCountMismatchDropsShell(t *testing.T) {
	h := newOutlineHarness(t)
	view := h.spawnCamera()
	material := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 3, Color: core.Black})
	id := h.server.AddMesh(mesh.Cuboid(1, 1, 1))
	e := h.spawnOutlined(id, mgl32.Vec3{}, material)

	h.app.Step()
	m, _ := h.server.Mesh(id)
	positions, err := m.Float3(mesh.AttributePosition)
	require.NoError(t, err)
	grown := append(mesh.Float32x3(positions), [3]float32{0, 0, 0})
	require.NoError(t, m.InsertAttribute(mesh.AttributePosition, grown))

	h.app.Step()
	h.app.Step()
	require.Len(t, h.errors(), 1)
	assert.NotContains(t, outlinedEntities(h, view), e)

	// a consistent mesh brings the outline back
	require.NoError(t, m.InsertAttribute(mesh.AttributePosition, mesh.Float32x3(positions)))
	h.app.Step()
	assert.Equal(t, []EntityId{e}, outlinedEntities(h, view))
	assert.Len(t, h.errors(), 1)
}

func TestAddOutline_SwapReleasesPreviousMaterial(t *testing.T) {
	h := newOutlineHarness(t)
	h.spawnCamera()
	first := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 3, Color: core.Black})
	second := h.server.AddOutlineMaterial(core.OutlineMaterial{Width: 6, Color: core.White})
	cube := h.server.AddMesh(mesh.Cuboid(1, 1, 1))
	e := h.spawnOutlined(cube, mgl32.Vec3{}, first)
	h.server.ReleaseOutlineMaterial(first)
	h.server.ReleaseOutlineMaterial(second)

	h.app.Step()
	materials, _ := Resource[RenderOutlineMaterials](h.app)
	prepared, ok := materials.Get(first)
	require.True(t, ok)

	// re-adding the same material takes no extra reference
	require.True(t, AddOutline(h.cmd, h.server, e, first))
	assert.Equal(t, 1, h.server.OutlineMaterialRefs(first))

	require.True(t, AddOutline(h.cmd, h.server, e, second))
	h.app.Step()
	assert.Zero(t, h.server.OutlineMaterialRefs(first))
	assert.Equal(t, 1, h.server.OutlineMaterialRefs(second))
	_, ok = materials.Get(first)
	assert.False(t, ok)
	assert.True(t, h.released(prepared.Buffer))
	assert.True(t, h.released(prepared.BindGroup))

	mat, ok := GetComponent[OutlineMaterialComponent](h.cmd, e)
	require.True(t, ok)
	assert.Equal(t, second, mat.Material)
}
