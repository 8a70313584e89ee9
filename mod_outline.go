package outline

import (
	"fmt"

	"github.com/gekko3d/outline/render/core"
	"github.com/gekko3d/outline/render/gpu"
	"github.com/gekko3d/outline/render/mesh"
)

const drawOutlineName = "outline"

// OutlineModule draws an inflated, front-face-culled shell behind every
// entity marked OutlineRendered. It needs RenderModule installed first.
type OutlineModule struct{}

// ExtractedWindowSize is the render-side copy of the primary window size.
// Changed is true only on the frame a new size was observed.
type ExtractedWindowSize struct {
	Width   uint32
	Height  uint32
	Changed bool

	version uint64
}

type ExtractedOutlineInstance struct {
	Mesh     AssetId
	Material AssetId
}

type ExtractedOutlineInstances struct {
	Instances map[EntityId]ExtractedOutlineInstance
}

type ExtractedOutlineMaterials struct {
	Changed []gpu.ExtractedAsset[AssetId, core.OutlineMaterial]
	Removed []AssetId

	versions map[AssetId]uint64
}

// outlineNormalFailures remembers the mesh version whose smoothing failed,
// so the error is logged once per version.
type outlineNormalFailures struct {
	versions map[AssetId]uint64
}

func (OutlineModule) Install(app *App, cmd *Commands) {
	rd, ok := Resource[RenderDevice](app)
	if !ok {
		panic("OutlineModule requires RenderModule")
	}
	meshPipeline, ok := Resource[gpu.MeshPipeline](app)
	if !ok {
		panic("OutlineModule requires RenderModule")
	}
	drawFns, _ := Resource[DrawFunctions](app)

	pipeline, err := gpu.NewOutlinePipeline(rd.Device, meshPipeline)
	if err != nil {
		panic(fmt.Errorf("creating outline pipeline: %w", err))
	}
	meta, err := gpu.NewViewportScaleMeta(rd.Device, pipeline.ViewportScaleLayout)
	if err != nil {
		panic(err)
	}
	drawFns.Add(drawOutlineName, DrawOutline)

	cmd.AddResources(
		pipeline,
		&OutlinePipelines{gpu.NewSpecializedMeshPipelines[gpu.MeshPipelineKey](rd.Device, pipeline)},
		meta,
		gpu.NewRenderAssets[AssetId](pipeline.PrepareMaterial, pipeline.ReleaseMaterial),
		&ExtractedWindowSize{},
		&ExtractedOutlineInstances{Instances: make(map[EntityId]ExtractedOutlineInstance)},
		&ExtractedOutlineMaterials{versions: make(map[AssetId]uint64)},
		&outlineNormalFailures{versions: make(map[AssetId]uint64)},
	)

	app.UseSystem(System(PrepareOutlineMeshSystem).InStage(PostUpdate))

	app.UseSystem(System(ExtractWindowSizeSystem).InStage(Extract))
	app.UseSystem(System(ExtractOutlineMaterialsSystem).InStage(Extract))
	app.UseSystem(System(ExtractOutlineInstancesSystem).InStage(Extract))

	app.UseSystem(System(PrepareOutlineMaterialsSystem).InStage(Prepare))
	app.UseSystem(System(PrepareWindowSizeSystem).InStage(Prepare))

	app.UseSystem(System(QueueOutlinesSystem).InStage(Queue))
}

// AddOutline gives an entity an outline drawn with material, taking a
// reference on it. An outline the entity already had gives up its material
// reference.
func AddOutline(cmd *Commands, server *AssetServer, entity EntityId, material AssetId) bool {
	if _, ok := server.OutlineMaterial(material); !ok {
		return false
	}
	if old, ok := GetComponent[OutlineMaterialComponent](cmd, entity); ok {
		if old.Material == material {
			cmd.AddComponents(entity, OutlineRendered{})
			return true
		}
		server.ReleaseOutlineMaterial(old.Material)
	}
	server.RetainOutlineMaterial(material)
	cmd.AddComponents(entity, OutlineRendered{}, OutlineMaterialComponent{Material: material})
	return true
}

// RemoveOutline drops the entity's outline and its material reference. The
// material's GPU form goes away with the last reference.
func RemoveOutline(cmd *Commands, server *AssetServer, entity EntityId) {
	if mat, ok := GetComponent[OutlineMaterialComponent](cmd, entity); ok {
		server.ReleaseOutlineMaterial(mat.Material)
	}
	cmd.RemoveComponents(entity, OutlineRendered{}, OutlineMaterialComponent{})
}

// needsOutlineNormals reports whether m lacks smoothed normals, or carries
// ones derived before its positions or normals were last written or removed.
func needsOutlineNormals(m *mesh.Mesh) bool {
	derived, ok := m.AttributeVersion(mesh.AttributeOutlineNormal)
	if !ok {
		return true
	}
	for _, input := range []mesh.VertexAttribute{mesh.AttributePosition, mesh.AttributeNormal} {
		if v, ok := m.AttributeVersion(input); !ok || v > derived {
			return true
		}
	}
	return false
}

// PrepareOutlineMeshSystem stores smoothed normals on every mesh used by an
// outlined entity. A mesh that cannot be smoothed is logged once per
// version and keeps drawing without an outline.
func PrepareOutlineMeshSystem(cmd *Commands, server *AssetServer, failures *outlineNormalFailures, log Logger) {
	seen := make(set[AssetId])
	MakeQuery2[MeshComponent, OutlineRendered](cmd).Map(func(eid EntityId, mc *MeshComponent, _ *OutlineRendered) bool {
		if _, ok := seen[mc.Mesh]; ok {
			return true
		}
		seen[mc.Mesh] = struct{}{}

		m, ok := server.Mesh(mc.Mesh)
		if !ok || !needsOutlineNormals(m) {
			return true
		}
		if v, failed := failures.versions[mc.Mesh]; failed && v == m.Version() {
			return true
		}

		smoothed, err := mesh.SmoothedNormals(m)
		if err == nil {
			err = m.InsertAttribute(mesh.AttributeOutlineNormal, mesh.Float32x3(smoothed))
		}
		if err != nil {
			// stale normals must not keep the shell drawing
			m.RemoveAttribute(mesh.AttributeOutlineNormal)
			failures.versions[mc.Mesh] = m.Version()
			log.Errorf("outline normals for mesh %s (entity %d): %v", mc.Mesh, eid, err)
			return true
		}
		delete(failures.versions, mc.Mesh)
		log.Debugf("smoothed %d outline normals for mesh %s", len(smoothed), mc.Mesh)
		return true
	})
}

func ExtractWindowSizeSystem(window *PrimaryWindow, size *ExtractedWindowSize) {
	size.Changed = false
	if window.Version() == size.version {
		return
	}
	size.version = window.Version()
	size.Width = window.Width
	size.Height = window.Height
	size.Changed = true
}

func PrepareWindowSizeSystem(size *ExtractedWindowSize, meta *gpu.ViewportScaleMeta, rd *RenderDevice, log Logger) {
	if !size.Changed {
		return
	}
	updated, err := meta.Update(rd.Device, size.Width, size.Height)
	if err != nil {
		log.Errorf("%v", err)
		return
	}
	if !updated {
		log.Debugf("viewport %dx%d is empty, keeping scale %v", size.Width, size.Height, meta.Scale)
	}
}

func ExtractOutlineMaterialsSystem(server *AssetServer, extracted *ExtractedOutlineMaterials) {
	extracted.Changed = extracted.Changed[:0]
	for _, id := range sortedKeys(server.outlineMaterials) {
		asset := server.outlineMaterials[id]
		if last, ok := extracted.versions[id]; ok && last == asset.version {
			continue
		}
		extracted.versions[id] = asset.version
		extracted.Changed = append(extracted.Changed, gpu.ExtractedAsset[AssetId, core.OutlineMaterial]{
			Id:      id,
			Version: asset.version,
			Source:  asset.material,
		})
	}
	extracted.Removed = drain(&server.removedOutlineMaterials)
	for _, id := range extracted.Removed {
		delete(extracted.versions, id)
	}
}

func ExtractOutlineInstancesSystem(cmd *Commands, instances *ExtractedOutlineInstances) {
	clear(instances.Instances)
	MakeQuery3[MeshComponent, OutlineMaterialComponent, OutlineRendered](cmd).Map(
		func(eid EntityId, mc *MeshComponent, mat *OutlineMaterialComponent, _ *OutlineRendered) bool {
			instances.Instances[eid] = ExtractedOutlineInstance{Mesh: mc.Mesh, Material: mat.Material}
			return true
		})
}

func PrepareOutlineMaterialsSystem(extracted *ExtractedOutlineMaterials, materials *RenderOutlineMaterials, log Logger) {
	logPrepareReport(log, "outline material", materials.Update(extracted.Changed, extracted.Removed))
}

// QueueOutlinesSystem adds one outline item per visible outlined entity to
// each view's opaque phase. Entities whose mesh or material is not ready
// yet, or whose mesh has no smoothed normals, are skipped silently. A
// pipeline failure skips only that entity.
func QueueOutlinesSystem(
	views *ExtractedViews,
	instances *ExtractedOutlineInstances,
	meshes *RenderMeshes,
	materials *RenderOutlineMaterials,
	pipelines *OutlinePipelines,
	phases *RenderPhases,
	fns *DrawFunctions,
	rd *RenderDevice,
	log Logger,
) {
	drawFn, _ := fns.Id(drawOutlineName)
	for _, view := range views.Views {
		phase := phases.ForView(view.Entity)
		for _, eid := range view.Visible {
			inst, ok := instances.Instances[eid]
			if !ok {
				continue
			}
			gm, ok := meshes.Get(inst.Mesh)
			if !ok || !gm.Layout.Contains(mesh.AttributeOutlineNormal) {
				// smoothing failures are reported by PrepareOutlineMeshSystem
				continue
			}
			material, ok := materials.Get(inst.Material)
			if !ok {
				continue
			}
			key := gpu.MeshPipelineKeyFor(gm.Layout, gm.Topology, rd.MsaaSamples)
			pipeline, err := pipelines.Specialize(key, gm.Layout)
			if err != nil {
				logSpecializationError(log, eid, err)
				continue
			}
			phase.Add(BinKey{
				DrawFunction:      drawFn,
				Pipeline:          pipeline,
				Mesh:              inst.Mesh,
				MaterialBindGroup: material.BindGroup,
			}, eid, true)
		}
	}
}
