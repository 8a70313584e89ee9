package outline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/outline/render/core"
	"github.com/gekko3d/outline/render/gpu"
)

const drawColorMeshName = "color_mesh"

// RenderModule installs the opaque mesh renderer. It draws through an
// existing RenderDevice resource when one is present; otherwise it opens a
// wgpu surface on the window from PlatformWindowModule and presents every
// frame.
type RenderModule struct {
	MsaaSamples    uint32
	ClearColor     core.LinearRgba
	LightDirection mgl32.Vec3
}

func (m RenderModule) Install(app *App, cmd *Commands) {
	samples := max(m.MsaaSamples, 1)

	window, ok := Resource[PrimaryWindow](app)
	if !ok {
		panic("RenderModule requires a PrimaryWindow resource")
	}

	var surface *GpuState
	rd, ok := Resource[RenderDevice](app)
	if !ok {
		ws, ok := Resource[WindowState](app)
		if !ok {
			panic("RenderModule requires a RenderDevice resource or PlatformWindowModule installed first")
		}
		surface = createGpuState(ws, window.Width, window.Height, samples)
		rd = &RenderDevice{
			Device:      gpu.NewWgpuDevice(surface.device),
			ColorFormat: surface.surfaceConfig.Format,
			MsaaSamples: samples,
		}
		cmd.AddResources(rd, surface)
	}

	server, ok := Resource[AssetServer](app)
	if !ok {
		server = NewAssetServer()
		cmd.AddResources(server)
	}

	meshPipeline, err := gpu.NewMeshPipeline(rd.Device, rd.ColorFormat)
	if err != nil {
		panic(fmt.Errorf("creating mesh pipeline: %w", err))
	}

	lightDir := m.LightDirection
	if lightDir.Len() == 0 {
		lightDir = mgl32.Vec3{-0.4, -1, -0.6}
	}
	settings := &RenderSettings{
		ClearColor:      m.ClearColor,
		LightDirection:  lightDir.Normalize(),
		DefaultMaterial: server.AddColorMaterial(core.DefaultColorMaterial()),
	}

	drawFns, ok := Resource[DrawFunctions](app)
	if !ok {
		drawFns = NewDrawFunctions()
		cmd.AddResources(drawFns)
	}
	drawFns.Add(drawColorMeshName, DrawColorMesh)

	device := rd.Device
	cmd.AddResources(
		settings,
		meshPipeline,
		&MeshPipelines{gpu.NewSpecializedMeshPipelines[gpu.MeshPipelineKey](device, meshPipeline)},
		gpu.NewRenderAssets[AssetId](
			func(e gpu.ExtractedMesh) gpu.PrepareResult[*gpu.GpuMesh] { return gpu.PrepareMesh(device, e) },
			func(m *gpu.GpuMesh) { gpu.ReleaseMesh(device, m) },
		),
		gpu.NewRenderAssets[AssetId](meshPipeline.PrepareMaterial, meshPipeline.ReleaseMaterial),
		&ViewUniforms{gpu.NewUniformSlots[EntityId](device, meshPipeline.ViewLayout, "View")},
		&MeshUniforms{gpu.NewUniformSlots[EntityId](device, meshPipeline.MeshLayout, "Mesh")},
		&ExtractedViews{},
		&ExtractedMeshInstances{Instances: make(map[EntityId]ExtractedMeshInstance)},
		newExtractedAssets(),
		NewRenderPhases(),
		newVisibilityCache(),
	)

	app.UseSystem(System(VisibilitySystem).InStage(PostUpdate))

	app.UseSystem(System(extractLightSystem).InStage(Extract))
	app.UseSystem(System(extractViewsSystem).InStage(Extract))
	app.UseSystem(System(extractMeshInstancesSystem).InStage(Extract))
	app.UseSystem(System(extractRenderAssetsSystem).InStage(Extract))

	app.UseSystem(System(prepareMeshesSystem).InStage(Prepare))
	app.UseSystem(System(prepareColorMaterialsSystem).InStage(Prepare))
	app.UseSystem(System(prepareViewUniformsSystem).InStage(Prepare))
	app.UseSystem(System(prepareMeshUniformsSystem).InStage(Prepare))

	app.UseSystem(System(resetPhasesSystem).InStage(Queue))
	app.UseSystem(System(queueMeshesSystem).InStage(Queue))

	if surface != nil {
		app.UseSystem(System(func(gs *GpuState, window *PrimaryWindow, settings *RenderSettings, log Logger) {
			renderSurface(app, gs, window, settings, log)
		}).InStage(Render))
	}
}

func cameraViewProj(cam *CameraComponent, aspect float32) mgl32.Mat4 {
	return cam.Projection.Matrix(aspect).Mul4(cam.View.Matrix())
}

func extractViewsSystem(cmd *Commands, window *PrimaryWindow, views *ExtractedViews) {
	views.Views = views.Views[:0]
	MakeQuery2[CameraComponent, VisibleEntitiesComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, visible *VisibleEntitiesComponent) bool {
		views.Views = append(views.Views, ExtractedView{
			Entity:   eid,
			ViewProj: cameraViewProj(cam, window.Aspect()),
			Position: cam.View.Eye,
			Width:    window.Width,
			Height:   window.Height,
			Visible:  slices.Clone(visible.Entities),
		})
		return true
	})
}

func extractMeshInstancesSystem(cmd *Commands, settings *RenderSettings, instances *ExtractedMeshInstances) {
	clear(instances.Instances)
	MakeQuery3[TransformComponent, MeshComponent, ColorMaterialComponent](cmd).Map(
		func(eid EntityId, tr *TransformComponent, mc *MeshComponent, mat *ColorMaterialComponent) bool {
			material := settings.DefaultMaterial
			if mat != nil {
				material = mat.Material
			}
			instances.Instances[eid] = ExtractedMeshInstance{
				Mesh:     mc.Mesh,
				Material: material,
				Model:    tr.ObjectToWorld(),
				Normal:   tr.NormalMatrix(),
			}
			return true
		}, ColorMaterialComponent{})
}

// extractRenderAssetsSystem copies meshes and color materials whose version
// moved since they were last extracted.
func extractRenderAssetsSystem(server *AssetServer, extracted *ExtractedAssets) {
	extracted.Meshes = extracted.Meshes[:0]
	for _, id := range sortedKeys(server.meshes) {
		m := server.meshes[id]
		version := m.Version()
		if last, ok := extracted.meshVersions[id]; ok && last == version {
			continue
		}
		extracted.meshVersions[id] = version
		extracted.Meshes = append(extracted.Meshes, gpu.ExtractedAsset[AssetId, gpu.ExtractedMesh]{
			Id:      id,
			Version: version,
			Source:  gpu.ExtractMesh(m),
		})
	}
	extracted.RemovedMeshes = drain(&server.removedMeshes)
	for _, id := range extracted.RemovedMeshes {
		delete(extracted.meshVersions, id)
	}

	extracted.ColorMaterials = extracted.ColorMaterials[:0]
	for _, id := range sortedKeys(server.colorMaterials) {
		asset := server.colorMaterials[id]
		if last, ok := extracted.materialVersions[id]; ok && last == asset.version {
			continue
		}
		extracted.materialVersions[id] = asset.version
		extracted.ColorMaterials = append(extracted.ColorMaterials, gpu.ExtractedAsset[AssetId, core.ColorMaterial]{
			Id:      id,
			Version: asset.version,
			Source:  asset.material,
		})
	}
	extracted.RemovedColorMaterials = drain(&server.removedColorMaterials)
	for _, id := range extracted.RemovedColorMaterials {
		delete(extracted.materialVersions, id)
	}
}

func prepareMeshesSystem(extracted *ExtractedAssets, meshes *RenderMeshes, log Logger) {
	logPrepareReport(log, "mesh", meshes.Update(extracted.Meshes, extracted.RemovedMeshes))
}

func prepareColorMaterialsSystem(extracted *ExtractedAssets, materials *RenderColorMaterials, log Logger) {
	logPrepareReport(log, "color material", materials.Update(extracted.ColorMaterials, extracted.RemovedColorMaterials))
}

func prepareViewUniformsSystem(views *ExtractedViews, uniforms *ViewUniforms, settings *RenderSettings, log Logger) {
	for _, view := range views.Views {
		u := gpu.ViewUniform{
			ViewProj:       view.ViewProj,
			WorldPosition:  view.Position,
			LightDirection: settings.LightDirection,
			Viewport:       mgl32.Vec4{0, 0, float32(view.Width), float32(view.Height)},
		}
		if _, err := uniforms.Write(view.Entity, u.Bytes()); err != nil {
			log.Errorf("view %d: %v", view.Entity, err)
		}
	}
	uniforms.Sweep()
}

func prepareMeshUniformsSystem(instances *ExtractedMeshInstances, uniforms *MeshUniforms, log Logger) {
	for _, eid := range sortedKeys(instances.Instances) {
		inst := instances.Instances[eid]
		u := gpu.MeshUniform{Model: inst.Model, Normal: inst.Normal}
		if _, err := uniforms.Write(eid, u.Bytes()); err != nil {
			log.Errorf("entity %d: %v", eid, err)
		}
	}
	uniforms.Sweep()
}

func resetPhasesSystem(views *ExtractedViews, phases *RenderPhases) {
	phases.reset(views.Views)
}

func queueMeshesSystem(
	views *ExtractedViews,
	instances *ExtractedMeshInstances,
	meshes *RenderMeshes,
	materials *RenderColorMaterials,
	pipelines *MeshPipelines,
	phases *RenderPhases,
	fns *DrawFunctions,
	rd *RenderDevice,
	log Logger,
) {
	drawFn, _ := fns.Id(drawColorMeshName)
	for _, view := range views.Views {
		phase := phases.ForView(view.Entity)
		for _, eid := range view.Visible {
			inst, ok := instances.Instances[eid]
			if !ok {
				continue
			}
			gm, ok := meshes.Get(inst.Mesh)
			if !ok {
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

// RenderViews draws every extracted view's phase into pass.
func (app *App) RenderViews(pass gpu.RenderPass) RenderStats {
	var stats RenderStats
	views, ok := Resource[ExtractedViews](app)
	if !ok {
		return stats
	}
	phases, _ := Resource[RenderPhases](app)
	fns, _ := Resource[DrawFunctions](app)

	tracked := gpu.NewTrackedRenderPass(pass)
	for i := range views.Views {
		view := &views.Views[i]
		phase, ok := phases.Get(view.Entity)
		if !ok {
			continue
		}
		stats.add(phase.Render(NewDrawContext(app, view), fns, tracked))
	}
	return stats
}

func renderSurface(app *App, gs *GpuState, window *PrimaryWindow, settings *RenderSettings, log Logger) {
	if window.Width == 0 || window.Height == 0 {
		return
	}
	if err := gs.resize(window.Width, window.Height); err != nil {
		log.Errorf("resizing surface: %v", err)
		return
	}

	c := settings.ClearColor
	frame, err := gs.beginFrame(wgpu.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)})
	if err != nil {
		log.Warnf("skipping frame: %v", err)
		return
	}
	stats := app.RenderViews(frame.pass)
	if err := gs.endFrame(frame); err != nil {
		log.Errorf("%v", err)
	}
	if stats.Failed > 0 {
		log.Debugf("frame %d: %d drawn, %d skipped, %d failed", app.Frame(), stats.Drawn, stats.Skipped, stats.Failed)
	}
}

func logPrepareReport[K comparable](log Logger, kind string, report gpu.PrepareReport[K]) {
	for id, err := range report.Failed {
		log.Errorf("%s %v failed to prepare: %v", kind, id, err)
	}
	if len(report.Retrying) > 0 {
		log.Debugf("%d %s(s) retrying next frame", len(report.Retrying), kind)
	}
}

// logSpecializationError reports a pipeline failure the first time only;
// the cache returns it wrapped in ErrPreviouslyFailed afterwards.
func logSpecializationError(log Logger, entity EntityId, err error) {
	if errors.Is(err, gpu.ErrPreviouslyFailed) {
		return
	}
	log.Errorf("entity %d: %v", entity, err)
}

func sortedKeys[K interface{ ~string | ~uint64 }, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
