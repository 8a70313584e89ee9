package outline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gekko3d/outline/render/core"
	"github.com/gekko3d/outline/render/gpu"
	"github.com/gekko3d/outline/render/gpu/gputest"
)

// headlessModule stands in for PlatformWindowModule: it provides the window
// and a recording device, so RenderModule never opens a surface.
type headlessModule struct {
	device *gputest.RecordingDevice
	window *PrimaryWindow
	logger *DefaultLogger
}

func (m headlessModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(
		m.logger,
		m.window,
		&RenderDevice{Device: m.device, ColorFormat: wgpu.TextureFormatBGRA8Unorm, MsaaSamples: 1},
	)
}

type harness struct {
	app    *App
	cmd    *Commands
	device *gputest.RecordingDevice
	window *PrimaryWindow
	server *AssetServer
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T, extra ...Module) *harness {
	t.Helper()
	log, logs := newObservedLogger(zapcore.DebugLevel)
	h := &harness{
		device: gputest.NewRecordingDevice(),
		window: NewPrimaryWindow(800, 600),
		logs:   logs,
	}
	modules := []Module{
		headlessModule{device: h.device, window: h.window, logger: log},
		AssetServerModule{},
		RenderModule{},
	}
	h.app = NewAppBuilder().UseModule(append(modules, extra...)...).Build()
	h.cmd = h.app.Commands()
	h.server, _ = Resource[AssetServer](h.app)
	return h
}

func newOutlineHarness(t *testing.T) *harness {
	return newHarness(t, OutlineModule{})
}

func (h *harness) spawnCamera() EntityId {
	return h.cmd.AddEntity(
		CameraComponent{
			View:       core.View{Eye: mgl32.Vec3{0, 0, 10}, Target: mgl32.Vec3{}},
			Projection: core.DefaultProjection(),
		},
		VisibleEntitiesComponent{},
	)
}

func (h *harness) spawnMesh(meshId AssetId, position mgl32.Vec3, components ...any) EntityId {
	return h.cmd.AddEntity(append([]any{NewTransformComponent(position), MeshComponent{Mesh: meshId}}, components...)...)
}

// spawnOutlined spawns an entity with an outline and lets it exist by the
// time the function returns.
func (h *harness) spawnOutlined(meshId AssetId, position mgl32.Vec3, material AssetId) EntityId {
	e := h.spawnMesh(meshId, position)
	AddOutline(h.cmd, h.server, e, material)
	h.app.FlushCommands()
	return e
}

func (h *harness) render() (*gputest.RecordingPass, RenderStats) {
	rec := &gputest.RecordingPass{}
	stats := h.app.RenderViews(rec)
	return rec, stats
}

func (h *harness) errors() []observer.LoggedEntry {
	return h.logs.FilterLevelExact(zapcore.ErrorLevel).All()
}

func (h *harness) released(res gpu.Releasable) bool {
	for _, r := range h.device.Released {
		if r == res {
			return true
		}
	}
	return false
}

// phaseItems returns the queued items of the only view.
func (h *harness) phaseItems(view EntityId) []BinnedItem {
	phases, _ := Resource[RenderPhases](h.app)
	phase, ok := phases.Get(view)
	if !ok {
		return nil
	}
	return phase.Items()
}

func (h *harness) drawFunction(name string) DrawFunctionId {
	fns, _ := Resource[DrawFunctions](h.app)
	id, _ := fns.Id(name)
	return id
}
