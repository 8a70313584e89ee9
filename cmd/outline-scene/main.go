package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/outline"
	"github.com/gekko3d/outline/render/core"
	"github.com/gekko3d/outline/render/mesh"
)

func init() {
	runtime.LockOSThread()
}

// demoMaterials holds the scene's own references to its outline materials,
// so toggling every outline off never frees them.
type demoMaterials struct {
	black  outline.AssetId
	custom outline.AssetId
	sphere outline.AssetId
	width  float32
	color  core.LinearRgba
	spawns int
}

// demoShape remembers which outline an entity gets when toggled back on.
type demoShape struct {
	outline outline.AssetId
}

// sceneModule spawns a cube, a sphere and a torus. The black 5px material is
// shared by two of them; the torus gets the configured outline.
type sceneModule struct {
	cfg *outline.Config
}

func (m sceneModule) Install(app *outline.App, cmd *outline.Commands) {
	server, ok := outline.Resource[outline.AssetServer](app)
	if !ok {
		panic("sceneModule requires AssetServer")
	}

	materials := &demoMaterials{
		black:  server.AddOutlineMaterial(core.OutlineMaterial{Width: 5, Color: core.Black}),
		custom: server.AddOutlineMaterial(core.OutlineMaterial{Width: m.cfg.Outline.Width, Color: m.cfg.Outline.Color.Linear()}),
		sphere: server.AddMesh(mesh.UVSphere(0.5, 24, 12)),
		width:  m.cfg.Outline.Width,
		color:  m.cfg.Outline.Color.Linear(),
	}

	shapes := []struct {
		mesh     *mesh.Mesh
		position mgl32.Vec3
		color    string
		outline  outline.AssetId
	}{
		{mesh.Cuboid(1.5, 1.5, 1.5), mgl32.Vec3{-3, 0, 0}, "tomato", materials.black},
		{mesh.UVSphere(1, 32, 16), mgl32.Vec3{0, 0, 0}, "mediumseagreen", materials.black},
		{mesh.Torus(1, 0.35, 48, 24), mgl32.Vec3{3, 0, 0}, "royalblue", materials.custom},
	}
	for i, s := range shapes {
		color, err := core.ColorByName(s.color)
		if err != nil {
			panic(err)
		}
		entity := cmd.AddEntity(
			outline.NewTransformComponent(s.position),
			outline.MeshComponent{Mesh: server.AddMesh(s.mesh)},
			outline.ColorMaterialComponent{Material: server.AddColorMaterial(core.ColorMaterial{Color: color})},
			outline.SpinComponent{Axis: mgl32.Vec3{0.3, 1, 0.1 * float32(i)}, Speed: 0.6 + 0.2*float32(i)},
			demoShape{outline: s.outline},
		)
		outline.AddOutline(cmd, server, entity, s.outline)
	}

	cmd.AddEntity(
		outline.CameraComponent{
			View: core.View{
				Eye:    mgl32.Vec3{0, 2.5, 8},
				Target: mgl32.Vec3{0, 0, 0},
			},
			Projection: core.DefaultProjection(),
		},
		outline.VisibleEntitiesComponent{},
	)

	cmd.AddEntity(outline.DirectionalLightComponent{Direction: mgl32.Vec3{-0.5, -1, -0.4}})

	cmd.AddResources(materials)
	app.UseSystem(outline.System(demoControlsSystem).InStage(outline.Update))
}

// demoControlsSystem: Esc quits, O toggles outlines, [ and ] change the
// torus outline width, Space drops a short-lived outlined ball.
func demoControlsSystem(cmd *outline.Commands, input *outline.Input, server *outline.AssetServer, materials *demoMaterials, log outline.Logger) {
	if input.JustPressed[outline.KeyEscape] {
		cmd.Exit()
		return
	}

	if input.JustPressed[outline.KeyO] {
		outline.MakeQuery1[demoShape](cmd).Map(func(eid outline.EntityId, shape *demoShape) bool {
			if _, on := outline.GetComponent[outline.OutlineRendered](cmd, eid); on {
				outline.RemoveOutline(cmd, server, eid)
			} else {
				outline.AddOutline(cmd, server, eid, shape.outline)
			}
			return true
		})
	}

	delta := float32(0)
	if input.JustPressed[outline.KeyLeftBracket] {
		delta = -1
	}
	if input.JustPressed[outline.KeyRightBracket] {
		delta = 1
	}
	if delta != 0 {
		width := max(materials.width+delta, 1)
		if width != materials.width {
			materials.width = width
			server.SetOutlineMaterial(materials.custom, core.OutlineMaterial{Width: width, Color: materials.color})
			log.Infof("outline width %.0fpx", width)
		}
	}

	if input.JustPressed[outline.KeySpace] {
		materials.spawns++
		x := float32(materials.spawns%5-2) * 1.5
		ball := cmd.AddEntity(
			outline.NewTransformComponent(mgl32.Vec3{x, 2, -1}),
			outline.MeshComponent{Mesh: materials.sphere},
			outline.LifetimeComponent{TimeLeft: 3},
		)
		outline.AddOutline(cmd, server, ball, materials.black)
	}
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := outline.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}
	defer glfw.Terminate()

	app := outline.NewAppBuilder().
		UseModule(
			cfg.LoggingModule("outline-scene"),
			outline.TimeModule{},
			outline.AssetServerModule{},
			outline.NewPlatformWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title),
			outline.InputModule{},
			outline.LifecycleModule{},
			outline.RenderModule{
				MsaaSamples: cfg.Window.MsaaSamples,
				ClearColor:  cfg.Clear.Linear(),
			},
			outline.OutlineModule{},
			sceneModule{cfg: cfg},
		).
		Build()

	app.Run()
}
