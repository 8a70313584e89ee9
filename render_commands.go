package outline

import (
	"fmt"

	"github.com/gekko3d/outline/render/gpu"
)

type RenderCommandResult int

const (
	RenderSuccess RenderCommandResult = iota
	RenderSkip
	RenderFailure
)

func (r RenderCommandResult) String() string {
	switch r {
	case RenderSuccess:
		return "success"
	case RenderSkip:
		return "skip"
	case RenderFailure:
		return "failure"
	}
	return fmt.Sprintf("RenderCommandResult(%d)", int(r))
}

// DrawContext gives render commands read access to the render resources of
// the view being drawn.
type DrawContext struct {
	app  *App
	View *ExtractedView
}

func NewDrawContext(app *App, view *ExtractedView) *DrawContext {
	return &DrawContext{app: app, View: view}
}

func drawResource[T any](ctx *DrawContext) (*T, bool) {
	return Resource[T](ctx.app)
}

// RenderCommand records one step of drawing an item.
type RenderCommand func(ctx *DrawContext, item BinnedItem, pass *gpu.TrackedRenderPass) RenderCommandResult

// DrawFunction is a sequence of render commands. Drawing stops at the first
// command that does not succeed.
type DrawFunction []RenderCommand

func (fn DrawFunction) Draw(ctx *DrawContext, item BinnedItem, pass *gpu.TrackedRenderPass) RenderCommandResult {
	for _, cmd := range fn {
		if res := cmd(ctx, item, pass); res != RenderSuccess {
			return res
		}
	}
	return RenderSuccess
}

type DrawFunctionId uint32

type DrawFunctions struct {
	fns   []DrawFunction
	names map[string]DrawFunctionId
}

func NewDrawFunctions() *DrawFunctions {
	return &DrawFunctions{names: make(map[string]DrawFunctionId)}
}

func (d *DrawFunctions) Add(name string, fn DrawFunction) DrawFunctionId {
	if _, ok := d.names[name]; ok {
		panic(fmt.Sprintf("draw function %q already registered", name))
	}
	id := DrawFunctionId(len(d.fns))
	d.fns = append(d.fns, fn)
	d.names[name] = id
	return id
}

func (d *DrawFunctions) Id(name string) (DrawFunctionId, bool) {
	id, ok := d.names[name]
	return id, ok
}

func (d *DrawFunctions) Get(id DrawFunctionId) (DrawFunction, bool) {
	if int(id) >= len(d.fns) {
		return nil, false
	}
	return d.fns[id], true
}

func SetItemPipeline(ctx *DrawContext, item BinnedItem, pass *gpu.TrackedRenderPass) RenderCommandResult {
	if item.Key.Pipeline == nil {
		return RenderSkip
	}
	pass.SetPipeline(item.Key.Pipeline)
	return RenderSuccess
}

func SetMeshViewBindGroup(index uint32) RenderCommand {
	return func(ctx *DrawContext, item BinnedItem, pass *gpu.TrackedRenderPass) RenderCommandResult {
		uniforms, ok := drawResource[ViewUniforms](ctx)
		if !ok || ctx.View == nil {
			return RenderSkip
		}
		slot, ok := uniforms.Get(ctx.View.Entity)
		if !ok {
			return RenderSkip
		}
		pass.SetBindGroup(index, slot.BindGroup)
		return RenderSuccess
	}
}

func SetMeshBindGroup(index uint32) RenderCommand {
	return func(ctx *DrawContext, item BinnedItem, pass *gpu.TrackedRenderPass) RenderCommandResult {
		uniforms, ok := drawResource[MeshUniforms](ctx)
		if !ok {
			return RenderSkip
		}
		slot, ok := uniforms.Get(item.Entity)
		if !ok {
			return RenderSkip
		}
		pass.SetBindGroup(index, slot.BindGroup)
		return RenderSuccess
	}
}

// SetMaterialBindGroup binds the material bind group carried by the item's
// bin key.
func SetMaterialBindGroup(index uint32) RenderCommand {
	return func(ctx *DrawContext, item BinnedItem, pass *gpu.TrackedRenderPass) RenderCommandResult {
		if item.Key.MaterialBindGroup == nil {
			return RenderSkip
		}
		pass.SetBindGroup(index, item.Key.MaterialBindGroup)
		return RenderSuccess
	}
}

// SetOutlineMaterialBindGroup resolves the entity's outline material at draw
// time.
func SetOutlineMaterialBindGroup(index uint32) RenderCommand {
	return func(ctx *DrawContext, item BinnedItem, pass *gpu.TrackedRenderPass) RenderCommandResult {
		instances, ok := drawResource[ExtractedOutlineInstances](ctx)
		if !ok {
			return RenderSkip
		}
		inst, ok := instances.Instances[item.Entity]
		if !ok {
			return RenderSkip
		}
		materials, ok := drawResource[RenderOutlineMaterials](ctx)
		if !ok {
			return RenderSkip
		}
		prepared, ok := materials.Get(inst.Material)
		if !ok {
			return RenderSkip
		}
		pass.SetBindGroup(index, prepared.BindGroup)
		return RenderSuccess
	}
}

func SetWindowSizeBindGroup(index uint32) RenderCommand {
	return func(ctx *DrawContext, item BinnedItem, pass *gpu.TrackedRenderPass) RenderCommandResult {
		meta, ok := drawResource[gpu.ViewportScaleMeta](ctx)
		if !ok || meta.BindGroup == nil {
			return RenderSkip
		}
		pass.SetBindGroup(index, meta.BindGroup)
		return RenderSuccess
	}
}

func DrawMesh(ctx *DrawContext, item BinnedItem, pass *gpu.TrackedRenderPass) RenderCommandResult {
	meshes, ok := drawResource[RenderMeshes](ctx)
	if !ok {
		return RenderSkip
	}
	m, ok := meshes.Get(item.Key.Mesh)
	if !ok {
		return RenderSkip
	}
	pass.DrawMesh(m)
	return RenderSuccess
}

var (
	DrawColorMesh = DrawFunction{
		SetItemPipeline,
		SetMeshViewBindGroup(0),
		SetMeshBindGroup(1),
		SetMaterialBindGroup(2),
		DrawMesh,
	}

	DrawOutline = DrawFunction{
		SetItemPipeline,
		SetMeshViewBindGroup(gpu.OutlineViewGroup),
		SetMeshBindGroup(gpu.OutlineMeshGroup),
		SetOutlineMaterialBindGroup(gpu.OutlineMaterialGroup),
		SetWindowSizeBindGroup(gpu.OutlineViewportScaleGroup),
		DrawMesh,
	}
)
