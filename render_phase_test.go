package outline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/outline/render/gpu"
	"github.com/gekko3d/outline/render/gpu/gputest"
)

func TestOpaquePhase_Binning(t *testing.T) {
	p1, p2 := &wgpu.RenderPipeline{}, &wgpu.RenderPipeline{}
	keyA := BinKey{Pipeline: p1, Mesh: "cube"}
	keyB := BinKey{Pipeline: p2, Mesh: "cube"}

	phase := NewOpaquePhase()
	phase.Add(keyB, 1, true)
	phase.Add(keyA, 2, true)
	phase.Add(keyB, 3, true)
	phase.Add(keyA, 4, false)

	assert.Equal(t, 4, phase.Len())
	assert.Equal(t, []BinnedItem{
		{Key: keyB, Entity: 1},
		{Key: keyB, Entity: 3},
		{Key: keyA, Entity: 2},
		{Key: keyA, Entity: 4},
	}, phase.Items())

	phase.Clear()
	assert.Zero(t, phase.Len())
	assert.Empty(t, phase.Items())
}

func TestDrawFunction_StopsAtFirstNonSuccess(t *testing.T) {
	var ran []string
	step := func(name string, res RenderCommandResult) RenderCommand {
		return func(*DrawContext, BinnedItem, *gpu.TrackedRenderPass) RenderCommandResult {
			ran = append(ran, name)
			return res
		}
	}

	fn := DrawFunction{step("a", RenderSuccess), step("b", RenderSkip), step("c", RenderSuccess)}
	res := fn.Draw(nil, BinnedItem{}, nil)

	assert.Equal(t, RenderSkip, res)
	assert.Equal(t, []string{"a", "b"}, ran)
	assert.Equal(t, "skip", res.String())
}

// A skipped or failed item must not keep the items after it from drawing.
func TestOpaquePhase_RenderIsolatesItems(t *testing.T) {
	fns := NewDrawFunctions()
	pipeline := &wgpu.RenderPipeline{}
	id := fns.Add("test", DrawFunction{
		SetItemPipeline,
		func(_ *DrawContext, item BinnedItem, pass *gpu.TrackedRenderPass) RenderCommandResult {
			switch item.Entity {
			case 2:
				return RenderSkip
			case 3:
				return RenderFailure
			}
			pass.Draw(3, 1)
			return RenderSuccess
		},
	})

	phase := NewOpaquePhase()
	key := BinKey{DrawFunction: id, Pipeline: pipeline}
	for e := EntityId(1); e <= 4; e++ {
		phase.Add(key, e, true)
	}
	phase.Add(BinKey{DrawFunction: 99, Pipeline: pipeline}, 5, false)

	rec := &gputest.RecordingPass{}
	stats := phase.Render(NewDrawContext(newApp(), nil), fns, gpu.NewTrackedRenderPass(rec))

	assert.Equal(t, RenderStats{Drawn: 2, Skipped: 1, Failed: 2}, stats)
	assert.Equal(t, 2, rec.Count(gputest.CmdDraw))
	// the pipeline is bound once for the whole bin
	assert.Equal(t, 1, rec.Count(gputest.CmdSetPipeline))
}

func TestDrawFunctions_Registry(t *testing.T) {
	fns := NewDrawFunctions()
	a := fns.Add("a", DrawColorMesh)
	b := fns.Add("b", DrawOutline)
	assert.NotEqual(t, a, b)

	got, ok := fns.Id("b")
	assert.True(t, ok)
	assert.Equal(t, b, got)

	fn, ok := fns.Get(b)
	assert.True(t, ok)
	assert.Len(t, fn, len(DrawOutline))

	_, ok = fns.Get(DrawFunctionId(7))
	assert.False(t, ok)
	assert.Panics(t, func() { fns.Add("a", DrawColorMesh) })
}

func TestRenderPhases_ResetForgetsStaleViews(t *testing.T) {
	phases := NewRenderPhases()
	phases.ForView(1).Add(BinKey{}, 10, true)
	phases.ForView(2).Add(BinKey{}, 20, true)

	phases.reset([]ExtractedView{{Entity: 1}})

	p1, ok := phases.Get(1)
	assert.True(t, ok)
	assert.Zero(t, p1.Len())
	_, ok = phases.Get(2)
	assert.False(t, ok)
}

func TestRenderCommands_SkipWithoutResources(t *testing.T) {
	ctx := NewDrawContext(newApp(), &ExtractedView{Entity: 1})
	pass := gpu.NewTrackedRenderPass(&gputest.RecordingPass{})
	item := BinnedItem{Key: BinKey{Mesh: "cube"}, Entity: 5}

	assert.Equal(t, RenderSkip, SetItemPipeline(ctx, item, pass))
	assert.Equal(t, RenderSkip, SetMeshViewBindGroup(0)(ctx, item, pass))
	assert.Equal(t, RenderSkip, SetMeshBindGroup(1)(ctx, item, pass))
	assert.Equal(t, RenderSkip, SetMaterialBindGroup(2)(ctx, item, pass))
	assert.Equal(t, RenderSkip, SetOutlineMaterialBindGroup(2)(ctx, item, pass))
	assert.Equal(t, RenderSkip, SetWindowSizeBindGroup(3)(ctx, item, pass))
	assert.Equal(t, RenderSkip, DrawMesh(ctx, item, pass))
}
