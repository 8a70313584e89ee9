package outline

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/outline/render/gpu"
)

// BinKey groups phase items that can be drawn back to back without
// rebinding the pipeline, mesh or material.
type BinKey struct {
	DrawFunction      DrawFunctionId
	Pipeline          *wgpu.RenderPipeline
	Mesh              AssetId
	MaterialBindGroup *wgpu.BindGroup
}

type BinnedItem struct {
	Key    BinKey
	Entity EntityId
}

// OpaquePhase collects the opaque draws of one view. Batchable items are
// binned by key in first-seen order; unbatchable items follow them in
// insertion order.
type OpaquePhase struct {
	bins        map[BinKey][]EntityId
	keys        []BinKey
	unbatchable []BinnedItem
}

func NewOpaquePhase() *OpaquePhase {
	return &OpaquePhase{bins: make(map[BinKey][]EntityId)}
}

func (p *OpaquePhase) Add(key BinKey, entity EntityId, batchable bool) {
	if !batchable {
		p.unbatchable = append(p.unbatchable, BinnedItem{Key: key, Entity: entity})
		return
	}
	entities, ok := p.bins[key]
	if !ok {
		p.keys = append(p.keys, key)
	}
	p.bins[key] = append(entities, entity)
}

func (p *OpaquePhase) Items() []BinnedItem {
	items := make([]BinnedItem, 0, p.Len())
	for _, key := range p.keys {
		for _, e := range p.bins[key] {
			items = append(items, BinnedItem{Key: key, Entity: e})
		}
	}
	return append(items, p.unbatchable...)
}

func (p *OpaquePhase) Len() int {
	n := len(p.unbatchable)
	for _, entities := range p.bins {
		n += len(entities)
	}
	return n
}

func (p *OpaquePhase) Clear() {
	clear(p.bins)
	p.keys = p.keys[:0]
	p.unbatchable = p.unbatchable[:0]
}

type RenderStats struct {
	Drawn   int
	Skipped int
	Failed  int
}

func (s *RenderStats) add(o RenderStats) {
	s.Drawn += o.Drawn
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// Render runs each item's draw function. A skipped or failed item never
// stops the rest of the phase.
func (p *OpaquePhase) Render(ctx *DrawContext, fns *DrawFunctions, pass *gpu.TrackedRenderPass) RenderStats {
	var stats RenderStats
	for _, item := range p.Items() {
		fn, ok := fns.Get(item.Key.DrawFunction)
		if !ok {
			stats.Failed++
			continue
		}
		switch fn.Draw(ctx, item, pass) {
		case RenderSuccess:
			stats.Drawn++
		case RenderSkip:
			stats.Skipped++
		default:
			stats.Failed++
		}
	}
	return stats
}

// RenderPhases maps each view entity to its opaque phase.
type RenderPhases struct {
	phases map[EntityId]*OpaquePhase
}

func NewRenderPhases() *RenderPhases {
	return &RenderPhases{phases: make(map[EntityId]*OpaquePhase)}
}

func (r *RenderPhases) ForView(view EntityId) *OpaquePhase {
	phase, ok := r.phases[view]
	if !ok {
		phase = NewOpaquePhase()
		r.phases[view] = phase
	}
	return phase
}

func (r *RenderPhases) Get(view EntityId) (*OpaquePhase, bool) {
	phase, ok := r.phases[view]
	return phase, ok
}

// reset clears every phase and forgets views that are no longer extracted.
func (r *RenderPhases) reset(views []ExtractedView) {
	live := make(set[EntityId], len(views))
	for _, v := range views {
		live[v.Entity] = struct{}{}
	}
	for id, phase := range r.phases {
		if _, ok := live[id]; !ok {
			delete(r.phases, id)
			continue
		}
		phase.Clear()
	}
}
