package outline

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/outline/render/core"
)

type meshBounds struct {
	version  uint64
	min, max mgl32.Vec3
	ok       bool
}

// visibilityCache keeps local mesh bounds until the mesh version moves.
type visibilityCache struct {
	bounds map[AssetId]meshBounds
}

func newVisibilityCache() *visibilityCache {
	return &visibilityCache{bounds: make(map[AssetId]meshBounds)}
}

func (c *visibilityCache) localBounds(server *AssetServer, id AssetId) (min, max mgl32.Vec3, ok bool) {
	m, found := server.Mesh(id)
	if !found {
		delete(c.bounds, id)
		return min, max, false
	}
	b, cached := c.bounds[id]
	if !cached || b.version != m.Version() {
		b.min, b.max, b.ok = m.ComputeAABB()
		b.version = m.Version()
		c.bounds[id] = b
	}
	return b.min, b.max, b.ok
}

// VisibilitySystem fills every camera's VisibleEntitiesComponent with the
// non-hidden mesh entities whose world bounds touch its frustum.
func VisibilitySystem(cmd *Commands, server *AssetServer, window *PrimaryWindow, cache *visibilityCache) {
	type candidate struct {
		id       EntityId
		min, max mgl32.Vec3
	}
	var candidates []candidate

	MakeQuery3[TransformComponent, MeshComponent, VisibilityComponent](cmd).Map(
		func(eid EntityId, tr *TransformComponent, mc *MeshComponent, vis *VisibilityComponent) bool {
			if vis != nil && vis.Hidden {
				return true
			}
			lmin, lmax, ok := cache.localBounds(server, mc.Mesh)
			if !ok {
				return true
			}
			wmin, wmax := core.TransformAABB(lmin, lmax, tr.ObjectToWorld())
			candidates = append(candidates, candidate{id: eid, min: wmin, max: wmax})
			return true
		}, VisibilityComponent{})

	MakeQuery2[CameraComponent, VisibleEntitiesComponent](cmd).Map(func(eid EntityId, cam *CameraComponent, visible *VisibleEntitiesComponent) bool {
		planes := core.ExtractFrustum(cameraViewProj(cam, window.Aspect()))
		visible.Entities = visible.Entities[:0]
		for _, c := range candidates {
			if core.AABBInFrustum(c.min, c.max, planes) {
				visible.Entities = append(visible.Entities, c.id)
			}
		}
		slices.Sort(visible.Entities)
		return true
	})
}
