package outline

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/outline/render/core"
)

type TransformComponent struct {
	core.Transform
}

func NewTransformComponent(position mgl32.Vec3) TransformComponent {
	t := core.NewTransform()
	t.Position = position
	return TransformComponent{Transform: t}
}

type MeshComponent struct {
	Mesh AssetId
}

type ColorMaterialComponent struct {
	Material AssetId
}

type OutlineMaterialComponent struct {
	Material AssetId
}

// OutlineRendered opts an entity into silhouette outlines. It needs a mesh
// with normals and an OutlineMaterialComponent.
type OutlineRendered struct{}

type VisibilityComponent struct {
	Hidden bool
}

type CameraComponent struct {
	View       core.View
	Projection core.Projection
}

// VisibleEntitiesComponent is filled every frame by the visibility system,
// sorted by entity id.
type VisibleEntitiesComponent struct {
	Entities []EntityId
}

// SpinComponent rotates an entity around Axis at Speed radians per second.
type SpinComponent struct {
	Axis  mgl32.Vec3
	Speed float32
}
