package outline

import (
	"github.com/go-gl/mathgl/mgl32"
)

// DirectionalLightComponent overrides RenderSettings.LightDirection. When
// several exist, the one with the lowest entity id wins.
type DirectionalLightComponent struct {
	Direction mgl32.Vec3
}

func extractLightSystem(cmd *Commands, settings *RenderSettings) {
	MakeQuery1[DirectionalLightComponent](cmd).Map(func(eid EntityId, light *DirectionalLightComponent) bool {
		if light.Direction.Len() == 0 {
			return true
		}
		settings.LightDirection = light.Direction.Normalize()
		return false
	})
}
