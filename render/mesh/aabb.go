package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ComputeAABB returns the local bounds of the position attribute. ok is
// false when the mesh has no usable positions.
func (m *Mesh) ComputeAABB() (min, max mgl32.Vec3, ok bool) {
	positions, err := m.Float3(AttributePosition)
	if err != nil || len(positions) == 0 {
		return min, max, false
	}
	min, max = positions[0], positions[0]
	for _, p := range positions[1:] {
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return min, max, true
}
