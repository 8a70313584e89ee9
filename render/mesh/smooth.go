package mesh

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// float3Key is a hashable position. Plain float equality can't key a map
// (NaN != NaN), so each component is reduced to a canonical bit pattern:
// every NaN maps to one quiet NaN and -0 folds into +0.
type float3Key [3]uint32

const canonicalNaN uint32 = 0x7fc00000

func canonicalBits(f float32) uint32 {
	if f != f {
		return canonicalNaN
	}
	if f == 0 {
		return 0
	}
	return math.Float32bits(f)
}

func keyOf(p [3]float32) float3Key {
	return float3Key{canonicalBits(p[0]), canonicalBits(p[1]), canonicalBits(p[2])}
}

type normalGroup struct {
	indices []int
	sum     mgl32.Vec3
}

// SmoothNormals averages normals over vertices that share a position, so
// UV/hard-edge seams get one common outward direction. Output index i
// matches input vertex i. A group whose normals cancel out (zero or
// non-finite sum) gets the zero vector.
func SmoothNormals(positions, normals [][3]float32) ([][3]float32, error) {
	if len(positions) != len(normals) {
		return nil, invalidFormat(AttributeNormal.Name,
			fmt.Sprintf("%d normals for %d positions", len(normals), len(positions)))
	}

	groups := make(map[float3Key]*normalGroup, len(positions))
	for i, p := range positions {
		key := keyOf(p)
		g, ok := groups[key]
		if !ok {
			g = &normalGroup{}
			groups[key] = g
		}
		g.indices = append(g.indices, i)
		g.sum = g.sum.Add(mgl32.Vec3(normals[i]))
	}

	smoothed := make([][3]float32, len(positions))
	for _, g := range groups {
		n := normalizeOrZero(g.sum)
		for _, i := range g.indices {
			smoothed[i] = n
		}
	}
	return smoothed, nil
}

// SmoothedNormals runs SmoothNormals over the mesh's position and normal
// attributes.
func SmoothedNormals(m *Mesh) ([][3]float32, error) {
	positions, err := m.Float3(AttributePosition)
	if err != nil {
		return nil, err
	}
	normals, err := m.Float3(AttributeNormal)
	if err != nil {
		return nil, err
	}
	return SmoothNormals(positions, normals)
}

func normalizeOrZero(v mgl32.Vec3) [3]float32 {
	l := v.Len()
	if l == 0 || math.IsNaN(float64(l)) || math.IsInf(float64(l), 0) {
		return [3]float32{}
	}
	return v.Mul(1 / l)
}
