package mesh

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unitEpsilon = 1e-5

func vecLen(v [3]float32) float64 {
	return float64(mgl32.Vec3(v).Len())
}

func TestSmoothNormals_Empty(t *testing.T) {
	smoothed, err := SmoothNormals(nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, smoothed)
	assert.Len(t, smoothed, 0)

	smoothed, err = SmoothedNormals(emptyMesh(t))
	require.NoError(t, err)
	assert.Len(t, smoothed, 0)
}

func emptyMesh(t *testing.T) *Mesh {
	m := New(TopologyTriangleList)
	require.NoError(t, m.InsertAttribute(AttributePosition, Float32x3{}))
	require.NoError(t, m.InsertAttribute(AttributeNormal, Float32x3{}))
	return m
}

// Two triangles share an edge; each triangle has its own face normal.
func TestSmoothNormals_SharedEdgeSeam(t *testing.T) {
	positions := [][3]float32{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, // triangle A
		{1, 0, 0}, {0, 1, 0}, {1, 1, 1}, // triangle B
	}
	nA := [3]float32{0, 0, 1}
	nB := [3]float32{1, 0, 0}
	normals := [][3]float32{nA, nA, nA, nB, nB, nB}

	smoothed, err := SmoothNormals(positions, normals)
	require.NoError(t, err)
	require.Len(t, smoothed, len(positions))

	s := float32(1 / math.Sqrt2)
	seam := [3]float32{s, 0, s}

	// seam vertices (1,0,0) at 1 & 3, (0,1,0) at 2 & 4
	for _, i := range []int{1, 2, 3, 4} {
		assert.InDeltaSlice(t, seam[:], smoothed[i][:], unitEpsilon, "seam vertex %d", i)
	}
	assert.Equal(t, smoothed[1], smoothed[3])
	assert.Equal(t, smoothed[2], smoothed[4])

	// non-shared vertices keep their own normal
	assert.Equal(t, nA, smoothed[0])
	assert.Equal(t, nB, smoothed[5])
}

func TestSmoothNormals_Properties(t *testing.T) {
	meshes := map[string]*Mesh{
		"cuboid": Cuboid(1, 2, 3),
		"sphere": UVSphere(1, 16, 8),
		"torus":  Torus(1, 0.25, 24, 12),
	}

	for name, m := range meshes {
		t.Run(name, func(t *testing.T) {
			positions, err := m.Float3(AttributePosition)
			require.NoError(t, err)
			normals, err := m.Float3(AttributeNormal)
			require.NoError(t, err)

			smoothed, err := SmoothNormals(positions, normals)
			require.NoError(t, err)
			require.Len(t, smoothed, len(positions))

			byKey := map[float3Key][3]float32{}
			for i, p := range positions {
				assert.InDelta(t, 1.0, vecLen(smoothed[i]), unitEpsilon, "vertex %d not unit length", i)

				if prev, ok := byKey[keyOf(p)]; ok {
					assert.Equal(t, prev, smoothed[i], "vertex %d differs from an earlier vertex at the same position", i)
				} else {
					byKey[keyOf(p)] = smoothed[i]
				}
			}

			// feeding the result back in must give the same unit vectors
			again, err := SmoothNormals(positions, smoothed)
			require.NoError(t, err)
			for i := range smoothed {
				assert.InDeltaSlice(t, smoothed[i][:], again[i][:], unitEpsilon, "vertex %d not idempotent", i)
			}
		})
	}
}

func TestSmoothNormals_CuboidCornersPointDiagonally(t *testing.T) {
	smoothed, err := SmoothedNormals(Cuboid(2, 2, 2))
	require.NoError(t, err)

	positions, _ := Cuboid(2, 2, 2).Float3(AttributePosition)
	inv := float32(1 / math.Sqrt(3))
	for i, p := range positions {
		want := [3]float32{sign(p[0]) * inv, sign(p[1]) * inv, sign(p[2]) * inv}
		assert.InDeltaSlice(t, want[:], smoothed[i][:], unitEpsilon, "corner %d", i)
	}
}

func sign(f float32) float32 {
	if f < 0 {
		return -1
	}
	return 1
}

func TestSmoothNormals_OrderPreserved(t *testing.T) {
	positions := [][3]float32{{5, 5, 5}, {0, 0, 0}, {5, 5, 5}, {9, 9, 9}, {0, 0, 0}}
	normals := [][3]float32{{1, 0, 0}, {0, 1, 0}, {1, 0, 0}, {0, 0, 1}, {0, 1, 0}}

	smoothed, err := SmoothNormals(positions, normals)
	require.NoError(t, err)
	assert.Equal(t, [][3]float32{{1, 0, 0}, {0, 1, 0}, {1, 0, 0}, {0, 0, 1}, {0, 1, 0}}, smoothed)
}

func TestSmoothNormals_CanonicalKeys(t *testing.T) {
	negZero := float32(math.Copysign(0, -1))
	nan := float32(math.NaN())

	positions := [][3]float32{
		{0, 0, 0}, {negZero, 0, negZero},
		{nan, 1, 1}, {nan, 1, 1},
	}
	normals := [][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {0, 1, 0}}

	smoothed, err := SmoothNormals(positions, normals)
	require.NoError(t, err)

	assert.Equal(t, smoothed[0], smoothed[1], "-0 and +0 must share a group")
	assert.Equal(t, smoothed[2], smoothed[3], "NaN positions must share a group")
	assert.InDelta(t, 1.0, vecLen(smoothed[0]), unitEpsilon)
}

func TestSmoothNormals_DegenerateGroupIsZero(t *testing.T) {
	positions := [][3]float32{{1, 1, 1}, {1, 1, 1}, {2, 2, 2}}
	normals := [][3]float32{{0, 1, 0}, {0, -1, 0}, {0, 0, 0}}

	smoothed, err := SmoothNormals(positions, normals)
	require.NoError(t, err)
	assert.Equal(t, [3]float32{}, smoothed[0])
	assert.Equal(t, [3]float32{}, smoothed[1])
	assert.Equal(t, [3]float32{}, smoothed[2])
}

func TestSmoothNormals_LengthMismatch(t *testing.T) {
	_, err := SmoothNormals([][3]float32{{0, 0, 0}}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAttributeFormat))
}

func TestSmoothedNormals_MissingAttribute(t *testing.T) {
	m := New(TopologyTriangleList)
	require.NoError(t, m.InsertAttribute(AttributePosition, Float32x3{{0, 0, 0}}))

	_, err := SmoothedNormals(m)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAttribute)

	var attrErr *AttributeError
	require.ErrorAs(t, err, &attrErr)
	assert.Equal(t, AttributeNormal.Name, attrErr.Attribute)

	_, err = SmoothedNormals(New(TopologyTriangleList))
	assert.ErrorIs(t, err, ErrMissingAttribute)
}

func TestSmoothedNormals_InvalidFormat(t *testing.T) {
	// a position attribute registered with a non-3-float format
	badPosition := VertexAttribute{Name: AttributePosition.Name, Id: AttributePosition.Id, Format: VertexFormatFloat32x2}

	m := New(TopologyTriangleList)
	require.NoError(t, m.InsertAttribute(badPosition, Float32x2{{0, 0}}))
	require.NoError(t, m.InsertAttribute(AttributeNormal, Float32x3{{0, 0, 1}}))

	_, err := SmoothedNormals(m)
	assert.ErrorIs(t, err, ErrInvalidAttributeFormat)
}
