package mesh

import (
	"math"
)

// Cuboid builds a box centered at the origin with split (per-face) normals,
// so every corner position is shared by three vertices.
func Cuboid(sizeX, sizeY, sizeZ float32) *Mesh {
	hx, hy, hz := sizeX/2, sizeY/2, sizeZ/2

	type face struct {
		normal  [3]float32
		corners [4][3]float32
	}
	faces := []face{
		{[3]float32{0, 0, 1}, [4][3]float32{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{-hx, hy, -hz}, {hx, hy, -hz}, {hx, -hy, -hz}, {-hx, -hy, -hz}}},
		{[3]float32{1, 0, 0}, [4][3]float32{{hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}, {hx, -hy, hz}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-hx, -hy, hz}, {-hx, hy, hz}, {-hx, hy, -hz}, {-hx, -hy, -hz}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{hx, hy, -hz}, {-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{hx, -hy, hz}, {-hx, -hy, hz}, {-hx, -hy, -hz}, {hx, -hy, -hz}}},
	}
	uvs := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	positions := make(Float32x3, 0, 24)
	normals := make(Float32x3, 0, 24)
	texcoords := make(Float32x2, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(positions))
		for i, c := range f.corners {
			positions = append(positions, c)
			normals = append(normals, f.normal)
			texcoords = append(texcoords, uvs[i])
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}

	m := New(TopologyTriangleList)
	mustInsert(m, AttributePosition, positions)
	mustInsert(m, AttributeNormal, normals)
	mustInsert(m, AttributeUV0, texcoords)
	m.SetIndices(indices)
	return m
}

// UVSphere builds a latitude/longitude sphere. The first and last column
// duplicate the seam positions, and each pole is one ring of coincident
// vertices.
func UVSphere(radius float32, sectors, stacks int) *Mesh {
	if sectors < 3 {
		sectors = 3
	}
	if stacks < 2 {
		stacks = 2
	}

	n := (sectors + 1) * (stacks + 1)
	positions := make(Float32x3, 0, n)
	normals := make(Float32x3, 0, n)
	texcoords := make(Float32x2, 0, n)

	for i := 0; i <= stacks; i++ {
		phi := math.Pi/2 - float64(i)*math.Pi/float64(stacks)
		xy, z := math.Cos(phi), math.Sin(phi)
		if i == 0 || i == stacks {
			xy = 0
		}
		for j := 0; j <= sectors; j++ {
			theta := float64(j) * 2 * math.Pi / float64(sectors)
			nrm := [3]float32{float32(xy * math.Cos(theta)), float32(z), float32(xy * math.Sin(theta))}
			if j == sectors {
				// close the seam on exactly the same bits as column 0
				nrm = [3]float32{float32(xy), float32(z), 0}
			}
			normals = append(normals, nrm)
			positions = append(positions, [3]float32{nrm[0] * radius, nrm[1] * radius, nrm[2] * radius})
			texcoords = append(texcoords, [2]float32{float32(j) / float32(sectors), float32(i) / float32(stacks)})
		}
	}

	var indices []uint32
	for i := 0; i < stacks; i++ {
		k1 := uint32(i * (sectors + 1))
		k2 := k1 + uint32(sectors+1)
		for j := 0; j < sectors; j++ {
			if i != 0 {
				indices = append(indices, k1, k1+1, k2)
			}
			if i != stacks-1 {
				indices = append(indices, k1+1, k2+1, k2)
			}
			k1++
			k2++
		}
	}

	m := New(TopologyTriangleList)
	mustInsert(m, AttributePosition, positions)
	mustInsert(m, AttributeNormal, normals)
	mustInsert(m, AttributeUV0, texcoords)
	m.SetIndices(indices)
	return m
}

// Torus builds a ring around the Y axis with duplicated seam rings in both
// directions.
func Torus(majorRadius, minorRadius float32, majorSegments, minorSegments int) *Mesh {
	if majorSegments < 3 {
		majorSegments = 3
	}
	if minorSegments < 3 {
		minorSegments = 3
	}

	n := (majorSegments + 1) * (minorSegments + 1)
	positions := make(Float32x3, 0, n)
	normals := make(Float32x3, 0, n)
	texcoords := make(Float32x2, 0, n)

	for i := 0; i <= majorSegments; i++ {
		u := float64(i%majorSegments) * 2 * math.Pi / float64(majorSegments)
		cu, su := math.Cos(u), math.Sin(u)
		for j := 0; j <= minorSegments; j++ {
			v := float64(j%minorSegments) * 2 * math.Pi / float64(minorSegments)
			cv, sv := math.Cos(v), math.Sin(v)

			r := float64(majorRadius) + float64(minorRadius)*cv
			positions = append(positions, [3]float32{float32(r * cu), float32(float64(minorRadius) * sv), float32(r * su)})
			normals = append(normals, [3]float32{float32(cv * cu), float32(sv), float32(cv * su)})
			texcoords = append(texcoords, [2]float32{float32(i) / float32(majorSegments), float32(j) / float32(minorSegments)})
		}
	}

	var indices []uint32
	stride := uint32(minorSegments + 1)
	for i := 0; i < majorSegments; i++ {
		for j := 0; j < minorSegments; j++ {
			a := uint32(i)*stride + uint32(j)
			b := a + stride
			indices = append(indices, a, a+1, b, b, a+1, b+1)
		}
	}

	m := New(TopologyTriangleList)
	mustInsert(m, AttributePosition, positions)
	mustInsert(m, AttributeNormal, normals)
	mustInsert(m, AttributeUV0, texcoords)
	m.SetIndices(indices)
	return m
}

// Plane builds a flat square in the XZ plane facing +Y.
func Plane(size float32) *Mesh {
	h := size / 2
	m := New(TopologyTriangleList)
	mustInsert(m, AttributePosition, Float32x3{{-h, 0, -h}, {-h, 0, h}, {h, 0, h}, {h, 0, -h}})
	mustInsert(m, AttributeNormal, Float32x3{{0, 1, 0}, {0, 1, 0}, {0, 1, 0}, {0, 1, 0}})
	mustInsert(m, AttributeUV0, Float32x2{{0, 0}, {0, 1}, {1, 1}, {1, 0}})
	m.SetIndices([]uint32{0, 1, 2, 2, 3, 0})
	return m
}

func mustInsert(m *Mesh, attr VertexAttribute, values AttributeValues) {
	if err := m.InsertAttribute(attr, values); err != nil {
		panic(err)
	}
}
