package mesh

import (
	"fmt"
	"sort"
)

type PrimitiveTopology uint32

const (
	TopologyPointList PrimitiveTopology = iota
	TopologyLineList
	TopologyLineStrip
	TopologyTriangleList
	TopologyTriangleStrip
)

func (t PrimitiveTopology) String() string {
	switch t {
	case TopologyPointList:
		return "PointList"
	case TopologyLineList:
		return "LineList"
	case TopologyLineStrip:
		return "LineStrip"
	case TopologyTriangleList:
		return "TriangleList"
	case TopologyTriangleStrip:
		return "TriangleStrip"
	}
	return fmt.Sprintf("PrimitiveTopology(%d)", uint32(t))
}

type attributeData struct {
	attribute VertexAttribute
	values    AttributeValues
	version   uint64
}

// Mesh is a set of index-aligned vertex attributes plus optional indices.
// Every mutation bumps Version, and each attribute remembers the version it
// was last written at so derived data can tell when its inputs moved.
type Mesh struct {
	topology   PrimitiveTopology
	attributes map[uint64]*attributeData
	indices    []uint32
	version    uint64
}

func New(topology PrimitiveTopology) *Mesh {
	return &Mesh{
		topology:   topology,
		attributes: make(map[uint64]*attributeData),
	}
}

func (m *Mesh) Topology() PrimitiveTopology {
	return m.topology
}

func (m *Mesh) Version() uint64 {
	return m.version
}

// InsertAttribute stores values under attr, replacing any previous values.
func (m *Mesh) InsertAttribute(attr VertexAttribute, values AttributeValues) error {
	if values == nil {
		return invalidFormat(attr.Name, "nil values")
	}
	if values.Format() != attr.Format {
		return invalidFormat(attr.Name, fmt.Sprintf("expected %s, got %s", attr.Format, values.Format()))
	}
	m.version++
	m.attributes[attr.Id] = &attributeData{
		attribute: attr,
		values:    values,
		version:   m.version,
	}
	return nil
}

func (m *Mesh) Attribute(attr VertexAttribute) (AttributeValues, bool) {
	data, ok := m.attributes[attr.Id]
	if !ok {
		return nil, false
	}
	return data.values, true
}

// AttributeVersion returns the mesh version at which attr was last written.
func (m *Mesh) AttributeVersion(attr VertexAttribute) (uint64, bool) {
	data, ok := m.attributes[attr.Id]
	if !ok {
		return 0, false
	}
	return data.version, true
}

func (m *Mesh) ContainsAttribute(attr VertexAttribute) bool {
	_, ok := m.attributes[attr.Id]
	return ok
}

func (m *Mesh) RemoveAttribute(attr VertexAttribute) (AttributeValues, bool) {
	data, ok := m.attributes[attr.Id]
	if !ok {
		return nil, false
	}
	delete(m.attributes, attr.Id)
	m.version++
	return data.values, true
}

// Float3 returns attr as 3-float tuples.
func (m *Mesh) Float3(attr VertexAttribute) ([][3]float32, error) {
	values, ok := m.Attribute(attr)
	if !ok {
		return nil, missingAttribute(attr.Name)
	}
	f3, ok := values.(Float32x3)
	if !ok {
		return nil, invalidFormat(attr.Name, fmt.Sprintf("expected Float32x3, got %s", values.Format()))
	}
	return f3, nil
}

func (m *Mesh) SetIndices(indices []uint32) {
	m.indices = indices
	m.version++
}

func (m *Mesh) Indices() []uint32 {
	return m.indices
}

// VertexCount is the length of the shortest attribute.
func (m *Mesh) VertexCount() int {
	count := -1
	for _, data := range m.attributes {
		if n := data.values.Len(); count < 0 || n < count {
			count = n
		}
	}
	if count < 0 {
		return 0
	}
	return count
}

func (m *Mesh) sortedAttributes() []*attributeData {
	res := make([]*attributeData, 0, len(m.attributes))
	for _, data := range m.attributes {
		res = append(res, data)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].attribute.Id < res[j].attribute.Id
	})
	return res
}

// VertexBufferLayout describes how InterleavedVertexData lays attributes out.
func (m *Mesh) VertexBufferLayout() *MeshVertexBufferLayout {
	attrs := m.sortedAttributes()
	layout := &MeshVertexBufferLayout{
		attributes: make([]VertexAttribute, 0, len(attrs)),
	}
	var offset uint64
	for i, data := range attrs {
		layout.attributes = append(layout.attributes, data.attribute)
		layout.layout.Attributes = append(layout.layout.Attributes, VertexAttributeLayout{
			Format:         data.attribute.Format,
			Offset:         offset,
			ShaderLocation: uint32(i),
		})
		offset += data.attribute.Format.Size()
	}
	layout.layout.ArrayStride = offset
	layout.key = layoutKey(layout.attributes)
	return layout
}

// InterleavedVertexData packs all attributes vertex by vertex, in attribute
// id order.
func (m *Mesh) InterleavedVertexData() []byte {
	attrs := m.sortedAttributes()
	count := m.VertexCount()

	var stride uint64
	for _, data := range attrs {
		stride += data.attribute.Format.Size()
	}

	buf := make([]byte, 0, uint64(count)*stride)
	for i := 0; i < count; i++ {
		for _, data := range attrs {
			buf = data.values.appendVertex(buf, i)
		}
	}
	return buf
}
