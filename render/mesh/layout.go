package mesh

import (
	"strconv"
	"strings"
)

type VertexAttributeLayout struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

type VertexBufferLayout struct {
	ArrayStride uint64
	Attributes  []VertexAttributeLayout
}

// MeshVertexBufferLayout is the full interleaved layout of one mesh. Meshes
// with the same attribute set share the same Key.
type MeshVertexBufferLayout struct {
	attributes []VertexAttribute
	layout     VertexBufferLayout
	key        string
}

func (l *MeshVertexBufferLayout) Key() string {
	return l.key
}

func (l *MeshVertexBufferLayout) Layout() VertexBufferLayout {
	return l.layout
}

func (l *MeshVertexBufferLayout) Contains(attr VertexAttribute) bool {
	for _, a := range l.attributes {
		if a.Id == attr.Id {
			return true
		}
	}
	return false
}

// GetLayout selects the requested attributes out of the interleaved buffer,
// keeping the full stride and remapping shader locations. It fails with
// ErrMissingAttribute when the mesh does not carry one of them.
func (l *MeshVertexBufferLayout) GetLayout(descriptors []VertexAttributeDescriptor) (VertexBufferLayout, error) {
	res := VertexBufferLayout{
		ArrayStride: l.layout.ArrayStride,
		Attributes:  make([]VertexAttributeLayout, 0, len(descriptors)),
	}
	for _, desc := range descriptors {
		idx := -1
		for i, a := range l.attributes {
			if a.Id == desc.Id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return VertexBufferLayout{}, missingAttribute(desc.Name)
		}
		res.Attributes = append(res.Attributes, VertexAttributeLayout{
			Format:         l.layout.Attributes[idx].Format,
			Offset:         l.layout.Attributes[idx].Offset,
			ShaderLocation: desc.ShaderLocation,
		})
	}
	return res, nil
}

func layoutKey(attrs []VertexAttribute) string {
	var sb strings.Builder
	for i, a := range attrs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(a.Id, 10))
		sb.WriteByte(':')
		sb.WriteString(a.Format.String())
	}
	return sb.String()
}
