package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ViewportScale converts a width in pixels to a clip-space offset. ok is
// false for an empty viewport.
func ViewportScale(width, height uint32) (scale [2]float32, ok bool) {
	if width == 0 || height == 0 {
		return scale, false
	}
	return [2]float32{2 / float32(width), 2 / float32(height)}, true
}

// ViewportScaleMeta owns the one uniform buffer holding the primary
// viewport's scale. Only the prepare stage writes it; every outline draw
// in the frame binds it read-only.
type ViewportScaleMeta struct {
	Buffer    *wgpu.Buffer
	BindGroup *wgpu.BindGroup
	Scale     [2]float32

	layout *wgpu.BindGroupLayout
}

// NewViewportScaleMeta allocates the buffer once. A failure here is fatal
// to the outline module.
func NewViewportScaleMeta(device Device, layout *wgpu.BindGroupLayout) (*ViewportScaleMeta, error) {
	buffer, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "OutlineViewportScale",
		Size:  ViewportScaleUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create viewport scale buffer: %w", err)
	}
	return &ViewportScaleMeta{Buffer: buffer, layout: layout}, nil
}

// Update writes (2/width, 2/height) and rebuilds the bind group. It returns
// false without touching the GPU when either dimension is zero.
func (m *ViewportScaleMeta) Update(device Device, width, height uint32) (bool, error) {
	scale, ok := ViewportScale(width, height)
	if !ok {
		return false, nil
	}
	if err := device.WriteBuffer(m.Buffer, 0, viewportScaleBytes(scale)); err != nil {
		return false, fmt.Errorf("write viewport scale: %w", err)
	}
	group, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "OutlineViewportScaleBG",
		Layout: m.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: m.Buffer, Size: ViewportScaleUniformSize},
		},
	})
	if err != nil {
		return false, fmt.Errorf("create viewport scale bind group: %w", err)
	}
	if m.BindGroup != nil {
		device.Release(m.BindGroup)
	}
	m.BindGroup = group
	m.Scale = scale
	return true, nil
}
