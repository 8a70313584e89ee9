package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

type UniformSlot struct {
	Buffer    *wgpu.Buffer
	BindGroup *wgpu.BindGroup
}

// UniformSlots keeps one uniform buffer and bind group per key (a view or a
// drawn entity). Slots are rewritten each frame; Sweep releases the ones
// that were not written since the previous Sweep.
type UniformSlots[K comparable] struct {
	device Device
	layout *wgpu.BindGroupLayout
	label  string

	slots   map[K]*UniformSlot
	written map[K]struct{}
}

func NewUniformSlots[K comparable](device Device, layout *wgpu.BindGroupLayout, label string) *UniformSlots[K] {
	return &UniformSlots[K]{
		device:  device,
		layout:  layout,
		label:   label,
		slots:   make(map[K]*UniformSlot),
		written: make(map[K]struct{}),
	}
}

func (u *UniformSlots[K]) Write(key K, data []byte) (*UniformSlot, error) {
	u.written[key] = struct{}{}
	if slot, ok := u.slots[key]; ok {
		if err := u.device.WriteBuffer(slot.Buffer, 0, data); err != nil {
			return nil, fmt.Errorf("write %s uniform: %w", u.label, err)
		}
		return slot, nil
	}
	buffer, group, err := UniformBindGroup(u.device, u.label, u.layout, data)
	if err != nil {
		delete(u.written, key)
		return nil, fmt.Errorf("create %s uniform: %w", u.label, err)
	}
	slot := &UniformSlot{Buffer: buffer, BindGroup: group}
	u.slots[key] = slot
	return slot, nil
}

func (u *UniformSlots[K]) Get(key K) (*UniformSlot, bool) {
	slot, ok := u.slots[key]
	return slot, ok
}

func (u *UniformSlots[K]) Len() int {
	return len(u.slots)
}

func (u *UniformSlots[K]) Sweep() {
	for key, slot := range u.slots {
		if _, ok := u.written[key]; ok {
			continue
		}
		u.device.Release(slot.BindGroup)
		u.device.Release(slot.Buffer)
		delete(u.slots, key)
	}
	clear(u.written)
}
