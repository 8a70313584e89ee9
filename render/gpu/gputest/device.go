// Package gputest provides recording fakes for gpu.Device and
// gpu.RenderPass. Handles they return are empty wgpu values that are only
// compared by pointer, never used by a real driver.
package gputest

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/outline/render/gpu"
)

var ErrInjected = errors.New("gputest: injected failure")

type BufferWrite struct {
	Buffer *wgpu.Buffer
	Offset uint64
	Data   []byte
}

// RecordingDevice implements gpu.Device by keeping every descriptor it
// receives. Set the Fail* fields to make the next calls return an error.
type RecordingDevice struct {
	Buffers          []*wgpu.BufferDescriptor
	BufferInits      []*wgpu.BufferInitDescriptor
	BindGroupLayouts []*wgpu.BindGroupLayoutDescriptor
	BindGroups       []*wgpu.BindGroupDescriptor
	ShaderModules    []*wgpu.ShaderModuleDescriptor
	PipelineLayouts  []*wgpu.PipelineLayoutDescriptor
	RenderPipelines  []*wgpu.RenderPipelineDescriptor
	Writes           []BufferWrite
	Released         []gpu.Releasable

	FailBuffer         error
	FailBindGroup      error
	FailWrite          error
	FailRenderPipeline error
}

var _ gpu.Device = (*RecordingDevice)(nil)

func NewRecordingDevice() *RecordingDevice {
	return &RecordingDevice{}
}

func (d *RecordingDevice) CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	if d.FailBuffer != nil {
		return nil, d.FailBuffer
	}
	d.Buffers = append(d.Buffers, desc)
	return &wgpu.Buffer{}, nil
}

func (d *RecordingDevice) CreateBufferInit(desc *wgpu.BufferInitDescriptor) (*wgpu.Buffer, error) {
	if d.FailBuffer != nil {
		return nil, d.FailBuffer
	}
	d.BufferInits = append(d.BufferInits, desc)
	return &wgpu.Buffer{}, nil
}

func (d *RecordingDevice) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	d.BindGroupLayouts = append(d.BindGroupLayouts, desc)
	return &wgpu.BindGroupLayout{}, nil
}

func (d *RecordingDevice) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	if d.FailBindGroup != nil {
		return nil, d.FailBindGroup
	}
	d.BindGroups = append(d.BindGroups, desc)
	return &wgpu.BindGroup{}, nil
}

func (d *RecordingDevice) CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error) {
	d.ShaderModules = append(d.ShaderModules, desc)
	return &wgpu.ShaderModule{}, nil
}

func (d *RecordingDevice) CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	d.PipelineLayouts = append(d.PipelineLayouts, desc)
	return &wgpu.PipelineLayout{}, nil
}

func (d *RecordingDevice) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	if d.FailRenderPipeline != nil {
		return nil, d.FailRenderPipeline
	}
	d.RenderPipelines = append(d.RenderPipelines, desc)
	return &wgpu.RenderPipeline{}, nil
}

func (d *RecordingDevice) WriteBuffer(buffer *wgpu.Buffer, offset uint64, data []byte) error {
	if d.FailWrite != nil {
		return d.FailWrite
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	d.Writes = append(d.Writes, BufferWrite{Buffer: buffer, Offset: offset, Data: cp})
	return nil
}

func (d *RecordingDevice) Release(res gpu.Releasable) {
	d.Released = append(d.Released, res)
}

// WritesTo returns the writes that targeted buffer, oldest first.
func (d *RecordingDevice) WritesTo(buffer *wgpu.Buffer) []BufferWrite {
	var res []BufferWrite
	for _, w := range d.Writes {
		if w.Buffer == buffer {
			res = append(res, w)
		}
	}
	return res
}
