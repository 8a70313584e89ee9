package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RenderPass is the subset of *wgpu.RenderPassEncoder draw commands use.
type RenderPass interface {
	SetPipeline(pipeline *wgpu.RenderPipeline)
	SetBindGroup(groupIndex uint32, group *wgpu.BindGroup, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, buffer *wgpu.Buffer, offset uint64, size uint64)
	SetIndexBuffer(buffer *wgpu.Buffer, format wgpu.IndexFormat, offset uint64, size uint64)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

var _ RenderPass = (*wgpu.RenderPassEncoder)(nil)

const maxBindGroups = 4

// TrackedRenderPass drops state changes that would not change anything, so
// consecutive items sharing a pipeline, mesh or material bind it once.
type TrackedRenderPass struct {
	pass RenderPass

	pipeline     *wgpu.RenderPipeline
	bindGroups   [maxBindGroups]*wgpu.BindGroup
	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
}

func NewTrackedRenderPass(pass RenderPass) *TrackedRenderPass {
	return &TrackedRenderPass{pass: pass}
}

func (t *TrackedRenderPass) SetPipeline(pipeline *wgpu.RenderPipeline) {
	if t.pipeline == pipeline {
		return
	}
	t.pipeline = pipeline
	t.pass.SetPipeline(pipeline)
}

func (t *TrackedRenderPass) SetBindGroup(index uint32, group *wgpu.BindGroup) {
	if index < maxBindGroups {
		if t.bindGroups[index] == group {
			return
		}
		t.bindGroups[index] = group
	}
	t.pass.SetBindGroup(index, group, nil)
}

func (t *TrackedRenderPass) SetVertexBuffer(buffer *wgpu.Buffer) {
	if t.vertexBuffer == buffer {
		return
	}
	t.vertexBuffer = buffer
	t.pass.SetVertexBuffer(0, buffer, 0, wgpu.WholeSize)
}

func (t *TrackedRenderPass) SetIndexBuffer(buffer *wgpu.Buffer) {
	if t.indexBuffer == buffer {
		return
	}
	t.indexBuffer = buffer
	t.pass.SetIndexBuffer(buffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (t *TrackedRenderPass) Draw(vertexCount, instanceCount uint32) {
	t.pass.Draw(vertexCount, instanceCount, 0, 0)
}

func (t *TrackedRenderPass) DrawIndexed(indexCount, instanceCount uint32) {
	t.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

// DrawMesh binds m's buffers and issues an indexed or plain draw.
func (t *TrackedRenderPass) DrawMesh(m *GpuMesh) {
	t.SetVertexBuffer(m.VertexBuffer)
	if m.IndexBuffer != nil {
		t.SetIndexBuffer(m.IndexBuffer)
		t.DrawIndexed(m.IndexCount, 1)
		return
	}
	t.Draw(m.VertexCount, 1)
}
