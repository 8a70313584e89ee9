package gputest

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/outline/render/gpu"
)

type CommandKind int

const (
	CmdSetPipeline CommandKind = iota
	CmdSetBindGroup
	CmdSetVertexBuffer
	CmdSetIndexBuffer
	CmdDraw
	CmdDrawIndexed
)

type Command struct {
	Kind      CommandKind
	Pipeline  *wgpu.RenderPipeline
	Group     uint32
	BindGroup *wgpu.BindGroup
	Buffer    *wgpu.Buffer
	Count     uint32
	Instances uint32
}

// RecordingPass implements gpu.RenderPass by appending every call to
// Commands.
type RecordingPass struct {
	Commands []Command
}

var _ gpu.RenderPass = (*RecordingPass)(nil)

func (p *RecordingPass) SetPipeline(pipeline *wgpu.RenderPipeline) {
	p.Commands = append(p.Commands, Command{Kind: CmdSetPipeline, Pipeline: pipeline})
}

func (p *RecordingPass) SetBindGroup(groupIndex uint32, group *wgpu.BindGroup, dynamicOffsets []uint32) {
	p.Commands = append(p.Commands, Command{Kind: CmdSetBindGroup, Group: groupIndex, BindGroup: group})
}

func (p *RecordingPass) SetVertexBuffer(slot uint32, buffer *wgpu.Buffer, offset uint64, size uint64) {
	p.Commands = append(p.Commands, Command{Kind: CmdSetVertexBuffer, Buffer: buffer})
}

func (p *RecordingPass) SetIndexBuffer(buffer *wgpu.Buffer, format wgpu.IndexFormat, offset uint64, size uint64) {
	p.Commands = append(p.Commands, Command{Kind: CmdSetIndexBuffer, Buffer: buffer})
}

func (p *RecordingPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.Commands = append(p.Commands, Command{Kind: CmdDraw, Count: vertexCount, Instances: instanceCount})
}

func (p *RecordingPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.Commands = append(p.Commands, Command{Kind: CmdDrawIndexed, Count: indexCount, Instances: instanceCount})
}

// Count returns how many recorded commands are of kind.
func (p *RecordingPass) Count(kind CommandKind) int {
	n := 0
	for _, c := range p.Commands {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// BindGroupsAt returns the bind groups set on group index, in order.
func (p *RecordingPass) BindGroupsAt(index uint32) []*wgpu.BindGroup {
	var res []*wgpu.BindGroup
	for _, c := range p.Commands {
		if c.Kind == CmdSetBindGroup && c.Group == index {
			res = append(res, c.BindGroup)
		}
	}
	return res
}
