package gpu_test

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/outline/render/gpu"
	"github.com/gekko3d/outline/render/gpu/gputest"
	"github.com/gekko3d/outline/render/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackedRenderPass_SkipsRedundantState(t *testing.T) {
	rec := &gputest.RecordingPass{}
	pass := gpu.NewTrackedRenderPass(rec)

	pipeline := &wgpu.RenderPipeline{}
	group := &wgpu.BindGroup{}
	m := &gpu.GpuMesh{VertexBuffer: &wgpu.Buffer{}, IndexBuffer: &wgpu.Buffer{}, IndexCount: 36}

	for i := 0; i < 3; i++ {
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, group)
		pass.DrawMesh(m)
	}

	assert.Equal(t, 1, rec.Count(gputest.CmdSetPipeline))
	assert.Equal(t, 1, rec.Count(gputest.CmdSetBindGroup))
	assert.Equal(t, 1, rec.Count(gputest.CmdSetVertexBuffer))
	assert.Equal(t, 1, rec.Count(gputest.CmdSetIndexBuffer))
	assert.Equal(t, 3, rec.Count(gputest.CmdDrawIndexed))
}

func TestTrackedRenderPass_NonIndexedDraw(t *testing.T) {
	rec := &gputest.RecordingPass{}
	pass := gpu.NewTrackedRenderPass(rec)
	pass.DrawMesh(&gpu.GpuMesh{VertexBuffer: &wgpu.Buffer{}, VertexCount: 3})

	require.Equal(t, 1, rec.Count(gputest.CmdDraw))
	assert.Equal(t, uint32(3), rec.Commands[len(rec.Commands)-1].Count)
	assert.Zero(t, rec.Count(gputest.CmdDrawIndexed))
}

func TestPrepareMesh(t *testing.T) {
	dev := gputest.NewRecordingDevice()
	m := mesh.Cuboid(1, 1, 1)

	res := gpu.PrepareMesh(dev, gpu.ExtractMesh(m))
	require.Equal(t, gpu.PrepareReady, res.Status)
	assert.Equal(t, uint32(24), res.Value.VertexCount)
	assert.Equal(t, uint32(36), res.Value.IndexCount)
	require.Len(t, dev.BufferInits, 2)
	assert.Len(t, dev.BufferInits[0].Contents, 24*32)
	assert.Len(t, dev.BufferInits[1].Contents, 36*4)

	res = gpu.PrepareMesh(dev, gpu.ExtractMesh(mesh.New(mesh.TopologyTriangleList)))
	assert.Equal(t, gpu.PrepareFailed, res.Status)
	assert.ErrorIs(t, res.Err, gpu.ErrEmptyMesh)
}

func TestUniformSlots_Sweep(t *testing.T) {
	dev, mp, _ := newPipelines(t)
	slots := gpu.NewUniformSlots[int](dev, mp.MeshLayout, "MeshUniform")

	a, err := slots.Write(1, make([]byte, gpu.MeshUniformSize))
	require.NoError(t, err)
	_, err = slots.Write(2, make([]byte, gpu.MeshUniformSize))
	require.NoError(t, err)
	slots.Sweep()
	assert.Equal(t, 2, slots.Len())

	again, err := slots.Write(1, make([]byte, gpu.MeshUniformSize))
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.Len(t, dev.WritesTo(a.Buffer), 1)

	slots.Sweep()
	assert.Equal(t, 1, slots.Len())
	_, ok := slots.Get(2)
	assert.False(t, ok)
	assert.Len(t, dev.Released, 2)
}
