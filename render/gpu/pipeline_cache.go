package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/outline/render/mesh"
)

// ErrPreviouslyFailed wraps a cached specialization error on every lookup
// after the first, so callers can report a failure exactly once.
var ErrPreviouslyFailed = errors.New("pipeline specialization previously failed")

// SpecializationError reports a mesh that cannot feed a pipeline variant.
type SpecializationError struct {
	Pipeline string
	Layout   string
	Err      error
}

func (e *SpecializationError) Error() string {
	return fmt.Sprintf("specialize %s for layout [%s]: %v", e.Pipeline, e.Layout, e.Err)
}

func (e *SpecializationError) Unwrap() error {
	return e.Err
}

// RenderPipelineDescriptor is a pipeline description before its layout is
// created on the device.
type RenderPipelineDescriptor struct {
	Label              string
	BindGroupLayouts   []*wgpu.BindGroupLayout
	Shader             *wgpu.ShaderModule
	VertexEntryPoint   string
	FragmentEntryPoint string
	VertexBuffers      []wgpu.VertexBufferLayout
	Primitive          wgpu.PrimitiveState
	DepthStencil       *wgpu.DepthStencilState
	Multisample        wgpu.MultisampleState
	Targets            []wgpu.ColorTargetState
}

// SpecializedMeshPipeline builds one pipeline variant per key and mesh
// vertex layout.
type SpecializedMeshPipeline[K comparable] interface {
	Specialize(key K, layout *mesh.MeshVertexBufferLayout) (*RenderPipelineDescriptor, error)
}

type specializedKey[K comparable] struct {
	key    K
	layout string
}

type cachedPipeline struct {
	pipeline *wgpu.RenderPipeline
	err      error
}

// SpecializedMeshPipelines caches compiled variants of one pipeline. Entries
// are never evicted; the key space is bounded by the distinct meshes and
// view configurations seen.
type SpecializedMeshPipelines[K comparable] struct {
	device   Device
	pipeline SpecializedMeshPipeline[K]
	cache    map[specializedKey[K]]cachedPipeline

	hits   uint64
	misses uint64
}

func NewSpecializedMeshPipelines[K comparable](device Device, pipeline SpecializedMeshPipeline[K]) *SpecializedMeshPipelines[K] {
	return &SpecializedMeshPipelines[K]{
		device:   device,
		pipeline: pipeline,
		cache:    make(map[specializedKey[K]]cachedPipeline),
	}
}

// Specialize returns the pipeline for (key, layout), compiling it on first
// use. A failed variant is remembered and returned wrapped in
// ErrPreviouslyFailed afterwards.
func (s *SpecializedMeshPipelines[K]) Specialize(key K, layout *mesh.MeshVertexBufferLayout) (*wgpu.RenderPipeline, error) {
	ck := specializedKey[K]{key: key, layout: layout.Key()}
	if cached, ok := s.cache[ck]; ok {
		s.hits++
		if cached.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPreviouslyFailed, cached.err)
		}
		return cached.pipeline, nil
	}
	s.misses++

	pipeline, err := s.compile(key, layout)
	s.cache[ck] = cachedPipeline{pipeline: pipeline, err: err}
	return pipeline, err
}

func (s *SpecializedMeshPipelines[K]) compile(key K, layout *mesh.MeshVertexBufferLayout) (*wgpu.RenderPipeline, error) {
	desc, err := s.pipeline.Specialize(key, layout)
	if err != nil {
		return nil, err
	}
	pipelineLayout, err := s.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label + "Layout",
		BindGroupLayouts: desc.BindGroupLayouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s layout: %w", desc.Label, err)
	}

	var fragment *wgpu.FragmentState
	if desc.FragmentEntryPoint != "" {
		fragment = &wgpu.FragmentState{
			Module:     desc.Shader,
			EntryPoint: desc.FragmentEntryPoint,
			Targets:    desc.Targets,
		}
	}

	pipeline, err := s.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     desc.Shader,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    desc.VertexBuffers,
		},
		Primitive:    desc.Primitive,
		DepthStencil: desc.DepthStencil,
		Multisample:  desc.Multisample,
		Fragment:     fragment,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", desc.Label, err)
	}
	return pipeline, nil
}

// Stats returns cache hits and misses since creation.
func (s *SpecializedMeshPipelines[K]) Stats() (hits, misses uint64) {
	return s.hits, s.misses
}

func (s *SpecializedMeshPipelines[K]) Len() int {
	return len(s.cache)
}
