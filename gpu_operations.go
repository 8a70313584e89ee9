package outline

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/gekko3d/outline/render/gpu"
)

type WindowState struct {
	windowGlfw  *glfw.Window
	windowTitle string
}

// GpuState owns the swapchain surface and the attachments sized to it.
type GpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration

	msaaSamples  uint32
	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
	msaaTexture  *wgpu.Texture
	msaaView     *wgpu.TextureView
}

func createWindowState(windowWidth int, windowHeight int, windowTitle string) *WindowState {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // wgpu drives the surface, not OpenGL
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		panic(err)
	}

	return &WindowState{
		windowGlfw:  win,
		windowTitle: windowTitle,
	}
}

func createGpuState(s *WindowState, width, height, msaaSamples uint32) *GpuState {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(s.windowGlfw))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		panic(err)
	}

	caps := surface.GetCapabilities(adapter)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       width,
		Height:      height,
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, &surfaceConfig)

	state := &GpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         device.GetQueue(),
		surfaceConfig: &surfaceConfig,
		msaaSamples:   msaaSamples,
	}
	if err := state.createAttachments(); err != nil {
		panic(err)
	}
	return state
}

// resize reconfigures the surface and rebuilds the size-dependent
// attachments. A zero dimension (minimized window) is ignored.
func (s *GpuState) resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	if width == s.surfaceConfig.Width && height == s.surfaceConfig.Height {
		return nil
	}
	s.surfaceConfig.Width = width
	s.surfaceConfig.Height = height
	s.surface.Configure(s.adapter, s.device, s.surfaceConfig)
	return s.createAttachments()
}

func (s *GpuState) createAttachments() error {
	s.releaseAttachments()

	var err error
	s.depthTexture, s.depthView, err = s.createTarget("Depth Texture", gpu.DepthFormat)
	if err != nil {
		return err
	}
	if s.msaaSamples > 1 {
		s.msaaTexture, s.msaaView, err = s.createTarget("MSAA Color Texture", s.surfaceConfig.Format)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *GpuState) createTarget(label string, format wgpu.TextureFormat) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := s.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              s.surfaceConfig.Width,
			Height:             s.surfaceConfig.Height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
		SampleCount:   s.msaaSamples,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("creating %s view: %w", label, err)
	}
	return tex, view, nil
}

func (s *GpuState) releaseAttachments() {
	for _, v := range []*wgpu.TextureView{s.depthView, s.msaaView} {
		if v != nil {
			v.Release()
		}
	}
	for _, t := range []*wgpu.Texture{s.depthTexture, s.msaaTexture} {
		if t != nil {
			t.Release()
		}
	}
	s.depthTexture, s.depthView, s.msaaTexture, s.msaaView = nil, nil, nil, nil
}

// beginFrame acquires the next swapchain image and opens the main pass with
// the color cleared and depth cleared to 0 (reversed-Z far plane).
func (s *GpuState) beginFrame(clear wgpu.Color) (*surfaceFrame, error) {
	texture, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("GetCurrentTexture: %w", err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, fmt.Errorf("CreateView: %w", err)
	}
	encoder, err := s.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		texture.Release()
		return nil, fmt.Errorf("CreateCommandEncoder: %w", err)
	}

	color := wgpu.RenderPassColorAttachment{
		View:       view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: clear,
	}
	if s.msaaView != nil {
		color.View = s.msaaView
		color.ResolveTarget = view
		color.StoreOp = wgpu.StoreOpDiscard
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            "Main Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            s.depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 0,
		},
	})
	return &surfaceFrame{texture: texture, view: view, encoder: encoder, pass: pass}, nil
}

type surfaceFrame struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
}

// endFrame closes the pass, submits and presents. The frame's resources are
// released whatever the outcome.
func (s *GpuState) endFrame(f *surfaceFrame) error {
	defer f.texture.Release()
	defer f.view.Release()
	defer f.encoder.Release()

	if err := f.pass.End(); err != nil {
		return fmt.Errorf("render pass End: %w", err)
	}
	cmd, err := f.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("encoder Finish: %w", err)
	}
	defer cmd.Release()

	s.queue.Submit(cmd)
	s.surface.Present()
	return nil
}
