package outline

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

// PlatformWindowModule opens the GLFW window and publishes its framebuffer
// size through the PrimaryWindow resource. Install is a no-op when a
// WindowState already exists.
type PlatformWindowModule struct {
	Width  int
	Height int
	Title  string
}

func NewPlatformWindow(width, height int, title string) *PlatformWindowModule {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	if title == "" {
		title = "outline"
	}
	return &PlatformWindowModule{
		Width:  width,
		Height: height,
		Title:  title,
	}
}

func (m PlatformWindowModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[WindowState](app); ok {
		return
	}

	ws := createWindowState(m.Width, m.Height, m.Title)
	fbWidth, fbHeight := ws.windowGlfw.GetFramebufferSize()
	primary := NewPrimaryWindow(uint32(fbWidth), uint32(fbHeight))

	ws.windowGlfw.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		primary.Resize(uint32(width), uint32(height))
	})

	cmd.AddResources(ws, primary)
	app.UseSystem(
		System(windowEventsSystem).
			InStage(Prelude),
	)
}

func windowEventsSystem(ws *WindowState, cmd *Commands, log Logger) {
	glfw.PollEvents()
	if ws.windowGlfw.ShouldClose() {
		log.Infof("window closed")
		cmd.Exit()
	}
}
