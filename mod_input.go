package outline

import (
	"github.com/go-gl/glfw/v3.3/glfw"
)

type Key int

const (
	KeyO Key = iota
	KeySpace
	KeyEscape
	KeyLeftBracket
	KeyRightBracket
	keyCount
)

type InputModule struct{}

// Input is the keyboard state sampled once per frame, after the window
// events were polled.
type Input struct {
	Pressed      [keyCount]bool
	JustPressed  [keyCount]bool
	JustReleased [keyCount]bool
}

func (mod InputModule) Install(app *App, cmd *Commands) {
	if _, ok := Resource[WindowState](app); !ok {
		panic("InputModule requires PlatformWindowModule")
	}
	cmd.AddResources(&Input{})
	app.UseSystem(
		System(inputSystem).
			InStage(PreUpdate),
	)
}

// setKey records the sampled state of one key, deriving the edge flags.
func (input *Input) setKey(key Key, down bool) {
	input.JustPressed[key] = down && !input.Pressed[key]
	input.JustReleased[key] = !down && input.Pressed[key]
	input.Pressed[key] = down
}

func inputSystem(ws *WindowState, input *Input) {
	for key, glfwKey := range keyToGlfw {
		input.setKey(key, ws.windowGlfw.GetKey(glfwKey) == glfw.Press)
	}
}

var keyToGlfw = map[Key]glfw.Key{
	KeyO:            glfw.KeyO,
	KeySpace:        glfw.KeySpace,
	KeyEscape:       glfw.KeyEscape,
	KeyLeftBracket:  glfw.KeyLeftBracket,
	KeyRightBracket: glfw.KeyRightBracket,
}
