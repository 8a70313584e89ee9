package outline

// PrimaryWindow is the platform-independent view of the main window's
// framebuffer. Every size change bumps its version.
type PrimaryWindow struct {
	Width   uint32
	Height  uint32
	version uint64
}

func NewPrimaryWindow(width, height uint32) *PrimaryWindow {
	return &PrimaryWindow{Width: width, Height: height, version: 1}
}

// Resize records a new framebuffer size. Setting the current size again is
// not a change.
func (w *PrimaryWindow) Resize(width, height uint32) {
	if w.Width == width && w.Height == height {
		return
	}
	w.Width = width
	w.Height = height
	w.version++
}

func (w *PrimaryWindow) Version() uint64 {
	return w.version
}

func (w *PrimaryWindow) Aspect() float32 {
	if w.Height == 0 {
		return 1
	}
	return float32(w.Width) / float32(w.Height)
}
