package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimaryWindow_Resize(t *testing.T) {
	w := NewPrimaryWindow(800, 600)
	v := w.Version()

	w.Resize(800, 600)
	assert.Equal(t, v, w.Version())

	w.Resize(1024, 768)
	assert.Equal(t, v+1, w.Version())
	assert.InDelta(t, 1024.0/768.0, w.Aspect(), 1e-6)

	w.Resize(1024, 0)
	assert.Equal(t, float32(1), w.Aspect())
}
