package capture

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestMockCamera_Playback(t *testing.T) {
	a := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer a.Close()
	b := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer b.Close()

	cam := NewMockCamera([]gocv.Mat{a, b}, false)
	_, err := cam.Read()
	assert.ErrorIs(t, err, ErrCameraNotOpen)

	require.NoError(t, cam.Open())
	defer cam.Close()

	f1, err := cam.Read()
	require.NoError(t, err)
	defer f1.Close()
	f2, err := cam.Read()
	require.NoError(t, err)
	defer f2.Close()

	assert.Equal(t, int64(0), f1.Timestamp)
	assert.Equal(t, int64(1000/DefaultFPS), f2.Timestamp)

	_, err = cam.Read()
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestMockCamera_Loop(t *testing.T) {
	cam := NewBlankCamera()
	cam.SetFPS(50)
	require.NoError(t, cam.Open())
	defer cam.Close()

	var last int64 = -1
	for i := 0; i < 5; i++ {
		f, err := cam.Read()
		require.NoError(t, err, "iteration %d", i)
		assert.Greater(t, f.Timestamp, last)
		last = f.Timestamp
		f.Close()
	}
	assert.Equal(t, int64(80), last)
}

func TestMotionGate(t *testing.T) {
	dark := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer dark.Close()
	lit := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer lit.Close()
	gocv.Rectangle(&lit, image.Rect(20, 20, 140, 100), color.RGBA{255, 255, 255, 0}, -1)

	g := NewMotionGate(1.0, 100)
	defer g.Close()

	at := func(m gocv.Mat, ts int64) *Frame { return &Frame{Mat: m, Timestamp: ts} }

	assert.False(t, g.Open(at(dark, 0), false), "first frame is the baseline")
	assert.False(t, g.Open(at(dark, 33), false), "static scene")
	assert.True(t, g.Open(at(lit, 66), false), "scene changed")
	assert.True(t, g.Open(at(lit, 150), false), "within hold")
	assert.False(t, g.Open(at(lit, 200), false), "hold expired")
	assert.True(t, g.Open(at(lit, 233), true), "tracking keeps it open")
}
