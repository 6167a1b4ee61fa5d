package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/fsm"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/pointer"
)

var screen = pointer.Bounds{Width: 1000, Height: 1000}

type harness struct {
	app      *App
	det      *detector.MockDetector
	target   *pointer.Recorder
	mat      gocv.Mat
	ts       int64
	interval int64
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		det:      detector.NewMockDetector(),
		target:   pointer.NewRecorder(screen),
		mat:      gocv.NewMatWithSize(60, 80, gocv.MatTypeCV8UC3),
		interval: 33,
	}
	t.Cleanup(func() { h.mat.Close() })

	a, err := New(cfg, h.target,
		WithDetector(h.det),
		WithCamera(capture.NewBlankCamera()),
		WithLogger(log.Nop()),
	)
	require.NoError(t, err)
	h.app = a
	return h
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MotionThresh = -1
	return cfg
}

// step feeds n frames showing hands.
func (h *harness) step(t *testing.T, n int, hands ...detector.HandLandmarks) []fsm.Action {
	t.Helper()
	h.det.SetHands(hands...)
	var out []fsm.Action
	for i := 0; i < n; i++ {
		actions, _, err := h.app.Step(&capture.Frame{Mat: h.mat, Timestamp: h.ts})
		require.NoError(t, err)
		out = append(out, actions...)
		h.ts += h.interval
	}
	return out
}

func TestNew_Errors(t *testing.T) {
	_, err := New(testConfig(), nil)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.Pipeline.Orientation.EnterDeg = 50
	_, err = New(cfg, pointer.NewRecorder(screen), WithDetector(detector.NewMockDetector()))
	assert.Error(t, err)
}

func TestApp_ArmClickRelease(t *testing.T) {
	h := newHarness(t, testConfig())

	h.step(t, 8, detector.OpenPalmLandmarks())
	assert.Equal(t, fsm.Armed, h.app.States()["Right"])
	require.NotEmpty(t, h.target.Events())
	assert.Equal(t, pointer.PointerMove, h.target.Types()[0])

	h.step(t, 2, detector.PointingUpLandmarks())
	assert.Equal(t, fsm.DownCommit, h.app.States()["Right"])

	h.step(t, 1, detector.OpenPalmLandmarks())
	assert.Equal(t, fsm.Armed, h.app.States()["Right"])

	types := h.target.Types()
	assert.Contains(t, types, pointer.PointerDown)
	assert.Equal(t, pointer.PointerUp, types[len(types)-1])
}

func TestApp_MirrorsX(t *testing.T) {
	for _, mirror := range []bool{false, true} {
		cfg := testConfig()
		cfg.Mirror = mirror
		h := newHarness(t, cfg)
		h.step(t, 8, detector.OpenPalmLandmarks())

		evs := h.target.Events()
		require.NotEmpty(t, evs)
		tip := detector.OpenPalmLandmarks()
		want := tip.Pointer().X
		if mirror {
			want = 1 - want
		}
		assert.InDelta(t, want*screen.Width, evs[len(evs)-1].ClientX, 1, "mirror=%v", mirror)
	}
}

func TestApp_HandLeavesCancels(t *testing.T) {
	h := newHarness(t, testConfig())

	h.step(t, 8, detector.OpenPalmLandmarks())
	h.step(t, 2, detector.PointingUpLandmarks())
	require.Equal(t, fsm.DownCommit, h.app.States()["Right"])

	h.step(t, 1)
	assert.Equal(t, fsm.Disarmed, h.app.States()["Right"])
	types := h.target.Types()
	assert.Equal(t, pointer.PointerCancel, types[len(types)-1])
}

func TestApp_TwoHands(t *testing.T) {
	h := newHarness(t, testConfig())

	right := detector.OpenPalmLandmarks()
	left := detector.Mirror(detector.OpenPalmLandmarks())
	h.step(t, 8, right, left)

	states := h.app.States()
	assert.Len(t, states, 2)
	assert.Equal(t, fsm.Armed, states["Right"])
	assert.Equal(t, fsm.Armed, states["Left"])

	ids := map[int]bool{}
	for _, ev := range h.target.Events() {
		ids[ev.PointerID] = true
	}
	assert.Len(t, ids, 2, "each hand drives its own pointer")
}

func TestApp_DisableResets(t *testing.T) {
	h := newHarness(t, testConfig())
	h.app.SetEnabled(true)

	h.step(t, 8, detector.OpenPalmLandmarks())
	h.step(t, 2, detector.PointingUpLandmarks())
	require.Equal(t, fsm.DownCommit, h.app.States()["Right"])

	h.app.SetEnabled(false)
	assert.False(t, h.app.Enabled())
	assert.Equal(t, fsm.Disarmed, h.app.States()["Right"])
	types := h.target.Types()
	assert.Equal(t, pointer.PointerCancel, types[len(types)-1])
}

func TestApp_MotionGateSkipsStaticScene(t *testing.T) {
	cfg := testConfig()
	cfg.MotionThresh = 0
	h := newHarness(t, cfg)

	for i := 0; i < 5; i++ {
		_, detected, err := h.app.Step(&capture.Frame{Mat: h.mat, Timestamp: int64(i) * 33})
		require.NoError(t, err)
		assert.False(t, detected)
	}
	assert.Zero(t, h.det.Calls())
}

func TestApp_DetectorError(t *testing.T) {
	h := newHarness(t, testConfig())
	h.det.SetError(assert.AnError)

	_, detected, err := h.app.Step(&capture.Frame{Mat: h.mat})
	assert.True(t, detected)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestApp_Configure(t *testing.T) {
	h := newHarness(t, testConfig())
	h.step(t, 8, detector.OpenPalmLandmarks())

	cfg := pipeline.DefaultConfig()
	cfg.Smoother.Kind = "physics"
	require.NoError(t, h.app.Configure(cfg))
	assert.Equal(t, fsm.Armed, h.app.States()["Right"], "hot swap keeps state")

	cfg.PointerID = 0
	assert.Error(t, h.app.Configure(cfg))
}

func TestApp_StartStop(t *testing.T) {
	h := newHarness(t, testConfig())
	h.det.SetHands(detector.OpenPalmLandmarks())

	var results int
	unsubscribe := h.app.Subscribe(func(pipeline.Result) { results++ })
	defer unsubscribe()

	require.NoError(t, h.app.Start())
	require.NoError(t, h.app.Start(), "second start is a no-op")
	assert.True(t, h.app.Camera().IsOpen())

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, h.det.Calls(), "disabled loop does not detect")

	h.app.SetEnabled(true)
	require.Eventually(t, func() bool {
		return h.app.States()["Right"] == fsm.Armed
	}, 3*time.Second, 10*time.Millisecond)

	h.app.Stop()
	assert.False(t, h.app.Camera().IsOpen())
	assert.Positive(t, results)
}
