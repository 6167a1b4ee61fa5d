package detector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/frame"
)

const epsilon = 1e-9

func TestHandLandmarks_Normalize(t *testing.T) {
	t.Run("wrist at origin and unit scale", func(t *testing.T) {
		hand := HandLandmarks{Handedness: "Right", Score: 0.9, Gesture: frame.LabelVictory}
		hand.Points[Wrist] = Point3D{X: 10, Y: 20, Z: 5}
		hand.Points[MiddleMCP] = Point3D{X: 13, Y: 24, Z: 5}
		for i := 1; i < NumLandmarks; i++ {
			if i != MiddleMCP {
				hand.Points[i] = Point3D{X: 10 + float64(i), Y: 20 + float64(i), Z: 5}
			}
		}

		n := hand.Normalize()
		assert.InDelta(t, 0, n.Points[Wrist].X, epsilon)
		assert.InDelta(t, 0, n.Points[Wrist].Y, epsilon)
		assert.InDelta(t, 1.0, n.Points[MiddleMCP].norm(), epsilon)
		assert.Equal(t, "Right", n.Handedness)
		assert.Equal(t, frame.LabelVictory, n.Gesture)
	})

	t.Run("nil hand returns nil", func(t *testing.T) {
		var h *HandLandmarks
		assert.Nil(t, h.Normalize())
	})

	t.Run("zero scale returns translated only", func(t *testing.T) {
		hand := HandLandmarks{}
		hand.Points[Wrist] = Point3D{X: 1, Y: 1}
		hand.Points[MiddleMCP] = Point3D{X: 1, Y: 1}
		hand.Points[IndexTip] = Point3D{X: 2, Y: 3}

		n := hand.Normalize()
		assert.Equal(t, Point3D{X: 1, Y: 2}, n.Points[IndexTip])
	})
}

func TestPalmAngle(t *testing.T) {
	tests := []struct {
		name string
		hand HandLandmarks
		max  float64
	}{
		{"open palm", OpenPalmLandmarks(), 1},
		{"left open palm", Mirror(OpenPalmLandmarks()), 1},
		{"pointing up", PointingUpLandmarks(), 1},
		{"victory", VictoryLandmarks(), 1},
		{"thumbs up", ThumbsUpLandmarks(), 15},
		{"thumbs down", ThumbsDownLandmarks(), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Less(t, tt.hand.PalmAngle(), tt.max)
		})
	}

	t.Run("back of hand", func(t *testing.T) {
		h := OpenPalmLandmarks()
		h.Handedness = "Left"
		assert.InDelta(t, 180, h.PalmAngle(), 1e-6)
	})

	t.Run("edge on", func(t *testing.T) {
		h := OpenPalmLandmarks()
		h.Points[IndexMCP] = Point3D{X: 0.5, Y: 0.8, Z: -0.1}
		h.Points[PinkyMCP] = Point3D{X: 0.4, Y: 0.8, Z: 0}
		assert.InDelta(t, 90, h.PalmAngle(), 1e-6)
	})

	t.Run("degenerate", func(t *testing.T) {
		var h HandLandmarks
		assert.Equal(t, 90.0, h.PalmAngle())
	})

	t.Run("non finite", func(t *testing.T) {
		h := OpenPalmLandmarks()
		h.Points[IndexMCP].X = math.NaN()
		assert.Equal(t, 180.0, h.PalmAngle())
	})
}

func TestPointerAndHandID(t *testing.T) {
	h := PointingUpLandmarks()
	assert.Equal(t, frame.Point{X: 0.57, Y: 0.35}, h.Pointer())
	assert.Equal(t, "Right", h.HandID())
	assert.Equal(t, "hand", (&HandLandmarks{}).HandID())
}

func TestMirror(t *testing.T) {
	h := ThumbsUpLandmarks()
	m := Mirror(h)
	assert.Equal(t, "Left", m.Handedness)
	assert.InDelta(t, 1-h.Points[ThumbTip].X, m.Points[ThumbTip].X, epsilon)
	assert.Equal(t, "Right", Mirror(m).Handedness)
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		m := NewMockDetector()
		hands, err := m.Detect(nil)
		require.NoError(t, err)
		assert.Empty(t, hands)
	})

	t.Run("returns configured hands", func(t *testing.T) {
		m := NewMockDetector()
		m.SetHands(OpenPalmLandmarks(), Mirror(VictoryLandmarks()))
		hands, err := m.Detect(nil)
		require.NoError(t, err)
		require.Len(t, hands, 2)
		assert.Equal(t, "Left", hands[1].Handedness)
		assert.Equal(t, 1, m.Calls())
	})

	t.Run("returns configured error", func(t *testing.T) {
		m := NewMockDetector()
		boom := errors.New("detection failed")
		m.SetError(boom)
		_, err := m.Detect(nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var d Detector = NewMockDetector()
		assert.NoError(t, d.Close())
	})
}

func TestWireProtocol(t *testing.T) {
	t.Run("frame is length prefixed", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeFrame(&buf, []byte("jpeg")))
		assert.Equal(t, uint32(4), binary.BigEndian.Uint32(buf.Bytes()[:4]))
		assert.Equal(t, "jpeg", buf.String()[4:])
	})

	t.Run("response with gesture", func(t *testing.T) {
		line := `{"hands":[{"points":[{"x":0.5,"y":0.8,"z":0}],"handedness":"Left","score":0.9,"gesture":"Thumb_Down","gestureScore":0.77}]}` + "\n"
		hands, err := readHands(bufio.NewReader(strings.NewReader(line)))
		require.NoError(t, err)
		require.Len(t, hands, 1)
		assert.Equal(t, "Left", hands[0].Handedness)
		assert.Equal(t, frame.LabelThumbDown, hands[0].Gesture)
		assert.Equal(t, 0.77, hands[0].GestureScore)
		assert.Equal(t, Point3D{X: 0.5, Y: 0.8}, hands[0].Points[Wrist])
	})

	t.Run("unknown gesture is dropped", func(t *testing.T) {
		line := `{"hands":[{"points":[],"handedness":"Right","score":0.9,"gesture":"Wave","gestureScore":0.9}]}` + "\n"
		hands, err := readHands(bufio.NewReader(strings.NewReader(line)))
		require.NoError(t, err)
		assert.Empty(t, hands[0].Gesture)
	})

	t.Run("service error", func(t *testing.T) {
		line := `{"hands":[],"error":"bad image"}` + "\n"
		_, err := readHands(bufio.NewReader(strings.NewReader(line)))
		assert.ErrorContains(t, err, "bad image")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := readHands(bufio.NewReader(strings.NewReader("nope\n")))
		assert.Error(t, err)
	})
}

func TestNewMediaPipeDetectorMissingScript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScriptPath = "/nonexistent/gesture_service.py"
	_, err := NewMediaPipeDetector(cfg)
	assert.ErrorIs(t, err, ErrScriptNotFound)
}
