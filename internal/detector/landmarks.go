// Package detector provides hand detection interfaces and types for gesture recognition.
package detector

import (
	"math"

	"github.com/ayusman/mudra/internal/frame"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Point3D) sub(q Point3D) Point3D {
	return Point3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

func (p Point3D) cross(q Point3D) Point3D {
	return Point3D{
		X: p.Y*q.Z - p.Z*q.Y,
		Y: p.Z*q.X - p.X*q.Z,
		Z: p.X*q.Y - p.Y*q.X,
	}
}

func (p Point3D) norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`

	// Gesture is the recognizer's own label, empty when the detector only
	// reports landmarks.
	Gesture      frame.Label `json:"gesture,omitempty"`
	GestureScore float64     `json:"gestureScore,omitempty"`
}

// distance3D calculates the Euclidean distance between two 3D points.
func distance3D(a, b Point3D) float64 {
	return a.sub(b).norm()
}

// Normalize normalizes the hand landmarks relative to wrist position and hand size.
// The normalized landmarks have the wrist at origin (0,0,0) and are scaled
// so that the distance from wrist to middle finger MCP is 1.0.
// Returns a new HandLandmarks instance with normalized points.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	normalized := &HandLandmarks{
		Handedness:   h.Handedness,
		Score:        h.Score,
		Gesture:      h.Gesture,
		GestureScore: h.GestureScore,
	}

	wrist := h.Points[Wrist]
	for i := 0; i < NumLandmarks; i++ {
		normalized.Points[i] = h.Points[i].sub(wrist)
	}

	scale := normalized.Points[MiddleMCP].norm()
	if scale < 1e-10 {
		return normalized
	}

	for i := 0; i < NumLandmarks; i++ {
		normalized.Points[i].X /= scale
		normalized.Points[i].Y /= scale
		normalized.Points[i].Z /= scale
	}

	return normalized
}

// cameraAxis points from the hand toward the camera in MediaPipe's
// coordinate system, where z grows away from the camera.
var cameraAxis = Point3D{Z: -1}

// PalmAngle returns the angle in degrees between the palm normal and the
// camera axis: 0 when the palm faces the camera, 180 when it faces away.
// A degenerate palm yields 90 and a non-finite one 180.
func (h *HandLandmarks) PalmAngle() float64 {
	wrist := h.Points[Wrist]
	normal := h.Points[IndexMCP].sub(wrist).cross(h.Points[PinkyMCP].sub(wrist))

	// The landmark winding flips between hands.
	if h.Handedness == "Left" {
		normal = Point3D{X: -normal.X, Y: -normal.Y, Z: -normal.Z}
	}

	n := normal.norm()
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 180
	}
	if n < 1e-12 {
		return 90
	}

	cos := (normal.X*cameraAxis.X + normal.Y*cameraAxis.Y + normal.Z*cameraAxis.Z) / n
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// Pointer returns the index fingertip, which drives the cursor.
func (h *HandLandmarks) Pointer() frame.Point {
	tip := h.Points[IndexTip]
	return frame.Point{X: tip.X, Y: tip.Y, Z: tip.Z}
}

// HandID returns a stable per-hand key.
func (h *HandLandmarks) HandID() string {
	if h.Handedness == "" {
		return "hand"
	}
	return h.Handedness
}
