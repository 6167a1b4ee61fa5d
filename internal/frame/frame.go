// Package frame defines the per-frame data that flows through the gesture
// pipeline: raw sensor observations and their smoothed counterparts.
package frame

import "math"

// Label is a gesture label from the recognizer's closed vocabulary.
type Label string

// Gesture labels.
const (
	LabelNone       Label = "None"
	LabelOpenPalm   Label = "Open_Palm"
	LabelClosedFist Label = "Closed_Fist"
	LabelPointingUp Label = "Pointing_Up"
	LabelThumbUp    Label = "Thumb_Up"
	LabelThumbDown  Label = "Thumb_Down"
	LabelVictory    Label = "Victory"
	LabelILoveYou   Label = "ILoveYou"
)

// Labels returns the full vocabulary in a stable order.
func Labels() []Label {
	return []Label{
		LabelNone,
		LabelOpenPalm,
		LabelClosedFist,
		LabelPointingUp,
		LabelThumbUp,
		LabelThumbDown,
		LabelVictory,
		LabelILoveYou,
	}
}

// Valid reports whether l belongs to the vocabulary.
func (l Label) Valid() bool {
	for _, v := range Labels() {
		if l == v {
			return true
		}
	}
	return false
}

// Point is a normalized position in camera space. X and Y are in [0,1].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec2 is a 2D quantity: a position, velocity or prediction.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both components are finite numbers.
func (v Vec2) Finite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Clamp01 limits both components to [0,1].
func (v Vec2) Clamp01() Vec2 {
	return Vec2{X: clamp01(v.X), Y: clamp01(v.Y)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SensorFrame is one raw observation for one hand.
type SensorFrame struct {
	// Timestamp is a monotonic clock reading in milliseconds.
	Timestamp  int64  `json:"ts"`
	HandID     string `json:"handId,omitempty"`
	TrackingOK bool   `json:"trackingOk"`
	PalmFacing bool   `json:"palmFacing"`
	// PalmAngle is the palm normal's angle to the camera axis in degrees,
	// nil when the sensor did not measure it.
	PalmAngle  *float64 `json:"palmAngle,omitempty"`
	Label      Label    `json:"label"`
	Confidence float64  `json:"confidence"`
	Position   *Point   `json:"position,omitempty"`
}

// Tracked reports whether the frame carries a usable hand position.
func (f SensorFrame) Tracked() bool {
	return f.TrackingOK && f.Position != nil
}

// Angle returns a pointer to deg, for filling SensorFrame.PalmAngle.
func Angle(deg float64) *float64 {
	return &deg
}

// SmoothedFrame is a SensorFrame after smoothing and optional prediction.
// Position is nil exactly when the hand was not tracked.
type SmoothedFrame struct {
	Timestamp  int64    `json:"ts"`
	HandID     string   `json:"handId,omitempty"`
	TrackingOK bool     `json:"trackingOk"`
	PalmFacing bool     `json:"palmFacing"`
	PalmAngle  *float64 `json:"palmAngle,omitempty"`
	Label      Label    `json:"label"`
	Confidence float64  `json:"confidence"`
	Position   *Vec2    `json:"position,omitempty"`
	Velocity   *Vec2    `json:"velocity,omitempty"`
	Prediction *Vec2    `json:"prediction,omitempty"`
}

// Smoothed copies the metadata of f into a SmoothedFrame with no
// position, velocity or prediction.
func Smoothed(f SensorFrame) SmoothedFrame {
	return SmoothedFrame{
		Timestamp:  f.Timestamp,
		HandID:     f.HandID,
		TrackingOK: f.TrackingOK,
		PalmFacing: f.PalmFacing,
		PalmAngle:  f.PalmAngle,
		Label:      f.Label,
		Confidence: f.Confidence,
	}
}

// Tracked reports whether the frame carries a position.
func (f SmoothedFrame) Tracked() bool {
	return f.TrackingOK && f.Position != nil
}

// Valid reports whether the frame carries a finite position.
func (f SmoothedFrame) Valid() bool {
	return f.Tracked() && f.Position.Finite()
}

// Vec returns a pointer to a new Vec2.
func Vec(x, y float64) *Vec2 {
	return &Vec2{X: x, Y: y}
}
