// Package pointer maps state machine actions onto W3C pointer and wheel
// events in a target's screen space.
package pointer

// EventType is a DOM event type.
type EventType string

// Event types.
const (
	PointerMove   EventType = "pointermove"
	PointerDown   EventType = "pointerdown"
	PointerUp     EventType = "pointerup"
	PointerCancel EventType = "pointercancel"
	Wheel         EventType = "wheel"
)

// Type is a W3C pointerType.
type Type string

// Pointer types.
const (
	TypeMouse Type = "mouse"
	TypePen   Type = "pen"
	TypeTouch Type = "touch"
)

// Event is a pointer or wheel event ready to be dispatched.
type Event struct {
	Type        EventType `json:"type"`
	ClientX     float64   `json:"clientX"`
	ClientY     float64   `json:"clientY"`
	PointerID   int       `json:"pointerId,omitempty"`
	PointerType Type      `json:"pointerType,omitempty"`
	Pressure    float64   `json:"pressure"`
	Button      int       `json:"button"`
	Buttons     int       `json:"buttons"`
	IsPrimary   bool      `json:"isPrimary"`
	DeltaY      float64   `json:"deltaY,omitempty"`
	DeltaMode   int       `json:"deltaMode"`
	CtrlKey     bool      `json:"ctrlKey,omitempty"`
}

// Bounds is the target's rectangle in client coordinates.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the middle of the rectangle.
func (b Bounds) Center() (float64, float64) {
	return b.Left + b.Width/2, b.Top + b.Height/2
}

// Target receives projected events.
type Target interface {
	// Bounds returns the rectangle normalized coordinates map onto.
	Bounds() Bounds
	// Dispatch delivers one event.
	Dispatch(ev Event) error
}

// ButtonsMask returns the W3C buttons bitmask for a button index.
// Index 1 is the middle button and 2 the secondary, which swap places in
// the mask.
func ButtonsMask(button int) int {
	switch button {
	case 0:
		return 1
	case 1:
		return 4
	case 2:
		return 2
	case 3:
		return 8
	case 4:
		return 16
	default:
		return 0
	}
}
