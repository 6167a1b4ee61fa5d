// Package fsm implements the gesture state machine that decides when a hand
// pose becomes a pointer press, drag, release or scroll.
//
// A hand must show the ready gesture, palm toward the camera, for a stable
// period before any command is accepted, and commands are only accepted
// within a window after arming. This is what keeps casual hand movement
// from clicking things.
package fsm

import "github.com/ayusman/mudra/internal/frame"

// State is a gesture state.
type State string

// States.
const (
	Disarmed   State = "DISARMED"
	Arming     State = "ARMING"
	Armed      State = "ARMED"
	DownCommit State = "DOWN_COMMIT"
	DownNav    State = "DOWN_NAV"
	Zoom       State = "ZOOM"
)

// Down reports whether a pointer button is held in s.
func (s State) Down() bool {
	return s == DownCommit || s == DownNav
}

// Committed reports whether s is entered through a command gesture.
func (s State) Committed() bool {
	return s.Down() || s == Zoom
}

// ActionKind is the pointer action the machine asks for on a frame.
type ActionKind string

// Action kinds.
const (
	ActionNone   ActionKind = "none"
	ActionMove   ActionKind = "move"
	ActionDown   ActionKind = "down"
	ActionUp     ActionKind = "up"
	ActionCancel ActionKind = "cancel"
	ActionWheel  ActionKind = "wheel"
)

// Action is the result of one transition. Kind decides which fields carry
// meaning: X and Y for move, down and up; Button for down, up, cancel and
// moves while a button is held; DeltaY and CtrlKey for wheel.
type Action struct {
	Kind    ActionKind `json:"kind"`
	State   State      `json:"state"`
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
	Button  int        `json:"button"`
	DeltaY  float64    `json:"deltaY,omitempty"`
	CtrlKey bool       `json:"ctrlKey,omitempty"`
}

// Context is the full per-hand machine state. It is a plain value so a
// transition can be computed without side effects.
type Context struct {
	State State `json:"state"`
	// ArmedSinceTs is when the current arming attempt or command window
	// began.
	ArmedSinceTs  int64 `json:"armedSinceTs"`
	LastCommandTs int64 `json:"lastCommandTs"`
	// ArmedFromBaseline is true when the hand has shown the ready gesture
	// since the last command ended. A command only commits while it is set.
	ArmedFromBaseline bool  `json:"armedFromBaseline"`
	LastReadyTs       int64 `json:"lastReadyTs"`
	NotFacing         bool  `json:"notFacing"`
	NotFacingSinceTs  int64 `json:"notFacingSinceTs"`
	// Command is the label that entered the current committed state.
	Command      frame.Label `json:"command,omitempty"`
	Button       int         `json:"button"`
	LastPosition frame.Vec2  `json:"lastPosition"`
}

// NewContext returns a disarmed context with the cursor centered.
func NewContext() Context {
	return Context{
		State:        Disarmed,
		LastPosition: frame.Vec2{X: 0.5, Y: 0.5},
	}
}

func (c Context) action(kind ActionKind) Action {
	return Action{
		Kind:   kind,
		State:  c.State,
		X:      c.LastPosition.X,
		Y:      c.LastPosition.Y,
		Button: c.Button,
	}
}
