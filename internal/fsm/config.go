package fsm

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/frame"
)

// ErrInvalidConfig is returned for an inconsistent machine configuration.
var ErrInvalidConfig = errors.New("invalid fsm config")

// Command binds a gesture label to a committed state.
type Command struct {
	State State `json:"state"`
	// Button is the DOM button index pressed in a down state.
	Button int `json:"button"`
	// DeltaY is the wheel delta emitted per frame in ZOOM.
	DeltaY float64 `json:"deltaY,omitempty"`
}

// Config holds the gesture vocabulary and timing windows.
type Config struct {
	// ReadyLabel is the baseline gesture that arms the machine.
	ReadyLabel frame.Label `json:"readyLabel"`
	// MinConfidence is the inclusive label confidence threshold.
	MinConfidence float64 `json:"minConfidence"`
	// ArmStableMs is how long the ready gesture must be held to arm.
	ArmStableMs int64 `json:"armStableMs"`
	// CmdWindowMs is how long after arming a command is accepted.
	CmdWindowMs int64 `json:"cmdWindowMs"`
	// NoneGraceMs tolerates recognizer dropouts while arming.
	NoneGraceMs int64 `json:"noneGraceMs"`
	// DisarmGraceMs is how long the palm may face away before disarming.
	// Zero disarms on the first frame.
	DisarmGraceMs int64                   `json:"disarmGraceMs"`
	Commands      map[frame.Label]Command `json:"commands"`
}

// DefaultConfig returns the stock bindings: point up to click, victory to
// navigate with the middle button, thumbs up and down to zoom.
func DefaultConfig() Config {
	return Config{
		ReadyLabel:    frame.LabelOpenPalm,
		MinConfidence: 0.7,
		ArmStableMs:   200,
		CmdWindowMs:   500,
		NoneGraceMs:   100,
		DisarmGraceMs: 0,
		Commands: map[frame.Label]Command{
			frame.LabelPointingUp: {State: DownCommit, Button: 0},
			frame.LabelVictory:    {State: DownNav, Button: 1},
			frame.LabelThumbUp:    {State: Zoom, DeltaY: -100},
			frame.LabelThumbDown:  {State: Zoom, DeltaY: 100},
		},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.ReadyLabel.Valid() || c.ReadyLabel == frame.LabelNone {
		return fmt.Errorf("%w: ready label %q", ErrInvalidConfig, c.ReadyLabel)
	}
	if !(c.MinConfidence >= 0 && c.MinConfidence <= 1) {
		return fmt.Errorf("%w: minConfidence must be in [0,1], got %v", ErrInvalidConfig, c.MinConfidence)
	}
	if c.ArmStableMs < 0 || c.CmdWindowMs < 0 || c.NoneGraceMs < 0 || c.DisarmGraceMs < 0 {
		return fmt.Errorf("%w: durations must be >= 0", ErrInvalidConfig)
	}
	if len(c.Commands) == 0 {
		return fmt.Errorf("%w: no commands bound", ErrInvalidConfig)
	}
	for label, cmd := range c.Commands {
		switch {
		case !label.Valid() || label == frame.LabelNone:
			return fmt.Errorf("%w: command label %q", ErrInvalidConfig, label)
		case label == c.ReadyLabel:
			return fmt.Errorf("%w: ready label %q cannot also be a command", ErrInvalidConfig, label)
		case !cmd.State.Committed():
			return fmt.Errorf("%w: command %q targets state %q", ErrInvalidConfig, label, cmd.State)
		case cmd.Button < 0 || cmd.Button > 4:
			return fmt.Errorf("%w: command %q button %d out of range", ErrInvalidConfig, label, cmd.Button)
		case cmd.State == Zoom && cmd.DeltaY == 0:
			return fmt.Errorf("%w: zoom command %q needs a non-zero deltaY", ErrInvalidConfig, label)
		}
	}
	return nil
}

func (c Config) ready(f frame.SmoothedFrame) bool {
	return f.Label == c.ReadyLabel && f.Confidence >= c.MinConfidence
}

// transient reports a frame the recognizer likely misread mid-pose.
func (c Config) transient(f frame.SmoothedFrame) bool {
	return f.Label == frame.LabelNone || (f.Label == c.ReadyLabel && f.Confidence < c.MinConfidence)
}

func (c Config) command(f frame.SmoothedFrame) (Command, bool) {
	cmd, ok := c.Commands[f.Label]
	if !ok || f.Confidence < c.MinConfidence {
		return Command{}, false
	}
	return cmd, true
}
