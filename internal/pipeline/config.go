// Package pipeline wires the smoother, palm gate, gesture state machine
// and pointer projector into a per-frame orchestrator.
package pipeline

import (
	"fmt"

	"github.com/ayusman/mudra/internal/filter"
	"github.com/ayusman/mudra/internal/fsm"
	"github.com/ayusman/mudra/internal/orientation"
	"github.com/ayusman/mudra/internal/pointer"
)

// Config is the complete tuning of one orchestrator.
type Config struct {
	Smoother filter.Config `json:"smoother"`
	// Predictor adds a DESP look-ahead stage after the smoother when set.
	Predictor   *filter.DESPConfig `json:"predictor,omitempty"`
	Orientation orientation.Config `json:"orientation"`
	FSM         fsm.Config         `json:"fsm"`
	PointerID   int                `json:"pointerId"`
	PointerType pointer.Type       `json:"pointerType"`
}

// DefaultConfig returns a 1€ smoother, no predictor, a 25°/35° palm gate
// and the default gesture bindings.
func DefaultConfig() Config {
	return Config{
		Smoother:    filter.DefaultConfig(),
		Orientation: orientation.DefaultConfig(),
		FSM:         fsm.DefaultConfig(),
		PointerID:   1,
		PointerType: pointer.TypeTouch,
	}
}

// Validate checks every stage.
func (c Config) Validate() error {
	if err := c.Smoother.Validate(); err != nil {
		return fmt.Errorf("smoother: %w", err)
	}
	if c.Predictor != nil {
		if err := c.Predictor.Validate(); err != nil {
			return fmt.Errorf("predictor: %w", err)
		}
	}
	if err := c.Orientation.Validate(); err != nil {
		return fmt.Errorf("orientation: %w", err)
	}
	if err := c.FSM.Validate(); err != nil {
		return fmt.Errorf("fsm: %w", err)
	}
	if c.PointerID < 1 {
		return fmt.Errorf("pointer id must be >= 1, got %d", c.PointerID)
	}
	switch c.PointerType {
	case pointer.TypeMouse, pointer.TypePen, pointer.TypeTouch:
	default:
		return fmt.Errorf("unknown pointer type %q", c.PointerType)
	}
	return nil
}
