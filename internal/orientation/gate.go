// Package orientation debounces the palm-facing signal with a Schmitt
// trigger so the gesture state machine does not flicker at the boundary.
package orientation

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned for thresholds that would not give
// hysteresis.
var ErrInvalidConfig = errors.New("invalid orientation config")

// Config holds the two gate thresholds in degrees between the palm normal
// and the camera axis.
type Config struct {
	// EnterDeg is the angle the palm must drop below to count as facing.
	EnterDeg float64 `json:"enterDeg"`
	// ExitDeg is the angle the palm must rise above to stop facing.
	ExitDeg float64 `json:"exitDeg"`
}

// DefaultConfig returns a 25°/35° palm cone.
func DefaultConfig() Config {
	return Config{EnterDeg: 25, ExitDeg: 35}
}

// Validate checks that 0 <= enter < exit <= 180.
func (c Config) Validate() error {
	if !(c.EnterDeg >= 0 && c.ExitDeg <= 180) {
		return fmt.Errorf("%w: thresholds must be within [0,180], got enter=%v exit=%v", ErrInvalidConfig, c.EnterDeg, c.ExitDeg)
	}
	if !(c.EnterDeg < c.ExitDeg) {
		return fmt.Errorf("%w: enter threshold %v must be below exit threshold %v", ErrInvalidConfig, c.EnterDeg, c.ExitDeg)
	}
	return nil
}

// Gate is a two-threshold hysteresis gate over the palm angle.
type Gate struct {
	cfg    Config
	facing bool
	angle  float64
}

// NewGate creates a gate in the not-facing state.
func NewGate(cfg Config) (*Gate, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Gate{cfg: cfg, angle: math.NaN()}, nil
}

// Update feeds one angle reading and returns the debounced facing state.
// NaN readings leave the state unchanged.
func (g *Gate) Update(angle float64) bool {
	g.angle = angle
	if g.facing {
		if angle > g.cfg.ExitDeg {
			g.facing = false
		}
	} else if angle < g.cfg.EnterDeg {
		g.facing = true
	}
	return g.facing
}

// Facing returns the current debounced state.
func (g *Gate) Facing() bool {
	return g.facing
}

// Angle returns the last reading, NaN before the first one.
func (g *Gate) Angle() float64 {
	return g.angle
}

// Config returns the thresholds.
func (g *Gate) Config() Config {
	return g.cfg
}

// Reset returns the gate to not facing.
func (g *Gate) Reset() {
	g.facing = false
	g.angle = math.NaN()
}
