// Package filter implements the position smoothers and predictors that sit
// between the hand tracker and the gesture state machine: the 1€ adaptive
// low-pass filter, LaViola's double exponential smoothing predictor and a
// damped spring model.
package filter

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/frame"
)

// ErrInvalidConfig is returned when a smoother is constructed with
// parameters outside their valid range.
var ErrInvalidConfig = errors.New("invalid filter config")

// Kind identifies a smoother implementation.
type Kind string

// Smoother kinds.
const (
	KindOneEuro Kind = "one_euro"
	KindPhysics Kind = "physics"
	KindDESP    Kind = "desp"
)

// ParseKind converts a name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindOneEuro, KindPhysics, KindDESP:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown smoother kind %q", ErrInvalidConfig, s)
	}
}

// Smoother turns raw sensor frames into smoothed frames. The set of
// implementations is closed: OneEuroSmoother, Physics and DESP.
type Smoother interface {
	// Smooth consumes one frame and returns its smoothed form. Frames
	// without tracking reset the smoother and carry no position.
	Smooth(f frame.SensorFrame) frame.SmoothedFrame
	// Reset clears all history.
	Reset()
	// Kind reports which implementation this is.
	Kind() Kind

	sealed()
}

// Predictor adds a look-ahead prediction to an already smoothed frame.
type Predictor interface {
	Predict(f frame.SmoothedFrame) frame.SmoothedFrame
	Reset()
}

// Config selects and tunes a smoother. Only the section matching Kind is
// used.
type Config struct {
	Kind    Kind          `json:"kind"`
	OneEuro OneEuroConfig `json:"oneEuro"`
	DESP    DESPConfig    `json:"desp"`
	Physics PhysicsConfig `json:"physics"`
}

// DefaultConfig returns a 1€ smoother configuration with defaults for
// every kind filled in.
func DefaultConfig() Config {
	return Config{
		Kind:    KindOneEuro,
		OneEuro: DefaultOneEuroConfig(),
		DESP:    DefaultDESPConfig(),
		Physics: DefaultPhysicsConfig(),
	}
}

// Validate checks the section selected by Kind.
func (c Config) Validate() error {
	switch c.Kind {
	case KindOneEuro:
		return c.OneEuro.Validate()
	case KindDESP:
		return c.DESP.Validate()
	case KindPhysics:
		return c.Physics.Validate()
	default:
		return fmt.Errorf("%w: unknown smoother kind %q", ErrInvalidConfig, c.Kind)
	}
}

// New builds the smoother selected by cfg.Kind.
func New(cfg Config) (Smoother, error) {
	switch cfg.Kind {
	case KindOneEuro:
		s, err := NewOneEuroSmoother(cfg.OneEuro)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindDESP:
		s, err := NewDESP(cfg.DESP)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindPhysics:
		s, err := NewPhysics(cfg.Physics)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unknown smoother kind %q", ErrInvalidConfig, cfg.Kind)
	}
}

// seconds converts a millisecond timestamp to seconds.
func seconds(ms int64) float64 {
	return float64(ms) / 1000
}
