package filter

import (
	"math"

	"github.com/ayusman/mudra/internal/frame"
)

// OneEuroSmoother applies an independent 1€ filter to each axis of the
// hand position.
type OneEuroSmoother struct {
	x *OneEuro
	y *OneEuro
}

// NewOneEuroSmoother creates a 2D 1€ smoother.
func NewOneEuroSmoother(cfg OneEuroConfig) (*OneEuroSmoother, error) {
	x, err := NewOneEuro(cfg)
	if err != nil {
		return nil, err
	}
	y := &OneEuro{cfg: cfg}
	return &OneEuroSmoother{x: x, y: y}, nil
}

// Smooth filters the frame position. On a duplicate or backwards timestamp
// the returned position and velocity are NaN; callers substitute the last
// good position.
func (s *OneEuroSmoother) Smooth(f frame.SensorFrame) frame.SmoothedFrame {
	out := frame.Smoothed(f)
	if !f.Tracked() {
		s.Reset()
		return out
	}

	ts := seconds(f.Timestamp)
	px, vx := s.x.Filter(f.Position.X, ts)
	py, vy := s.y.Filter(f.Position.Y, ts)

	pos := frame.Vec2{X: px, Y: py}
	if math.IsNaN(px) || math.IsNaN(py) {
		out.Position = &frame.Vec2{X: math.NaN(), Y: math.NaN()}
		out.Velocity = &frame.Vec2{X: math.NaN(), Y: math.NaN()}
		return out
	}

	pos = pos.Clamp01()
	out.Position = &pos
	out.Velocity = &frame.Vec2{X: vx, Y: vy}
	return out
}

// SetParams retunes both axes at runtime.
func (s *OneEuroSmoother) SetParams(minCutoff, beta float64) error {
	if err := s.x.SetParams(minCutoff, beta); err != nil {
		return err
	}
	return s.y.SetParams(minCutoff, beta)
}

// Reset clears both axes.
func (s *OneEuroSmoother) Reset() {
	s.x.Reset()
	s.y.Reset()
}

// Kind returns KindOneEuro.
func (s *OneEuroSmoother) Kind() Kind { return KindOneEuro }

func (s *OneEuroSmoother) sealed() {}
