package filter

import (
	"fmt"
	"math"

	"github.com/ayusman/mudra/internal/frame"
)

// PhysicsMode selects how the spring smoother behaves.
type PhysicsMode string

// Physics modes.
const (
	// ModeSmoothed uses a fixed stiffness.
	ModeSmoothed PhysicsMode = "smoothed"
	// ModePredictive uses a fixed stiffness and extrapolates the position
	// along the velocity.
	ModePredictive PhysicsMode = "predictive"
	// ModeAdaptive stiffens the spring as the cursor speeds up.
	ModeAdaptive PhysicsMode = "adaptive"
)

// PhysicsConfig tunes the spring-damper smoother.
type PhysicsConfig struct {
	Mode PhysicsMode `json:"mode"`
	// Stiffness is the spring constant k.
	Stiffness float64 `json:"stiffness"`
	// Damping is the damping ratio. 1 is critically damped.
	Damping float64 `json:"damping"`
	Mass    float64 `json:"mass"`
	// Substeps is the number of integration steps per frame.
	Substeps int `json:"substeps"`
	// VelocityDeadZone is the speed below which the simulated velocity is
	// zeroed after each step.
	VelocityDeadZone float64 `json:"velocityDeadZone"`
	// LookaheadMs is the prediction horizon in predictive mode.
	LookaheadMs float64 `json:"lookaheadMs"`
	// MinStiffness, MaxStiffness and SpeedCoefficient drive adaptive mode.
	MinStiffness     float64 `json:"minStiffness"`
	MaxStiffness     float64 `json:"maxStiffness"`
	SpeedCoefficient float64 `json:"speedCoefficient"`
	// MaxStepMs caps the simulated time per frame.
	MaxStepMs float64 `json:"maxStepMs"`
}

// DefaultPhysicsConfig returns a critically damped spring.
func DefaultPhysicsConfig() PhysicsConfig {
	return PhysicsConfig{
		Mode:             ModeSmoothed,
		Stiffness:        200,
		Damping:          1.0,
		Mass:             1.0,
		Substeps:         4,
		VelocityDeadZone: 0.1,
		LookaheadMs:      50,
		MinStiffness:     50,
		MaxStiffness:     400,
		SpeedCoefficient: 300,
		MaxStepMs:        100,
	}
}

// Validate checks the configuration.
func (c PhysicsConfig) Validate() error {
	switch c.Mode {
	case ModeSmoothed, ModePredictive, ModeAdaptive:
	default:
		return fmt.Errorf("%w: unknown physics mode %q", ErrInvalidConfig, c.Mode)
	}
	switch {
	case !(c.Mass > 0):
		return fmt.Errorf("%w: physics mass must be > 0, got %v", ErrInvalidConfig, c.Mass)
	case c.Mode != ModeAdaptive && !(c.Stiffness > 0):
		return fmt.Errorf("%w: physics stiffness must be > 0, got %v", ErrInvalidConfig, c.Stiffness)
	case !(c.Damping >= 0):
		return fmt.Errorf("%w: physics damping must be >= 0, got %v", ErrInvalidConfig, c.Damping)
	case c.Substeps < 1:
		return fmt.Errorf("%w: physics substeps must be >= 1, got %d", ErrInvalidConfig, c.Substeps)
	case !(c.VelocityDeadZone >= 0):
		return fmt.Errorf("%w: physics velocityDeadZone must be >= 0, got %v", ErrInvalidConfig, c.VelocityDeadZone)
	case !(c.LookaheadMs >= 0):
		return fmt.Errorf("%w: physics lookaheadMs must be >= 0, got %v", ErrInvalidConfig, c.LookaheadMs)
	case !(c.MaxStepMs > 0):
		return fmt.Errorf("%w: physics maxStepMs must be > 0, got %v", ErrInvalidConfig, c.MaxStepMs)
	}
	if c.Mode == ModeAdaptive {
		switch {
		case !(c.MinStiffness > 0):
			return fmt.Errorf("%w: physics minStiffness must be > 0, got %v", ErrInvalidConfig, c.MinStiffness)
		case !(c.MaxStiffness >= c.MinStiffness):
			return fmt.Errorf("%w: physics maxStiffness %v below minStiffness %v", ErrInvalidConfig, c.MaxStiffness, c.MinStiffness)
		case !(c.SpeedCoefficient >= 0):
			return fmt.Errorf("%w: physics speedCoefficient must be >= 0, got %v", ErrInvalidConfig, c.SpeedCoefficient)
		}
	}
	return nil
}

// Physics models the cursor as a mass pulled toward the raw position by a
// damped spring. The spring absorbs jitter while the damping keeps it from
// overshooting.
type Physics struct {
	cfg         PhysicsConfig
	pos         frame.Vec2
	vel         frame.Vec2
	lastTs      int64
	initialized bool
}

// NewPhysics creates a spring smoother. It returns an error if cfg is
// invalid.
func NewPhysics(cfg PhysicsConfig) (*Physics, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Physics{cfg: cfg}, nil
}

// Smooth advances the simulation to the frame timestamp with the frame
// position as the spring anchor.
func (p *Physics) Smooth(f frame.SensorFrame) frame.SmoothedFrame {
	out := frame.Smoothed(f)
	if !f.Tracked() {
		p.Reset()
		return out
	}

	target := frame.Vec2{X: f.Position.X, Y: f.Position.Y}
	if !p.initialized {
		p.seed(target, f.Timestamp)
		return p.output(out)
	}

	dtMs := f.Timestamp - p.lastTs
	if dtMs <= 0 {
		return p.output(out)
	}
	p.lastTs = f.Timestamp

	p.integrate(target, math.Min(float64(dtMs), p.cfg.MaxStepMs)/1000)
	if !p.pos.Finite() || !p.vel.Finite() {
		p.seed(target, f.Timestamp)
		pos := target.Clamp01()
		out.Position = &pos
		out.Velocity = &frame.Vec2{}
		return out
	}
	if math.Hypot(p.vel.X, p.vel.Y) < p.cfg.VelocityDeadZone {
		p.vel = frame.Vec2{}
	}
	return p.output(out)
}

func (p *Physics) seed(target frame.Vec2, ts int64) {
	p.pos = target
	p.vel = frame.Vec2{}
	p.lastTs = ts
	p.initialized = true
}

// integrate runs semi-implicit Euler: velocity first, then position.
func (p *Physics) integrate(target frame.Vec2, dt float64) {
	k := p.stiffness()
	m := p.cfg.Mass
	c := 2 * p.cfg.Damping * math.Sqrt(k*m)
	h := dt / float64(p.cfg.Substeps)

	for i := 0; i < p.cfg.Substeps; i++ {
		ax := (-k*(p.pos.X-target.X) - c*p.vel.X) / m
		ay := (-k*(p.pos.Y-target.Y) - c*p.vel.Y) / m
		p.vel.X += ax * h
		p.vel.Y += ay * h
		p.pos.X += p.vel.X * h
		p.pos.Y += p.vel.Y * h
	}
}

func (p *Physics) stiffness() float64 {
	if p.cfg.Mode != ModeAdaptive {
		return p.cfg.Stiffness
	}
	speed := math.Hypot(p.vel.X, p.vel.Y)
	k := p.cfg.MinStiffness + p.cfg.SpeedCoefficient*speed
	return math.Min(math.Max(k, p.cfg.MinStiffness), p.cfg.MaxStiffness)
}

func (p *Physics) output(out frame.SmoothedFrame) frame.SmoothedFrame {
	vel := p.vel
	pos := p.pos.Clamp01()
	out.Position = &pos
	out.Velocity = &vel

	if p.cfg.Mode == ModePredictive {
		h := p.cfg.LookaheadMs / 1000
		pred := frame.Vec2{X: p.pos.X + vel.X*h, Y: p.pos.Y + vel.Y*h}.Clamp01()
		out.Prediction = &pred
	}
	return out
}

// TimeToImpact estimates the seconds until the simulated cursor reaches
// target at its current velocity. It returns +Inf when the cursor is not
// closing in on the target.
func (p *Physics) TimeToImpact(target frame.Vec2) float64 {
	dx := target.X - p.pos.X
	dy := target.Y - p.pos.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return 0
	}
	closing := (p.vel.X*dx + p.vel.Y*dy) / dist
	if !(closing > 0) {
		return math.Inf(1)
	}
	return dist / closing
}

// Reset clears the simulation; the next tracked frame snaps to its target.
func (p *Physics) Reset() {
	p.pos = frame.Vec2{}
	p.vel = frame.Vec2{}
	p.lastTs = 0
	p.initialized = false
}

// Kind returns KindPhysics.
func (p *Physics) Kind() Kind { return KindPhysics }

func (p *Physics) sealed() {}
