package filter

import (
	"fmt"

	"github.com/ayusman/mudra/internal/frame"
)

// DESPConfig tunes double exponential smoothing prediction.
type DESPConfig struct {
	// Alpha is the smoothing factor in (0,1). Higher follows input faster.
	Alpha float64 `json:"alpha"`
	// Lookahead is the prediction horizon in samples.
	Lookahead float64 `json:"lookahead"`
	// Frequency is the nominal sample rate in Hz, used to scale velocity
	// when the timestamps cannot.
	Frequency float64 `json:"frequency"`
}

// DefaultDESPConfig predicts three samples ahead, about 50ms at 60Hz.
func DefaultDESPConfig() DESPConfig {
	return DESPConfig{
		Alpha:     0.5,
		Lookahead: 3,
		Frequency: 60,
	}
}

// Validate checks the configuration.
func (c DESPConfig) Validate() error {
	switch {
	case !(c.Alpha > 0 && c.Alpha < 1):
		return fmt.Errorf("%w: desp alpha must be in (0,1), got %v", ErrInvalidConfig, c.Alpha)
	case !(c.Lookahead >= 0):
		return fmt.Errorf("%w: desp lookahead must be >= 0, got %v", ErrInvalidConfig, c.Lookahead)
	case !(c.Frequency > 0):
		return fmt.Errorf("%w: desp frequency must be > 0, got %v", ErrInvalidConfig, c.Frequency)
	}
	return nil
}

type despAxis struct {
	sp  float64
	sp2 float64
}

// DESP is LaViola's double exponential smoothing predictor. It is a
// closed-form alternative to a Kalman filter for the constant-velocity
// case and can run either as the smoother or as a predictor stage on top
// of another smoother.
type DESP struct {
	cfg         DESPConfig
	x           despAxis
	y           despAxis
	lastTs      int64
	initialized bool
}

// NewDESP creates a predictor. It returns an error if cfg is invalid.
func NewDESP(cfg DESPConfig) (*DESP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &DESP{cfg: cfg}, nil
}

// update feeds p and returns the level b0 and per-sample trend b1.
func (d *DESP) update(p frame.Vec2) (frame.Vec2, frame.Vec2) {
	if !d.initialized {
		d.x = despAxis{sp: p.X, sp2: p.X}
		d.y = despAxis{sp: p.Y, sp2: p.Y}
		d.initialized = true
		return p, frame.Vec2{}
	}
	bx0, bx1 := d.x.update(p.X, d.cfg.Alpha)
	by0, by1 := d.y.update(p.Y, d.cfg.Alpha)
	return frame.Vec2{X: bx0, Y: by0}, frame.Vec2{X: bx1, Y: by1}
}

func (a *despAxis) update(p, alpha float64) (float64, float64) {
	a.sp = alpha*p + (1-alpha)*a.sp
	a.sp2 = alpha*a.sp + (1-alpha)*a.sp2
	b0 := 2*a.sp - a.sp2
	b1 := alpha / (1 - alpha) * (a.sp - a.sp2)
	return b0, b1
}

// dt returns the sample interval in seconds ending at ts.
func (d *DESP) dt(ts int64) float64 {
	if d.initialized {
		if dt := seconds(ts - d.lastTs); dt > minDt {
			return dt
		}
	}
	return 1 / d.cfg.Frequency
}

// Smooth uses the double-smoothed level as the position, the trend as the
// velocity and b0 + b1·lookahead as the prediction.
func (d *DESP) Smooth(f frame.SensorFrame) frame.SmoothedFrame {
	out := frame.Smoothed(f)
	if !f.Tracked() {
		d.Reset()
		return out
	}

	dt := d.dt(f.Timestamp)
	b0, b1 := d.update(frame.Vec2{X: f.Position.X, Y: f.Position.Y})
	d.lastTs = f.Timestamp

	pos := b0.Clamp01()
	pred := frame.Vec2{X: b0.X + b1.X*d.cfg.Lookahead, Y: b0.Y + b1.Y*d.cfg.Lookahead}.Clamp01()
	out.Position = &pos
	out.Velocity = &frame.Vec2{X: b1.X / dt, Y: b1.Y / dt}
	out.Prediction = &pred
	return out
}

// Predict runs the predictor over an already smoothed position and sets
// only the prediction. Untracked frames reset it; non-finite positions pass
// through untouched.
func (d *DESP) Predict(f frame.SmoothedFrame) frame.SmoothedFrame {
	if !f.Tracked() {
		d.Reset()
		f.Prediction = nil
		return f
	}
	if !f.Position.Finite() {
		return f
	}

	b0, b1 := d.update(*f.Position)
	d.lastTs = f.Timestamp
	pred := frame.Vec2{X: b0.X + b1.X*d.cfg.Lookahead, Y: b0.Y + b1.Y*d.cfg.Lookahead}.Clamp01()
	f.Prediction = &pred
	return f
}

// Trajectory returns the predicted positions 1..steps samples ahead of the
// current state, for drawing a look-ahead trail.
func (d *DESP) Trajectory(steps int) []frame.Vec2 {
	if !d.initialized || steps <= 0 {
		return nil
	}
	alpha := d.cfg.Alpha
	b0 := frame.Vec2{X: 2*d.x.sp - d.x.sp2, Y: 2*d.y.sp - d.y.sp2}
	b1 := frame.Vec2{
		X: alpha / (1 - alpha) * (d.x.sp - d.x.sp2),
		Y: alpha / (1 - alpha) * (d.y.sp - d.y.sp2),
	}
	out := make([]frame.Vec2, steps)
	for i := range out {
		tau := float64(i + 1)
		out[i] = frame.Vec2{X: b0.X + b1.X*tau, Y: b0.Y + b1.Y*tau}.Clamp01()
	}
	return out
}

// Reset clears the smoothing state.
func (d *DESP) Reset() {
	d.x = despAxis{}
	d.y = despAxis{}
	d.lastTs = 0
	d.initialized = false
}

// Kind returns KindDESP.
func (d *DESP) Kind() Kind { return KindDESP }

func (d *DESP) sealed() {}
