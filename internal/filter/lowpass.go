package filter

import (
	"fmt"
	"math"
)

// minDt is the smallest time step, in seconds, the adaptive filter accepts.
const minDt = 1e-6

// lowPass is a first-order exponential smoother.
type lowPass struct {
	value       float64
	initialized bool
}

func (lp *lowPass) apply(v, alpha float64) float64 {
	if !lp.initialized {
		lp.value = v
		lp.initialized = true
		return v
	}
	lp.value = alpha*v + (1-alpha)*lp.value
	return lp.value
}

func (lp *lowPass) reset() {
	*lp = lowPass{}
}

// Alpha returns the smoothing factor of a first-order low-pass filter with
// the given cutoff frequency (Hz) sampled every dt seconds.
func Alpha(cutoff, dt float64) float64 {
	tau := 1 / (2 * math.Pi * cutoff)
	return 1 / (1 + tau/dt)
}

// OneEuroConfig tunes the 1€ filter.
type OneEuroConfig struct {
	// Frequency is the nominal sample rate in Hz, used by Step.
	Frequency float64 `json:"frequency"`
	// MinCutoff is the cutoff in Hz when the signal is still.
	MinCutoff float64 `json:"minCutoff"`
	// Beta scales how fast the cutoff rises with speed.
	Beta float64 `json:"beta"`
	// DCutoff is the cutoff in Hz of the derivative filter.
	DCutoff float64 `json:"dCutoff"`
}

// DefaultOneEuroConfig returns the reference tuning of Casiez et al.
func DefaultOneEuroConfig() OneEuroConfig {
	return OneEuroConfig{
		Frequency: 60,
		MinCutoff: 1.0,
		Beta:      0.007,
		DCutoff:   1.0,
	}
}

// Validate checks the configuration.
func (c OneEuroConfig) Validate() error {
	switch {
	case !(c.Frequency > 0):
		return fmt.Errorf("%w: one euro frequency must be > 0, got %v", ErrInvalidConfig, c.Frequency)
	case !(c.MinCutoff > 0):
		return fmt.Errorf("%w: one euro minCutoff must be > 0, got %v", ErrInvalidConfig, c.MinCutoff)
	case !(c.Beta >= 0):
		return fmt.Errorf("%w: one euro beta must be >= 0, got %v", ErrInvalidConfig, c.Beta)
	case !(c.DCutoff > 0):
		return fmt.Errorf("%w: one euro dCutoff must be > 0, got %v", ErrInvalidConfig, c.DCutoff)
	}
	return nil
}

// OneEuro is the adaptive low-pass filter for a single axis. Its cutoff
// rises with the signal's speed: heavy smoothing at rest, little lag in
// fast motion.
type OneEuro struct {
	cfg         OneEuroConfig
	x           lowPass
	dx          lowPass
	lastRaw     float64
	lastTs      float64
	initialized bool
}

// NewOneEuro creates a filter. It returns an error if cfg is invalid.
func NewOneEuro(cfg OneEuroConfig) (*OneEuro, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &OneEuro{cfg: cfg}, nil
}

// Filter feeds one sample taken at ts seconds and returns the filtered
// value and the smoothed speed in units per second. A time step at or
// below 1µs (duplicate or backwards timestamps) yields NaN for both and
// leaves the state untouched.
func (f *OneEuro) Filter(value, ts float64) (float64, float64) {
	if !f.initialized {
		f.x.apply(value, 1)
		f.dx.apply(0, 1)
		f.lastRaw = value
		f.lastTs = ts
		f.initialized = true
		return value, 0
	}

	dt := ts - f.lastTs
	if !(dt > minDt) {
		return math.NaN(), math.NaN()
	}
	return f.step(value, dt, ts)
}

// Step feeds one sample assuming exactly one period of the configured
// frequency has passed.
func (f *OneEuro) Step(value float64) (float64, float64) {
	if !f.initialized {
		return f.Filter(value, 0)
	}
	dt := 1 / f.cfg.Frequency
	return f.step(value, dt, f.lastTs+dt)
}

func (f *OneEuro) step(value, dt, ts float64) (float64, float64) {
	speed := f.dx.apply((value-f.lastRaw)/dt, Alpha(f.cfg.DCutoff, dt))
	cutoff := f.cfg.MinCutoff + f.cfg.Beta*math.Abs(speed)
	out := f.x.apply(value, Alpha(cutoff, dt))

	f.lastRaw = value
	f.lastTs = ts
	return out, speed
}

// SetParams changes the cutoff tuning without discarding state.
func (f *OneEuro) SetParams(minCutoff, beta float64) error {
	cfg := f.cfg
	cfg.MinCutoff = minCutoff
	cfg.Beta = beta
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.cfg = cfg
	return nil
}

// Config returns the current tuning.
func (f *OneEuro) Config() OneEuroConfig {
	return f.cfg
}

// Reset returns the filter to its freshly constructed state.
func (f *OneEuro) Reset() {
	f.x.reset()
	f.dx.reset()
	f.lastRaw = 0
	f.lastTs = 0
	f.initialized = false
}
