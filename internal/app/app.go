// Package app runs the capture loop: camera frames go through the hand
// detector and gesture classifier and become sensor frames for one
// pointer pipeline per hand.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/fsm"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/pipeline"
	"github.com/ayusman/mudra/internal/pointer"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while nothing moves and no hand is tracked.
	IdleFPS = 5
	// IdleTimeoutMs is how long the loop stays active after the last motion.
	IdleTimeoutMs = 2000
	// DefaultMotionThresh is the percentage of changed pixels counted as motion.
	DefaultMotionThresh = 1.0
)

// Config holds configuration options for the application.
type Config struct {
	Camera capture.Options
	// MotionThresh gates detection while idle. Zero uses
	// DefaultMotionThresh and a negative value runs detection on every frame.
	MotionThresh float64
	// Mirror flips the x axis so moving the hand right moves the pointer
	// right when facing the camera.
	Mirror   bool
	Pipeline pipeline.Config
	Detector detector.Config
}

// DefaultConfig returns a mirrored 30 fps camera and the default pipeline.
func DefaultConfig() Config {
	return Config{
		Camera:   capture.DefaultOptions(),
		Mirror:   true,
		Pipeline: pipeline.DefaultConfig(),
		Detector: detector.DefaultConfig(),
	}
}

// Option customizes an App.
type Option func(*App)

// WithCamera replaces the device camera.
func WithCamera(c capture.Camera) Option {
	return func(a *App) { a.camera = c }
}

// WithDetector replaces the MediaPipe detector.
func WithDetector(d detector.Detector) Option {
	return func(a *App) { a.detector = d }
}

// WithClassifier replaces the default template classifier.
func WithClassifier(c *gesture.Classifier) Option {
	return func(a *App) { a.classifier = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// App is the main application that turns camera frames into pointer events.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionGate
	detector   detector.Detector
	classifier *gesture.Classifier
	router     *pipeline.Router
	logger     *slog.Logger

	mu       sync.RWMutex
	enabled  bool
	tracking bool
	stopCh   chan struct{}
	done     chan struct{}
}

// New creates an App dispatching pointer events to target.
func New(config Config, target pointer.Target, opts ...Option) (*App, error) {
	if target == nil {
		return nil, errors.New("app: nil pointer target")
	}

	a := &App{config: config}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.L()
	}
	a.logger = a.logger.With("component", "app")

	router, err := pipeline.NewRouter(config.Pipeline, target, pipeline.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	a.router = router

	if a.camera == nil {
		a.camera = capture.NewCamera(config.Camera)
	}
	if a.classifier == nil {
		a.classifier = gesture.DefaultClassifier()
	}
	if config.MotionThresh >= 0 {
		thresh := config.MotionThresh
		if thresh == 0 {
			thresh = DefaultMotionThresh
		}
		a.motion = capture.NewMotionGate(thresh, IdleTimeoutMs)
	}

	// Try MediaPipe first, fall back to mock detector
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
			a.detector = mp
			a.logger.Info("using MediaPipe hand detection")
		} else {
			a.logger.Warn("MediaPipe not available, using mock detector", "error", err)
			a.detector = detector.NewMockDetector()
		}
	}

	return a, nil
}

// SetEnabled enables or disables pointer control. Disabling resets every
// hand, cancelling a held pointer.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	was := a.enabled
	a.enabled = enabled
	a.mu.Unlock()

	if was && !enabled {
		a.router.Reset()
	}
	if was != enabled {
		a.logger.Info("pointer control toggled", "enabled", enabled)
	}
}

// Enabled returns whether pointer control is on.
func (a *App) Enabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Classifier returns the gesture classifier.
func (a *App) Classifier() *gesture.Classifier {
	return a.classifier
}

// Router returns the per-hand pipelines.
func (a *App) Router() *pipeline.Router {
	return a.router
}

// States returns the state machine state of every tracked hand.
func (a *App) States() map[string]fsm.State {
	return a.router.States()
}

// Configure applies a new pipeline configuration. Smoothers of tracked
// hands are swapped in place.
func (a *App) Configure(cfg pipeline.Config) error {
	if err := a.router.Configure(cfg); err != nil {
		return err
	}
	a.mu.Lock()
	a.config.Pipeline = cfg
	a.mu.Unlock()
	a.logger.Info("pipeline configured", "smoother", cfg.Smoother.Kind, "predictor", cfg.Predictor != nil)
	return nil
}

// Subscribe registers fn for the pipeline result of every hand.
func (a *App) Subscribe(fn func(pipeline.Result)) func() {
	return a.router.Subscribe(fn)
}

// Start opens the camera and begins the capture loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	a.logger.Info("capture loop started", "fps", a.camera.FPS())
	return nil
}

// Stop halts the capture loop and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	if err := a.camera.Close(); err != nil {
		a.logger.Warn("closing camera", "error", err)
	}
	if a.motion != nil {
		a.motion.Close()
	}
	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			a.logger.Warn("closing detector", "error", err)
		}
	}
	a.router.Close()

	a.logger.Info("capture loop stopped")
}
