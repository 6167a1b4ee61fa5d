package pipeline

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/ayusman/mudra/internal/filter"
	"github.com/ayusman/mudra/internal/frame"
	"github.com/ayusman/mudra/internal/fsm"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/orientation"
	"github.com/ayusman/mudra/internal/pointer"
)

// Result is what subscribers see for every processed frame.
type Result struct {
	Frame  frame.SmoothedFrame `json:"frame"`
	Facing bool                `json:"facing"`
	Action fsm.Action          `json:"action"`
	Event  *pointer.Event      `json:"event,omitempty"`
	// Captured is true while a button is held on the target.
	Captured bool `json:"captured"`
}

type subscriber struct {
	id int
	fn func(Result)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. The default is the global logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithPrimary marks whether the orchestrator's pointer is the primary one.
func WithPrimary(primary bool) Option {
	return func(o *Orchestrator) {
		o.projector.Primary = primary
	}
}

// Orchestrator runs one hand's frames through smoothing, the palm gate,
// the gesture state machine and the projector, and dispatches the result
// to a target.
type Orchestrator struct {
	mu sync.Mutex

	cfg       Config
	smoother  filter.Smoother
	predictor filter.Predictor
	gate      *orientation.Gate
	machine   *fsm.Machine
	projector *pointer.Projector
	target    pointer.Target
	logger    *slog.Logger

	lastPos  *frame.Vec2
	lastVel  frame.Vec2
	captured bool

	subs     []subscriber
	nextSub  int
	disposed bool
}

// New creates an orchestrator. It returns an error if cfg is invalid.
func New(cfg Config, target pointer.Target, opts ...Option) (*Orchestrator, error) {
	if target == nil {
		return nil, errors.New("pipeline: nil target")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	smoother, err := filter.New(cfg.Smoother)
	if err != nil {
		return nil, err
	}
	var predictor filter.Predictor
	if cfg.Predictor != nil {
		d, err := filter.NewDESP(*cfg.Predictor)
		if err != nil {
			return nil, err
		}
		predictor = d
	}
	gate, err := orientation.NewGate(cfg.Orientation)
	if err != nil {
		return nil, err
	}
	machine, err := fsm.New(cfg.FSM)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		cfg:       cfg,
		smoother:  smoother,
		predictor: predictor,
		gate:      gate,
		machine:   machine,
		projector: &pointer.Projector{PointerID: cfg.PointerID, PointerType: cfg.PointerType, Primary: true},
		target:    target,
		logger:    log.L(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Process runs one frame through the pipeline and returns the action taken.
func (o *Orchestrator) Process(f frame.SensorFrame) fsm.Action {
	o.mu.Lock()
	if o.disposed {
		state := o.machine.State()
		o.mu.Unlock()
		return fsm.Action{Kind: fsm.ActionNone, State: state}
	}

	sm := o.smoother.Smooth(f)
	sm = o.substitute(sm, f)
	if o.predictor != nil {
		sm = o.predictor.Predict(sm)
	}

	facing := f.PalmFacing
	if f.PalmAngle != nil {
		facing = o.gate.Update(*f.PalmAngle)
	}

	action := o.machine.Process(sm, facing)
	if o.predictor != nil && action.Kind == fsm.ActionMove && sm.Prediction != nil {
		action.X, action.Y = sm.Prediction.X, sm.Prediction.Y
	}

	ev := o.dispatch(action)
	res := Result{
		Frame:    sm,
		Facing:   facing,
		Action:   action,
		Event:    ev,
		Captured: o.captured,
	}
	subs := o.subscribers()
	o.mu.Unlock()

	for _, fn := range subs {
		fn(res)
	}
	return action
}

// substitute replaces a non-finite smoothed position with the last good
// one, or the raw position when there is none yet.
func (o *Orchestrator) substitute(sm frame.SmoothedFrame, f frame.SensorFrame) frame.SmoothedFrame {
	switch {
	case sm.Position == nil:
		o.lastPos = nil
		o.lastVel = frame.Vec2{}
	case sm.Position.Finite():
		p := *sm.Position
		o.lastPos = &p
		o.lastVel = frame.Vec2{}
		if sm.Velocity != nil && sm.Velocity.Finite() {
			o.lastVel = *sm.Velocity
		}
	default:
		o.logger.Debug("non-finite smoothed position, holding last good",
			"hand", f.HandID, "ts", f.Timestamp)
		if o.lastPos != nil {
			p, v := *o.lastPos, o.lastVel
			sm.Position, sm.Velocity = &p, &v
		} else {
			p := frame.Vec2{X: f.Position.X, Y: f.Position.Y}.Clamp01()
			sm.Position, sm.Velocity = &p, &frame.Vec2{}
		}
		if sm.Prediction != nil && !sm.Prediction.Finite() {
			sm.Prediction = nil
		}
	}
	return sm
}

// dispatch projects a and sends it to the target. Target errors are
// logged and never stop the pipeline.
func (o *Orchestrator) dispatch(a fsm.Action) *pointer.Event {
	switch a.Kind {
	case fsm.ActionDown:
		o.captured = true
	case fsm.ActionUp, fsm.ActionCancel:
		o.captured = false
	}

	ev := o.projector.Project(a, o.target.Bounds())
	if ev == nil {
		return nil
	}
	if err := o.target.Dispatch(*ev); err != nil {
		o.logger.Warn("dispatch pointer event", "type", ev.Type, "error", err)
	}
	return ev
}

func (o *Orchestrator) subscribers() []func(Result) {
	fns := make([]func(Result), len(o.subs))
	for i, s := range o.subs {
		fns[i] = s.fn
	}
	return fns
}

// Subscribe registers fn to receive every frame's result. The returned
// function removes it.
func (o *Orchestrator) Subscribe(fn func(Result)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextSub
	o.nextSub++
	o.subs = append(o.subs, subscriber{id: id, fn: fn})

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, s := range o.subs {
			if s.id == id {
				o.subs = append(o.subs[:i], o.subs[i+1:]...)
				return
			}
		}
	}
}

// Reset clears the smoother, predictor and gate and disarms the state
// machine. A held button is cancelled on the target.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reset()
}

func (o *Orchestrator) reset() {
	o.smoother.Reset()
	if o.predictor != nil {
		o.predictor.Reset()
	}
	o.gate.Reset()
	o.lastPos = nil
	o.lastVel = frame.Vec2{}

	if a := o.machine.Disarm(); a.Kind == fsm.ActionCancel {
		o.dispatch(a)
	}
	o.captured = false
}

// Dispose resets the orchestrator and drops all subscribers. Later frames
// are ignored.
func (o *Orchestrator) Dispose() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed {
		return
	}
	o.reset()
	o.subs = nil
	o.disposed = true
}

// SetSmoother swaps the smoother. The state machine keeps its state.
func (o *Orchestrator) SetSmoother(s filter.Smoother) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.smoother = s
	o.cfg.Smoother.Kind = s.Kind()
}

// Configure builds a smoother from cfg and swaps it in.
func (o *Orchestrator) Configure(cfg filter.Config) error {
	s, err := filter.New(cfg)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.smoother = s
	o.cfg.Smoother = cfg
	return nil
}

// Smoother returns the active smoother.
func (o *Orchestrator) Smoother() filter.Smoother {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.smoother
}

// State returns the gesture state.
func (o *Orchestrator) State() fsm.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machine.State()
}

// Context returns the full gesture machine context.
func (o *Orchestrator) Context() fsm.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.machine.Context()
}

// Config returns the orchestrator configuration.
func (o *Orchestrator) Config() Config {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}
