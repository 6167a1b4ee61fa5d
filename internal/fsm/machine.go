package fsm

import (
	"github.com/ayusman/mudra/internal/frame"
)

// Transition computes the next context and the action for one frame.
// facing is the debounced palm orientation. It has no side effects.
func Transition(cfg Config, ctx Context, f frame.SmoothedFrame, facing bool) (Context, Action) {
	now := f.Timestamp
	if f.Valid() {
		ctx.LastPosition = *f.Position
	}

	if !f.Tracked() {
		return disarm(ctx)
	}

	if !facing {
		if !ctx.NotFacing {
			ctx.NotFacing = true
			ctx.NotFacingSinceTs = now
		}
		if now-ctx.NotFacingSinceTs >= cfg.DisarmGraceMs {
			return disarm(ctx)
		}
		return hold(ctx)
	}
	ctx.NotFacing = false
	ctx.NotFacingSinceTs = 0

	switch ctx.State {
	case Disarmed:
		if !cfg.ready(f) {
			return ctx, ctx.action(ActionNone)
		}
		ctx.ArmedSinceTs = now
		ctx.LastReadyTs = now
		if cfg.ArmStableMs <= 0 {
			ctx.State = Armed
			ctx.ArmedFromBaseline = true
			return ctx, ctx.action(ActionMove)
		}
		ctx.State = Arming
		return ctx, ctx.action(ActionNone)

	case Arming:
		if cfg.ready(f) {
			ctx.LastReadyTs = now
			if now-ctx.ArmedSinceTs >= cfg.ArmStableMs {
				ctx.State = Armed
				ctx.ArmedFromBaseline = true
				return ctx, ctx.action(ActionMove)
			}
			return ctx, ctx.action(ActionNone)
		}
		if cfg.transient(f) && now-ctx.LastReadyTs <= cfg.NoneGraceMs {
			return ctx, ctx.action(ActionNone)
		}
		return disarm(ctx)

	case Armed:
		if cfg.ready(f) {
			ctx.LastReadyTs = now
			if !ctx.ArmedFromBaseline || now-ctx.ArmedSinceTs > cfg.CmdWindowMs {
				ctx.ArmedSinceTs = now
				ctx.ArmedFromBaseline = true
			}
			return ctx, ctx.action(ActionMove)
		}
		cmd, ok := cfg.command(f)
		if !ok || !ctx.ArmedFromBaseline || now-ctx.ArmedSinceTs > cfg.CmdWindowMs {
			return ctx, ctx.action(ActionMove)
		}
		return commit(ctx, f.Label, cmd, now)

	case DownCommit, DownNav:
		if cmd, ok := cfg.command(f); ok && f.Label == ctx.Command && cmd.State == ctx.State {
			ctx.LastCommandTs = now
			return ctx, ctx.action(ActionMove)
		}
		released := ctx.action(ActionUp)
		ctx = release(cfg, ctx, f, now)
		released.State = ctx.State
		return ctx, released

	case Zoom:
		if cmd, ok := cfg.command(f); ok && cmd.State == Zoom {
			ctx.LastCommandTs = now
			ctx.Command = f.Label
			return ctx, wheel(ctx, cmd)
		}
		ctx = release(cfg, ctx, f, now)
		return ctx, ctx.action(ActionMove)
	}

	return disarm(ctx)
}

func commit(ctx Context, label frame.Label, cmd Command, now int64) (Context, Action) {
	ctx.State = cmd.State
	ctx.Command = label
	ctx.Button = cmd.Button
	ctx.LastCommandTs = now
	ctx.ArmedFromBaseline = false
	if cmd.State == Zoom {
		return ctx, wheel(ctx, cmd)
	}
	return ctx, ctx.action(ActionDown)
}

func wheel(ctx Context, cmd Command) Action {
	a := ctx.action(ActionWheel)
	a.DeltaY = cmd.DeltaY
	a.CtrlKey = true
	return a
}

// release returns to ARMED with a fresh command window. A further command
// needs the ready gesture first unless this frame already shows it.
func release(cfg Config, ctx Context, f frame.SmoothedFrame, now int64) Context {
	ctx.State = Armed
	ctx.Command = ""
	ctx.ArmedSinceTs = now
	ctx.ArmedFromBaseline = cfg.ready(f)
	if ctx.ArmedFromBaseline {
		ctx.LastReadyTs = now
	}
	return ctx
}

// hold keeps the state while the palm is briefly turned away.
func hold(ctx Context) (Context, Action) {
	switch ctx.State {
	case Armed, DownCommit, DownNav:
		return ctx, ctx.action(ActionMove)
	default:
		return ctx, ctx.action(ActionNone)
	}
}

// disarm drops to DISARMED, cancelling a held button.
func disarm(ctx Context) (Context, Action) {
	kind := ActionNone
	if ctx.State.Down() {
		kind = ActionCancel
	}
	a := ctx.action(kind)
	a.State = Disarmed

	next := NewContext()
	next.LastPosition = ctx.LastPosition
	return next, a
}

// Machine is the stateful per-hand wrapper around Transition.
type Machine struct {
	cfg Config
	ctx Context
}

// New creates a machine in DISARMED. It returns an error if cfg is invalid.
func New(cfg Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Machine{cfg: cfg, ctx: NewContext()}, nil
}

// Process advances the machine by one frame.
func (m *Machine) Process(f frame.SmoothedFrame, facing bool) Action {
	var a Action
	m.ctx, a = Transition(m.cfg, m.ctx, f, facing)
	return a
}

// State returns the current state.
func (m *Machine) State() State {
	return m.ctx.State
}

// Context returns a copy of the full machine state.
func (m *Machine) Context() Context {
	return m.ctx
}

// Config returns the machine configuration.
func (m *Machine) Config() Config {
	return m.cfg
}

// Disarm forces DISARMED. The returned action is a cancel when a button
// was held, so the caller can release it.
func (m *Machine) Disarm() Action {
	var a Action
	m.ctx, a = disarm(m.ctx)
	return a
}
