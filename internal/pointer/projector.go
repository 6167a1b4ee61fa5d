package pointer

import (
	"github.com/ayusman/mudra/internal/fsm"
)

// activePressure is reported while a button is held, per the W3C default
// for hardware without pressure sensing.
const activePressure = 0.5

// Projector converts actions into events for one pointer.
type Projector struct {
	PointerID   int
	PointerType Type
	Primary     bool
}

// NewProjector returns a projector for a primary touch pointer with id 1.
func NewProjector() *Projector {
	return &Projector{PointerID: 1, PointerType: TypeTouch, Primary: true}
}

// Project maps a into an event inside b. It returns nil for ActionNone.
func (p *Projector) Project(a fsm.Action, b Bounds) *Event {
	switch a.Kind {
	case fsm.ActionMove:
		ev := p.base(PointerMove)
		ev.ClientX, ev.ClientY = p.client(a, b)
		if a.State.Down() {
			ev.Buttons = ButtonsMask(a.Button)
			ev.Pressure = activePressure
		}
		return &ev

	case fsm.ActionDown:
		ev := p.base(PointerDown)
		ev.ClientX, ev.ClientY = p.client(a, b)
		ev.Button = a.Button
		ev.Buttons = ButtonsMask(a.Button)
		ev.Pressure = activePressure
		return &ev

	case fsm.ActionUp:
		ev := p.base(PointerUp)
		ev.ClientX, ev.ClientY = p.client(a, b)
		ev.Button = a.Button
		return &ev

	case fsm.ActionCancel:
		ev := p.base(PointerCancel)
		return &ev

	case fsm.ActionWheel:
		ev := Event{Type: Wheel, DeltaY: a.DeltaY, CtrlKey: a.CtrlKey}
		ev.ClientX, ev.ClientY = b.Center()
		return &ev

	default:
		return nil
	}
}

func (p *Projector) base(t EventType) Event {
	return Event{
		Type:        t,
		PointerID:   p.PointerID,
		PointerType: p.PointerType,
		IsPrimary:   p.Primary,
	}
}

func (p *Projector) client(a fsm.Action, b Bounds) (float64, float64) {
	return b.Left + a.X*b.Width, b.Top + a.Y*b.Height
}

// Normalize maps client coordinates back into [0,1] space. It is the
// inverse of the projection for move, down and up events.
func Normalize(clientX, clientY float64, b Bounds) (float64, float64) {
	if b.Width == 0 || b.Height == 0 {
		return 0, 0
	}
	return (clientX - b.Left) / b.Width, (clientY - b.Top) / b.Height
}
