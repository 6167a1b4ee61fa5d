package pointer

import "sync"

// Recorder is a Target that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	bounds Bounds
	events []Event
	err    error
}

// NewRecorder creates a recorder with the given bounds.
func NewRecorder(b Bounds) *Recorder {
	return &Recorder{bounds: b}
}

// Bounds returns the configured rectangle.
func (r *Recorder) Bounds() Bounds {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bounds
}

// SetBounds changes the rectangle, as a window resize would.
func (r *Recorder) SetBounds(b Bounds) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bounds = b
}

// FailWith makes subsequent dispatches record the event and return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Dispatch records ev.
func (r *Recorder) Dispatch(ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// Clear drops the recorded events.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
