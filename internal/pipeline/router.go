package pipeline

import (
	"sort"
	"sync"

	"github.com/ayusman/mudra/internal/frame"
	"github.com/ayusman/mudra/internal/fsm"
	"github.com/ayusman/mudra/internal/pointer"
)

// Router keeps one orchestrator per hand. Each hand gets its own pointer
// id; the first hand seen owns the primary pointer.
type Router struct {
	mu     sync.Mutex
	cfg    Config
	target pointer.Target
	opts   []Option
	hands  map[string]*Orchestrator
	subs   []subscriber
	nextID int
}

// NewRouter validates cfg and returns an empty router.
func NewRouter(cfg Config, target pointer.Target, opts ...Option) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Router{
		cfg:    cfg,
		target: target,
		opts:   opts,
		hands:  make(map[string]*Orchestrator),
	}, nil
}

// Process routes f to its hand's orchestrator, creating it on first use.
func (r *Router) Process(f frame.SensorFrame) (fsm.Action, error) {
	o, err := r.hand(f.HandID)
	if err != nil {
		return fsm.Action{}, err
	}
	return o.Process(f), nil
}

func (r *Router) hand(id string) (*Orchestrator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.hands[id]; ok {
		return o, nil
	}

	cfg := r.cfg
	cfg.PointerID = r.cfg.PointerID + len(r.hands)
	opts := append([]Option{}, r.opts...)
	opts = append(opts, WithPrimary(len(r.hands) == 0))
	o, err := New(cfg, r.target, opts...)
	if err != nil {
		return nil, err
	}
	o.Subscribe(r.fanout)
	r.hands[id] = o
	return o, nil
}

func (r *Router) fanout(res Result) {
	r.mu.Lock()
	fns := make([]func(Result), len(r.subs))
	for i, s := range r.subs {
		fns[i] = s.fn
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(res)
	}
}

// Lost feeds a tracking-lost frame at ts to every known hand not in seen,
// so hands that left the camera release their pointers.
func (r *Router) Lost(ts int64, seen map[string]bool) {
	r.mu.Lock()
	var lost []*Orchestrator
	var ids []string
	for id, o := range r.hands {
		if !seen[id] {
			lost = append(lost, o)
			ids = append(ids, id)
		}
	}
	r.mu.Unlock()

	for i, o := range lost {
		o.Process(frame.SensorFrame{Timestamp: ts, HandID: ids[i], Label: frame.LabelNone})
	}
}

// Subscribe registers fn for the results of every hand.
func (r *Router) Subscribe(fn func(Result)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.subs = append(r.subs, subscriber{id: id, fn: fn})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, s := range r.subs {
			if s.id == id {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				return
			}
		}
	}
}

// States returns the gesture state per hand.
func (r *Router) States() map[string]fsm.State {
	r.mu.Lock()
	hands := make(map[string]*Orchestrator, len(r.hands))
	for id, o := range r.hands {
		hands[id] = o
	}
	r.mu.Unlock()

	out := make(map[string]fsm.State, len(hands))
	for id, o := range hands {
		out[id] = o.State()
	}
	return out
}

// Hands returns the known hand ids, sorted.
func (r *Router) Hands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.hands))
	for id := range r.hands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Configure swaps the smoother of every known hand. The gate, state
// machine and pointer settings of cfg apply to hands created later.
func (r *Router) Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.hands {
		if err := o.Configure(cfg.Smoother); err != nil {
			return err
		}
	}
	r.cfg = cfg
	return nil
}

// Reset resets every hand.
func (r *Router) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.hands {
		o.Reset()
	}
}

// Close disposes every hand and forgets them.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, o := range r.hands {
		o.Dispose()
		delete(r.hands, id)
	}
}
