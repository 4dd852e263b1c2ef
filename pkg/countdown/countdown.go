// Package countdown runs the visual 3-2-1 countdown shown before a race starts.
package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// Steps is the value reported first.
const Steps = 3

var ErrAlreadyStarted = errors.New("countdown already started")

type State int

const (
	Idle State = iota
	Counting
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Counting:
		return "counting"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Timer is single use. Create a new one for every race.
type Timer struct {
	clock clockwork.Clock
	tick  time.Duration

	mu        sync.Mutex
	state     State
	remaining int
}

type Option func(*Timer)

func WithClock(c clockwork.Clock) Option {
	return func(t *Timer) { t.clock = c }
}

func New(tick time.Duration, opts ...Option) *Timer {
	t := &Timer{clock: clockwork.NewRealClock(), tick: tick}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run reports 3 right away, then 2 and 1 a tick apart, and returns one tick
// after 1 was reported.
func (t *Timer) Run(ctx context.Context, onTick func(remaining int)) error {
	t.mu.Lock()
	if t.state != Idle {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.state = Counting
	t.remaining = Steps
	t.mu.Unlock()

	ticker := t.clock.NewTicker(t.tick)
	defer ticker.Stop()

	onTick(Steps)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			remaining := t.step()
			if remaining == 0 {
				return nil
			}
			onTick(remaining)
		}
	}
}

func (t *Timer) step() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remaining--
	if t.remaining == 0 {
		t.state = Done
	}
	return t.remaining
}

// State returns the phase and, while counting, the value last reported.
func (t *Timer) State() (State, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.remaining
}
