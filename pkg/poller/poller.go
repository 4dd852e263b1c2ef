// Package poller polls race status on a fixed cadence until the race finishes.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"podracer/pkg/log"
	"podracer/pkg/model"
)

var (
	ErrAlreadyPolling = errors.New("race is already being polled")
	ErrPollTimeout    = errors.New("race did not finish in time")
)

type Fetcher interface {
	FetchRaceStatus(ctx context.Context, raceID int) (model.RaceSnapshot, error)
}

// UpdateFunc receives every applied leaderboard. The final one is passed
// before the task resolves.
type UpdateFunc func(model.Leaderboard)

type Poller struct {
	fetcher  Fetcher
	clock    clockwork.Clock
	interval time.Duration
	maxTicks int

	mu     sync.Mutex
	active map[int]*Task
}

type Option func(*Poller)

func WithClock(c clockwork.Clock) Option {
	return func(p *Poller) { p.clock = c }
}

func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithMaxTicks gives up after n ticks without a finished status. 0 polls forever.
func WithMaxTicks(n int) Option {
	return func(p *Poller) { p.maxTicks = n }
}

func New(fetcher Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		clock:    clockwork.NewRealClock(),
		interval: 500 * time.Millisecond,
		active:   map[int]*Task{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Task is one polling loop for one race.
type Task struct {
	raceID int
	cancel context.CancelFunc
	done   chan struct{}

	final model.Leaderboard
	err   error
}

func (t *Task) RaceID() int { return t.raceID }

func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel stops the cadence. Wait then returns context.Canceled.
func (t *Task) Cancel() { t.cancel() }

// Wait blocks until the race finished, polling gave up or the task was cancelled.
func (t *Task) Wait() (model.Leaderboard, error) {
	<-t.done
	return t.final, t.err
}

// Active reports whether a task is running for the race.
func (p *Poller) Active(raceID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.active[raceID]
	return ok
}

func (p *Poller) Start(ctx context.Context, raceID int, track model.Track, onUpdate UpdateFunc) (*Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.active[raceID]; ok {
		return nil, errors.Wrapf(ErrAlreadyPolling, "race %d", raceID)
	}

	ctx, cancel := context.WithCancel(ctx)
	t := &Task{raceID: raceID, cancel: cancel, done: make(chan struct{})}
	p.active[raceID] = t
	if onUpdate == nil {
		onUpdate = func(model.Leaderboard) {}
	}
	go p.loop(ctx, t, track, onUpdate)
	return t, nil
}

func (p *Poller) release(raceID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, raceID)
}

type fetchResult struct {
	seq  uint64
	snap model.RaceSnapshot
	err  error
}

func (p *Poller) loop(ctx context.Context, t *Task, track model.Track, onUpdate UpdateFunc) {
	defer close(t.done)
	defer p.release(t.raceID)
	defer t.cancel()

	ticker := p.clock.NewTicker(p.interval)
	stopped := false
	stop := func() {
		if !stopped {
			ticker.Stop()
			stopped = true
		}
	}
	defer stop()

	results := make(chan fetchResult)
	var seq, applied uint64
	ticks := 0

	for {
		select {
		case <-ctx.Done():
			stop()
			t.err = ctx.Err()
			log.Debug("polling stopped", log.Int("raceId", t.raceID), log.ErrorField(t.err))
			return

		case <-ticker.Chan():
			ticks++
			if p.maxTicks > 0 && ticks > p.maxTicks {
				stop()
				t.err = errors.Wrapf(ErrPollTimeout, "race %d after %d polls", t.raceID, p.maxTicks)
				log.Warn("polling gave up", log.Int("raceId", t.raceID), log.Int("polls", p.maxTicks))
				return
			}
			seq++
			go p.fetch(ctx, t.raceID, seq, results)

		case r := <-results:
			if r.err != nil {
				log.Warn("race status fetch failed", log.Int("raceId", t.raceID), log.ErrorField(r.err))
				continue
			}
			if r.seq <= applied {
				log.Debug("discarding stale race status", log.Int("raceId", t.raceID), log.Int64("seq", int64(r.seq)))
				continue
			}
			applied = r.seq

			switch r.snap.Status {
			case model.StatusFinished:
				stop()
				t.final = model.FinalLeaderboard(r.snap, track)
				onUpdate(t.final)
				log.Info("race finished", log.Int("raceId", t.raceID), log.Int("polls", ticks))
				return
			case model.StatusInProgress:
				onUpdate(model.InProgressLeaderboard(r.snap, track))
			default:
				log.Debug("race not running yet", log.Int("raceId", t.raceID), log.String("status", r.snap.RawStatus))
			}
		}
	}
}

func (p *Poller) fetch(ctx context.Context, raceID int, seq uint64, results chan<- fetchResult) {
	snap, err := p.fetcher.FetchRaceStatus(ctx, raceID)
	select {
	case results <- fetchResult{seq: seq, snap: snap, err: err}:
	case <-ctx.Done():
	}
}
