// Package race sequences one race: create, countdown, start and poll until
// the backend reports the race as finished.
package race

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"podracer/pkg/countdown"
	"podracer/pkg/log"
	"podracer/pkg/model"
	"podracer/pkg/poller"
	"podracer/pkg/selection"
)

type Gateway interface {
	CreateRace(ctx context.Context, playerID, trackID int) (model.Race, error)
	StartRace(ctx context.Context, raceID int) error
	FetchRaceStatus(ctx context.Context, raceID int) (model.RaceSnapshot, error)
	Accelerate(ctx context.Context, raceID int)
}

// Catalog is optional. It fills in track details and racer names the
// backend leaves out.
type Catalog interface {
	TrackByID(id int) (model.Track, bool)
	Names(snap model.RaceSnapshot) model.RaceSnapshot
}

// IDMapper turns the identifier returned on creation into the one used by
// the start, status and accelerate endpoints.
type IDMapper func(backendID int) int

func OffsetMapper(offset int) IDMapper {
	return func(id int) int { return id + offset }
}

// OffByOne is the mapping the backend currently needs.
var OffByOne = OffsetMapper(-1)

type Orchestrator struct {
	gateway       Gateway
	selection     *selection.State
	catalog       Catalog
	mapID         IDMapper
	clock         clockwork.Clock
	countdownTick time.Duration
	pollerOpts    []poller.Option
	poller        *poller.Poller

	mu        sync.Mutex
	state     State
	running   bool
	race      model.Race
	observers []Observer
}

type Option func(*Orchestrator)

func WithCatalog(c Catalog) Option {
	return func(o *Orchestrator) { o.catalog = c }
}

func WithIDMapper(m IDMapper) Option {
	return func(o *Orchestrator) { o.mapID = m }
}

func WithClock(c clockwork.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

func WithCountdownTick(d time.Duration) Option {
	return func(o *Orchestrator) { o.countdownTick = d }
}

func WithPollerOptions(opts ...poller.Option) Option {
	return func(o *Orchestrator) { o.pollerOpts = append(o.pollerOpts, opts...) }
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs) }
}

func NewOrchestrator(gateway Gateway, sel *selection.State, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:       gateway,
		selection:     sel,
		mapID:         OffByOne,
		clock:         clockwork.NewRealClock(),
		countdownTick: time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	pollerOpts := append([]poller.Option{poller.WithClock(o.clock)}, o.pollerOpts...)
	o.poller = poller.New(namingFetcher{gateway: gateway, catalog: o.catalog}, pollerOpts...)
	return o
}

func (o *Orchestrator) AddObserver(obs Observer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, obs)
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Current returns the race of the latest run, if one was created.
func (o *Orchestrator) Current() (model.Race, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.race, o.race.BackendID != 0
}

// Run drives one race to its end. Each step starts only once the previous
// one completed. A failing step moves the orchestrator to Failed and its
// error is returned.
func (o *Orchestrator) Run(ctx context.Context) (model.Leaderboard, error) {
	if err := o.acquire(); err != nil {
		return model.Leaderboard{}, err
	}
	defer o.release()

	logger := log.Default().With(log.String("run", uuid.NewString()))

	sel := o.selection.Snapshot()
	trackID, hasTrack := sel.TrackID.Get()
	racerID, hasRacer := sel.RacerID.Get()
	if !hasTrack || !hasRacer {
		return o.fail(logger, &InvalidSelectionError{MissingTrack: !hasTrack, MissingRacer: !hasRacer})
	}

	o.selection.Reset()
	o.setState(Creating, nil)
	race, err := o.gateway.CreateRace(ctx, racerID, trackID)
	if err != nil {
		return o.fail(logger, errors.Wrap(err, "create race"))
	}
	race.RaceID = o.mapID(race.BackendID)
	race.PlayerID = racerID
	if o.catalog != nil {
		if t, ok := o.catalog.TrackByID(trackID); ok {
			race.Track = t
		}
	}
	if race.Track.ID == 0 {
		race.Track.ID = trackID
	}
	o.selection.SetRace(race.RaceID)
	o.setRace(race)
	logger.Info("race created", log.Int("backendId", race.BackendID), log.Int("raceId", race.RaceID))
	o.notify(func(obs Observer) { obs.RaceCreated(race) })

	o.setState(CountingDown, nil)
	timer := countdown.New(o.countdownTick, countdown.WithClock(o.clock))
	err = timer.Run(ctx, func(remaining int) {
		o.notify(func(obs Observer) { obs.CountdownTick(race, remaining) })
	})
	if err != nil {
		return o.fail(logger, errors.Wrap(err, "countdown"))
	}

	o.setState(Starting, nil)
	if err := o.gateway.StartRace(ctx, race.RaceID); err != nil {
		return o.fail(logger, errors.Wrap(err, "start race"))
	}

	o.setState(Polling, nil)
	task, err := o.poller.Start(ctx, race.RaceID, race.Track, func(board model.Leaderboard) {
		if board.Status == model.StatusFinished {
			return
		}
		o.notify(func(obs Observer) { obs.Progress(race, board) })
	})
	if err != nil {
		return o.fail(logger, err)
	}
	final, err := task.Wait()
	if err != nil {
		return o.fail(logger, errors.Wrap(err, "poll race"))
	}

	o.setState(Finished, nil)
	if winner, ok := final.Winner(); ok {
		logger.Info("race over", log.Int("raceId", race.RaceID), log.String("winner", winner.DisplayName))
	}
	o.notify(func(obs Observer) { obs.Finished(race, final) })
	return final, nil
}

// Accelerate sends one accelerate press for the current race.
func (o *Orchestrator) Accelerate(ctx context.Context) error {
	raceID, ok := o.selection.RaceID()
	if !ok {
		return ErrNoActiveRace
	}
	o.gateway.Accelerate(ctx, raceID)
	return nil
}

func (o *Orchestrator) acquire() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrRaceActive
	}
	o.running = true
	o.race = model.Race{}
	return nil
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
}

func (o *Orchestrator) setRace(r model.Race) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.race = r
}

func (o *Orchestrator) fail(logger *log.Logger, err error) (model.Leaderboard, error) {
	logger.Error("race failed", log.ErrorField(err))
	o.setState(Failed, err)
	return model.Leaderboard{}, err
}

func (o *Orchestrator) setState(s State, err error) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	log.Debug("race state changed", log.String("state", s.String()))
	o.notify(func(obs Observer) { obs.StateChanged(s, err) })
}

func (o *Orchestrator) notify(f func(Observer)) {
	o.mu.Lock()
	observers := make([]Observer, len(o.observers))
	copy(observers, o.observers)
	o.mu.Unlock()
	for _, obs := range observers {
		f(obs)
	}
}

type namingFetcher struct {
	gateway Gateway
	catalog Catalog
}

func (f namingFetcher) FetchRaceStatus(ctx context.Context, raceID int) (model.RaceSnapshot, error) {
	snap, err := f.gateway.FetchRaceStatus(ctx, raceID)
	if err != nil || f.catalog == nil {
		return snap, err
	}
	return f.catalog.Names(snap), nil
}
