// Package catalog caches the tracks and racers offered by the backend.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"podracer/pkg/log"
	"podracer/pkg/model"
)

type Lister interface {
	ListTracks(ctx context.Context) ([]model.Track, error)
	ListRacers(ctx context.Context) ([]model.Racer, error)
}

type Manager struct {
	lister     Lister
	trackNames []string
	racerNames []string

	mu     sync.Mutex
	tracks []model.Track
	racers []model.Racer
}

type Option func(*Manager)

// WithTrackNames overrides track names by position in the backend list.
func WithTrackNames(names []string) Option {
	return func(m *Manager) { m.trackNames = names }
}

func WithRacerNames(names []string) Option {
	return func(m *Manager) { m.racerNames = names }
}

func NewManager(lister Lister, opts ...Option) *Manager {
	m := &Manager{lister: lister}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sync drops the cache on every tick so the next read refetches.
func (m *Manager) Sync(ticker *time.Ticker, exitChan <-chan bool) {
	go func() {
		for {
			select {
			case <-exitChan:
				return
			case t := <-ticker.C:
				log.Debug("resetting catalog", log.Time("at", t))
				m.Reset()
			}
		}
	}()
}

func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracks = nil
	m.racers = nil
}

// Load fetches tracks and racers concurrently. Either failure fails the load.
func (m *Manager) Load(ctx context.Context) ([]model.Track, []model.Racer, error) {
	g, gctx := errgroup.WithContext(ctx)
	var (
		tracks []model.Track
		racers []model.Racer
	)
	g.Go(func() error {
		var err error
		tracks, err = m.Tracks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		racers, err = m.Racers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return tracks, racers, nil
}

func (m *Manager) Tracks(ctx context.Context) ([]model.Track, error) {
	m.mu.Lock()
	cached := m.tracks
	m.mu.Unlock()
	if len(cached) > 0 {
		return cached, nil
	}

	ts, err := m.lister.ListTracks(ctx)
	if err != nil {
		return nil, err
	}
	ts = lo.Map(ts, func(t model.Track, i int) model.Track {
		if i < len(m.trackNames) && m.trackNames[i] != "" {
			t.Name = m.trackNames[i]
		}
		return t
	})

	m.mu.Lock()
	m.tracks = ts
	m.mu.Unlock()
	return ts, nil
}

func (m *Manager) Racers(ctx context.Context) ([]model.Racer, error) {
	m.mu.Lock()
	cached := m.racers
	m.mu.Unlock()
	if len(cached) > 0 {
		return cached, nil
	}

	rs, err := m.lister.ListRacers(ctx)
	if err != nil {
		return nil, err
	}
	rs = lo.Map(rs, func(r model.Racer, i int) model.Racer {
		if i < len(m.racerNames) && m.racerNames[i] != "" {
			r.DisplayName = m.racerNames[i]
		}
		return r
	})

	m.mu.Lock()
	m.racers = rs
	m.mu.Unlock()
	return rs, nil
}

// TrackByID only looks at the cache.
func (m *Manager) TrackByID(id int) (model.Track, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Find(m.tracks, func(t model.Track) bool { return t.ID == id })
}

func (m *Manager) RacerByID(id int) (model.Racer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo.Find(m.racers, func(r model.Racer) bool { return r.ID == id })
}

// Names applies cached racer names to the positions of a snapshot.
func (m *Manager) Names(snap model.RaceSnapshot) model.RaceSnapshot {
	m.mu.Lock()
	byID := lo.SliceToMap(m.racers, func(r model.Racer) (int, string) { return r.ID, r.DisplayName })
	m.mu.Unlock()

	out := snap
	out.Positions = lo.Map(snap.Positions, func(p model.Position, _ int) model.Position {
		if name, ok := byID[p.RacerID]; ok {
			p.DisplayName = name
		}
		return p
	})
	return out
}
