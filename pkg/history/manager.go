// Package history stores the results of finished races in sqlite.
package history

import (
	"database/sql"
	"sync"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"podracer/pkg/log"
	"podracer/pkg/model"
	"podracer/pkg/race"
)

const DefaultDBName = "./podracer.db"

type Stats struct {
	Races int
	Wins  int
}

// Manager records finished races. It is a race.Observer.
type Manager struct {
	race.NopObserver

	db    *sql.DB
	mu    sync.Mutex
	clock clockwork.Clock
}

func NewManager(dbName string, clock clockwork.Clock) (*Manager, error) {
	if dbName == "" {
		dbName = DefaultDBName
	}
	db, err := sql.Open("sqlite3", dbName)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dbName)
	}

	if _, err = db.Exec(buildCreateResultsTable()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init results table")
	}

	return &Manager{db: db, clock: clock}, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.db.Close()
}

func (m *Manager) Save(r model.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stmt, args := buildInsertResultCommand(r)
	if _, err := m.db.Exec(stmt, args...); err != nil {
		return errors.Wrap(err, "save result")
	}
	return nil
}

// Recent returns the latest results, newest first.
func (m *Manager) Recent(limit int) ([]model.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stmt, args, read := buildSelectRecentCommand(limit)
	rows, err := m.db.Query(stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list results")
	}
	return read(rows)
}

func (m *Manager) StatsFor(playerID int) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s Stats
	stmt, args := buildSelectStatsCommand(playerID)
	if err := m.db.QueryRow(stmt, args...).Scan(&s.Races, &s.Wins); err != nil {
		return s, errors.Wrap(err, "player stats")
	}
	return s, nil
}

// Finished stores the outcome of a race. Failures are only logged so they
// never affect the race itself.
func (m *Manager) Finished(r model.Race, board model.Leaderboard) {
	if err := m.Save(model.NewResult(r, board, m.clock.Now())); err != nil {
		log.Error("could not record race", log.Int("raceId", r.RaceID), log.ErrorField(err))
	}
}
