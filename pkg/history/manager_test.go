package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podracer/pkg/model"
)

func newManager(t *testing.T, clock clockwork.Clock) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "history.db"), clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManager_SaveAndRecent(t *testing.T) {
	m := newManager(t, clockwork.NewRealClock())
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		require.NoError(t, m.Save(model.Result{
			RaceID: i, TrackName: "Circuit", PlayerID: 1, PlayerName: "Mario",
			Place: i, Racers: 5, Winner: "Bowser", FinishedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := m.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 3, recent[0].RaceID)
	assert.Equal(t, 2, recent[1].RaceID)
	assert.Equal(t, base.Add(3*time.Minute), recent[0].FinishedAt)
	assert.Equal(t, "Mario", recent[0].PlayerName)

	stats, err := m.StatsFor(1)
	require.NoError(t, err)
	assert.Equal(t, Stats{Races: 3, Wins: 1}, stats)

	stats, err = m.StatsFor(9)
	require.NoError(t, err)
	assert.Zero(t, stats.Races)
}

func TestManager_RecordsFinishedRaces(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	m := newManager(t, clockwork.NewFakeClockAt(at))

	r := model.Race{RaceID: 4, PlayerID: 2, Track: model.Track{Name: "Stadium"}}
	board := model.Leaderboard{Standings: []model.Standing{
		{Position: model.Position{RacerID: 2, DisplayName: "Bowser", FinalPosition: omit.From(1)}},
		{Position: model.Position{RacerID: 1, DisplayName: "Mario", FinalPosition: omit.From(2)}},
	}}
	m.Finished(r, board)

	recent, err := m.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, model.Result{
		RaceID: 4, TrackName: "Stadium", PlayerID: 2, PlayerName: "Bowser",
		Place: 1, Racers: 2, Winner: "Bowser", FinishedAt: at,
	}, recent[0])
}
