package catalog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podracer/pkg/model"
)

type stubLister struct {
	trackCalls atomic.Int32
	racerCalls atomic.Int32
	racerErr   error
}

func (s *stubLister) ListTracks(context.Context) ([]model.Track, error) {
	s.trackCalls.Add(1)
	return []model.Track{
		{ID: 1, Name: "Track 1", SegmentCount: 10},
		{ID: 2, Name: "Track 2", SegmentCount: 5},
		{ID: 3, Name: "Track 3", SegmentCount: 8},
	}, nil
}

func (s *stubLister) ListRacers(context.Context) ([]model.Racer, error) {
	s.racerCalls.Add(1)
	if s.racerErr != nil {
		return nil, s.racerErr
	}
	return []model.Racer{
		{ID: 1, DisplayName: "Racer 1"},
		{ID: 2, DisplayName: "Racer 2"},
	}, nil
}

func TestManager_LoadAppliesNames(t *testing.T) {
	lister := &stubLister{}
	m := NewManager(lister,
		WithTrackNames([]string{"Circuit", "Stadium"}),
		WithRacerNames([]string{"Mario", "Bowser", "Luigi"}))

	tracks, racers, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Circuit", "Stadium", "Track 3"}, []string{tracks[0].Name, tracks[1].Name, tracks[2].Name})
	assert.Equal(t, "Bowser", racers[1].DisplayName)

	track, ok := m.TrackByID(2)
	assert.True(t, ok)
	assert.Equal(t, 5, track.SegmentCount)
	_, ok = m.RacerByID(9)
	assert.False(t, ok)
}

func TestManager_Caches(t *testing.T) {
	lister := &stubLister{}
	m := NewManager(lister)

	_, _, err := m.Load(context.Background())
	require.NoError(t, err)
	_, err = m.Tracks(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, lister.trackCalls.Load())

	m.Reset()
	_, err = m.Tracks(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, lister.trackCalls.Load())
}

func TestManager_LoadFails(t *testing.T) {
	lister := &stubLister{racerErr: errors.New("boom")}
	m := NewManager(lister)

	_, _, err := m.Load(context.Background())
	require.Error(t, err)
	_, ok := m.RacerByID(1)
	assert.False(t, ok)
}

func TestManager_Sync(t *testing.T) {
	lister := &stubLister{}
	m := NewManager(lister)
	_, err := m.Racers(context.Background())
	require.NoError(t, err)

	ticker := time.NewTicker(time.Millisecond)
	exit := make(chan bool)
	defer func() {
		ticker.Stop()
		close(exit)
	}()
	m.Sync(ticker, exit)

	assert.Eventually(t, func() bool {
		_, ok := m.RacerByID(1)
		return !ok
	}, time.Second, time.Millisecond)
}

func TestManager_Names(t *testing.T) {
	m := NewManager(&stubLister{}, WithRacerNames([]string{"Mario", "Bowser"}))
	_, err := m.Racers(context.Background())
	require.NoError(t, err)

	snap := model.RaceSnapshot{Positions: []model.Position{
		{RacerID: 2, DisplayName: "Racer 2"},
		{RacerID: 7, DisplayName: "Ghost"},
	}}
	named := m.Names(snap)
	assert.Equal(t, "Bowser", named.Positions[0].DisplayName)
	assert.Equal(t, "Ghost", named.Positions[1].DisplayName)
	assert.Equal(t, "Racer 2", snap.Positions[0].DisplayName)
}
