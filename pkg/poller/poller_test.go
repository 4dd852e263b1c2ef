//nolint:funlen // ok for tests
package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podracer/pkg/model"
)

const interval = 500 * time.Millisecond

var track = model.Track{ID: 1, Name: "Circuit", SegmentCount: 10}

// stubFetcher answers the n-th call with steps[n]; the last step repeats.
type stubFetcher struct {
	mu    sync.Mutex
	calls int
	steps []func(ctx context.Context) (model.RaceSnapshot, error)
}

func (s *stubFetcher) FetchRaceStatus(ctx context.Context, _ int) (model.RaceSnapshot, error) {
	s.mu.Lock()
	i := min(s.calls, len(s.steps)-1)
	s.calls++
	step := s.steps[i]
	s.mu.Unlock()
	return step(ctx)
}

func (s *stubFetcher) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func snapshot(status model.Status, positions ...model.Position) func(context.Context) (model.RaceSnapshot, error) {
	return func(context.Context) (model.RaceSnapshot, error) {
		return model.RaceSnapshot{Status: status, RawStatus: string(status), Positions: positions}, nil
	}
}

func failure(context.Context) (model.RaceSnapshot, error) {
	return model.RaceSnapshot{}, errors.New("connection refused")
}

type recorder struct {
	mu      sync.Mutex
	updates []model.Leaderboard
}

func (r *recorder) record(lb model.Leaderboard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, lb)
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func (r *recorder) At(i int) model.Leaderboard {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates[i]
}

func waitTicker(t *testing.T, fc *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
}

func tickAndWait(t *testing.T, fc *clockwork.FakeClock, cond func() bool) {
	t.Helper()
	fc.Advance(interval)
	require.Eventually(t, cond, 2*time.Second, time.Millisecond)
}

func waitTask(t *testing.T, task *Task) (model.Leaderboard, error) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not resolve")
	}
	return task.Wait()
}

func TestPoller_PollsUntilFinished(t *testing.T) {
	fetcher := &stubFetcher{steps: []func(context.Context) (model.RaceSnapshot, error){
		snapshot(model.StatusPending),
		snapshot(model.StatusInProgress,
			model.Position{RacerID: 1, Segment: 3},
			model.Position{RacerID: 2, Segment: 7}),
		snapshot(model.StatusFinished,
			model.Position{RacerID: 1, Segment: 10, FinalPosition: omit.From(2)},
			model.Position{RacerID: 2, Segment: 10, FinalPosition: omit.From(1)}),
	}}
	fc := clockwork.NewFakeClock()
	p := New(fetcher, WithClock(fc), WithInterval(interval))
	rec := &recorder{}

	task, err := p.Start(context.Background(), 4, track, rec.record)
	require.NoError(t, err)
	assert.True(t, p.Active(4))
	waitTicker(t, fc)

	tickAndWait(t, fc, func() bool { return fetcher.Calls() == 1 })
	tickAndWait(t, fc, func() bool { return rec.Len() == 1 })
	assert.Equal(t, 2, rec.At(0).Standings[0].RacerID)
	assert.Equal(t, 70, rec.At(0).Standings[0].Progress)

	tickAndWait(t, fc, func() bool { return rec.Len() == 2 })
	final, err := waitTask(t, task)
	require.NoError(t, err)
	assert.Equal(t, 2, final.Standings[0].RacerID)
	assert.Equal(t, model.StatusFinished, final.Status)
	assert.Equal(t, final, rec.At(1))
	assert.False(t, p.Active(4))

	// the cadence is gone after resolving
	for range 5 {
		fc.Advance(interval)
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 3, fetcher.Calls())
	assert.Equal(t, 2, rec.Len())
}

func TestPoller_DiscardsStaleResults(t *testing.T) {
	release := make(chan struct{})
	fetcher := &stubFetcher{steps: []func(context.Context) (model.RaceSnapshot, error){
		func(ctx context.Context) (model.RaceSnapshot, error) {
			<-release
			return model.RaceSnapshot{
				Status:    model.StatusInProgress,
				Positions: []model.Position{{RacerID: 1, Segment: 1}},
			}, nil
		},
		snapshot(model.StatusInProgress, model.Position{RacerID: 1, Segment: 5}),
		snapshot(model.StatusFinished, model.Position{RacerID: 1, Segment: 10, FinalPosition: omit.From(1)}),
	}}
	fc := clockwork.NewFakeClock()
	p := New(fetcher, WithClock(fc), WithInterval(interval))
	rec := &recorder{}

	task, err := p.Start(context.Background(), 1, track, rec.record)
	require.NoError(t, err)
	waitTicker(t, fc)

	tickAndWait(t, fc, func() bool { return fetcher.Calls() == 1 })
	tickAndWait(t, fc, func() bool { return rec.Len() == 1 })
	assert.Equal(t, 5, rec.At(0).Standings[0].Segment)

	close(release)
	tickAndWait(t, fc, func() bool { return rec.Len() == 2 })
	_, err = waitTask(t, task)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFinished, rec.At(1).Status)
}

func TestPoller_FetchErrorsKeepPolling(t *testing.T) {
	fetcher := &stubFetcher{steps: []func(context.Context) (model.RaceSnapshot, error){
		failure,
		snapshot(model.StatusFinished, model.Position{RacerID: 1, Segment: 10, FinalPosition: omit.From(1)}),
	}}
	fc := clockwork.NewFakeClock()
	p := New(fetcher, WithClock(fc), WithInterval(interval))

	task, err := p.Start(context.Background(), 1, track, nil)
	require.NoError(t, err)
	waitTicker(t, fc)

	tickAndWait(t, fc, func() bool { return fetcher.Calls() == 1 })
	tickAndWait(t, fc, func() bool { return fetcher.Calls() == 2 })
	final, err := waitTask(t, task)
	require.NoError(t, err)
	assert.Len(t, final.Standings, 1)
}

func TestPoller_OnePollerPerRace(t *testing.T) {
	fetcher := &stubFetcher{steps: []func(context.Context) (model.RaceSnapshot, error){
		snapshot(model.StatusPending),
	}}
	fc := clockwork.NewFakeClock()
	p := New(fetcher, WithClock(fc), WithInterval(interval))

	task, err := p.Start(context.Background(), 4, track, nil)
	require.NoError(t, err)

	_, err = p.Start(context.Background(), 4, track, nil)
	assert.ErrorIs(t, err, ErrAlreadyPolling)

	other, err := p.Start(context.Background(), 5, track, nil)
	require.NoError(t, err)
	other.Cancel()

	task.Cancel()
	_, err = waitTask(t, task)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, p.Active(4))

	again, err := p.Start(context.Background(), 4, track, nil)
	require.NoError(t, err)
	again.Cancel()
	_, _ = waitTask(t, again)
}

func TestPoller_Timeout(t *testing.T) {
	fetcher := &stubFetcher{steps: []func(context.Context) (model.RaceSnapshot, error){
		snapshot(model.StatusPending),
	}}
	fc := clockwork.NewFakeClock()
	p := New(fetcher, WithClock(fc), WithInterval(interval), WithMaxTicks(2))

	task, err := p.Start(context.Background(), 1, track, nil)
	require.NoError(t, err)
	waitTicker(t, fc)

	tickAndWait(t, fc, func() bool { return fetcher.Calls() == 1 })
	tickAndWait(t, fc, func() bool { return fetcher.Calls() == 2 })
	fc.Advance(interval)

	_, err = waitTask(t, task)
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, 2, fetcher.Calls())
}

func TestPoller_ContextCancel(t *testing.T) {
	fetcher := &stubFetcher{steps: []func(context.Context) (model.RaceSnapshot, error){
		snapshot(model.StatusPending),
	}}
	p := New(fetcher, WithClock(clockwork.NewFakeClock()))
	ctx, cancel := context.WithCancel(context.Background())

	task, err := p.Start(ctx, 1, track, nil)
	require.NoError(t, err)
	cancel()

	_, err = waitTask(t, task)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fetcher.Calls())
}
