package view

import (
	"bytes"
	"testing"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podracer/pkg/model"
	"podracer/pkg/pubsub"
	"podracer/pkg/race"
)

var (
	testRace = model.Race{RaceID: 4, PlayerID: 1, Track: model.Track{ID: 1, Name: "Circuit", SegmentCount: 10}}
	final    = model.Leaderboard{
		Track:  testRace.Track,
		Status: model.StatusFinished,
		Standings: []model.Standing{
			{Position: model.Position{RacerID: 2, DisplayName: "Bowser", FinalPosition: omit.From(1)}, Progress: 100},
			{Position: model.Position{RacerID: 1, DisplayName: "Mario", FinalPosition: omit.From(2)}, Progress: 100},
		},
	}
)

func next(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(time.Second):
		t.Fatal("no update published")
		return Update{}
	}
}

func TestPublisher(t *testing.T) {
	ps := pubsub.NewPubSub[Update]()
	sub := ps.Subscribe(pubsub.TopicViews)
	p := NewPublisher(ps)
	var _ race.Observer = p

	p.RaceCreated(testRace)
	u := next(t, sub)
	assert.Equal(t, TargetRace, u.Target)
	assert.Contains(t, u.HTML, "Race: Circuit")

	p.CountdownTick(testRace, 2)
	u = next(t, sub)
	assert.Equal(t, TargetBoard, u.Target)
	assert.Contains(t, u.HTML, ">2<")

	p.StateChanged(race.Polling, nil)
	assert.Empty(t, sub)

	p.Finished(testRace, final)
	u = next(t, sub)
	assert.Contains(t, u.HTML, "2 - Mario (you) - 100%")

	current, ok := p.Current(TargetRace)
	require.True(t, ok)
	assert.Equal(t, u.HTML, current)

	p.StateChanged(race.Failed, errors.New("boom"))
	u = next(t, sub)
	assert.Contains(t, u.HTML, "boom")
}

func TestPublisher_DropsBoardWhenRaceViewChanges(t *testing.T) {
	inProgress := final
	inProgress.Status = model.StatusInProgress

	tests := []struct {
		name string
		end  func(p *Publisher)
	}{
		{name: "finished", end: func(p *Publisher) { p.Finished(testRace, final) }},
		{name: "failed", end: func(p *Publisher) { p.StateChanged(race.Failed, errors.New("boom")) }},
		{name: "next race", end: func(p *Publisher) { p.RaceCreated(testRace) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher(pubsub.NewPubSub[Update]())
			p.Progress(testRace, inProgress)
			_, ok := p.Current(TargetBoard)
			require.True(t, ok)

			tt.end(p)
			_, ok = p.Current(TargetBoard)
			assert.False(t, ok)
			_, ok = p.Current(TargetRace)
			assert.True(t, ok)
		})
	}
}

func TestResultFeed(t *testing.T) {
	ps := pubsub.NewPubSub[model.Result]()
	sub := ps.Subscribe(pubsub.TopicResults)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	f := NewResultFeed(ps, clockwork.NewFakeClockAt(at))

	f.Progress(testRace, final)
	assert.Empty(t, sub)

	f.Finished(testRace, final)
	res := <-sub
	assert.Equal(t, 2, res.Place)
	assert.Equal(t, "Mario", res.PlayerName)
	assert.Equal(t, "Bowser", res.Winner)
	assert.Equal(t, at, res.FinishedAt)
}

func TestConsole(t *testing.T) {
	var b bytes.Buffer
	c := NewConsole(&b)

	c.RaceCreated(testRace)
	c.CountdownTick(testRace, 3)
	c.StateChanged(race.Starting, nil)
	c.Finished(testRace, final)
	c.StateChanged(race.Failed, errors.New("boom"))

	out := b.String()
	assert.Contains(t, out, "Race: Circuit (race 4)")
	assert.Contains(t, out, "Race starts in... 3")
	assert.Contains(t, out, "Press Enter")
	assert.Contains(t, out, "Mario (you)")
	assert.Contains(t, out, "Race failed: boom")
}
