// Package view renders race events and hands the result to a front end.
package view

import (
	"sync"

	"github.com/jonboulle/clockwork"

	"podracer/pkg/model"
	"podracer/pkg/pubsub"
	"podracer/pkg/race"
	"podracer/pkg/render"
)

// targets on the page an update replaces
const (
	TargetTracks = "tracks"
	TargetRacers = "racers"
	TargetRace   = "race"
	TargetBoard  = "leaderBoard"
)

// Update replaces the content of one page element.
type Update struct {
	Target string `json:"target"`
	HTML   string `json:"html"`
}

// Publisher renders race events as markup and publishes them on the views
// topic. It remembers the latest markup of every target.
type Publisher struct {
	views *pubsub.PubSub[Update]

	mu   sync.Mutex
	last map[string]string
}

func NewPublisher(views *pubsub.PubSub[Update]) *Publisher {
	return &Publisher{views: views, last: map[string]string{}}
}

func (p *Publisher) Publish(target, html string) {
	p.mu.Lock()
	p.last[target] = html
	p.mu.Unlock()
	p.views.Publish(pubsub.TopicViews, Update{Target: target, HTML: html})
}

// Forget drops the remembered markup of a target.
func (p *Publisher) Forget(target string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.last, target)
}

// Current returns the last markup published for a target.
func (p *Publisher) Current(target string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	html, ok := p.last[target]
	return html, ok
}

func (p *Publisher) StateChanged(state race.State, err error) {
	if state == race.Failed && err != nil {
		p.Forget(TargetBoard)
		p.Publish(TargetRace, render.Failure(err))
	}
}

// RaceCreated replaces the race view, the board of an earlier race goes with it.
func (p *Publisher) RaceCreated(r model.Race) {
	p.Forget(TargetBoard)
	p.Publish(TargetRace, render.RaceStartView(r.Track))
}

func (p *Publisher) CountdownTick(_ model.Race, remaining int) {
	p.Publish(TargetBoard, render.Countdown(remaining))
}

func (p *Publisher) Progress(r model.Race, board model.Leaderboard) {
	p.Publish(TargetBoard, render.Leaderboard(board, r.PlayerID))
}

// Finished leaves the results as the only view of the race.
func (p *Publisher) Finished(r model.Race, board model.Leaderboard) {
	p.Forget(TargetBoard)
	p.Publish(TargetRace, render.Results(board, r.PlayerID))
}

// ResultFeed publishes the user's result of every finished race.
type ResultFeed struct {
	race.NopObserver
	results *pubsub.PubSub[model.Result]
	clock   clockwork.Clock
}

func NewResultFeed(results *pubsub.PubSub[model.Result], clock clockwork.Clock) *ResultFeed {
	return &ResultFeed{results: results, clock: clock}
}

func (f *ResultFeed) Finished(r model.Race, board model.Leaderboard) {
	f.results.Publish(pubsub.TopicResults, model.NewResult(r, board, f.clock.Now()))
}
