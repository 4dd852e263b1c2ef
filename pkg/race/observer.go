package race

import "podracer/pkg/model"

// Observer is notified about the progress of a run. Calls for one run never
// overlap.
type Observer interface {
	StateChanged(state State, err error)
	RaceCreated(race model.Race)
	CountdownTick(race model.Race, remaining int)
	Progress(race model.Race, board model.Leaderboard)
	Finished(race model.Race, board model.Leaderboard)
}

// NopObserver ignores everything. Embed it to implement only some callbacks.
type NopObserver struct{}

func (NopObserver) StateChanged(State, error)              {}
func (NopObserver) RaceCreated(model.Race)                 {}
func (NopObserver) CountdownTick(model.Race, int)          {}
func (NopObserver) Progress(model.Race, model.Leaderboard) {}
func (NopObserver) Finished(model.Race, model.Leaderboard) {}
