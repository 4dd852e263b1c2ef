package view

import (
	"fmt"
	"io"
	"sync"

	"podracer/pkg/model"
	"podracer/pkg/race"
	"podracer/pkg/render"
)

// Console prints race events as text for the terminal front end.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *Console) StateChanged(state race.State, err error) {
	if err != nil {
		c.printf("Race failed: %v\n", err)
		return
	}
	if state == race.Starting {
		c.printf("Go! Press Enter as fast as you can to accelerate.\n")
	}
}

func (c *Console) RaceCreated(r model.Race) {
	c.printf("Race: %s (race %d)\n", r.Track.Name, r.RaceID)
}

func (c *Console) CountdownTick(_ model.Race, remaining int) {
	c.printf("Race starts in... %d\n", remaining)
}

func (c *Console) Progress(r model.Race, board model.Leaderboard) {
	c.printf("%s", render.LeaderboardText(board, r.PlayerID))
}

func (c *Console) Finished(r model.Race, board model.Leaderboard) {
	c.printf("%s", render.ResultsText(board, r.PlayerID))
}
