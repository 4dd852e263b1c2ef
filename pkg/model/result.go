package model

import (
	"fmt"
	"time"
)

// Result summarises a finished race for the user.
type Result struct {
	RaceID     int
	TrackName  string
	PlayerID   int
	PlayerName string
	Place      int // 0 when the player was not on the board
	Racers     int
	Winner     string
	FinishedAt time.Time
}

// NewResult extracts the user's outcome from the final leaderboard.
func NewResult(race Race, board Leaderboard, at time.Time) Result {
	r := Result{
		RaceID:     race.RaceID,
		TrackName:  race.Track.Name,
		PlayerID:   race.PlayerID,
		Racers:     len(board.Standings),
		FinishedAt: at,
	}
	if w, ok := board.Winner(); ok {
		r.Winner = w.DisplayName
	}
	if place, ok := board.PlaceOf(race.PlayerID); ok {
		r.Place = place
		r.PlayerName = board.Standings[place-1].DisplayName
	}
	return r
}

func (r Result) String() string {
	if r.Place == 0 {
		return fmt.Sprintf("Race %d on %s won by %s", r.RaceID, r.TrackName, r.Winner)
	}
	return fmt.Sprintf("Race %d on %s: %s finished %d of %d, winner %s",
		r.RaceID, r.TrackName, r.PlayerName, r.Place, r.Racers, r.Winner)
}
