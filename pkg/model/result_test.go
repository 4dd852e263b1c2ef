package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewResult(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	race := Race{RaceID: 4, PlayerID: 2, Track: Track{ID: 1, Name: "Circuit"}}
	board := Leaderboard{Standings: []Standing{
		{Position: Position{RacerID: 1, DisplayName: "Mario"}},
		{Position: Position{RacerID: 2, DisplayName: "Bowser"}},
	}}

	r := NewResult(race, board, at)
	assert.Equal(t, Result{
		RaceID: 4, TrackName: "Circuit", PlayerID: 2, PlayerName: "Bowser",
		Place: 2, Racers: 2, Winner: "Mario", FinishedAt: at,
	}, r)
	assert.Equal(t, "Race 4 on Circuit: Bowser finished 2 of 2, winner Mario", r.String())

	race.PlayerID = 7
	r = NewResult(race, board, at)
	assert.Zero(t, r.Place)
	assert.Equal(t, "Race 4 on Circuit won by Mario", r.String())
}
