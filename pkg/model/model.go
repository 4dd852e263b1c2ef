package model

import (
	"fmt"

	"github.com/aarondl/opt/omit"
)

type Track struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	SegmentCount int    `json:"segmentCount"`
}

type Racer struct {
	ID           int     `json:"id"`
	DisplayName  string  `json:"displayName"`
	TopSpeed     float64 `json:"topSpeed"`
	Acceleration float64 `json:"acceleration"`
	Handling     float64 `json:"handling"`
}

// Selection is a copy of the user's current choices.
type Selection struct {
	TrackID omit.Val[int]
	RacerID omit.Val[int]
	RaceID  omit.Val[int]
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusFinished   Status = "finished"
)

// ParseStatus maps a backend status. Anything unknown is pending.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusInProgress:
		return StatusInProgress
	case StatusFinished:
		return StatusFinished
	default:
		return StatusPending
	}
}

func (s Status) Terminal() bool {
	return s == StatusFinished
}

type Position struct {
	RacerID       int
	DisplayName   string
	Segment       int
	FinalPosition omit.Val[int]
}

// RaceSnapshot is the result of one status poll. Treat it as immutable.
type RaceSnapshot struct {
	Status    Status
	RawStatus string
	Positions []Position
}

// Race is what the backend hands back when a race is created. PlayerID is
// the racer driven by the user.
type Race struct {
	BackendID int
	RaceID    int
	PlayerID  int
	Track     Track
	Racers    []Racer
}

func (r Race) String() string {
	return fmt.Sprintf("race %d (backend %d) on %s with %d racers", r.RaceID, r.BackendID, r.Track.Name, len(r.Racers))
}
