package model

import (
	"math"
	"sort"
)

type Standing struct {
	Position
	Progress int
}

// Leaderboard is an ordered view of a snapshot ready to be rendered.
type Leaderboard struct {
	Track     Track
	Status    Status
	Standings []Standing
}

// Progress returns round(segment/segmentCount*100) clamped to [0,100].
func Progress(segment, segmentCount int) int {
	if segmentCount <= 0 {
		return 0
	}
	p := int(math.Round(float64(segment) / float64(segmentCount) * 100))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

func standings(snap RaceSnapshot, track Track) []Standing {
	ret := make([]Standing, len(snap.Positions))
	for i, p := range snap.Positions {
		ret[i] = Standing{Position: p, Progress: Progress(p.Segment, track.SegmentCount)}
	}
	return ret
}

// InProgressLeaderboard orders by descending segment, keeping the backend order for ties.
func InProgressLeaderboard(snap RaceSnapshot, track Track) Leaderboard {
	s := standings(snap, track)
	sort.SliceStable(s, func(i, j int) bool {
		return s[i].Segment > s[j].Segment
	})
	return Leaderboard{Track: track, Status: snap.Status, Standings: s}
}

// FinalLeaderboard orders by ascending final position. Entries without one go last.
func FinalLeaderboard(snap RaceSnapshot, track Track) Leaderboard {
	s := standings(snap, track)
	sort.SliceStable(s, func(i, j int) bool {
		a, aok := s[i].FinalPosition.Get()
		b, bok := s[j].FinalPosition.Get()
		switch {
		case aok && bok:
			return a < b
		default:
			return aok && !bok
		}
	})
	return Leaderboard{Track: track, Status: snap.Status, Standings: s}
}

// Winner returns the first standing, if any.
func (l Leaderboard) Winner() (Standing, bool) {
	if len(l.Standings) == 0 {
		return Standing{}, false
	}
	return l.Standings[0], true
}

// PlaceOf returns the 1-based place of a racer in the board.
func (l Leaderboard) PlaceOf(racerID int) (int, bool) {
	for i, s := range l.Standings {
		if s.RacerID == racerID {
			return i + 1, true
		}
	}
	return 0, false
}
