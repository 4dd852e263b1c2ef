// Package selection keeps the user's current track, racer and race choices.
package selection

import (
	"sync"

	"github.com/aarondl/opt/omit"

	"podracer/pkg/model"
)

type Group string

const (
	GroupTrack Group = "track"
	GroupRacer Group = "racer"
)

type State struct {
	mu  sync.Mutex
	sel model.Selection
}

func New() *State {
	return &State{}
}

// SelectTrack replaces any previously selected track.
func (s *State) SelectTrack(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.TrackID = omit.From(id)
}

func (s *State) SelectRacer(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.RacerID = omit.From(id)
}

// SetRace stores the identifier of the race created in this session.
func (s *State) SetRace(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.RaceID = omit.From(id)
}

// Reset forgets the race. Track and racer stay selected.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel.RaceID = omit.Val[int]{}
}

func (s *State) Snapshot() model.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Marked returns the selected id of a group.
func (s *State) Marked(g Group) (int, bool) {
	sel := s.Snapshot()
	switch g {
	case GroupTrack:
		return sel.TrackID.Get()
	case GroupRacer:
		return sel.RacerID.Get()
	default:
		return 0, false
	}
}

func (s *State) RaceID() (int, bool) {
	return s.Snapshot().RaceID.Get()
}
