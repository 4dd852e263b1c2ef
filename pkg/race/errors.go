package race

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrRaceActive   = errors.New("a race is already running")
	ErrNoActiveRace = errors.New("no race has been created")
)

// InvalidSelectionError is returned when a race is requested before both a
// track and a racer were picked.
type InvalidSelectionError struct {
	MissingTrack bool
	MissingRacer bool
}

func (e *InvalidSelectionError) Error() string {
	missing := []string{}
	if e.MissingTrack {
		missing = append(missing, "track")
	}
	if e.MissingRacer {
		missing = append(missing, "racer")
	}
	return "invalid selection: no " + strings.Join(missing, " and no ") + " selected"
}
