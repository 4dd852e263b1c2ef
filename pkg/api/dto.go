package api

import (
	"bytes"
	"strconv"

	"github.com/aarondl/opt/omit"
	"github.com/pkg/errors"

	"podracer/pkg/model"
)

type trackDTO struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Segments []int  `json:"segments"`
}

func (t trackDTO) toModel() model.Track {
	return model.Track{ID: t.ID, Name: t.Name, SegmentCount: len(t.Segments)}
}

type racerDTO struct {
	ID           int     `json:"id"`
	DriverName   string  `json:"driver_name"`
	TopSpeed     float64 `json:"top_speed"`
	Acceleration float64 `json:"acceleration"`
	Handling     float64 `json:"handling"`
}

func (r racerDTO) toModel() model.Racer {
	return model.Racer{
		ID:           r.ID,
		DisplayName:  r.DriverName,
		TopSpeed:     r.TopSpeed,
		Acceleration: r.Acceleration,
		Handling:     r.Handling,
	}
}

type createRaceRequest struct {
	PlayerID int `json:"player_id"`
	TrackID  int `json:"track_id"`
}

// flexibleID accepts both 5 and "5".
type flexibleID int

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	id, err := strconv.Atoi(s)
	if err != nil {
		return errors.Wrapf(err, "invalid race id %s", string(data))
	}
	*f = flexibleID(id)
	return nil
}

type createRaceResponse struct {
	ID    flexibleID `json:"ID"`
	Track trackDTO   `json:"Track"`
	Cars  []racerDTO `json:"Cars"`
}

func (r createRaceResponse) toModel() model.Race {
	racers := make([]model.Racer, len(r.Cars))
	for i, c := range r.Cars {
		racers[i] = c.toModel()
	}
	return model.Race{BackendID: int(r.ID), Track: r.Track.toModel(), Racers: racers}
}

type positionDTO struct {
	racerDTO
	Segment       int  `json:"segment"`
	FinalPosition *int `json:"final_position"`
}

type raceStatusDTO struct {
	Status    string        `json:"status"`
	Positions []positionDTO `json:"positions"`
}

func (r raceStatusDTO) toModel() model.RaceSnapshot {
	positions := make([]model.Position, len(r.Positions))
	for i, p := range r.Positions {
		var final omit.Val[int]
		if p.FinalPosition != nil {
			final = omit.From(*p.FinalPosition)
		}
		positions[i] = model.Position{
			RacerID:       p.ID,
			DisplayName:   p.DriverName,
			Segment:       p.Segment,
			FinalPosition: final,
		}
	}
	return model.RaceSnapshot{
		Status:    model.ParseStatus(r.Status),
		RawStatus: r.Status,
		Positions: positions,
	}
}
