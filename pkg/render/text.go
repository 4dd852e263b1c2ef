package render

import (
	"bytes"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"

	"podracer/pkg/helper"
	"podracer/pkg/model"
)

func newTable(b *bytes.Buffer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(b)
	t.SetStyle(table.StyleRounded)
	return t
}

func LeaderboardText(board model.Leaderboard, playerID int) string {
	var b bytes.Buffer
	t := newTable(&b)
	t.SetTitle(fmt.Sprintf("%s - %s", board.Track.Name, board.Status))
	t.AppendHeader(table.Row{"#", "Code", "Racer", "Progress"})
	for i, s := range board.Standings {
		t.AppendRow(table.Row{i + 1, helper.RacerCode(s.DisplayName), racerName(s, playerID), fmt.Sprintf("%d%%", s.Progress)})
	}
	t.Render()
	return b.String()
}

func ResultsText(board model.Leaderboard, playerID int) string {
	var b bytes.Buffer
	t := newTable(&b)
	t.SetTitle("Race Results: " + board.Track.Name)
	t.AppendHeader(table.Row{"Pos", "Racer", "Final"})
	for i, s := range board.Standings {
		final := "-"
		if p, ok := s.FinalPosition.Get(); ok {
			final = fmt.Sprint(p)
		}
		t.AppendRow(table.Row{i + 1, racerName(s, playerID), final})
	}
	t.Render()
	return b.String()
}

func CatalogText(tracks []model.Track, racers []model.Racer) string {
	var b bytes.Buffer
	tt := newTable(&b)
	tt.SetTitle("Tracks")
	tt.AppendHeader(table.Row{"ID", "Name", "Segments"})
	tt.AppendRows(lo.Map(tracks, func(t model.Track, _ int) table.Row {
		return table.Row{t.ID, t.Name, t.SegmentCount}
	}))
	tt.Render()

	rt := newTable(&b)
	rt.SetTitle("Racers")
	rt.AppendHeader(table.Row{"ID", "Name", "Top Speed", "Acceleration", "Handling"})
	rt.AppendRows(lo.Map(racers, func(r model.Racer, _ int) table.Row {
		return table.Row{r.ID, r.DisplayName, r.TopSpeed, r.Acceleration, r.Handling}
	}))
	rt.Render()
	return b.String()
}

func HistoryText(results []model.Result) string {
	var b bytes.Buffer
	t := newTable(&b)
	t.SetTitle("Recent races")
	t.AppendHeader(table.Row{"Race", "Track", "Racer", "Place", "Winner", "Finished"})
	for _, r := range results {
		place := "-"
		if r.Place > 0 {
			place = fmt.Sprintf("%d/%d", r.Place, r.Racers)
		}
		t.AppendRow(table.Row{r.RaceID, r.TrackName, r.PlayerName, place, r.Winner, r.FinishedAt.Format("2006-01-02 15:04")})
	}
	t.Render()
	return b.String()
}

// HistoryHTML lists recent results for the web page.
func HistoryHTML(results []model.Result) string {
	t := table.NewWriter()
	t.Style().HTML = table.HTMLOptions{CSSClass: "history", EmptyColumn: "&nbsp;", EscapeText: true, Newline: "<br/>"}
	t.AppendHeader(table.Row{"Race", "Track", "Racer", "Place", "Winner"})
	for _, r := range results {
		t.AppendRow(table.Row{r.RaceID, r.TrackName, r.PlayerName, r.Place, r.Winner})
	}
	return t.RenderHTML()
}
