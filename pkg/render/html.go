// Package render turns domain values into markup for the web page and into
// tables for the terminal. Nothing in here keeps state.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/aarondl/opt/omit"
	"github.com/jedib0t/go-pretty/v6/table"

	"podracer/pkg/countdown"
	"podracer/pkg/model"
)

const (
	youSuffix    = " (you)"
	newRaceLink  = "/"
	tracksLoad   = "Loading Tracks..."
	racersLoad   = "Loading Racers..."
	selectedCSS  = "selected"
	boardCSS     = "leaderboard"
	accelerateID = "gas-peddle"
)

var templates = template.Must(template.New("render").Parse(`
{{define "tracks"}}{{if not .Items}}<h4>` + tracksLoad + `</h4>{{else}}<ul class="cards">{{range .Items}}
<li data-id="{{.ID}}" class="card track{{if .Selected}} ` + selectedCSS + `{{end}}"><h3>{{.Name}}</h3></li>{{end}}
</ul>{{end}}{{end}}

{{define "racers"}}{{if not .Items}}<h4>` + racersLoad + `</h4>{{else}}<ul class="cards">{{range .Items}}
<li data-id="{{.ID}}" class="card podracer{{if .Selected}} ` + selectedCSS + `{{end}}">
<h3>{{.Name}}</h3>
<p>Top Speed: {{.Racer.TopSpeed}}</p>
<p>Acceleration: {{.Racer.Acceleration}}</p>
<p>Handling: {{.Racer.Handling}}</p>
</li>{{end}}
</ul>{{end}}{{end}}

{{define "countdown"}}<h2>Race Starts In...</h2>
<p id="big-numbers">{{.}}</p>{{end}}

{{define "start"}}<header><h1>Race: {{.Track.Name}}</h1></header>
<main id="two-columns">
<section id="leaderBoard">{{template "countdown" .Count}}</section>
<section id="accelerate">
<h2>Directions</h2>
<p>Click the button as fast as you can to make your racer go faster!</p>
<button id="` + accelerateID + `">Click Me To Win!</button>
</section>
</main>{{end}}

{{define "leaderboard"}}<h3>Leaderboard</h3>
{{.}}{{end}}

{{define "results"}}<header><h1>Race Results</h1></header>
<main><section class="results">{{template "leaderboard" .Board}}</section>
<a href="` + newRaceLink + `">Start a new race</a>
</main>{{end}}

{{define "failure"}}<header><h1>Race failed</h1></header>
<main><p class="error">{{.}}</p>
<a href="` + newRaceLink + `">Start a new race</a>
</main>{{end}}
`))

type card struct {
	ID       int
	Name     string
	Selected bool
	Racer    model.Racer
}

func execute(name string, data any) string {
	var b bytes.Buffer
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		// templates are static, this only happens on programming errors
		panic(err)
	}
	return b.String()
}

func isSelected(id int, selected omit.Val[int]) bool {
	s, ok := selected.Get()
	return ok && s == id
}

// TrackCards renders the track list. An empty list renders a loading placeholder.
func TrackCards(tracks []model.Track, selected omit.Val[int]) string {
	items := make([]card, len(tracks))
	for i, t := range tracks {
		items[i] = card{ID: t.ID, Name: t.Name, Selected: isSelected(t.ID, selected)}
	}
	return execute("tracks", struct{ Items []card }{items})
}

func RacerCards(racers []model.Racer, selected omit.Val[int]) string {
	items := make([]card, len(racers))
	for i, r := range racers {
		items[i] = card{ID: r.ID, Name: r.DisplayName, Selected: isSelected(r.ID, selected), Racer: r}
	}
	return execute("racers", struct{ Items []card }{items})
}

func Countdown(remaining int) string {
	return execute("countdown", remaining)
}

// RaceStartView is shown once the race exists: countdown and accelerate button.
func RaceStartView(track model.Track) string {
	return execute("start", struct {
		Track model.Track
		Count int
	}{track, countdown.Steps})
}

// Leaderboard renders one row per racer as "n - name - progress%".
func Leaderboard(board model.Leaderboard, playerID int) string {
	return execute("leaderboard", leaderboardTable(board, playerID))
}

// Results is the final view with a link back to the selection page.
func Results(board model.Leaderboard, playerID int) string {
	return execute("results", struct{ Board template.HTML }{leaderboardTable(board, playerID)})
}

func Failure(err error) string {
	return execute("failure", err.Error())
}

func leaderboardTable(board model.Leaderboard, playerID int) template.HTML {
	t := table.NewWriter()
	t.Style().HTML = table.HTMLOptions{CSSClass: boardCSS, EmptyColumn: "&nbsp;", EscapeText: true, Newline: "<br/>"}
	for i, s := range board.Standings {
		t.AppendRow(table.Row{fmt.Sprintf("%d - %s - %d%%", i+1, racerName(s, playerID), s.Progress)})
	}
	//nolint:gosec // the table escapes cell text
	return template.HTML(t.RenderHTML())
}

func racerName(s model.Standing, playerID int) string {
	name := s.DisplayName
	if name == "" {
		name = fmt.Sprintf("Racer %d", s.RacerID)
	}
	if s.RacerID == playerID {
		name += youSuffix
	}
	return name
}
