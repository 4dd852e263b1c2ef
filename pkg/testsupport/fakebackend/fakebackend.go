// Package fakebackend serves scripted racing backend responses for tests.
package fakebackend

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// route names used for counters and injected failures
const (
	Tracks     = "tracks"
	Cars       = "cars"
	Create     = "create"
	Start      = "start"
	Status     = "status"
	Accelerate = "accelerate"
)

const (
	DefaultTracks = `[{"id":1,"name":"Track 1","segments":[1,2,3,4,5,6,7,8,9,10]},` +
		`{"id":2,"name":"Track 2","segments":[1,2,3,4,5]}]`
	DefaultCars = `[{"id":1,"driver_name":"Racer 1","top_speed":500,"acceleration":10,"handling":10},` +
		`{"id":2,"driver_name":"Racer 2","top_speed":600,"acceleration":8,"handling":7}]`
	DefaultCreate = `{"ID":"5","Track":{"id":1,"name":"Track 1","segments":[1,2,3,4,5,6,7,8,9,10]},` +
		`"Cars":[{"id":1,"driver_name":"Racer 1"},{"id":2,"driver_name":"Racer 2"}]}`
)

// Request is a recorded call.
type Request struct {
	Route       string
	Method      string
	Path        string
	RaceID      int
	ContentType string
	Accept      string
	Body        string
}

type Backend struct {
	mu       sync.Mutex
	bodies   map[string]string
	statuses []string
	failures map[string][]int
	requests []Request
	server   *httptest.Server
}

// New starts a backend that is closed when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		bodies: map[string]string{
			Tracks: DefaultTracks,
			Cars:   DefaultCars,
			Create: DefaultCreate,
		},
		failures: map[string][]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tracks", b.handle(Tracks))
	mux.HandleFunc("GET /api/cars", b.handle(Cars))
	mux.HandleFunc("POST /api/races", b.handle(Create))
	mux.HandleFunc("POST /api/races/{id}/start", b.handle(Start))
	mux.HandleFunc("GET /api/races/{id}", b.handle(Status))
	mux.HandleFunc("POST /api/races/{id}/accelerate", b.handle(Accelerate))
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) URL() string {
	return b.server.URL
}

// SetBody replaces the JSON body returned by a route.
func (b *Backend) SetBody(route, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bodies[route] = body
}

// ScriptStatus queues race status bodies. The last one is repeated once the
// script is exhausted.
func (b *Backend) ScriptStatus(bodies ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = append(b.statuses, bodies...)
}

// FailNext makes the next calls of a route answer with the given status codes.
func (b *Backend) FailNext(route string, codes ...int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[route] = append(b.failures[route], codes...)
}

func (b *Backend) Requests(route string) []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	ret := []Request{}
	for _, r := range b.requests {
		if r.Route == route {
			ret = append(ret, r)
		}
	}
	return ret
}

func (b *Backend) Calls(route string) int {
	return len(b.Requests(route))
}

func (b *Backend) handle(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		raceID, _ := strconv.Atoi(r.PathValue("id"))

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Route:       route,
			Method:      r.Method,
			Path:        r.URL.Path,
			RaceID:      raceID,
			ContentType: r.Header.Get("Content-Type"),
			Accept:      r.Header.Get("Accept"),
			Body:        string(body),
		})
		if codes := b.failures[route]; len(codes) > 0 {
			b.failures[route] = codes[1:]
			b.mu.Unlock()
			http.Error(w, fmt.Sprintf("injected failure for %s", route), codes[0])
			return
		}
		payload := b.bodies[route]
		if route == Status {
			payload = `{"status":"unstarted","positions":[]}`
			if len(b.statuses) > 0 {
				payload = b.statuses[0]
				if len(b.statuses) > 1 {
					b.statuses = b.statuses[1:]
				}
			}
		}
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if payload == "" {
			w.WriteHeader(http.StatusOK)
			return
		}
		_, _ = io.WriteString(w, payload)
	}
}
