// Package webserver serves the race page and turns its clicks into race
// actions. Rendered views are pushed to the page over a websocket.
package webserver

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"podracer/pkg/helper"
	"podracer/pkg/log"
	"podracer/pkg/model"
	"podracer/pkg/pubsub"
	"podracer/pkg/race"
	"podracer/pkg/render"
	"podracer/pkg/selection"
	"podracer/pkg/view"
)

//go:embed static/index.html
var indexHTML []byte

const historyLimit = 10

var upgrader = websocket.Upgrader{} // use default options

type Orchestrator interface {
	Run(ctx context.Context) (model.Leaderboard, error)
	Accelerate(ctx context.Context) error
	State() race.State
}

type Catalog interface {
	Tracks(ctx context.Context) ([]model.Track, error)
	Racers(ctx context.Context) ([]model.Racer, error)
	TrackByID(id int) (model.Track, bool)
	RacerByID(id int) (model.Racer, bool)
}

type History interface {
	Recent(limit int) ([]model.Result, error)
}

type Manager struct {
	r            *mux.Router
	addr         string
	orchestrator Orchestrator
	selection    *selection.State
	catalog      Catalog
	publisher    *view.Publisher
	views        *pubsub.PubSub[view.Update]
	history      History

	// races run detached from the request that started them
	baseCtx context.Context
	races   sync.WaitGroup
}

type Option func(*Manager)

func WithHistory(h History) Option {
	return func(m *Manager) { m.history = h }
}

func WithAddress(addr string) Option {
	return func(m *Manager) { m.addr = addr }
}

func NewManager(
	ctx context.Context,
	orchestrator Orchestrator,
	sel *selection.State,
	catalog Catalog,
	publisher *view.Publisher,
	views *pubsub.PubSub[view.Update],
	opts ...Option,
) *Manager {
	m := &Manager{
		r:            mux.NewRouter(),
		addr:         ":8080",
		orchestrator: orchestrator,
		selection:    sel,
		catalog:      catalog,
		publisher:    publisher,
		views:        views,
		baseCtx:      ctx,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.rootHandlers()
	return m
}

func (m *Manager) rootHandlers() {
	m.r.HandleFunc("/", m.indexHandler()).Methods(http.MethodGet)
	m.r.HandleFunc("/views/tracks", m.tracksHandler()).Methods(http.MethodGet)
	m.r.HandleFunc("/views/racers", m.racersHandler()).Methods(http.MethodGet)
	m.r.HandleFunc("/tracks/{id}/select", m.selectTrackHandler()).Methods(http.MethodPost)
	m.r.HandleFunc("/racers/{id}/select", m.selectRacerHandler()).Methods(http.MethodPost)
	m.r.HandleFunc("/races", m.createRaceHandler()).Methods(http.MethodPost)
	m.r.HandleFunc("/races/accelerate", m.accelerateHandler()).Methods(http.MethodPost)
	m.r.HandleFunc("/races/current", m.currentRaceHandler()).Methods(http.MethodGet)
	m.r.HandleFunc("/history", m.historyHandler()).Methods(http.MethodGet)
	m.r.HandleFunc("/ws", m.websocketHandler())
}

// Handler is the router wrapped with CORS.
func (m *Manager) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodPost},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(m.r)
}

// Routes lists the registered path templates.
func (m *Manager) Routes() []string {
	routes := []string{}
	_ = m.r.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := route.GetMethods()
		routes = append(routes, strings.TrimSpace(strings.Join(methods, ",")+" "+pathTemplate))
		return nil
	})
	return routes
}

// Serve blocks until ctx is done, then shuts the server down and waits for
// running races to end.
func (m *Manager) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         m.addr,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      m.Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("webserver listening", log.String("addr", m.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return errors.Wrap(err, "webserver")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	m.races.Wait()
	log.Info("webserver shutting down")
	return err
}

func writeHTML(w http.ResponseWriter, status int, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprint(w, html)
}

func (m *Manager) indexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// a new page forgets a race that is over, never a running one
		if s := m.orchestrator.State(); s == race.Idle || s.Terminal() {
			m.selection.Reset()
		}
		writeHTML(w, http.StatusOK, string(indexHTML))
	}
}

func (m *Manager) tracksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tracks, err := m.catalog.Tracks(r.Context())
		if err != nil {
			log.Warn("could not load tracks", log.ErrorField(err))
			writeHTML(w, http.StatusBadGateway, render.Failure(err))
			return
		}
		writeHTML(w, http.StatusOK, render.TrackCards(tracks, m.selection.Snapshot().TrackID))
	}
}

func (m *Manager) racersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		racers, err := m.catalog.Racers(r.Context())
		if err != nil {
			log.Warn("could not load racers", log.ErrorField(err))
			writeHTML(w, http.StatusBadGateway, render.Failure(err))
			return
		}
		writeHTML(w, http.StatusOK, render.RacerCards(racers, m.selection.Snapshot().RacerID))
	}
}

func (m *Manager) selectTrackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := helper.ParseID(mux.Vars(r)["id"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		tracks, err := m.catalog.Tracks(r.Context())
		if err != nil {
			writeHTML(w, http.StatusBadGateway, render.Failure(err))
			return
		}
		if _, ok := m.catalog.TrackByID(id); !ok {
			http.Error(w, fmt.Sprintf("unknown track %d", id), http.StatusNotFound)
			return
		}
		m.selection.SelectTrack(id)
		html := render.TrackCards(tracks, m.selection.Snapshot().TrackID)
		m.publisher.Publish(view.TargetTracks, html)
		writeHTML(w, http.StatusOK, html)
	}
}

func (m *Manager) selectRacerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := helper.ParseID(mux.Vars(r)["id"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		racers, err := m.catalog.Racers(r.Context())
		if err != nil {
			writeHTML(w, http.StatusBadGateway, render.Failure(err))
			return
		}
		if _, ok := m.catalog.RacerByID(id); !ok {
			http.Error(w, fmt.Sprintf("unknown racer %d", id), http.StatusNotFound)
			return
		}
		m.selection.SelectRacer(id)
		html := render.RacerCards(racers, m.selection.Snapshot().RacerID)
		m.publisher.Publish(view.TargetRacers, html)
		writeHTML(w, http.StatusOK, html)
	}
}

func (m *Manager) createRaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel := m.selection.Snapshot()
		if !sel.TrackID.IsValue() || !sel.RacerID.IsValue() {
			err := &race.InvalidSelectionError{MissingTrack: !sel.TrackID.IsValue(), MissingRacer: !sel.RacerID.IsValue()}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if s := m.orchestrator.State(); s != race.Idle && !s.Terminal() {
			http.Error(w, race.ErrRaceActive.Error(), http.StatusConflict)
			return
		}

		m.races.Add(1)
		go func() {
			defer m.races.Done()
			if _, err := m.orchestrator.Run(m.baseCtx); err != nil {
				log.Warn("race ended with error", log.ErrorField(err))
			}
		}()
		w.WriteHeader(http.StatusAccepted)
	}
}

func (m *Manager) accelerateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.orchestrator.Accelerate(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (m *Manager) currentRaceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updates := []view.Update{}
		for _, target := range []string{view.TargetRace, view.TargetBoard} {
			if html, ok := m.publisher.Current(target); ok {
				updates = append(updates, view.Update{Target: target, HTML: html})
			}
		}
		if len(updates) == 0 {
			http.Error(w, "no race yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(updates)
	}
}

func (m *Manager) historyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.history == nil {
			http.Error(w, "history disabled", http.StatusNotFound)
			return
		}
		results, err := m.history.Recent(historyLimit)
		if err != nil {
			log.Error("could not read history", log.ErrorField(err))
			http.Error(w, "history unavailable", http.StatusInternalServerError)
			return
		}
		writeHTML(w, http.StatusOK, render.HistoryHTML(results))
	}
}

func (m *Manager) websocketHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", log.ErrorField(err))
			return
		}
		defer c.Close()

		clientID := uuid.NewString()
		updates := m.views.Subscribe(pubsub.TopicViews)
		defer m.views.Unsubscribe(pubsub.TopicViews, updates)
		log.Debug("websocket client connected", log.String("client", clientID))

		// the page never sends anything; reading detects the close
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := c.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case u, ok := <-updates:
				if !ok {
					return
				}
				if err := c.WriteJSON(u); err != nil {
					log.Debug("websocket write failed", log.String("client", clientID), log.ErrorField(err))
					return
				}
			case <-closed:
				log.Debug("websocket closed", log.String("client", clientID))
				return
			case <-m.baseCtx.Done():
				return
			}
		}
	}
}
