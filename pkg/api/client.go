package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"podracer/pkg/log"
	"podracer/pkg/model"
)

const (
	pathTracks     = "/api/tracks"
	pathCars       = "/api/cars"
	pathRaces      = "/api/races"
	pathRace       = "/api/races/%d"
	pathStart      = "/api/races/%d/start"
	pathAccelerate = "/api/races/%d/accelerate"

	maxErrorBody = 512
)

// RetryPolicy bounds the retries of create/start race. The zero value
// disables retrying.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(p.MaxRetries, 0))), ctx)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	retry      RetryPolicy
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 8 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ListTracks(ctx context.Context) ([]model.Track, error) {
	var dtos []trackDTO
	if err := c.do(ctx, "list tracks", http.MethodGet, pathTracks, nil, &dtos); err != nil {
		return nil, err
	}
	tracks := make([]model.Track, len(dtos))
	for i, t := range dtos {
		tracks[i] = t.toModel()
	}
	return tracks, nil
}

func (c *Client) ListRacers(ctx context.Context) ([]model.Racer, error) {
	var dtos []racerDTO
	if err := c.do(ctx, "list racers", http.MethodGet, pathCars, nil, &dtos); err != nil {
		return nil, err
	}
	racers := make([]model.Racer, len(dtos))
	for i, r := range dtos {
		racers[i] = r.toModel()
	}
	return racers, nil
}

// CreateRace registers a race for the player on the track. The returned race
// carries the backend identifier only; mapping it is up to the caller.
func (c *Client) CreateRace(ctx context.Context, playerID, trackID int) (model.Race, error) {
	body := createRaceRequest{PlayerID: playerID, TrackID: trackID}
	var resp createRaceResponse
	err := c.withRetry(ctx, "create race", func() error {
		return c.do(ctx, "create race", http.MethodPost, pathRaces, body, &resp)
	})
	if err != nil {
		return model.Race{}, err
	}
	return resp.toModel(), nil
}

func (c *Client) StartRace(ctx context.Context, raceID int) error {
	return c.withRetry(ctx, "start race", func() error {
		return c.do(ctx, "start race", http.MethodPost, fmt.Sprintf(pathStart, raceID), nil, nil)
	})
}

func (c *Client) FetchRaceStatus(ctx context.Context, raceID int) (model.RaceSnapshot, error) {
	var dto raceStatusDTO
	if err := c.do(ctx, "fetch race", http.MethodGet, fmt.Sprintf(pathRace, raceID), nil, &dto); err != nil {
		return model.RaceSnapshot{}, err
	}
	return dto.toModel(), nil
}

// Accelerate is fire-and-forget: failures are logged, never returned.
func (c *Client) Accelerate(ctx context.Context, raceID int) {
	err := c.do(ctx, "accelerate", http.MethodPost, fmt.Sprintf(pathAccelerate, raceID), nil, nil)
	if err != nil {
		log.Warn("accelerate failed", log.Int("raceId", raceID), log.ErrorField(err))
	}
}

func (c *Client) withRetry(ctx context.Context, op string, f func() error) error {
	attempt := 0
	return backoff.RetryNotify(
		func() error {
			attempt++
			err := f()
			if err != nil && !isTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		},
		c.retry.backOff(ctx),
		func(err error, wait time.Duration) {
			log.Warn("retrying backend call",
				log.String("op", op),
				log.Int("attempt", attempt),
				log.Duration("wait", wait),
				log.ErrorField(err))
		})
}

// setDefaultHeaders is applied to every request. POSTs always announce JSON,
// even without a body.
func setDefaultHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if req.Method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	url := c.baseURL + path

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "%s: encode request", op)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.Wrapf(err, "%s: build request", op)
	}
	setDefaultHeaders(req)

	log.Debug("backend request", log.String("op", op), log.String("method", method), log.String("url", url))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &NetworkError{
			Op:         op,
			URL:        url,
			StatusCode: resp.StatusCode,
			Err:        errors.Errorf("unexpected response %q", strings.TrimSpace(string(msg))),
		}
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &NetworkError{Op: op, URL: url, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "decode response")}
	}
	return nil
}
