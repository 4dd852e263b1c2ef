package config

import "time"

// this holds the resolved configuration values from CLI, config file and env
//
//nolint:lll // readablity
var (
	BackendURL           string        // base URL of the racing backend
	HTTPTimeout          time.Duration // timeout for a single backend request
	PollInterval         time.Duration // cadence of race status polling
	PollMaxTicks         int           // ticks without a terminal status before polling gives up
	CountdownTick        time.Duration // duration of one countdown step
	RaceIDOffset         int           // added to the backend race ID before it is used
	RetryMax             int           // retries for create/start race on transient failures
	RetryInitialInterval time.Duration // first backoff interval
	RetryMaxInterval     time.Duration // upper bound for backoff intervals
	WebserverAddress     string        // listen addr for the web front end
	HistoryDB            string        // path to the sqlite results store, empty disables it
	TelegramToken        string        // bot token used for result notifications
	TelegramChatIDs      []int64       // chats receiving result notifications
	TrackNames           []string      // display names applied to tracks by index
	RacerNames           []string      // display names applied to racers by index
	CatalogRefresh       time.Duration // interval after which cached tracks/racers are dropped
	LogLevel             string        // sets the log level (zap log level values)
	LogFormat            string        // text vs json
)

// defaults shared by flags and tests
const (
	DefaultBackendURL       = "http://localhost:3001"
	DefaultWebserverAddress = ":8080"
	DefaultPollInterval     = 500 * time.Millisecond
	DefaultCountdownTick    = time.Second
	DefaultRaceIDOffset     = -1
)

var (
	DefaultTrackNames = []string{"Circuit", "Stadium", "Snow", "Jungle", "Fire", "City"}
	DefaultRacerNames = []string{"Mario", "Bowser", "Luigi", "Peach", "Toadette"}
)
