// Package setup builds the components shared by the commands from the
// resolved configuration.
package setup

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/nikoksr/notify"
	"github.com/pkg/errors"

	"podracer/pkg/api"
	"podracer/pkg/catalog"
	"podracer/pkg/config"
	"podracer/pkg/history"
	"podracer/pkg/log"
	"podracer/pkg/model"
	"podracer/pkg/notification"
	"podracer/pkg/poller"
	"podracer/pkg/pubsub"
	"podracer/pkg/race"
	"podracer/pkg/selection"
)

func NewClient() *api.Client {
	return api.NewClient(config.BackendURL,
		api.WithTimeout(config.HTTPTimeout),
		api.WithRetryPolicy(api.RetryPolicy{
			MaxRetries:      config.RetryMax,
			InitialInterval: config.RetryInitialInterval,
			MaxInterval:     config.RetryMaxInterval,
		}))
}

func NewCatalog(client *api.Client) *catalog.Manager {
	return catalog.NewManager(client,
		catalog.WithTrackNames(config.TrackNames),
		catalog.WithRacerNames(config.RacerNames))
}

func NewOrchestrator(
	client *api.Client,
	sel *selection.State,
	cat *catalog.Manager,
	observers ...race.Observer,
) *race.Orchestrator {
	opts := []race.Option{
		race.WithCatalog(cat),
		race.WithIDMapper(race.OffsetMapper(config.RaceIDOffset)),
		race.WithCountdownTick(config.CountdownTick),
		race.WithPollerOptions(
			poller.WithInterval(config.PollInterval),
			poller.WithMaxTicks(config.PollMaxTicks)),
	}
	for _, obs := range observers {
		opts = append(opts, race.WithObserver(obs))
	}
	return race.NewOrchestrator(client, sel, opts...)
}

// OpenHistory returns nil when no history database is configured.
func OpenHistory() (*history.Manager, error) {
	if config.HistoryDB == "" {
		return nil, nil
	}
	return history.NewManager(config.HistoryDB, clockwork.NewRealClock())
}

// NewNotifier announces results on telegram when a token is configured and
// does nothing otherwise.
func NewNotifier(ctx context.Context, results *pubsub.PubSub[model.Result]) (*notification.Manager, error) {
	services := []notify.Notifier{}
	if config.TelegramToken != "" {
		bot, err := tgbotapi.NewBotAPI(config.TelegramToken)
		if err != nil {
			return nil, errors.Wrap(err, "telegram bot")
		}
		bot.Debug = false
		if len(config.TelegramChatIDs) == 0 {
			log.Warn("telegram token set but no chat ids configured")
		}
		services = append(services, notification.NewTelegram(bot, config.TelegramChatIDs...))
	}
	return notification.NewManager(ctx, results, services...), nil
}
