// Package notification announces finished races to Telegram chats.
package notification

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/nikoksr/notify"
	"github.com/nikoksr/notify/service/telegram"
	"github.com/pkg/errors"

	"podracer/pkg/log"
	"podracer/pkg/model"
	"podracer/pkg/pubsub"
)

const subject = "Race finished"

type Manager struct {
	ctx      context.Context
	results  *pubsub.PubSub[model.Result]
	services []notify.Notifier
}

func NewManager(ctx context.Context, results *pubsub.PubSub[model.Result], services ...notify.Notifier) *Manager {
	return &Manager{
		ctx:      ctx,
		results:  results,
		services: services,
	}
}

// NewTelegram builds a service sending to the given chats through bot.
func NewTelegram(bot *tgbotapi.BotAPI, chatIDs ...int64) notify.Notifier {
	tg := &telegram.Telegram{}
	tg.SetClient(bot)
	tg.AddReceivers(chatIDs...)
	return tg
}

// Start forwards every published result until exitChan fires.
func (m *Manager) Start(exitChan <-chan bool) {
	resultsChan := m.results.Subscribe(pubsub.TopicResults)
	defer m.results.Unsubscribe(pubsub.TopicResults, resultsChan)
	for {
		select {
		case <-exitChan:
			return
		case <-m.ctx.Done():
			return
		case r, ok := <-resultsChan:
			if !ok {
				return
			}
			if err := m.Notify(m.ctx, r); err != nil {
				log.Warn("could not notify race result", log.Int("raceId", r.RaceID), log.ErrorField(err))
			}
		}
	}
}

func (m *Manager) Notify(ctx context.Context, r model.Result) error {
	if len(m.services) == 0 {
		return nil
	}
	log.Info("sending race result", log.Int("raceId", r.RaceID), log.Int("services", len(m.services)))
	n := notify.NewWithServices(m.services...)
	if err := n.Send(ctx, subject, r.String()); err != nil {
		return errors.Wrap(err, "send notification")
	}
	return nil
}
