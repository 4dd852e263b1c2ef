package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"podracer/pkg/cmd/setup"
	"podracer/pkg/config"
	"podracer/pkg/log"
	"podracer/pkg/model"
	"podracer/pkg/pubsub"
	"podracer/pkg/race"
	"podracer/pkg/selection"
	"podracer/pkg/view"
	"podracer/pkg/webserver"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the web front end to pick a track and a racer and follow the race",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
	cmd.Flags().StringVar(&config.WebserverAddress,
		"webserver-address",
		config.DefaultWebserverAddress,
		"listen address of the web front end")
	return cmd
}

func serve(ctx context.Context) error {
	exitChan := make(chan bool)
	defer close(exitChan)

	views := pubsub.NewPubSub[view.Update]()
	results := pubsub.NewPubSub[model.Result]()
	publisher := view.NewPublisher(views)

	client := setup.NewClient()
	cat := setup.NewCatalog(client)
	if config.CatalogRefresh > 0 {
		ticker := time.NewTicker(config.CatalogRefresh)
		defer ticker.Stop()
		cat.Sync(ticker, exitChan)
	}

	observers := []race.Observer{publisher, view.NewResultFeed(results, clockwork.NewRealClock())}
	opts := []webserver.Option{webserver.WithAddress(config.WebserverAddress)}
	hist, err := setup.OpenHistory()
	if err != nil {
		return err
	}
	if hist != nil {
		defer hist.Close()
		observers = append(observers, hist)
		opts = append(opts, webserver.WithHistory(hist))
	}

	notifier, err := setup.NewNotifier(ctx, results)
	if err != nil {
		log.Warn("notifications disabled", log.ErrorField(err))
	} else {
		go notifier.Start(exitChan)
	}

	sel := selection.New()
	o := setup.NewOrchestrator(client, sel, cat, observers...)
	return webserver.NewManager(ctx, o, sel, cat, publisher, views, opts...).Serve(ctx)
}
