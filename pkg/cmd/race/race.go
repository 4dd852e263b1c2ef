package race

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"podracer/pkg/catalog"
	"podracer/pkg/cmd/setup"
	"podracer/pkg/log"
	"podracer/pkg/model"
	"podracer/pkg/pubsub"
	"podracer/pkg/race"
	"podracer/pkg/render"
	"podracer/pkg/selection"
	"podracer/pkg/view"
)

var (
	trackID int
	racerID int
)

func NewRaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "race",
		Short: "run one race in the terminal, press Enter to accelerate",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runRace(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&trackID, "track", "t", 0, "id of the track to race on")
	cmd.Flags().IntVarP(&racerID, "racer", "r", 0, "id of the racer to drive")
	return cmd
}

//nolint:funlen // wiring
func runRace(ctx context.Context, in io.Reader, out io.Writer) error {
	client := setup.NewClient()
	cat := setup.NewCatalog(client)
	tracks, racers, err := cat.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load tracks and racers")
	}

	sel := selection.New()
	if err := selectFromFlags(cat, sel); err != nil {
		fmt.Fprint(out, render.CatalogText(tracks, racers))
		return err
	}

	observers := []race.Observer{view.NewConsole(out)}
	hist, err := setup.OpenHistory()
	if err != nil {
		return err
	}
	if hist != nil {
		defer hist.Close()
		observers = append(observers, hist)
	}
	o := setup.NewOrchestrator(client, sel, cat, observers...)

	go accelerateOnEnter(ctx, in, o)

	final, err := o.Run(ctx)
	if err != nil {
		return err
	}

	notifier, err := setup.NewNotifier(ctx, pubsub.NewPubSub[model.Result]())
	if err != nil {
		log.Warn("notifications disabled", log.ErrorField(err))
		return nil
	}
	current, _ := o.Current()
	if err := notifier.Notify(ctx, model.NewResult(current, final, time.Now())); err != nil {
		log.Warn("could not notify race result", log.ErrorField(err))
	}
	return nil
}

func selectFromFlags(cat *catalog.Manager, sel *selection.State) error {
	if _, ok := cat.TrackByID(trackID); !ok {
		return errors.Errorf("unknown track %d, pick one with --track", trackID)
	}
	if _, ok := cat.RacerByID(racerID); !ok {
		return errors.Errorf("unknown racer %d, pick one with --racer", racerID)
	}
	sel.SelectTrack(trackID)
	sel.SelectRacer(racerID)
	return nil
}

// accelerateOnEnter sends one accelerate press per line read while the race runs.
func accelerateOnEnter(ctx context.Context, in io.Reader, o *race.Orchestrator) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if o.State() != race.Polling {
			continue
		}
		if err := o.Accelerate(ctx); err != nil {
			log.Debug("accelerate ignored", log.ErrorField(err))
		}
	}
}
