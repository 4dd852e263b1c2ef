package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"podracer/pkg/cmd/setup"
	"podracer/pkg/render"
)

func NewCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "list the tracks and racers offered by the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listCatalog(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func listCatalog(ctx context.Context, out io.Writer) error {
	tracks, racers, err := setup.NewCatalog(setup.NewClient()).Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load tracks and racers")
	}
	fmt.Fprint(out, render.CatalogText(tracks, racers))
	return nil
}
