package cmd

import (
	"fmt"

	"github.com/amaumene/showlink/internal/app"
	"github.com/spf13/cobra"
)

func newAddCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "add <trakt-id>",
		Short:   "Start tracking a show",
		Example: "  showlink add 1390",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			traktID, err := parseID(args[0], "trakt id")
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(a *app.App) error {
				show, err := a.ShowService().Add(cmd.Context(), traktID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tracking show %d: %s (trakt %d)\n", show.ID, show.Title, show.TraktID)
				return nil
			})
		},
	}
}
