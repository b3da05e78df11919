package cmd

import (
	"github.com/amaumene/showlink/internal/app"
	"github.com/spf13/cobra"
)

func newRefreshCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <show-id>",
		Short: "Fetch the related shows of a show and print them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showID, err := parseID(args[0], "show id")
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.RelatedShows().Refresh(cmd.Context(), showID); err != nil {
					return err
				}
				items, err := a.RelatedShows().List(cmd.Context(), showID)
				if err != nil {
					return err
				}
				return renderRelated(cmd.OutOrStdout(), items)
			})
		},
	}
}
