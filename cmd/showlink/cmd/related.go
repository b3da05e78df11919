package cmd

import (
	"github.com/amaumene/showlink/internal/app"
	"github.com/spf13/cobra"
)

func newRelatedCommand(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "related <show-id>",
		Short: "Print the cached related shows of a show",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showID, err := parseID(args[0], "show id")
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(a *app.App) error {
				items, err := a.RelatedShows().List(cmd.Context(), showID)
				if err != nil {
					return err
				}
				if asJSON {
					return renderJSON(cmd.OutOrStdout(), items)
				}
				return renderRelated(cmd.OutOrStdout(), items)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
