package cmd

import (
	"fmt"

	"github.com/amaumene/showlink/internal/app"
	"github.com/spf13/cobra"
)

func newWatchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <show-id>",
		Short: "Print the related shows of a show every time they change",
		Long: `Print the related shows of a show every time they change.

Changes made by another process are only seen when both processes use
STORE_BACKEND=sqlite and share REDIS_ADDR. A bolt store is locked by the
process that opened it. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showID, err := parseID(args[0], "show id")
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(a *app.App) error {
				if _, err := a.Shows().Get(cmd.Context(), showID); err != nil {
					return err
				}

				go a.RunNotifier(cmd.Context())

				out := cmd.OutOrStdout()
				for items := range a.RelatedShows().Observe(cmd.Context(), showID) {
					fmt.Fprintf(out, "-- %d related shows --\n", len(items))
					if err := renderRelated(out, items); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
