package cmd

import (
	"fmt"

	"github.com/amaumene/showlink/internal/app"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.New(cmd.Context(), opts.cfg)
			if err != nil {
				return fmt.Errorf("initializing application: %w", err)
			}
			return a.Run(cmd.Context())
		},
	}
}
