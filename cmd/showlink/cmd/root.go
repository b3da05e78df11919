// Package cmd implements the showlink command line.
package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amaumene/showlink/internal/app"
	"github.com/amaumene/showlink/internal/config"
	"github.com/amaumene/showlink/internal/logging"
	"github.com/spf13/cobra"
)

type options struct {
	envFiles  []string
	logLevel  string
	logFormat string
	cfg       *config.Config
}

// NewRootCommand returns the showlink command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "showlink",
		Short: "Keep a live cache of related TV shows from Trakt",
		Long: `showlink fetches related shows from Trakt, stores them locally and
serves them over HTTP, including a server-sent-event stream that follows
every change.

Configuration comes from the environment, optionally seeded from a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "env file to load before reading the environment (default .env when present)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "override LOG_FORMAT (text or json)")

	root.AddCommand(
		newServeCommand(opts),
		newAddCommand(opts),
		newRefreshCommand(opts),
		newRelatedCommand(opts),
		newWatchCommand(opts),
	)
	return root
}

func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.envFiles...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if err := logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// withApp opens the application for the duration of fn.
func (o *options) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx, o.cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func parseID(arg, name string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, arg)
	}
	return id, nil
}
