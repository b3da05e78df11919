// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

func Setup(out io.Writer, level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	formatter, err := newFormatter(format)
	if err != nil {
		return err
	}

	log.SetOutput(out)
	log.SetLevel(lvl)
	log.SetFormatter(formatter)
	return nil
}

func newFormatter(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return &log.TextFormatter{FullTimestamp: true}, nil
	case FormatJSON:
		return &log.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}
