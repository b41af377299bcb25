package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"golang.org/x/term"

	"github.com/baguette-io/baguette-utils/internal/constants"
	"github.com/baguette-io/baguette-utils/pkg/logging"
	"github.com/baguette-io/baguette-utils/pkg/rest"
	"github.com/baguette-io/baguette-utils/pkg/restclient"
	"github.com/baguette-io/baguette-utils/pkg/restmetrics"
)

// newLogger writes to stderr, human-readable on a terminal.
func newLogger(settings *Settings) *logging.ZeroLogger {
	level := settings.LogLevel
	if settings.Verbose {
		level = "debug"
	}

	return logging.New(level, term.IsTerminal(int(os.Stderr.Fd())))
}

// clientConfig maps settings onto a client configuration.
func clientConfig(settings *Settings, logger rest.Logger) *rest.Config {
	config := &rest.Config{
		BaseURL:        settings.API,
		Timeout:        settings.Timeout,
		Retries:        settings.Retries,
		DisableRetries: settings.Retries == 0,
		Backoff:        settings.Backoff,
		DisableBackoff: settings.Backoff == 0,
		RetryStatuses:  settings.StatusForce,
		Limit:          settings.Limit,
		MaxPages:       settings.MaxPages,
		UserAgent:      settings.UserAgent,
		Debug:          settings.Verbose,
		Logger:         logger,
		CacheTTL:       settings.CacheTTL,
	}

	if settings.RateLimit > 0 {
		config.RequestInterceptors = append(config.RequestInterceptors,
			rest.RateLimitInterceptor(settings.RateLimit, 1))
	}

	if settings.Verbose {
		config.RequestInterceptors = append(config.RequestInterceptors, rest.LoggingInterceptor(logger))
		config.ResponseInterceptors = append(config.ResponseInterceptors, rest.LoggingResponseInterceptor(logger))
	}

	return config
}

// newClient builds a client from settings. The returned cleanup releases the
// response cache connection, if any, and prints metrics when requested.
func newClient(settings *Settings, stderr io.Writer) (rest.Client, func(), error) {
	if settings.API == "" {
		return nil, nil, constants.ErrNoAPIConfigured
	}

	logger := newLogger(settings)
	config := clientConfig(settings, logger)
	cleanup := func() {}

	if settings.Metrics {
		recorder := restmetrics.NewRecorder(prometheus.NewRegistry())
		recorder.Instrument(config)

		cleanup = func() {
			err := writeMetrics(stderr, recorder.Gatherer())
			if err != nil {
				logger.Warn("Writing metrics failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	if settings.NATSURL != "" {
		cache, err := rest.NewNATSKVCache(&rest.NATSKVConfig{
			URL:     settings.NATSURL,
			Timeout: constants.ShortHTTPTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening response cache: %w", err)
		}

		config.Cache = cache
		printMetrics := cleanup
		cleanup = func() {
			printMetrics()
			cache.Close()
		}
	}

	client, err := restclient.New(config)
	if err != nil {
		cleanup()

		return nil, nil, err
	}

	return client, cleanup, nil
}

// writeMetrics prints the gathered families in the Prometheus text format.
func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	for _, family := range families {
		_, err = expfmt.MetricFamilyToText(w, family)
		if err != nil {
			return fmt.Errorf("encoding metrics: %w", err)
		}
	}

	return nil
}
