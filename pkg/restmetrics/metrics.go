// Package restmetrics records Prometheus metrics for calls made by a
// rest.Client. A Recorder plugs into the client as a request and a response
// interceptor.
package restmetrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baguette-io/baguette-utils/pkg/rest"
)

const startKey = "restmetrics.start"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder publishes Prometheus metrics for client calls.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler
	now      func() time.Time

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a
// dedicated registry with the process and Go collectors is created.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "baguette",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "HTTP exchanges completed by the REST client.",
	}, []string{"method", "status_code", "outcome"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "baguette",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP exchanges, retries included.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "outcome"})

	reg.MustRegister(requests, latency)

	return &Recorder{
		gatherer: reg,
		handler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		now:      time.Now,
		requests: requests,
		latency:  latency,
	}
}

// Handler exposes the Prometheus HTTP handler for the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return r.handler
}

// Gatherer returns the underlying Prometheus gatherer.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.gatherer
}

// Observe records one completed exchange. A zero status code means no
// response was received.
func (r *Recorder) Observe(method rest.Method, statusCode int, failed bool, duration time.Duration) {
	outcome := OutcomeOK
	if failed {
		outcome = OutcomeError
	}

	status := "unknown"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}

	r.requests.WithLabelValues(method.String(), status, outcome).Inc()
	r.latency.WithLabelValues(method.String(), outcome).Observe(duration.Seconds())
}

// RequestInterceptor stamps the start time of each exchange.
func (r *Recorder) RequestInterceptor() rest.RequestInterceptor {
	return func(_ context.Context, req *rest.Request) error {
		if req.Metadata == nil {
			req.Metadata = map[string]interface{}{}
		}

		req.Metadata[startKey] = r.now()

		return nil
	}
}

// ResponseInterceptor observes the exchange stamped by RequestInterceptor.
func (r *Recorder) ResponseInterceptor() rest.ResponseInterceptor {
	return func(_ context.Context, req *rest.Request, resp *rest.Response) error {
		var duration time.Duration
		if start, ok := req.Metadata[startKey].(time.Time); ok {
			duration = r.now().Sub(start)
		}

		r.Observe(req.Method, resp.StatusCode, resp.Error != nil, duration)

		return nil
	}
}

// Instrument adds the recorder's interceptors to config.
func (r *Recorder) Instrument(config *rest.Config) {
	config.RequestInterceptors = append(config.RequestInterceptors, r.RequestInterceptor())
	config.ResponseInterceptors = append(config.ResponseInterceptors, r.ResponseInterceptor())
}
