package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// errFailedRegister indicates a collector could not be registered.
var errFailedRegister = errors.New("failed to register metric")

// errFailedWrite indicates the metrics textfile could not be written.
var errFailedWrite = errors.New("failed to write metrics file")

// statusTransportFailure labels requests that never produced an HTTP status.
const statusTransportFailure = "none"

// Metrics holds the Prometheus collectors for registry requests.
type Metrics struct {
	requests *prometheus.CounterVec   // Requests by method and status code.
	duration *prometheus.HistogramVec // Request latency by method.
}

// NewWithRegistry creates a Metrics handler and registers its collectors.
//
// Parameters:
//   - registry: Prometheus registerer to use for metric registration.
//
// Returns:
//   - (*Metrics, error): Metrics handler, or an error if registration fails.
func NewWithRegistry(registry prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "docker_registry_requests_total",
			Help: "Number of requests sent to the registry, by method and status code",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docker_registry_request_duration_seconds",
			Help:    "Latency of registry requests, by method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	for _, collector := range []prometheus.Collector{metrics.requests, metrics.duration} {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("%w: %w", errFailedRegister, err)
		}
	}

	return metrics, nil
}

// ObserveRequest records one completed or failed request.
//
// Parameters:
//   - method: HTTP method.
//   - statusCode: Response status, 0 if the transport failed before a response.
//   - elapsed: Time spent on the request.
func (m *Metrics) ObserveRequest(method string, statusCode int, elapsed time.Duration) {
	code := statusTransportFailure
	if statusCode != 0 {
		code = strconv.Itoa(statusCode)
	}

	m.requests.WithLabelValues(method, code).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// WriteTextfile writes all metrics gathered from gatherer to path in Prometheus text format.
func WriteTextfile(path string, gatherer prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("%w: %w", errFailedWrite, err)
	}

	return nil
}
