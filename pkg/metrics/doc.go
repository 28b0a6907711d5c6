// Package metrics provides tracking and export of registry request metrics.
// It integrates with Prometheus to count requests by method and status and to record latency.
//
// Key components:
//   - Metrics: Holds the request counters and latency histogram.
//   - NewWithRegistry: Creates and registers the collectors.
//   - WriteTextfile: Writes gathered metrics in Prometheus text format.
//
// Usage example:
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.NewWithRegistry(reg)
//	if err != nil {
//	    logrus.WithError(err).Fatal("Failed to register metrics")
//	}
//	m.ObserveRequest(http.MethodGet, http.StatusOK, elapsed)
//	_ = metrics.WriteTextfile("/var/lib/node_exporter/registry.prom", reg)
//
// The transport package reports every request through the Observer interface satisfied by Metrics.
package metrics
