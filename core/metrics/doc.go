// Package metrics exposes Prometheus collectors for sync and export runs.
//
// Collectors are registered on an explicit Registerer so tests can use a
// private registry:
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.NewSyncMetrics(reg)
//	m.ObserveSync(metrics.OutcomeSuccess, 1, 2, 0, 10, time.Second)
package metrics
