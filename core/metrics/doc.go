// Package metrics exposes Prometheus instrumentation for repository
// operations, label allocation and HTTP requests.
//
// A *Metrics value is optional everywhere it is accepted: every recording
// method is a no-op on a nil receiver, so tests and CLI commands can pass nil.
//
// # Usage
//
//	reg := prometheus.NewRegistry()
//	m, err := metrics.New(reg)
//	app.Use(m.Middleware())
//	app.Get("/metrics", m.Handler())
package metrics
