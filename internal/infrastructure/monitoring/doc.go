// Package monitoring provides Prometheus metrics for the catalog engine.
//
// Metrics cover the two memo layers (directory listing cache, resource
// registry) and document loading, so operators can see how often queries
// hit disk versus cache.
//
// Collection is optional: every repository accepts a nil *Metrics and
// skips recording in that case.
package monitoring
