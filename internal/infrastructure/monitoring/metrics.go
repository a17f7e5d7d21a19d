package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for one repository.
type Metrics struct {
	// Listing cache metrics
	ListingHits   prometheus.Counter
	ListingMisses prometheus.Counter
	ListingErrors prometheus.Counter

	// Registry metrics
	RegistryResources prometheus.Gauge

	// Document load metrics
	LoadsTotal       *prometheus.CounterVec
	LoadErrors       *prometheus.CounterVec
	LegacyMigrations prometheus.Counter
}

// NewMetrics creates a metrics collector registered on reg. A nil registerer
// uses the default global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ListingHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "packfs_listing_cache_hits_total",
			Help: "Directory listings served from cache",
		}),
		ListingMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "packfs_listing_cache_misses_total",
			Help: "Directory listings that required a filesystem scan",
		}),
		ListingErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "packfs_listing_errors_total",
			Help: "Directory listings that failed (missing or unlistable)",
		}),
		RegistryResources: factory.NewGauge(prometheus.GaugeOpts{
			Name: "packfs_registry_resources",
			Help: "Resources memoized in the registry",
		}),
		LoadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "packfs_document_loads_total",
			Help: "Package documents loaded from disk",
		}, []string{"format"}),
		LoadErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "packfs_document_load_errors_total",
			Help: "Package document loads that failed",
		}, []string{"format"}),
		LegacyMigrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "packfs_legacy_migrations_total",
			Help: "Documents backfilled from legacy release metadata",
		}),
	}
}

// Nil-safe recording helpers: a nil *Metrics disables collection.

// RecordListing records a cache probe outcome.
func (m *Metrics) RecordListing(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.ListingHits.Inc()
	} else {
		m.ListingMisses.Inc()
	}
}

// RecordListingError records a failed directory listing.
func (m *Metrics) RecordListingError() {
	if m == nil {
		return
	}
	m.ListingErrors.Inc()
}

// RecordResource records a newly memoized resource.
func (m *Metrics) RecordResource() {
	if m == nil {
		return
	}
	m.RegistryResources.Inc()
}

// RecordLoad records a document load attempt for the given format.
func (m *Metrics) RecordLoad(format string, err error) {
	if m == nil {
		return
	}
	m.LoadsTotal.WithLabelValues(format).Inc()
	if err != nil {
		m.LoadErrors.WithLabelValues(format).Inc()
	}
}

// RecordLegacyMigration records a legacy-format backfill.
func (m *Metrics) RecordLegacyMigration() {
	if m == nil {
		return
	}
	m.LegacyMigrations.Inc()
}
