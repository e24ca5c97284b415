package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteRequestsTotal counts pricing requests by mode and outcome.
	QuoteRequestsTotal *prometheus.CounterVec
	// QuoteLines records the number of lines priced per request.
	QuoteLines *prometheus.HistogramVec
	// CatalogCacheTotal counts catalog snapshot cache lookups by result.
	CatalogCacheTotal *prometheus.CounterVec
	// CatalogLoadDuration records full catalog loads from the source in seconds.
	CatalogLoadDuration *prometheus.HistogramVec
	// OrderSnapshotsTotal counts frozen orders by resulting status.
	OrderSnapshotsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_requests_total",
			Help:      "Count of quote requests by pricing mode and result.",
		}, []string{"mode", "result"})
		QuoteLines = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_lines",
			Help:      "Number of cart lines priced per quote.",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 50, 100, 500},
		}, []string{"mode"})
		CatalogCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Catalog snapshot cache lookups by result.",
		}, []string{"result"})
		CatalogLoadDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_load_duration_seconds",
			Help:      "Latency of loading the catalog from its source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"})
		OrderSnapshotsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_snapshots_total",
			Help:      "Frozen order snapshots by status.",
		}, []string{"status"})

		mustRegisterCollector(reg, QuoteRequestsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteRequestsTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteLines, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				QuoteLines = v
			}
		})
		mustRegisterCollector(reg, CatalogCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogCacheTotal = v
			}
		})
		mustRegisterCollector(reg, CatalogLoadDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				CatalogLoadDuration = v
			}
		})
		mustRegisterCollector(reg, OrderSnapshotsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderSnapshotsTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
