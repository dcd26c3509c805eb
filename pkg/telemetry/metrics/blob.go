package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/retainer/pkg/config"
)

// BlobMetrics tracks attachment blob deletions.
//
// Metrics:
//   - retainer_blob_deletions_total: Blob deletion attempts by result
type BlobMetrics struct {
	deletionsTotal *prometheus.CounterVec
}

// NewBlobMetrics creates and registers blob metrics with the provided
// registry.
func NewBlobMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BlobMetrics {
	bm := &BlobMetrics{
		deletionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "blob_deletions_total",
				Help:      "Total number of attachment blob deletion attempts",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(bm.deletionsTotal)

	return bm
}

// RecordDeletion counts one deletion attempt.
func (bm *BlobMetrics) RecordDeletion(result string) {
	bm.deletionsTotal.WithLabelValues(result).Inc()
}
