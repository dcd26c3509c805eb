package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/retainer/pkg/config"
)

// TableMetrics exposes live and archive table sizes.
//
// Metrics:
//   - retainer_table_rows: Current row count per table
type TableMetrics struct {
	rows *prometheus.GaugeVec
}

// NewTableMetrics creates and registers table metrics with the provided
// registry.
func NewTableMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *TableMetrics {
	tm := &TableMetrics{
		rows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "table_rows",
				Help:      "Current number of rows per live and archive table",
			},
			[]string{"table"},
		),
	}

	registry.MustRegister(tm.rows)

	return tm
}

// UpdateRows sets the row count of a table.
func (tm *TableMetrics) UpdateRows(table string, rows int64) {
	tm.rows.WithLabelValues(table).Set(float64(rows))
}
