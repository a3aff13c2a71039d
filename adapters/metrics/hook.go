package exportmetrics

import (
	"context"
	"strings"

	"github.com/goliatone/go-tabular-export/export"
	"github.com/prometheus/client_golang/prometheus"
)

// Config configures metric names.
type Config struct {
	Namespace string
	Subsystem string
	// DurationBuckets defaults to prometheus.DefBuckets.
	DurationBuckets []float64
}

// Hook records export events as Prometheus metrics.
//
// Metrics:
//   - <ns>_<sub>_total: exports by format, origin, status and error kind
//   - <ns>_<sub>_duration_seconds: export duration by format and origin
//   - <ns>_<sub>_rows_total / <ns>_<sub>_bytes_total: output volume
type Hook struct {
	exports  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	rows     *prometheus.CounterVec
	bytes    *prometheus.CounterVec
}

var _ export.MetricsHook = (*Hook)(nil)

// NewHook creates the export metrics and registers them with reg.
func NewHook(cfg Config, reg prometheus.Registerer) (*Hook, error) {
	if strings.TrimSpace(cfg.Namespace) == "" {
		cfg.Namespace = "tabexport"
	}
	if strings.TrimSpace(cfg.Subsystem) == "" {
		cfg.Subsystem = "exports"
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = prometheus.DefBuckets
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	h := &Hook{
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "total",
				Help:      "Total number of exports by outcome",
			},
			[]string{"format", "origin", "status", "error_kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "duration_seconds",
				Help:      "Duration of exports in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"format", "origin"},
		),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rows_total",
				Help:      "Total number of rows written by successful exports",
			},
			[]string{"format", "origin"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "bytes_total",
				Help:      "Total number of bytes written by successful exports",
			},
			[]string{"format", "origin"},
		),
	}

	for _, collector := range []prometheus.Collector{h.exports, h.duration, h.rows, h.bytes} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Emit records one export event.
func (h *Hook) Emit(ctx context.Context, evt export.MetricsEvent) error {
	_ = ctx
	if h == nil {
		return export.NewError(export.KindInternal, "metrics hook is nil", nil)
	}
	format := string(evt.Format)
	status := "success"
	if evt.Name == export.EventFailed {
		status = "failure"
	}

	h.exports.WithLabelValues(format, evt.Origin, status, string(evt.ErrorKind)).Inc()
	h.duration.WithLabelValues(format, evt.Origin).Observe(evt.Duration.Seconds())
	if status == "success" {
		h.rows.WithLabelValues(format, evt.Origin).Add(float64(evt.Rows))
		h.bytes.WithLabelValues(format, evt.Origin).Add(float64(evt.Bytes))
	}
	return nil
}
