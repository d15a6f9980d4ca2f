// Package metrics provides Prometheus metrics for upload intake.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rcm-webdev/insight-lens/internal/intake"
	"github.com/rcm-webdev/insight-lens/internal/models"
)

// IntakeMetrics counts admission decisions. It satisfies upload.Observer.
type IntakeMetrics struct {
	DecisionsTotal  *prometheus.CounterVec // by outcome: accepted, rejected
	ViolationsTotal *prometheus.CounterVec // by violation code
	FileSizeBytes   prometheus.Histogram   // size of every candidate file
	QueuedFiles     prometheus.GaugeFunc
}

// NewIntakeMetrics creates and registers the metrics. queued reports the
// current number of queued files and may be nil.
func NewIntakeMetrics(registry *prometheus.Registry, queued func() int) (*IntakeMetrics, error) {
	m := &IntakeMetrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insightlens_intake_decisions_total",
				Help: "Total number of upload admission decisions by outcome",
			},
			[]string{"outcome"},
		),
		ViolationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "insightlens_intake_violations_total",
				Help: "Total number of failed admission rules by code",
			},
			[]string{"code"},
		),
		FileSizeBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "insightlens_intake_file_size_bytes",
			Help:    "Size of files submitted for admission",
			Buckets: prometheus.ExponentialBuckets(64*1024, 2, 10), // 64KB to 32MB
		}),
	}

	collectors := []prometheus.Collector{m.DecisionsTotal, m.ViolationsTotal, m.FileSizeBytes}
	if queued != nil {
		m.QueuedFiles = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "insightlens_upload_queued_files",
			Help: "Number of files currently held in upload queues",
		}, func() float64 { return float64(queued()) })
		collectors = append(collectors, m.QueuedFiles)
	}

	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register intake metrics: %w", err)
		}
	}
	return m, nil
}

// ObserveAdmission counts one decision.
func (m *IntakeMetrics) ObserveAdmission(_ string, meta models.FileMetadata, violations []intake.Violation) {
	m.FileSizeBytes.Observe(float64(meta.Size))
	if len(violations) == 0 {
		m.DecisionsTotal.WithLabelValues("accepted").Inc()
		return
	}
	m.DecisionsTotal.WithLabelValues("rejected").Inc()
	for _, v := range violations {
		m.ViolationsTotal.WithLabelValues(string(v.Code)).Inc()
	}
}
