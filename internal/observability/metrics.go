package observability

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var (
	registerOnce sync.Once

	datagroups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mot",
			Subsystem: "decoder",
			Name:      "datagroups_total",
			Help:      "Datagroups ingested by type.",
		},
		[]string{"type", "stored"},
	)
	objects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mot",
			Subsystem: "decoder",
			Name:      "objects_total",
			Help:      "Objects compiled by header source.",
		},
		[]string{"mode"},
	)
	compileDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mot",
			Subsystem: "decoder",
			Name:      "compile_duration_seconds",
			Help:      "Object compile duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		},
		[]string{"mode"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mot",
			Subsystem: "decoder",
			Name:      "errors_total",
			Help:      "Dropped objects and directory entry failures by kind.",
		},
		[]string{"kind"},
	)
	cacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mot",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Transport ids waiting for completion.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(datagroups, objects, compileDuration, decodeErrors, cacheEntries)
	})
}

func RecordDatagroup(kind string, stored bool) {
	RegisterMetrics()
	label := "false"
	if stored {
		label = "true"
	}
	datagroups.WithLabelValues(kind, label).Inc()
}

func RecordObject(mode string, duration time.Duration) {
	RegisterMetrics()
	objects.WithLabelValues(mode).Inc()
	compileDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func RecordDecodeError(kind string) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(kind).Inc()
}

func SetCacheEntries(n int) {
	RegisterMetrics()
	cacheEntries.Set(float64(n))
}

// WriteMetrics renders the mot metric families in the text exposition
// format.
func WriteMetrics(w io.Writer) error {
	RegisterMetrics()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "mot_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
