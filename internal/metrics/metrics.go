// Package metrics exposes prometheus instruments for lowering runs.
package metrics

import (
	"io"
	"time"

	"github.com/funvibe/qirlower/internal/rir"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

const (
	metricsNamespace = "qirlower"

	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusCached = "cached"
)

var (
	loweringTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lowering_total",
			Help:      "Total number of lowering runs by outcome",
		},
		[]string{"status"},
	)

	loweringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "lowering_duration_seconds",
			Help:      "Time taken to lower one program",
			Buckets:   prometheus.DefBuckets,
		},
	)

	blocksEmitted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "blocks_emitted",
			Help:      "Blocks in each lowered program",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	callsEmitted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "calls_emitted",
			Help:      "Call instructions in each lowered program",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_lookups_total",
			Help:      "Artifact cache lookups by result",
		},
		[]string{"result"},
	)
)

// ObserveLowering records one lowering run. p may be nil on failure.
func ObserveLowering(status string, elapsed time.Duration, p *rir.Program) {
	loweringTotal.WithLabelValues(status).Inc()
	if status == StatusCached {
		return
	}
	loweringDuration.Observe(elapsed.Seconds())
	if p == nil {
		return
	}
	blocksEmitted.Observe(float64(len(p.Blocks)))
	callsEmitted.Observe(float64(CountCalls(p)))
}

// ObserveCache records an artifact cache lookup.
func ObserveCache(hit bool) {
	if hit {
		cacheLookups.WithLabelValues("hit").Inc()
	} else {
		cacheLookups.WithLabelValues("miss").Inc()
	}
}

// CountCalls counts Call instructions across all blocks of p.
func CountCalls(p *rir.Program) int {
	n := 0
	for _, b := range p.Blocks {
		for _, inst := range b.Instructions {
			if _, ok := inst.(*rir.Call); ok {
				n++
			}
		}
	}
	return n
}

// WriteText dumps every metric of the default registry in the text
// exposition format.
func WriteText(w io.Writer) error {
	return writeText(w, prometheus.DefaultGatherer)
}

func writeText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
