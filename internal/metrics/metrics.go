package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"chimeraevo/internal/embedding"
	"chimeraevo/internal/evo"
)

const namespace = "chimeraevo"

// Collector holds the search metrics. It is safe for concurrent use, so
// one collector can observe every run of a batch.
type Collector struct {
	generations  prometheus.Counter
	slotFailures prometheus.Counter
	rescues      prometheus.Counter
	prunes       prometheus.Counter
	candidates   prometheus.Histogram
	runs         *prometheus.CounterVec
	toSolution   prometheus.Histogram
	nodesUsed    prometheus.Histogram
}

// NewCollector registers the search metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		generations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "generations_total",
			Help:      "Generations committed across all runs",
		}),
		slotFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "slot_failures_total",
			Help:      "Population slots that exhausted their mutation trials",
		}),
		rescues: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "rescues_total",
			Help:      "Redundancy-removal rescues fired",
		}),
		prunes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "prunes_total",
			Help:      "Selected candidates pruned before commit",
		}),
		candidates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "population_size",
			Help:      "Candidates produced per generation",
			Buckets:   prometheus.LinearBuckets(1, 1, 20),
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "runs_total",
			Help:      "Finished runs by outcome",
		}, []string{"outcome"}),
		toSolution: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "generations_to_solution",
			Help:      "Generations used by runs that found an embedding",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		nodesUsed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "hardware_nodes_used",
			Help:      "Hardware nodes used by found embeddings",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 8),
		}),
	}
}

// Observer returns an evo.Observer feeding this collector.
func (c *Collector) Observer() evo.Observer {
	return observer{c: c}
}

type observer struct {
	c *Collector
}

func (observer) GenerationStarted(int, *embedding.Embedding) {}

func (o observer) SlotFailed(int, int, int) {
	o.c.slotFailures.Inc()
}

func (o observer) RescueFired(int, int, *embedding.Embedding) {
	o.c.rescues.Inc()
}

func (o observer) Committed(_ int, commit evo.Commit) {
	o.c.generations.Inc()
	o.c.candidates.Observe(float64(commit.Candidates))
	if commit.Pruned {
		o.c.prunes.Inc()
	}
}

func (o observer) Finished(result evo.Result) {
	o.c.runs.WithLabelValues(string(result.Outcome())).Inc()
	if found, ok := result.(evo.Found); ok {
		o.c.toSolution.Observe(float64(found.GenerationsUsed))
		o.c.nodesUsed.Observe(float64(found.Embedding.NodeCount()))
	}
}
