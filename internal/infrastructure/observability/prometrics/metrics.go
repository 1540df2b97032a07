package prometrics

import (
	"sync"

	"github.com/Zhima-Mochi/minishop-batches/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry exposes the subset of Prometheus registry functionality needed by the services.
type Registry interface {
	Counter(name string, help string, labelKeys ...string) observability.Counter
	Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram
}

type registry struct {
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	registerer prometheus.Registerer
	namespace  string
	subsystem  string
}

// New creates a registry that registers its vectors with registerer
// (prometheus.DefaultRegisterer when nil).
func New(namespace, subsystem string, registerer prometheus.Registerer) Registry {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &registry{
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		registerer: registerer,
		namespace:  namespace,
		subsystem:  subsystem,
	}
}

type counter struct {
	v    *prometheus.CounterVec
	keys []string
}

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(c.keys, labels)).Add(d)
}

type histogram struct {
	v    *prometheus.HistogramVec
	keys []string
}

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(h.keys, labels)).Observe(v)
}

// labelMap fills every registered key; missing labels become "" and unknown ones are dropped,
// since CounterVec.With panics on a label set mismatch.
func labelMap(keys []string, ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(keys))
	for _, k := range keys {
		m[k] = ""
	}
	for _, l := range ls {
		if _, ok := m[l.Key]; ok {
			m[l.Key] = l.Value
		}
	}
	return m
}

func (r *registry) Counter(name string, help string, labelKeys ...string) observability.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.counters[name]; ok {
		return &counter{v: v, keys: labelKeys}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
	}, labelKeys)
	r.registerer.MustRegister(cv)
	r.counters[name] = cv
	return &counter{v: cv, keys: labelKeys}
}

func (r *registry) Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.histograms[name]; ok {
		return &histogram{v: v, keys: labelKeys}
	}
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	r.registerer.MustRegister(hv)
	r.histograms[name] = hv
	return &histogram{v: hv, keys: labelKeys}
}
