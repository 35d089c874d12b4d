// Package metrics exports evaluator counters to Prometheus.
package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crystal-mush/softeval/pkg/eval"
)

// Metrics implements eval.Observer on top of Prometheus collectors.
type Metrics struct {
	gatherer  prometheus.Gatherer
	startTime time.Time

	evaluationsTotal   prometheus.Counter
	evalDuration       prometheus.Histogram
	functionCallsTotal *prometheus.CounterVec
	limitsExceeded     *prometheus.CounterVec
	traceLinesTotal    prometheus.Counter
	traceDiscarded     prometheus.Counter
	uptimeSeconds      prometheus.Gauge
	memoryHeapBytes    prometheus.Gauge
	goroutines         prometheus.Gauge
}

var _ eval.Observer = (*Metrics)(nil)

// New creates the evaluator metrics and registers them on reg. gatherer is
// what Handler serves; pass prometheus.DefaultGatherer alongside
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer, startTime time.Time) (*Metrics, error) {
	m := &Metrics{
		gatherer:  gatherer,
		startTime: startTime,
		evaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "softeval_evaluations_total",
			Help: "Top-level expressions evaluated.",
		}),
		evalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "softeval_evaluation_seconds",
			Help:    "Wall time of top-level evaluations.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		functionCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "softeval_function_calls_total",
			Help: "Function invocations by kind (builtin or user).",
		}, []string{"kind"}),
		limitsExceeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "softeval_limits_exceeded_total",
			Help: "Calls refused by a budget, by limit.",
		}, []string{"limit"}),
		traceLinesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "softeval_trace_lines_total",
			Help: "Trace lines delivered.",
		}),
		traceDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "softeval_trace_lines_discarded_total",
			Help: "Trace lines dropped past trace_output_limit.",
		}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "softeval_uptime_seconds",
			Help: "Process uptime in seconds.",
		}),
		memoryHeapBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "softeval_memory_heap_bytes",
			Help: "Go heap memory allocated in bytes.",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "softeval_goroutines",
			Help: "Number of active goroutines.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.evaluationsTotal,
		m.evalDuration,
		m.functionCallsTotal,
		m.limitsExceeded,
		m.traceLinesTotal,
		m.traceDiscarded,
		m.uptimeSeconds,
		m.memoryHeapBytes,
		m.goroutines,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FunctionCalled counts one dispatched call.
func (m *Metrics) FunctionCalled(name string, user bool) {
	kind := "builtin"
	if user {
		kind = "user"
	}
	m.functionCallsTotal.WithLabelValues(kind).Inc()
}

// LimitExceeded counts a refused call by the budget that refused it.
func (m *Metrics) LimitExceeded(token string) {
	m.limitsExceeded.WithLabelValues(limitName(token)).Inc()
}

func (m *Metrics) TraceFlushed(lines int)   { m.traceLinesTotal.Add(float64(lines)) }
func (m *Metrics) TraceDiscarded(lines int) { m.traceDiscarded.Add(float64(lines)) }

// ObserveEvaluation records one top-level evaluation that took d.
func (m *Metrics) ObserveEvaluation(d time.Duration) {
	m.evaluationsTotal.Inc()
	m.evalDuration.Observe(d.Seconds())
}

func limitName(token string) string {
	switch token {
	case eval.ErrRecursion:
		return "recursion"
	case eval.ErrInvocation:
		return "invocation"
	case eval.ErrCPU:
		return "cpu"
	default:
		return "other"
	}
}

// Update refreshes the process gauges.
func (m *Metrics) Update() {
	m.uptimeSeconds.Set(time.Since(m.startTime).Seconds())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.memoryHeapBytes.Set(float64(mem.HeapAlloc))
	m.goroutines.Set(float64(runtime.NumGoroutine()))
}

// Handler returns an http.Handler that updates gauges before serving them.
func (m *Metrics) Handler() http.Handler {
	h := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.Update()
		h.ServeHTTP(w, r)
	})
}
