package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystal-mush/softeval/pkg/eval"
	"github.com/crystal-mush/softeval/pkg/gamedb"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := New(reg, reg, time.Now())
	require.NoError(t, err)
	return m, reg
}

// value reads a counter from reg; label, if set, is "name=value".
func value(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if label != "" {
				k, v, _ := strings.Cut(label, "=")
				found := false
				for _, lp := range metric.GetLabel() {
					if lp.GetName() == k && lp.GetValue() == v {
						found = true
					}
				}
				if !found {
					continue
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestObserverCounts(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.FunctionCalled("ADD", false)
	m.FunctionCalled("ADD", false)
	m.FunctionCalled("DOUBLE", true)
	m.LimitExceeded(eval.ErrRecursion)
	m.LimitExceeded(eval.ErrCPU)
	m.LimitExceeded("#-1 SOMETHING")
	m.TraceFlushed(3)
	m.TraceDiscarded(2)
	m.ObserveEvaluation(time.Millisecond)

	assert.Equal(t, 2.0, value(t, reg, "softeval_function_calls_total", "kind=builtin"))
	assert.Equal(t, 1.0, value(t, reg, "softeval_function_calls_total", "kind=user"))
	assert.Equal(t, 1.0, value(t, reg, "softeval_limits_exceeded_total", "limit=recursion"))
	assert.Equal(t, 1.0, value(t, reg, "softeval_limits_exceeded_total", "limit=cpu"))
	assert.Equal(t, 1.0, value(t, reg, "softeval_limits_exceeded_total", "limit=other"))
	assert.Equal(t, 3.0, value(t, reg, "softeval_trace_lines_total", ""))
	assert.Equal(t, 2.0, value(t, reg, "softeval_trace_lines_discarded_total", ""))
	assert.Equal(t, 1.0, value(t, reg, "softeval_evaluations_total", ""))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, reg, time.Now())
	require.NoError(t, err)
	_, err = New(reg, reg, time.Now())
	assert.Error(t, err)
}

func TestEvaluatorReportsLimits(t *testing.T) {
	m, reg := newTestMetrics(t)
	conf := eval.DefaultConfig()
	conf.InvkLimit = 2
	ctx := eval.NewEvalContext(gamedb.Minimal(), conf)
	ctx.Player, ctx.Caller, ctx.Cause = 1, 1, 1
	ctx.Observer = m
	ctx.Funcs.RegisterFunction("WRAP", func(ctx *eval.EvalContext, args []string, buf *eval.Buffer, caller, cause gamedb.DBRef) {
		buf.WriteString(args[0])
	}, 1, 0)

	ctx.BeginCommand("")
	ctx.Exec("[wrap(a)][wrap(b)][wrap(c)]", eval.EvFCheck|eval.EvEval, nil)

	assert.Equal(t, 2.0, value(t, reg, "softeval_function_calls_total", "kind=builtin"))
	assert.Equal(t, 1.0, value(t, reg, "softeval_limits_exceeded_total", "limit=invocation"))
}

func TestHandlerServesMetrics(t *testing.T) {
	m, _ := newTestMetrics(t)
	m.FunctionCalled("ADD", false)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `softeval_function_calls_total{kind="builtin"} 1`), text)
	assert.Contains(t, text, "softeval_goroutines")
}
