package eval

import (
	"fmt"

	"github.com/crystal-mush/softeval/pkg/gamedb"
)

// DefaultTraceLimit caps the entries kept per trace scope.
const DefaultTraceLimit = 200

type traceEntry struct {
	orig, result string
	next         *traceEntry
}

// TraceCache collects (input, output) pairs from traced evaluator frames
// until the outermost frame flushes them. Entries are kept newest first.
type TraceCache struct {
	head  *traceEntry
	top   bool
	count int
	limit int
}

// NewTraceCache returns an empty cache keeping at most limit entries.
func NewTraceCache(limit int) *TraceCache {
	if limit <= 0 {
		limit = DefaultTraceLimit
	}
	return &TraceCache{top: true, limit: limit}
}

// Begin claims the outermost slot of the current scope. It reports true for
// the first caller after a flush and false for every nested caller.
func (tc *TraceCache) Begin() bool {
	if tc.top {
		tc.top = false
		tc.count = 0
		return true
	}
	return false
}

// Add records a frame whose output differs from its input. Past the limit
// the entry is only counted.
func (tc *TraceCache) Add(orig, result string) {
	if orig == result {
		return
	}
	tc.count++
	if tc.count <= tc.limit {
		tc.head = &traceEntry{orig: orig, result: result, next: tc.head}
	}
}

// Discarded returns how many entries were counted but not kept.
func (tc *TraceCache) Discarded() int {
	if n := tc.count - tc.limit; n > 0 {
		return n
	}
	return 0
}

// Len returns the number of entries held.
func (tc *TraceCache) Len() int {
	n := 0
	for e := tc.head; e != nil; e = e.next {
		n++
	}
	return n
}

// Flush hands every entry to fn, newest first, then resets the scope.
func (tc *TraceCache) Flush(fn func(orig, result string)) {
	for tc.head != nil {
		e := tc.head
		tc.head = e.next
		fn(e.orig, e.result)
	}
	tc.top = true
	tc.count = 0
}

// SetLimit changes the cap for entries added from now on.
func (tc *TraceCache) SetLimit(limit int) {
	if limit > 0 {
		tc.limit = limit
	}
}

// traceTarget is the redirect target of player, or its owner.
func (ctx *EvalContext) traceTarget(player gamedb.DBRef) gamedb.DBRef {
	if target, ok := ctx.World.RedirectTarget(player); ok {
		return target
	}
	if obj, ok := ctx.World.Object(player); ok {
		return obj.Owner
	}
	return player
}

func (ctx *EvalContext) flushTrace(player gamedb.DBRef) {
	target := ctx.traceTarget(player)
	name := ctx.objName(player)
	lines := 0
	ctx.Trace.Flush(func(orig, result string) {
		lines++
		ctx.notifyTrace(target, player, fmt.Sprintf("%s(#%d)} '%s' -> '%s'", name, player, orig, result))
	})
	if ctx.Observer != nil && lines > 0 {
		ctx.Observer.TraceFlushed(lines)
	}
}

func (ctx *EvalContext) isTraced(player gamedb.DBRef) bool {
	obj, ok := ctx.World.Object(player)
	return ok && obj.HasFlag(gamedb.FlagTrace)
}
