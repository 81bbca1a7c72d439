package evaluator

import "strings"

// Metrics is a snapshot of the evaluator counters.
type Metrics struct {
	// Evaluations counts node dispatches.
	Evaluations int64
	// FunctionCalls counts builtin and callable invocations.
	FunctionCalls int64
	CacheHits     int64
	CacheMisses   int64
}

// Metrics returns a snapshot of the counters.
func (e *Evaluator) Metrics() Metrics {
	return Metrics{
		Evaluations:   e.evaluations.Load(),
		FunctionCalls: e.functionCalls.Load(),
		CacheHits:     e.cacheHits.Load(),
		CacheMisses:   e.cacheMisses.Load(),
	}
}

// ResetMetrics zeroes the counters.
func (e *Evaluator) ResetMetrics() {
	e.evaluations.Store(0)
	e.functionCalls.Store(0)
	e.cacheHits.Store(0)
	e.cacheMisses.Store(0)
}

// EnableTracing switches execution tracing on or off. The recorded trace is
// kept until ClearTrace.
func (e *Evaluator) EnableTracing(enabled bool) {
	e.tracing.Store(enabled)
}

// ExecutionTrace returns a copy of the recorded trace lines.
func (e *Evaluator) ExecutionTrace() []string {
	e.traceMu.Lock()
	defer e.traceMu.Unlock()
	out := make([]string, len(e.trace))
	copy(out, e.trace)
	return out
}

// ClearTrace drops the recorded trace.
func (e *Evaluator) ClearTrace() {
	e.traceMu.Lock()
	e.trace = nil
	e.traceMu.Unlock()
}

func (e *Evaluator) appendTrace(depth int, line string) {
	if depth > 1 {
		line = strings.Repeat("  ", depth-1) + line
	}
	e.traceMu.Lock()
	e.trace = append(e.trace, line)
	e.traceMu.Unlock()
}
