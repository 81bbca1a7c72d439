package evaluator

import (
	"context"

	"github.com/sandrolain/gologic/pkg/types"
)

// cachedResult is a cached subtree value plus the forall violations its
// evaluation recorded, with depths relative to the subtree root.
type cachedResult struct {
	value      types.Value
	violations []recordedViolation
}

// nodeInfo memoizes the cache eligibility of a node.
type nodeInfo struct {
	key       string
	cacheable bool
}

// cacheKey returns the canonical rendering of node when its value can be
// cached: the subtree has no free variables and every function it calls is
// a registered pure builtin. Leaves and groupings are never cached.
func (e *Evaluator) cacheKey(node types.Node) (string, bool) {
	if info, ok := e.memo.Load(node); ok {
		ni := info.(nodeInfo)
		return ni.key, ni.cacheable
	}

	var info nodeInfo
	switch node.(type) {
	case *types.Literal, *types.Variable, *types.Expression, *types.Lambda,
		*types.Program, *types.Statement:
	default:
		vars, calls := types.FreeNames(node)
		if len(vars) == 0 && e.allPure(calls) {
			info = nodeInfo{key: types.Render(node), cacheable: true}
		}
	}
	e.memo.Store(node, info)
	return info.key, info.cacheable
}

func (e *Evaluator) allPure(names []string) bool {
	for _, name := range names {
		def, ok := e.registry.Lookup(name)
		if !ok || !def.Pure {
			return false
		}
	}
	return true
}

// evalCached serves node from the result cache, or evaluates and stores it.
// A hit replays the violations recorded when the entry was stored. Errors
// are never cached.
func (e *Evaluator) evalCached(ctx context.Context, st *callState, key string, node types.Node, c *EvalContext) (types.Value, error) {
	if entry, ok := e.results.Get(key); ok {
		e.cacheHits.Add(1)
		for _, r := range entry.violations {
			st.violations = append(st.violations, recordedViolation{depth: st.depth + r.depth, violation: r.violation})
		}
		if e.tracing.Load() {
			e.appendTrace(st.depth, "[cached] "+types.NodeName(node)+" = "+entry.value.String())
		}
		return entry.value, nil
	}

	e.cacheMisses.Add(1)
	mark := len(st.violations)
	v, err := e.evalTraced(ctx, st, node, c)
	if err != nil {
		return nil, err
	}

	entry := cachedResult{value: v}
	for _, r := range st.violations[mark:] {
		entry.violations = append(entry.violations, recordedViolation{depth: r.depth - st.depth, violation: r.violation})
	}
	e.results.Set(key, entry)
	return v, nil
}
