//go:build js && wasm

// Command gologic-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `gologic` object with the following API:
//
//	gologic.version()                   → string
//	gologic.eval(source, factsJSON)     → '{"result": ...}' or '{"error": "..."}'
//	gologic.test(source, factsJSON)     → '{"tests": [...]}' or '{"error": "..."}'
//	gologic.compile(source)             → { canonical, eval(factsJSON) } or { error }
//
// Every result is a JSON string; errors never throw.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o gologic.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	const res = JSON.parse(gologic.eval('forall x in xs: x > 0', JSON.stringify({xs: [1, 2]})))
//	console.log(res.result) // true
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/gologic"
	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/ext"
	"github.com/sandrolain/gologic/pkg/types"
)

var ev = evaluator.MustNew(ext.WithAll(), evaluator.WithCaching(true))

func encode(v map[string]any) string {
	out, err := json.Marshal(v)
	if err != nil {
		out, _ = json.Marshal(map[string]any{"error": err.Error()})
	}
	return string(out)
}

func failure(format string, args ...any) string {
	return encode(map[string]any{"error": fmt.Sprintf(format, args...)})
}

func parseFacts(fn string, args []js.Value, i int) (*evaluator.EvalContext, error) {
	facts := map[string]any{}
	if len(args) > i && args[i].Type() == js.TypeString && args[i].String() != "" {
		if err := json.Unmarshal([]byte(args[i].String()), &facts); err != nil {
			return nil, fmt.Errorf("%s: invalid facts JSON: %w", fn, err)
		}
	}
	return gologic.Facts(facts)
}

// jsEval implements gologic.eval(source, factsJSON).
func jsEval(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return failure("gologic.eval requires a source argument")
	}
	c, err := parseFacts("gologic.eval", args, 1)
	if err != nil {
		return failure("%v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), gologic.DefaultTimeout)
	defer cancel()
	v, err := ev.ExecuteRule(ctx, args[0].String(), c)
	if err != nil {
		return failure("gologic.eval: %v", err)
	}
	return encode(map[string]any{"result": types.ToNative(v)})
}

// jsTest implements gologic.test(source, factsJSON).
func jsTest(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return failure("gologic.test requires a source argument")
	}
	c, err := parseFacts("gologic.test", args, 1)
	if err != nil {
		return failure("%v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), gologic.DefaultTimeout)
	defer cancel()
	results, err := ev.ExecuteRuleTests(ctx, args[0].String(), c)
	if err != nil {
		return failure("gologic.test: %v", err)
	}
	out := make([]any, len(results))
	for i, r := range results {
		out[i] = types.ToNative(r)
	}
	return encode(map[string]any{"tests": out})
}

// jsCompile implements gologic.compile(source).
func jsCompile(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "gologic.compile requires a source argument"})
	}
	prog, err := gologic.Compile(args[0].String())
	if err != nil {
		return js.ValueOf(map[string]any{"error": err.Error()})
	}

	evalFn := js.FuncOf(func(_ js.Value, inner []js.Value) any {
		c, err := parseFacts("compiled.eval", inner, 0)
		if err != nil {
			return failure("%v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), gologic.DefaultTimeout)
		defer cancel()
		v, err := ev.Evaluate(ctx, prog.Program(), c)
		if err != nil {
			return failure("compiled.eval: %v", err)
		}
		return encode(map[string]any{"result": types.ToNative(v)})
	})

	return js.ValueOf(map[string]any{
		"canonical": prog.Canonical(),
		"eval":      evalFn,
	})
}

func main() {
	api := map[string]any{
		"eval":    js.FuncOf(jsEval),
		"test":    js.FuncOf(jsTest),
		"compile": js.FuncOf(jsCompile),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) any {
			return gologic.Version()
		}),
	}
	js.Global().Set("gologic", js.ValueOf(api))

	// The JS event loop owns execution from here.
	select {}
}
