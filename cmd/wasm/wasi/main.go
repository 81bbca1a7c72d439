//go:build wasip1

// Command gologic-wasm-wasi is the WASI (wasip1) entrypoint for hosts that
// support the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin, single JSON object on stdout.
//
//	stdin:  { "source": "<program>", "facts": { ... }, "tests": false }
//	stdout: { "result": <value> }        on success
//	        { "tests": [ {...}, ... ] }  when "tests" is true
//	        { "error": "<message>" }     on failure (exit code 1)
//
// A violated forall is reported as an error carrying its counterexamples.
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gologic.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"source":"forall x in xs: x > 0","facts":{"xs":[1,2]}}' | wasmtime gologic.wasm
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sandrolain/gologic"
	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/ext"
	"github.com/sandrolain/gologic/pkg/types"
)

type request struct {
	Source string         `json:"source"`
	Facts  map[string]any `json:"facts"`
	Tests  bool           `json:"tests"`
}

type response struct {
	Result any    `json:"result,omitempty"`
	Tests  []any  `json:"tests,omitempty"`
	Error  string `json:"error,omitempty"`
}

func writeResponse(r response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(response{Error: "invalid request JSON: " + err.Error()}, 1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), gologic.DefaultTimeout)
	defer cancel()

	if req.Tests {
		results, err := gologic.Test(ctx, req.Source, req.Facts, ext.WithAll())
		if err != nil {
			writeResponse(response{Error: err.Error()}, 1)
		}
		out := make([]any, len(results))
		for i, r := range results {
			out[i] = types.ToNative(r)
		}
		writeResponse(response{Tests: out}, 0)
	}

	facts, err := gologic.Facts(req.Facts)
	if err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}
	ev, err := evaluator.New(ext.WithAll())
	if err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}
	result, err := ev.ExecuteRule(ctx, req.Source, facts)
	if err != nil {
		writeResponse(response{Error: err.Error()}, 1)
	}
	writeResponse(response{Result: types.ToNative(result)}, 0)
}
