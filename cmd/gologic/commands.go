package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/types"
)

func printValue(v types.Value, asJSON bool) error {
	if !asJSON {
		fmt.Println(types.Display(v))
		return nil
	}
	out, err := json.Marshal(types.ToNative(v))
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func cmdEval(ctx context.Context, args []string) int {
	var c common
	fs := newFlagSet("eval", &c)
	asJSON := fs.Bool("json", false, "print the value as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "eval: expected one formula argument")
		return 2
	}

	rt, facts, err := c.runtime(ctx)
	if err != nil {
		return fail(err)
	}
	defer rt.Close(ctx)

	v, err := rt.EvaluateSource(ctx, fs.Arg(0), facts)
	c.printTrace(rt.Evaluator)
	if err != nil {
		return fail(err)
	}
	if err := printValue(v, *asJSON); err != nil {
		return fail(err)
	}
	return 0
}

func cmdRun(ctx context.Context, args []string) int {
	var c common
	fs := newFlagSet("run", &c)
	asJSON := fs.Bool("json", false, "print the value as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "run: expected one rule file ('-' for stdin)")
		return 2
	}
	src, err := readSource(fs.Arg(0))
	if err != nil {
		return fail(err)
	}

	rt, facts, err := c.runtime(ctx)
	if err != nil {
		return fail(err)
	}
	defer rt.Close(ctx)

	v, err := rt.ExecuteRule(ctx, src, facts)
	c.printTrace(rt.Evaluator)
	var violation *types.ForallViolation
	if errors.As(err, &violation) {
		fmt.Fprintf(os.Stderr, "violated: %v\n", violation)
		return 1
	}
	if err != nil {
		return fail(err)
	}
	if err := printValue(v, *asJSON); err != nil {
		return fail(err)
	}
	if b, ok := types.Truth(v); ok && !b {
		return 1
	}
	return 0
}

func cmdTest(ctx context.Context, args []string) int {
	var c common
	fs := newFlagSet("test", &c)
	verbose := fs.Bool("v", false, "print passing tests too")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "test: expected at least one rule file")
		return 2
	}

	rt, facts, err := c.runtime(ctx)
	if err != nil {
		return fail(err)
	}
	defer rt.Close(ctx)

	var passed, failed int
	for _, path := range fs.Args() {
		src, err := readSource(path)
		if err != nil {
			return fail(err)
		}
		results, err := rt.ExecuteRuleTests(ctx, src, facts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		for _, r := range results {
			name, status, message := testFields(r)
			if status == evaluator.StatusPass {
				passed++
				if *verbose {
					fmt.Printf("PASS %s: %s\n", path, name)
				}
				continue
			}
			failed++
			fmt.Printf("%s %s: %s: %s\n", strings.ToUpper(status), path, name, message)
		}
	}
	c.printTrace(rt.Evaluator)
	fmt.Printf("%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func testFields(r types.Value) (name, status, message string) {
	obj, ok := r.(types.ObjectValue)
	if !ok {
		return "", evaluator.StatusError, "malformed result " + r.String()
	}
	get := func(key string) string {
		if v, ok := obj.Get(key); ok {
			return types.Display(v)
		}
		return ""
	}
	return get("name"), get("status"), get("message")
}

func cmdFunctions(ctx context.Context, args []string) int {
	var c common
	fs := newFlagSet("functions", &c)
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	rt, _, err := c.runtime(ctx)
	if err != nil {
		return fail(err)
	}
	defer rt.Close(ctx)
	printFunctions(rt.Evaluator, fs.Arg(0))
	return 0
}

// printFunctions lists the registered functions whose name starts with
// prefix.
func printFunctions(ev *evaluator.Evaluator, prefix string) {
	for _, name := range ev.FunctionNames() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		def, _ := ev.Function(name)
		fmt.Printf("%-60s %s\n", def.Signature(), def.Description)
	}
}
