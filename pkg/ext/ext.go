// Package ext provides optional function packs beyond the core builtins.
//
// The packs live in sub-packages grouped by namespace:
//   - extstring  – text.index_of, text.camel_case, text.template, …
//   - extnumeric – math.sign, math.clamp, math.log, stats.median, …
//   - extobject  – object.keys, object.get, object.pick, object.merge, …
//   - exttypes   – type.kind, type.is_string, type.is_empty, type.default, …
//   - extcrypto  – hash.sha256, hash.digest, hash.hmac
//   - extsemver  – semver.valid, semver.compare, semver.satisfies, …
//   - extwasm    – exports of user supplied WebAssembly modules
//
// # Integration – all packs at once
//
//	ev, err := evaluator.New(ext.WithAll())
//
// # Integration – by namespace
//
//	ev, err := evaluator.New(ext.WithString(), ext.WithSemver())
//
// # Integration – single function from a sub-package
//
//	ev, err := evaluator.New(evaluator.WithFunctions(extsemver.Satisfies()))
//
// Packs share no names with each other or with the builtins, so any
// combination registers cleanly.
package ext

import (
	"fmt"

	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/ext/extcrypto"
	"github.com/sandrolain/gologic/pkg/ext/extnumeric"
	"github.com/sandrolain/gologic/pkg/ext/extobject"
	"github.com/sandrolain/gologic/pkg/ext/extsemver"
	"github.com/sandrolain/gologic/pkg/ext/extstring"
	"github.com/sandrolain/gologic/pkg/ext/exttypes"
	"github.com/sandrolain/gologic/pkg/ext/extwasm"
	"github.com/sandrolain/gologic/pkg/functions"
)

var packs = map[string]func() []functions.Definition{
	"text":   extstring.All,
	"math":   extnumeric.All,
	"object": extobject.All,
	"type":   exttypes.All,
	"hash":   extcrypto.All,
	"semver": extsemver.All,
}

// Names returns the pack names accepted by Pack, in sorted order.
func Names() []string {
	return []string{"hash", "math", "object", "semver", "text", "type"}
}

// All returns the definitions of every built-in pack.
func All() []functions.Definition {
	var all []functions.Definition
	for _, name := range Names() {
		all = append(all, packs[name]()...)
	}
	return all
}

// Pack returns the definitions of the named pack.
func Pack(name string) ([]functions.Definition, error) {
	p, ok := packs[name]
	if !ok {
		return nil, fmt.Errorf("unknown function pack %q", name)
	}
	return p(), nil
}

// WithAll returns an EvalOption that registers every built-in pack.
// WebAssembly modules are loaded separately with WithWasm.
func WithAll() evaluator.EvalOption {
	return evaluator.WithFunctions(All()...)
}

// WithString returns an EvalOption for the text functions.
func WithString() evaluator.EvalOption {
	return evaluator.WithFunctions(extstring.All()...)
}

// WithNumeric returns an EvalOption for the numeric and statistics functions.
func WithNumeric() evaluator.EvalOption {
	return evaluator.WithFunctions(extnumeric.All()...)
}

// WithObject returns an EvalOption for the object functions.
func WithObject() evaluator.EvalOption {
	return evaluator.WithFunctions(extobject.All()...)
}

// WithTypes returns an EvalOption for the type predicates.
func WithTypes() evaluator.EvalOption {
	return evaluator.WithFunctions(exttypes.All()...)
}

// WithCrypto returns an EvalOption for the hash functions.
func WithCrypto() evaluator.EvalOption {
	return evaluator.WithFunctions(extcrypto.All()...)
}

// WithSemver returns an EvalOption for the semantic version functions.
func WithSemver() evaluator.EvalOption {
	return evaluator.WithFunctions(extsemver.All()...)
}

// WithWasm returns an EvalOption registering the exports of every module
// loaded in h. The caller keeps ownership of h and closes it.
func WithWasm(h *extwasm.Host) evaluator.EvalOption {
	return evaluator.WithFunctions(h.Definitions()...)
}
