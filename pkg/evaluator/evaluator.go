// Package evaluator implements the gologic interpreter.
//
// The evaluator walks a parsed AST against an [EvalContext] of variable
// bindings. It supports:
//   - Arithmetic, comparison and short-circuit logical operators
//   - Quantifiers with counterexample reporting
//   - Builtin functions from a [functions.Registry], plus callable values
//   - Meta-logical operators: fixpoints, Gödel numbering, diagonalization
//   - Result caching of closed, pure subtrees
//   - Execution tracing and metrics
//   - Timeout and cancellation via context.Context
//
// # Example
//
//	ev, err := evaluator.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c := evaluator.NewContext()
//	c.BindVariable("xs", types.NewCollection(types.NewInt(1), types.NewInt(11)))
//	ok, err := ev.EvaluateCondition(ctx, node, c)
//	var v *types.ForallViolation
//	if errors.As(err, &v) {
//	    fmt.Println("counterexamples:", v.Counterexamples)
//	}
//
// # Concurrency
//
// An Evaluator is safe for concurrent use: the registry, caches, metrics and
// trace are synchronised, and per-call state travels in the context.Context.
// An EvalContext must not be shared between concurrent calls.
package evaluator

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandrolain/gologic/pkg/cache"
	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/parser"
	"github.com/sandrolain/gologic/pkg/types"
)

// Defaults for EvalOptions.
const (
	DefaultCacheSize     = 1024
	DefaultMaxDepth      = 10000
	DefaultFixpointLimit = 1000
)

// Evaluator evaluates formulas.
type Evaluator struct {
	opts     EvalOptions
	logger   *slog.Logger
	registry *functions.Registry
	builtins int

	results *cache.Cache[cachedResult] // values of closed, pure subtrees
	sources *cache.Cache[types.Node]   // parsed callable bodies and meta.eval input
	memo    sync.Map                   // types.Node -> nodeInfo
	caching atomic.Bool
	tracing atomic.Bool

	traceMu sync.Mutex
	trace   []string

	evaluations   atomic.Int64
	functionCalls atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64

	formulasMu sync.RWMutex
	formulas   map[string]string
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables result caching of closed subtrees that call only pure
	// builtins. Keys are canonical renderings.
	Caching bool
	// CacheSize sets the maximum number of cached results. Defaults to 1024.
	CacheSize int
	// Tracing records an execution trace.
	Tracing bool
	// MaxDepth limits evaluation nesting. Defaults to 10000.
	MaxDepth int
	// Timeout bounds each top-level call. Zero means no timeout.
	Timeout time.Duration
	// FixpointLimit is the default iteration limit of the fixpoint operators.
	FixpointLimit int
	// CollectCounterexamples makes forall visit the whole domain and report
	// every failing element instead of stopping at the first.
	CollectCounterexamples bool
	// Debug enables debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// Functions holds extra builtins to register.
	Functions []functions.Definition
	// Formulas holds named formulas known to the meta operators.
	Formulas map[string]string
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// New creates an Evaluator with the standard builtins registered.
// It fails when a builtin from WithFunctions cannot be registered, for
// example because its name is taken.
func New(opts ...EvalOption) (*Evaluator, error) {
	options := EvalOptions{
		CacheSize:     DefaultCacheSize,
		MaxDepth:      DefaultMaxDepth,
		FixpointLimit: DefaultFixpointLimit,
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.FixpointLimit <= 0 {
		options.FixpointLimit = DefaultFixpointLimit
	}

	e := &Evaluator{
		opts:     options,
		logger:   options.Logger,
		registry: functions.NewRegistry(),
		results:  cache.New[cachedResult](options.CacheSize),
		sources:  cache.New[types.Node](options.CacheSize),
		formulas: make(map[string]string),
	}
	e.caching.Store(options.Caching)
	e.tracing.Store(options.Tracing)

	if err := registerBuiltins(e.registry, e); err != nil {
		return nil, fmt.Errorf("registering builtins: %w", err)
	}
	e.builtins = e.registry.Len()

	if err := e.registry.RegisterAll(options.Functions...); err != nil {
		return nil, err
	}
	for name, src := range options.Formulas {
		if err := e.RegisterFormula(name, src); err != nil {
			return nil, err
		}
	}

	if options.Debug {
		e.logger.Debug("evaluator ready",
			"builtins", e.builtins,
			"functions", e.registry.Len(),
			"caching", options.Caching)
	}
	return e, nil
}

// MustNew is like New but panics on error.
func MustNew(opts ...EvalOption) *Evaluator {
	e, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// WithCaching enables or disables result caching.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached results.
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithTracing enables or disables execution tracing.
func WithTracing(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Tracing = enabled
	}
}

// WithTimeout sets the timeout applied to each top-level call.
func WithTimeout(timeout time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timeout = timeout
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum evaluation depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithFixpointLimit sets the default iteration limit of fixpoint operators.
func WithFixpointLimit(limit int) EvalOption {
	return func(opts *EvalOptions) {
		opts.FixpointLimit = limit
	}
}

// WithCollectCounterexamples makes forall report every failing element.
func WithCollectCounterexamples(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.CollectCounterexamples = enabled
	}
}

// WithFunctions registers extra builtins.
func WithFunctions(defs ...functions.Definition) EvalOption {
	return func(opts *EvalOptions) {
		opts.Functions = append(opts.Functions, defs...)
	}
}

// WithFormula registers a named formula for the meta operators.
func WithFormula(name, src string) EvalOption {
	return func(opts *EvalOptions) {
		if opts.Formulas == nil {
			opts.Formulas = make(map[string]string)
		}
		opts.Formulas[name] = src
	}
}

// RegisterFunction adds a builtin. Duplicate names are rejected with
// *types.DuplicateFunctionError.
func (e *Evaluator) RegisterFunction(def functions.Definition) error {
	if err := e.registry.Register(def); err != nil {
		return err
	}
	if e.opts.Debug {
		e.logger.Debug("function registered", "name", def.Name, "pure", def.Pure)
	}
	return nil
}

// Function returns a copy of the definition registered under name.
func (e *Evaluator) Function(name string) (*functions.Definition, bool) {
	return e.registry.Lookup(name)
}

// FunctionNames returns every registered name in sorted order.
func (e *Evaluator) FunctionNames() []string {
	return e.registry.Names()
}

// BuiltinFunctionCount returns the number of standard builtins, aliases
// included.
func (e *Evaluator) BuiltinFunctionCount() int {
	return e.builtins
}

// RegisterFormula stores a named formula after checking that it parses.
func (e *Evaluator) RegisterFormula(name, src string) error {
	if _, err := e.parseSource(src); err != nil {
		return fmt.Errorf("formula %q: %w", name, err)
	}
	e.formulasMu.Lock()
	e.formulas[name] = src
	e.formulasMu.Unlock()
	return nil
}

// Formulas returns a copy of the registered formulas.
func (e *Evaluator) Formulas() map[string]string {
	e.formulasMu.RLock()
	defer e.formulasMu.RUnlock()
	out := make(map[string]string, len(e.formulas))
	for k, v := range e.formulas {
		out[k] = v
	}
	return out
}

// EnableCaching switches result caching on or off. Switching it off drops
// every cached result.
func (e *Evaluator) EnableCaching(enabled bool) {
	e.caching.Store(enabled)
	if !enabled {
		e.ClearCache()
	}
}

// ClearCache drops every cached result.
func (e *Evaluator) ClearCache() {
	e.results.Clear()
	e.memo.Clear()
}

// CacheLen returns the number of cached results.
func (e *Evaluator) CacheLen() int {
	return e.results.Len()
}

// parseSource parses src, reusing earlier parses of the same text. A program
// made of a single expression statement yields that expression.
func (e *Evaluator) parseSource(src string) (types.Node, error) {
	return e.sources.GetOrCompute(src, func() (types.Node, error) {
		prog, err := parser.Parse(src)
		if err != nil {
			return nil, err
		}
		if len(prog.Statements) == 1 && prog.Statements[0].Kind == types.StmtExpression {
			return prog.Statements[0].Body, nil
		}
		return prog, nil
	})
}
