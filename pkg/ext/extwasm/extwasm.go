// Package extwasm exposes the exported functions of WebAssembly modules as
// formula functions. A module loaded under the name "calc" that exports
// "add" is called as calc.add(2, 40).
//
// Only exports whose parameters and results are numeric (i32, i64, f32,
// f64) are exposed. i32 and i64 parameters take Integers, f32 and f64
// parameters take any number. A single result is returned as a value, no
// result as null, several results as a collection.
//
// Modules run on the wazero runtime. WASI is available so reactor-style
// modules built by TinyGo or Rust load; "_initialize" is called when
// exported, "_start" never is.
package extwasm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// Module names a WebAssembly binary to load. Exactly one of Path and Binary
// is set.
type Module struct {
	Name   string
	Path   string
	Binary []byte
}

// Options configures a Host.
type Options struct {
	// MemoryLimitPages caps the linear memory of every module, in 64KiB
	// pages. Zero keeps the wazero default.
	MemoryLimitPages uint32
	Logger           *slog.Logger
}

// Option configures a Host.
type Option func(*Options)

// WithMemoryLimitPages caps module memory at pages 64KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *Options) { o.MemoryLimitPages = pages }
}

// WithLogger sets the logger used for module loading.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// Host owns a wazero runtime and the modules instantiated in it.
// It is safe for concurrent use; calls into one module are serialized.
type Host struct {
	runtime wazero.Runtime
	modules []*module
	logger  *slog.Logger
}

type module struct {
	name     string
	runtime  wazero.Runtime
	compiled wazero.CompiledModule

	mu       sync.Mutex
	instance api.Module
}

// Load compiles and instantiates mods. The returned Host must be closed.
func Load(ctx context.Context, mods []Module, opts ...Option) (*Host, error) {
	o := Options{Logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if o.MemoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(o.MemoryLimitPages)
	}
	h := &Host{runtime: wazero.NewRuntimeWithConfig(ctx, cfg), logger: o.Logger}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, h.runtime); err != nil {
		_ = h.runtime.Close(ctx)
		return nil, fmt.Errorf("wasi: %w", err)
	}

	seen := make(map[string]bool, len(mods))
	for _, m := range mods {
		if !types.IsIdentifier(m.Name) {
			_ = h.Close(ctx)
			return nil, fmt.Errorf("wasm module name %q is not an identifier", m.Name)
		}
		if seen[m.Name] {
			_ = h.Close(ctx)
			return nil, fmt.Errorf("wasm module %q loaded twice", m.Name)
		}
		seen[m.Name] = true
		if err := h.load(ctx, m); err != nil {
			_ = h.Close(ctx)
			return nil, fmt.Errorf("wasm module %q: %w", m.Name, err)
		}
	}
	return h, nil
}

func (h *Host) load(ctx context.Context, m Module) error {
	bin := m.Binary
	if bin == nil {
		if m.Path == "" {
			return fmt.Errorf("neither path nor binary given")
		}
		var err error
		if bin, err = os.ReadFile(m.Path); err != nil {
			return err
		}
	}
	compiled, err := h.runtime.CompileModule(ctx, bin)
	if err != nil {
		return err
	}
	mod := &module{name: m.Name, runtime: h.runtime, compiled: compiled}
	if err := mod.instantiate(ctx); err != nil {
		return err
	}
	h.modules = append(h.modules, mod)
	h.logger.Debug("wasm module loaded", "module", m.Name, "exports", len(compiled.ExportedFunctions()))
	return nil
}

// instantiate creates a fresh anonymous instance. Callers hold mu or own m
// exclusively.
func (m *module) instantiate(ctx context.Context) error {
	cfg := wazero.NewModuleConfig().WithName("").WithStartFunctions("_initialize")
	inst, err := m.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		return err
	}
	m.instance = inst
	return nil
}

// Definitions returns one function definition per numeric export of every
// loaded module, sorted by name.
func (h *Host) Definitions() []functions.Definition {
	var defs []functions.Definition
	for _, m := range h.modules {
		for export, fd := range m.compiled.ExportedFunctions() {
			if !types.IsIdentifier(export) {
				continue
			}
			if def, ok := m.definition(export, fd); ok {
				defs = append(defs, def)
			}
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Close releases the runtime and every module.
func (h *Host) Close(ctx context.Context) error {
	return h.runtime.Close(ctx)
}

func paramKind(t api.ValueType) (types.ParamKind, bool) {
	switch t {
	case api.ValueTypeI32, api.ValueTypeI64:
		return types.ParamInteger, true
	case api.ValueTypeF32, api.ValueTypeF64:
		return types.ParamNumber, true
	}
	return types.ParamAny, false
}

func (m *module) definition(export string, fd api.FunctionDefinition) (functions.Definition, bool) {
	paramTypes, resultTypes := fd.ParamTypes(), fd.ResultTypes()
	params := make([]types.ParamKind, len(paramTypes))
	for i, t := range paramTypes {
		k, ok := paramKind(t)
		if !ok {
			return functions.Definition{}, false
		}
		params[i] = k
	}
	returns := types.ParamAny
	for _, t := range resultTypes {
		if _, ok := paramKind(t); !ok {
			return functions.Definition{}, false
		}
	}
	if len(resultTypes) == 1 {
		if resultTypes[0] == api.ValueTypeI32 || resultTypes[0] == api.ValueTypeI64 {
			returns = types.ParamInteger
		} else {
			returns = types.ParamFloat
		}
	}

	name := m.name + "." + export
	return functions.Definition{
		Name:        name,
		Params:      params,
		Returns:     returns,
		Description: fmt.Sprintf("WebAssembly export %s of module %s", export, m.name),
		Fn: func(ctx context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			raw := make([]uint64, len(args))
			for i, t := range paramTypes {
				v, err := encode(name, args, i, t)
				if err != nil {
					return nil, err
				}
				raw[i] = v
			}
			results, err := m.call(ctx, export, raw)
			if err != nil {
				return nil, err
			}
			out := make([]types.Value, len(results))
			for i, t := range resultTypes {
				out[i] = decode(results[i], t)
			}
			switch len(out) {
			case 0:
				return types.Null, nil
			case 1:
				return out[0], nil
			}
			return types.NewCollection(out...), nil
		},
	}, true
}

// call runs export on the current instance. An instance closed by a
// cancelled context or a trap that exits it is replaced on the next call.
func (m *module) call(ctx context.Context, export string, args []uint64) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.instance == nil || m.instance.IsClosed() {
		if err := m.instantiate(ctx); err != nil {
			return nil, err
		}
	}
	fn := m.instance.ExportedFunction(export)
	if fn == nil {
		return nil, fmt.Errorf("export %s not found", export)
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return results, nil
}

func encode(fn string, args []types.Value, i int, t api.ValueType) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		n, err := functions.Int64(fn, args, i)
		if err != nil {
			return 0, err
		}
		if n < math.MinInt32 || n > math.MaxUint32 {
			return 0, fmt.Errorf("%s: argument %d does not fit in 32 bits: %d", fn, i+1, n)
		}
		return api.EncodeI32(int32(n)), nil
	case api.ValueTypeI64:
		n, err := functions.Int64(fn, args, i)
		if err != nil {
			return 0, err
		}
		return api.EncodeI64(n), nil
	case api.ValueTypeF32:
		f, err := functions.Float(fn, args, i)
		if err != nil {
			return 0, err
		}
		return api.EncodeF32(float32(f)), nil
	default:
		f, err := functions.Float(fn, args, i)
		if err != nil {
			return 0, err
		}
		return api.EncodeF64(f), nil
	}
}

func decode(v uint64, t api.ValueType) types.Value {
	switch t {
	case api.ValueTypeI32:
		return types.NewInt(int64(api.DecodeI32(v)))
	case api.ValueTypeI64:
		return types.NewInt(int64(v))
	case api.ValueTypeF32:
		return types.NewFloat(float64(api.DecodeF32(v)))
	default:
		return types.NewFloat(api.DecodeF64(v))
	}
}
