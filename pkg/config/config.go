// Package config loads evaluator settings and fact files from YAML.
//
// A configuration file looks like:
//
//	caching: true
//	cache_size: 512
//	timeout: 5s
//	collect_counterexamples: true
//	packs: [text, semver]
//	formulas:
//	  base: "p"
//	  rule: "p implies q"
//	wasm:
//	  memory_limit_pages: 16
//	  modules:
//	    - name: calc
//	      path: calc.wasm
//
// Unknown keys are rejected. Relative wasm paths resolve against the
// directory of the configuration file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/ext"
	"github.com/sandrolain/gologic/pkg/ext/extwasm"
	"github.com/sandrolain/gologic/pkg/types"
)

// PackAll selects every function pack.
const PackAll = "all"

// Config holds evaluator settings. Zero fields keep the evaluator defaults.
type Config struct {
	Caching                bool              `yaml:"caching"`
	CacheSize              int               `yaml:"cache_size"`
	Tracing                bool              `yaml:"tracing"`
	Debug                  bool              `yaml:"debug"`
	MaxDepth               int               `yaml:"max_depth"`
	Timeout                time.Duration     `yaml:"timeout"`
	FixpointLimit          int               `yaml:"fixpoint_limit"`
	CollectCounterexamples bool              `yaml:"collect_counterexamples"`
	Packs                  []string          `yaml:"packs"`
	Formulas               map[string]string `yaml:"formulas"`
	Wasm                   WasmConfig        `yaml:"wasm"`

	// Dir is the directory relative paths resolve against.
	Dir string `yaml:"-"`
}

// WasmConfig lists WebAssembly modules whose exports become functions.
type WasmConfig struct {
	MemoryLimitPages uint32       `yaml:"memory_limit_pages"`
	Modules          []WasmModule `yaml:"modules"`
}

// WasmModule names one module file.
type WasmModule struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}
	cfg.Dir = filepath.Dir(abs)
	return cfg, nil
}

// Parse decodes and validates a configuration document. An empty document
// yields the defaults.
func Parse(r io.Reader) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs error
	if c.CacheSize < 0 {
		errs = multierr.Append(errs, fmt.Errorf("cache_size must not be negative: %d", c.CacheSize))
	}
	if c.MaxDepth < 0 {
		errs = multierr.Append(errs, fmt.Errorf("max_depth must not be negative: %d", c.MaxDepth))
	}
	if c.Timeout < 0 {
		errs = multierr.Append(errs, fmt.Errorf("timeout must not be negative: %s", c.Timeout))
	}
	if c.FixpointLimit < 0 {
		errs = multierr.Append(errs, fmt.Errorf("fixpoint_limit must not be negative: %d", c.FixpointLimit))
	}
	for _, p := range c.Packs {
		if p == PackAll {
			continue
		}
		if _, err := ext.Pack(p); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	for _, name := range sortedKeys(c.Formulas) {
		if c.Formulas[name] == "" {
			errs = multierr.Append(errs, fmt.Errorf("formula %q is empty", name))
		}
	}
	seen := make(map[string]bool, len(c.Wasm.Modules))
	for i, m := range c.Wasm.Modules {
		switch {
		case !types.IsIdentifier(m.Name):
			errs = multierr.Append(errs, fmt.Errorf("wasm module %d: name %q is not an identifier", i+1, m.Name))
		case seen[m.Name]:
			errs = multierr.Append(errs, fmt.Errorf("wasm module %q listed twice", m.Name))
		}
		seen[m.Name] = true
		if m.Path == "" {
			errs = multierr.Append(errs, fmt.Errorf("wasm module %d: path is empty", i+1))
		}
	}
	return errs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Options converts the settings, packs and formulas into evaluator options.
// WebAssembly modules are not included; see Runtime.
func (c *Config) Options() []evaluator.EvalOption {
	opts := []evaluator.EvalOption{
		evaluator.WithCaching(c.Caching),
		evaluator.WithTracing(c.Tracing),
		evaluator.WithDebug(c.Debug),
		evaluator.WithCollectCounterexamples(c.CollectCounterexamples),
	}
	if c.CacheSize > 0 {
		opts = append(opts, evaluator.WithCacheSize(c.CacheSize))
	}
	if c.MaxDepth > 0 {
		opts = append(opts, evaluator.WithMaxDepth(c.MaxDepth))
	}
	if c.Timeout > 0 {
		opts = append(opts, evaluator.WithTimeout(c.Timeout))
	}
	if c.FixpointLimit > 0 {
		opts = append(opts, evaluator.WithFixpointLimit(c.FixpointLimit))
	}
	opts = append(opts, c.packOptions()...)
	for name, src := range c.Formulas {
		opts = append(opts, evaluator.WithFormula(name, src))
	}
	return opts
}

func (c *Config) packOptions() []evaluator.EvalOption {
	for _, p := range c.Packs {
		if p == PackAll {
			return []evaluator.EvalOption{ext.WithAll()}
		}
	}
	var opts []evaluator.EvalOption
	seen := make(map[string]bool, len(c.Packs))
	for _, p := range c.Packs {
		if seen[p] {
			continue
		}
		seen[p] = true
		if defs, err := ext.Pack(p); err == nil {
			opts = append(opts, evaluator.WithFunctions(defs...))
		}
	}
	return opts
}

// Runtime is an evaluator built from a Config, together with the
// WebAssembly modules it loaded.
type Runtime struct {
	*evaluator.Evaluator
	wasm *extwasm.Host
}

// NewRuntime builds an evaluator from c. extra options apply after the
// configured ones. The Runtime must be closed when wasm modules are
// configured.
func (c *Config) NewRuntime(ctx context.Context, logger *slog.Logger, extra ...evaluator.EvalOption) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := append(c.Options(), evaluator.WithLogger(logger))

	rt := &Runtime{}
	if len(c.Wasm.Modules) > 0 {
		mods := make([]extwasm.Module, len(c.Wasm.Modules))
		for i, m := range c.Wasm.Modules {
			mods[i] = extwasm.Module{Name: m.Name, Path: c.resolve(m.Path)}
		}
		host, err := extwasm.Load(ctx, mods,
			extwasm.WithMemoryLimitPages(c.Wasm.MemoryLimitPages),
			extwasm.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		rt.wasm = host
		opts = append(opts, ext.WithWasm(host))
	}

	ev, err := evaluator.New(append(opts, extra...)...)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.Evaluator = ev
	return rt, nil
}

// Close releases the WebAssembly modules, if any.
func (r *Runtime) Close(ctx context.Context) error {
	if r.wasm == nil {
		return nil
	}
	return r.wasm.Close(ctx)
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}
