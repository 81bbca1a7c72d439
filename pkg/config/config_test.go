package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"

	"github.com/sandrolain/gologic/pkg/config"
	"github.com/sandrolain/gologic/pkg/types"
)

// addWasm exports add(i64, i64) -> i64.
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7e, 0x7e, 0x01, 0x7e,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x7c, 0x0b,
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(`
caching: true
cache_size: 64
timeout: 2s
max_depth: 50
collect_counterexamples: true
packs: [text, semver]
formulas:
  base: "p"
`))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Caching || cfg.CacheSize != 64 || cfg.Timeout != 2*time.Second || cfg.MaxDepth != 50 {
		t.Fatalf("config = %+v", cfg)
	}
	if len(cfg.Packs) != 2 || cfg.Formulas["base"] != "p" {
		t.Fatalf("packs = %v, formulas = %v", cfg.Packs, cfg.Formulas)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Caching || len(cfg.Packs) != 0 {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	if _, err := config.Parse(strings.NewReader("cachng: true\n")); err == nil {
		t.Fatal("unknown key accepted")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	_, err := config.Parse(strings.NewReader(`
cache_size: -1
max_depth: -2
packs: [datetime]
formulas:
  empty: ""
wasm:
  modules:
    - name: my-mod
      path: x.wasm
    - name: ok
`))
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	if got := len(multierr.Errors(err)); got != 6 {
		t.Fatalf("got %d errors, want 6: %v", got, err)
	}
}

func TestRuntime(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "calc.wasm"), addWasm, 0o600); err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, dir, "gologic.yaml", `
caching: true
packs: [all]
formulas:
  base: "p"
wasm:
  memory_limit_pages: 16
  modules:
    - name: calc
      path: calc.wasm
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	rt, err := cfg.NewRuntime(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close(ctx)

	v, err := rt.EvaluateSource(ctx, `calc.add(1, 2) == 3 and semver.valid("1.0.0") and text.repeat("a", 2) == "aa"`, nil)
	if err != nil || !types.Equal(v, types.True) {
		t.Fatalf("result = %v, %v", v, err)
	}
	if got := rt.Formulas(); got["base"] != "p" {
		t.Fatalf("formulas = %v", got)
	}
}

func TestRuntimeMissingWasm(t *testing.T) {
	cfg := &config.Config{Wasm: config.WasmConfig{Modules: []config.WasmModule{{Name: "m", Path: "/nonexistent/m.wasm"}}}}
	if _, err := cfg.NewRuntime(context.Background(), nil); err == nil {
		t.Fatal("missing module loaded")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v", err)
	}
}

func TestFacts(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.yaml", `
files: [main.go, README.md]
limit: 10
repo:
  name: gologic
  stars: 1.5
`)
	override := writeFile(t, dir, "override.json", `{"limit": 20, "empty": null}`)

	c, err := config.FactsContext(base, override)
	if err != nil {
		t.Fatal(err)
	}
	tests := map[string]types.Value{
		"limit":      types.NewInt(20),
		"empty":      types.Null,
		"repo.name":  types.NewString("gologic"),
		"repo.stars": types.NewFloat(1.5),
		"files":      types.NewCollection(types.NewString("main.go"), types.NewString("README.md")),
	}
	for name, want := range tests {
		got, ok := c.Lookup(name)
		if !ok || !types.Equal(got, want) {
			t.Fatalf("%s = %v, want %s", name, got, want)
		}
	}
}

func TestFactsRejectBadNames(t *testing.T) {
	for _, doc := range []string{`"not-a-name": 1`, `forall: 1`, `[1, 2]`} {
		if _, err := config.ParseFacts(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s accepted", doc)
		}
	}
}
