package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sandrolain/gologic/pkg/evaluator"
	"github.com/sandrolain/gologic/pkg/types"
)

// LoadFacts reads a YAML or JSON document whose top level is a mapping and
// returns one binding per key.
func LoadFacts(path string) (map[string]types.Value, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("facts: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	facts, err := ParseFacts(file)
	if err != nil {
		return nil, fmt.Errorf("facts: parse %s: %w", abs, err)
	}
	return facts, nil
}

// ParseFacts decodes a facts document. Keys must be valid variable names.
func ParseFacts(r io.Reader) (map[string]types.Value, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	facts := make(map[string]types.Value, len(raw))
	for k, v := range raw {
		if !types.IsIdentifier(k) {
			return nil, fmt.Errorf("fact name %q is not an identifier", k)
		}
		val, err := types.FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("fact %q: %w", k, err)
		}
		facts[k] = val
	}
	return facts, nil
}

// FactsContext loads the facts files in order into a fresh context. Later
// files override earlier ones.
func FactsContext(paths ...string) (*evaluator.EvalContext, error) {
	c := evaluator.NewContext()
	for _, path := range paths {
		facts, err := LoadFacts(path)
		if err != nil {
			return nil, err
		}
		c.BindAll(facts)
	}
	return c, nil
}
