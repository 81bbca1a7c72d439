// Package extsemver provides semantic version functions under the semver
// namespace, backed by github.com/blang/semver/v4. Rules use them to check
// dependency and release facts, e.g.
//
//	forall d in deps: semver.satisfies(d.version, ">=1.2.0 <2.0.0")
//
// Versions are parsed tolerantly: a leading "v" and missing minor or patch
// components are accepted. semver.valid is the strict check.
package extsemver

import (
	"context"
	"fmt"
	"math/big"

	"github.com/blang/semver/v4"

	"github.com/sandrolain/gologic/pkg/ext/extutil"
	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// All returns all semver function definitions.
func All() []functions.Definition {
	return []functions.Definition{
		Valid(),
		Parse(),
		Compare(),
		Satisfies(),
		component("semver.major", "Major component of v", func(v semver.Version) uint64 { return v.Major }),
		component("semver.minor", "Minor component of v", func(v semver.Version) uint64 { return v.Minor }),
		component("semver.patch", "Patch component of v", func(v semver.Version) uint64 { return v.Patch }),
	}
}

func parse(fn, s string) (semver.Version, error) {
	v, err := semver.ParseTolerant(s)
	if err != nil {
		return semver.Version{}, fmt.Errorf("%s: invalid version %q: %w", fn, s, err)
	}
	return v, nil
}

// Valid returns the definition for semver.valid(s): whether s is a strict
// semantic version.
func Valid() functions.Definition {
	return extutil.StringFunc("semver.valid", "Whether s is a strict semantic version", types.ParamBoolean,
		func(s string) (types.Value, error) {
			_, err := semver.Parse(s)
			return types.NewBool(err == nil), nil
		})
}

// Parse returns the definition for semver.parse(s): an object with major,
// minor, patch, pre and build fields.
func Parse() functions.Definition {
	return extutil.StringFunc("semver.parse", "Components of version s", types.ParamObject,
		func(s string) (types.Value, error) {
			v, err := parse("semver.parse", s)
			if err != nil {
				return nil, err
			}
			pre := make([]types.Value, len(v.Pre))
			for i, p := range v.Pre {
				pre[i] = types.NewString(p.String())
			}
			build := make([]types.Value, len(v.Build))
			for i, b := range v.Build {
				build[i] = types.NewString(b)
			}
			return types.NewObject(map[string]types.Value{
				"major": types.NewBigInt(uintBig(v.Major)),
				"minor": types.NewBigInt(uintBig(v.Minor)),
				"patch": types.NewBigInt(uintBig(v.Patch)),
				"pre":   types.NewCollection(pre...),
				"build": types.NewCollection(build...),
			}), nil
		})
}

// Compare returns the definition for semver.compare(a, b): -1, 0 or 1.
func Compare() functions.Definition {
	return functions.Definition{
		Name:        "semver.compare",
		Params:      []types.ParamKind{types.ParamString, types.ParamString},
		Returns:     types.ParamInteger,
		Description: "-1, 0 or 1 as version a is below, equal to or above b",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			versions := make([]semver.Version, 2)
			for i := range versions {
				s, err := functions.String("semver.compare", args, i)
				if err != nil {
					return nil, err
				}
				if versions[i], err = parse("semver.compare", s); err != nil {
					return nil, err
				}
			}
			return types.NewInt(int64(versions[0].Compare(versions[1]))), nil
		},
	}
}

// Satisfies returns the definition for semver.satisfies(v, range). Ranges
// use the blang/semver syntax: ">=1.0.0 <2.0.0 || >3.0.0".
func Satisfies() functions.Definition {
	return functions.Definition{
		Name:        "semver.satisfies",
		Params:      []types.ParamKind{types.ParamString, types.ParamString},
		Returns:     types.ParamBoolean,
		Description: "Whether version v falls in the version range r",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			s, err := functions.String("semver.satisfies", args, 0)
			if err != nil {
				return nil, err
			}
			expr, err := functions.String("semver.satisfies", args, 1)
			if err != nil {
				return nil, err
			}
			v, err := parse("semver.satisfies", s)
			if err != nil {
				return nil, err
			}
			r, err := semver.ParseRange(expr)
			if err != nil {
				return nil, fmt.Errorf("semver.satisfies: invalid range %q: %w", expr, err)
			}
			return types.NewBool(r(v)), nil
		},
	}
}

func component(name, desc string, get func(semver.Version) uint64) functions.Definition {
	return extutil.StringFunc(name, desc, types.ParamInteger, func(s string) (types.Value, error) {
		v, err := parse(name, s)
		if err != nil {
			return nil, err
		}
		return types.NewBigInt(uintBig(get(v))), nil
	})
}

func uintBig(n uint64) *big.Int { return new(big.Int).SetUint64(n) }
