package evaluator

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/gologic/pkg/cache"
	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

func stringFunctions() []functions.Definition {
	str := []types.ParamKind{types.ParamString}
	str2 := []types.ParamKind{types.ParamString, types.ParamString}

	predicate := func(name, desc string, test func(s, t string) bool) functions.Definition {
		return functions.Definition{
			Name:        name,
			Params:      str2,
			Returns:     types.ParamBoolean,
			Description: desc,
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				s, err := functions.String(name, args, 0)
				if err != nil {
					return nil, err
				}
				t, err := functions.String(name, args, 1)
				if err != nil {
					return nil, err
				}
				return types.NewBool(test(s, t)), nil
			},
		}
	}
	mapping := func(name, desc string, f func(string) string) functions.Definition {
		return functions.Definition{
			Name:        name,
			Params:      str,
			Returns:     types.ParamString,
			Description: desc,
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				s, err := functions.String(name, args, 0)
				if err != nil {
					return nil, err
				}
				return types.NewString(f(s)), nil
			},
		}
	}

	// Compiled patterns of string.matches.
	patterns := cache.New[*regexp.Regexp](256)

	return []functions.Definition{
		{
			Name:        "string.length",
			Params:      str,
			Returns:     types.ParamInteger,
			Description: "Number of characters",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				s, err := functions.String("string.length", args, 0)
				if err != nil {
					return nil, err
				}
				return types.NewInt(int64(utf8.RuneCountInString(s))), nil
			},
		},
		{
			Name:        "string.concat",
			Params:      str,
			Variadic:    true,
			Returns:     types.ParamString,
			Description: "Concatenation of the arguments",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				var b strings.Builder
				for i := range args {
					s, err := functions.String("string.concat", args, i)
					if err != nil {
						return nil, err
					}
					b.WriteString(s)
				}
				return types.NewString(b.String()), nil
			},
		},
		predicate("string.starts_with", "Reports whether s begins with prefix", strings.HasPrefix),
		predicate("string.ends_with", "Reports whether s ends with suffix", strings.HasSuffix),
		predicate("string.contains", "Reports whether s contains substr", strings.Contains),
		mapping("string.lower", "Lower-case mapping", strings.ToLower),
		mapping("string.upper", "Upper-case mapping", strings.ToUpper),
		mapping("string.trim", "Removes leading and trailing white space", strings.TrimSpace),
		{
			Name:        "string.split",
			Params:      str2,
			Returns:     types.ParamCollection,
			Description: "Substrings separated by sep",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				s, err := functions.String("string.split", args, 0)
				if err != nil {
					return nil, err
				}
				sep, err := functions.String("string.split", args, 1)
				if err != nil {
					return nil, err
				}
				if s == "" {
					return types.NewCollection(), nil
				}
				return stringCollection(strings.Split(s, sep)), nil
			},
		},
		{
			Name:        "string.join",
			Params:      []types.ParamKind{types.ParamCollection, types.ParamString},
			Optional:    1,
			Returns:     types.ParamString,
			Description: "Strings of a collection joined by sep (default empty)",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				parts, err := functions.Strings("string.join", args, 0)
				if err != nil {
					return nil, err
				}
				var sep string
				if _, ok := functions.Optional(args, 1); ok {
					if sep, err = functions.String("string.join", args, 1); err != nil {
						return nil, err
					}
				}
				return types.NewString(strings.Join(parts, sep)), nil
			},
		},
		{
			Name:        "string.matches",
			Params:      str2,
			Returns:     types.ParamBoolean,
			Description: "Reports whether s contains a match of the regular expression (RE2 syntax)",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				s, err := functions.String("string.matches", args, 0)
				if err != nil {
					return nil, err
				}
				expr, err := functions.String("string.matches", args, 1)
				if err != nil {
					return nil, err
				}
				re, err := patterns.GetOrCompute(expr, func() (*regexp.Regexp, error) {
					return regexp.Compile(expr)
				})
				if err != nil {
					return nil, err
				}
				return types.NewBool(re.MatchString(s)), nil
			},
		},
	}
}
