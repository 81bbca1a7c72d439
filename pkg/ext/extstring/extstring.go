// Package extstring provides text functions beyond the standard string
// builtins, under the text namespace. Register them via
// evaluator.WithFunctions or the top-level ext.WithString() helper.
package extstring

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sandrolain/gologic/pkg/ext/extutil"
	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// All returns all text function definitions.
func All() []functions.Definition {
	return []functions.Definition{
		IndexOf(),
		LastIndexOf(),
		Capitalize(),
		TitleCase(),
		CamelCase(),
		SnakeCase(),
		KebabCase(),
		Repeat(),
		Words(),
		Template(),
	}
}

// IndexOf returns the definition for text.index_of(str, search [, start]).
// Indexes count characters; -1 means not found.
func IndexOf() functions.Definition {
	return functions.Definition{
		Name:        "text.index_of",
		Params:      []types.ParamKind{types.ParamString, types.ParamString, types.ParamInteger},
		Optional:    1,
		Returns:     types.ParamInteger,
		Description: "Character index of the first occurrence of search at or after start, or -1",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			str, err := functions.String("text.index_of", args, 0)
			if err != nil {
				return nil, err
			}
			search, err := functions.String("text.index_of", args, 1)
			if err != nil {
				return nil, err
			}
			runes := []rune(str)
			start := int64(0)
			if _, ok := functions.Optional(args, 2); ok {
				if start, err = functions.Int64("text.index_of", args, 2); err != nil {
					return nil, err
				}
				start = max(start, 0)
			}
			if start > int64(len(runes)) {
				return types.NewInt(-1), nil
			}
			rest := string(runes[start:])
			idx := strings.Index(rest, search)
			if idx == -1 {
				return types.NewInt(-1), nil
			}
			return types.NewInt(start + int64(utf8.RuneCountInString(rest[:idx]))), nil
		},
	}
}

// LastIndexOf returns the definition for text.last_index_of(str, search).
func LastIndexOf() functions.Definition {
	return functions.Definition{
		Name:        "text.last_index_of",
		Params:      []types.ParamKind{types.ParamString, types.ParamString},
		Returns:     types.ParamInteger,
		Description: "Character index of the last occurrence of search, or -1",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			str, err := functions.String("text.last_index_of", args, 0)
			if err != nil {
				return nil, err
			}
			search, err := functions.String("text.last_index_of", args, 1)
			if err != nil {
				return nil, err
			}
			idx := strings.LastIndex(str, search)
			if idx == -1 {
				return types.NewInt(-1), nil
			}
			return types.NewInt(int64(utf8.RuneCountInString(str[:idx]))), nil
		},
	}
}

// Capitalize returns the definition for text.capitalize(str).
// Uppercases the first character, lowercases the rest.
func Capitalize() functions.Definition {
	return extutil.StringFunc("text.capitalize", "First character upper case, the rest lower case", types.ParamString,
		func(s string) (types.Value, error) {
			return types.NewString(capitalize(s)), nil
		})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// TitleCase returns the definition for text.title_case(str).
func TitleCase() functions.Definition {
	return extutil.StringFunc("text.title_case", "Every space separated word capitalized", types.ParamString,
		func(s string) (types.Value, error) {
			words := strings.Fields(s)
			for i, w := range words {
				words[i] = capitalize(w)
			}
			return types.NewString(strings.Join(words, " ")), nil
		})
}

// splitWordsRe finds word boundaries in camelCase, snake_case, kebab-case
// and spaced text.
var splitWordsRe = regexp.MustCompile(`[_\-\s]+|([a-z0-9])([A-Z])`)

func splitIntoWords(str string) []string {
	expanded := splitWordsRe.ReplaceAllString(str, "$1 $2")
	return strings.Fields(expanded)
}

// CamelCase returns the definition for text.camel_case(str).
func CamelCase() functions.Definition {
	return extutil.StringFunc("text.camel_case", "Words joined in lowerCamelCase", types.ParamString,
		func(s string) (types.Value, error) {
			words := splitIntoWords(s)
			if len(words) == 0 {
				return types.NewString(""), nil
			}
			var b strings.Builder
			b.WriteString(strings.ToLower(words[0]))
			for _, w := range words[1:] {
				b.WriteString(capitalize(w))
			}
			return types.NewString(b.String()), nil
		})
}

func joinLower(s, sep string) types.Value {
	words := splitIntoWords(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return types.NewString(strings.Join(words, sep))
}

// SnakeCase returns the definition for text.snake_case(str).
func SnakeCase() functions.Definition {
	return extutil.StringFunc("text.snake_case", "Words joined in snake_case", types.ParamString,
		func(s string) (types.Value, error) { return joinLower(s, "_"), nil })
}

// KebabCase returns the definition for text.kebab_case(str).
func KebabCase() functions.Definition {
	return extutil.StringFunc("text.kebab_case", "Words joined in kebab-case", types.ParamString,
		func(s string) (types.Value, error) { return joinLower(s, "-"), nil })
}

var (
	errNegativeCount = errors.New("count must not be negative")
	errTooLong       = errors.New("result too long")
)

// maxRepeat bounds the length of text.repeat results in bytes.
const maxRepeat = 1 << 24

// Repeat returns the definition for text.repeat(str, n).
func Repeat() functions.Definition {
	return functions.Definition{
		Name:        "text.repeat",
		Params:      []types.ParamKind{types.ParamString, types.ParamInteger},
		Returns:     types.ParamString,
		Description: "str repeated n times",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			str, err := functions.String("text.repeat", args, 0)
			if err != nil {
				return nil, err
			}
			n, err := functions.Int64("text.repeat", args, 1)
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, errNegativeCount
			}
			if len(str) > 0 && n > maxRepeat/int64(len(str)) {
				return nil, errTooLong
			}
			return types.NewString(strings.Repeat(str, int(n))), nil
		},
	}
}

// Words returns the definition for text.words(str).
func Words() functions.Definition {
	return extutil.StringFunc("text.words", "Whitespace separated words", types.ParamCollection,
		func(s string) (types.Value, error) {
			parts := strings.Fields(s)
			items := make([]types.Value, len(parts))
			for i, p := range parts {
				items[i] = types.NewString(p)
			}
			return types.NewCollection(items...), nil
		})
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Template returns the definition for text.template(str, bindings).
// Replaces {{key}} placeholders with the fields of bindings; unknown keys
// are left in place.
func Template() functions.Definition {
	return functions.Definition{
		Name:        "text.template",
		Params:      []types.ParamKind{types.ParamString, types.ParamObject},
		Returns:     types.ParamString,
		Description: "str with {{key}} placeholders replaced by the fields of bindings",
		Pure:        true,
		Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
			tmpl, err := functions.String("text.template", args, 0)
			if err != nil {
				return nil, err
			}
			bindings, err := functions.Object("text.template", args, 1)
			if err != nil {
				return nil, err
			}
			out := placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
				key := placeholderRe.FindStringSubmatch(match)[1]
				if v, ok := bindings.Get(key); ok {
					return types.Display(v)
				}
				return match
			})
			return types.NewString(out), nil
		},
	}
}
