package evaluator

import (
	"context"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/sandrolain/gologic/pkg/functions"
	"github.com/sandrolain/gologic/pkg/types"
)

// Ignore-file style matching. Patterns follow .gitignore syntax: "*" and
// "?" stay within a path segment, "**" spans segments, a leading "/"
// anchors at the root, a trailing "/" matches directories only and a
// leading "!" re-includes. Paths are slash separated; a trailing slash
// marks a directory.

// splitPath returns the segments of a slash separated path and whether it
// names a directory.
func splitPath(p string) ([]string, bool) {
	isDir := strings.HasSuffix(p, "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return nil, isDir
	}
	return strings.Split(p, "/"), isDir
}

// parsePatterns parses ignore-file lines, skipping blanks and comments.
func parsePatterns(lines []string) []gitignore.Pattern {
	ps := make([]gitignore.Pattern, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, nil))
	}
	return ps
}

func patternFunctions() []functions.Definition {
	return []functions.Definition{
		{
			Name:        "pattern.glob",
			Params:      []types.ParamKind{types.ParamString, types.ParamString},
			Returns:     types.ParamBoolean,
			Description: "Reports whether path matches a single ignore-file pattern",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				pattern, err := functions.String("pattern.glob", args, 0)
				if err != nil {
					return nil, err
				}
				path, err := functions.String("pattern.glob", args, 1)
				if err != nil {
					return nil, err
				}
				segments, isDir := splitPath(path)
				ps := parsePatterns([]string{pattern})
				if len(ps) == 0 {
					return types.False, nil
				}
				return types.NewBool(ps[0].Match(segments, isDir) == gitignore.Exclude), nil
			},
		},
		{
			Name:        "pattern.ignored",
			Params:      []types.ParamKind{types.ParamCollection, types.ParamString},
			Returns:     types.ParamBoolean,
			Description: "Reports whether an ignore file made of patterns excludes path; later patterns win",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				lines, err := functions.Strings("pattern.ignored", args, 0)
				if err != nil {
					return nil, err
				}
				path, err := functions.String("pattern.ignored", args, 1)
				if err != nil {
					return nil, err
				}
				segments, isDir := splitPath(path)
				m := gitignore.NewMatcher(parsePatterns(lines))
				return types.NewBool(m.Match(segments, isDir)), nil
			},
		},
		{
			Name:        "pattern.filter",
			Params:      []types.ParamKind{types.ParamCollection, types.ParamCollection},
			Returns:     types.ParamCollection,
			Description: "Paths not excluded by an ignore file made of patterns, in order",
			Pure:        true,
			Fn: func(_ context.Context, args []types.Value, _ functions.Scope) (types.Value, error) {
				lines, err := functions.Strings("pattern.filter", args, 0)
				if err != nil {
					return nil, err
				}
				paths, err := functions.Strings("pattern.filter", args, 1)
				if err != nil {
					return nil, err
				}
				m := gitignore.NewMatcher(parsePatterns(lines))
				var kept []string
				for _, p := range paths {
					segments, isDir := splitPath(p)
					if !m.Match(segments, isDir) {
						kept = append(kept, p)
					}
				}
				return stringCollection(kept), nil
			},
		},
	}
}
