package filter

import (
	"github.com/s0up4200/s2match/smite"
)

// Filter decides whether a match is kept
type Filter interface {
	// Evaluate checks if a match satisfies the filter
	Evaluate(match smite.PlayerMatch) bool
}

// CompiledFilter represents a pre-compiled expression ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Apply returns the matches accepted by every filter, in input order.
// With no filters every match is returned.
func Apply(matches []smite.PlayerMatch, filters ...Filter) []smite.PlayerMatch {
	out := make([]smite.PlayerMatch, 0, len(matches))
	for _, m := range matches {
		keep := true
		for _, f := range filters {
			if f != nil && !f.Evaluate(m) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, m)
		}
	}
	return out
}
