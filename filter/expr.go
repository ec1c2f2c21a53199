package filter

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/s2match/smite"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: make(map[string]any, 16),
	}
	addHelperFunctions(c.helperFuncs)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(), // match fields are bound at run time
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helperFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate reports whether the match satisfies the expression. Matches
// the expression cannot be evaluated against are rejected.
func (f *exprFilter) Evaluate(match smite.PlayerMatch) bool {
	ok, err := f.evaluate(match)
	return err == nil && ok
}

func (f *exprFilter) evaluate(match smite.PlayerMatch) (bool, error) {
	result, err := expr.Run(f.program, createRuntimeEnvironment(match, f.helpers))
	if err != nil {
		return false, &EvaluationError{
			Expression: f.expression,
			MatchID:    match.MatchID.OrElse(""),
			Reason:     "failed to run expression",
			Err:        err,
		}
	}
	keep, ok := result.(bool)
	if !ok {
		return false, &EvaluationError{
			Expression: f.expression,
			MatchID:    match.MatchID.OrElse(""),
			Reason:     fmt.Sprintf("expression did not return a boolean, got %T", result),
		}
	}
	return keep, nil
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// ApplyStrict is like Apply for a compiled expression but stops at the
// first match the expression cannot be evaluated against.
func ApplyStrict(matches []smite.PlayerMatch, f CompiledFilter) ([]smite.PlayerMatch, error) {
	ef, ok := f.(*exprFilter)
	if !ok {
		return Apply(matches, f), nil
	}

	out := make([]smite.PlayerMatch, 0, len(matches))
	for _, m := range matches {
		keep, err := ef.evaluate(m)
		if err != nil {
			return nil, err
		}
		if keep {
			out = append(out, m)
		}
	}
	return out, nil
}

// addHelperFunctions adds the static helper functions to env
func addHelperFunctions(env map[string]any) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["parseDate"] = func(dateStr string) time.Time {
		t, _ := ParseDate(dateStr, false)
		return t
	}
	env["now"] = time.Now
	// bound per match at run time
	env["hasItem"] = func(string) bool { return false }
}

// createRuntimeEnvironment binds the match fields for one evaluation
func createRuntimeEnvironment(m smite.PlayerMatch, helpers map[string]any) map[string]any {
	env := make(map[string]any, len(helpers)+32)
	maps.Copy(env, helpers)

	s := m.BasicStats
	won, _ := m.Won()
	start, _ := MatchTime(m)

	env["Match"] = m
	env["MatchID"] = m.MatchID.OrElse("")
	env["PlayerUUID"] = m.PlayerUUID
	env["GodName"] = m.GodName
	env["Mode"] = m.Mode.OrElse("")
	env["Map"] = m.Map.OrElse("")
	env["LobbyType"] = m.LobbyType.OrElse("")
	env["Role"] = m.PlayedRole.OrElse("")
	env["AssignedRole"] = m.AssignedRole.OrElse("")
	env["TeamID"] = m.TeamID.OrElse(0)
	env["Won"] = won
	env["MatchStart"] = start
	env["Duration"] = m.DurationSeconds.OrElse(0)

	env["Kills"] = int(s.Kills)
	env["Deaths"] = int(s.Deaths)
	env["Assists"] = int(s.Assists)
	env["KDA"] = s.KDA()
	env["Damage"] = int(s.TotalDamage)
	env["Healing"] = int(s.Healing())
	env["Mitigated"] = int(s.TotalDamageMitigated)
	env["Gold"] = int(s.TotalGoldEarned)
	env["Wards"] = int(s.TotalWardsPlaced)
	env["Level"] = int(s.PlayerLevel)

	env["hasItem"] = createHasItemFunc(m.Items)

	return env
}

// createHasItemFunc matches item display names case-insensitively
func createHasItemFunc(items map[string]smite.Item) func(string) bool {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if name, ok := item["DisplayName"].(string); ok {
			names = append(names, strings.ToLower(name))
		}
	}
	return func(name string) bool {
		target := strings.ToLower(name)
		for _, n := range names {
			if n == target {
				return true
			}
		}
		return false
	}
}
