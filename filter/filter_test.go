package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/s2match/smite"
)

func ptr[T any](v T) *T { return &v }

func testMatch(id, god, mode string, kills, deaths, assists int64) smite.PlayerMatch {
	m := smite.PlayerMatch{
		MatchID:     smite.Some(id),
		MatchStart:  smite.Some("2024-03-10T18:30:00Z"),
		Mode:        smite.Some(mode),
		Map:         smite.Some("Conquest"),
		WinningTeam: smite.Some("1"),
	}
	m.PlayerUUID = "u1"
	m.TeamID = smite.Some(1)
	m.GodName = god
	m.BasicStats = smite.BasicStats{
		Kills:            kills,
		Deaths:           deaths,
		Assists:          assists,
		TotalDamage:      20000,
		TotalAllyHealing: 1000,
		TotalSelfHealing: 500,
	}
	return m
}

func ids(matches []smite.PlayerMatch) []string {
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.MatchID.OrElse(""))
	}
	return out
}

func TestCriteriaKDA(t *testing.T) {
	good := testMatch("good", "Anubis", "Ranked", 10, 2, 4)
	deathless := testMatch("deathless", "Anubis", "Ranked", 1, 0, 1)
	poor := testMatch("poor", "Anubis", "Ranked", 1, 5, 1)

	got := Criteria{MinKDA: ptr(3.0)}.Apply([]smite.PlayerMatch{good, deathless, poor})
	assert.Equal(t, []string{"good"}, ids(got))

	assert.InDelta(t, 7.0, good.BasicStats.KDA(), 1e-9)
	assert.InDelta(t, 2.0, deathless.BasicStats.KDA(), 1e-9)
}

func TestCriteriaEvaluate(t *testing.T) {
	base := testMatch("m1", "Anubis", "Ranked", 10, 5, 7)

	loss := base
	loss.TeamID = smite.Some(2)

	noTeam := base
	noTeam.TeamID = smite.Optional[int]{}

	noMode := base
	noMode.Mode = smite.Optional[string]{}

	noStart := base
	noStart.MatchStart = smite.Optional[string]{}

	minDate, _ := ParseDate("2024-03-10", false)
	maxDate, _ := ParseDate("2024-03-10", true)
	earlyMax, _ := ParseDate("2024-03-09", true)

	tests := []struct {
		name     string
		criteria Criteria
		match    smite.PlayerMatch
		want     bool
	}{
		{name: "empty criteria", criteria: Criteria{}, match: base, want: true},
		{name: "god matches", criteria: Criteria{GodName: ptr("Anubis")}, match: base, want: true},
		{name: "god differs", criteria: Criteria{GodName: ptr("Ra")}, match: base, want: false},
		{name: "mode matches", criteria: Criteria{Mode: ptr("Ranked")}, match: base, want: true},
		{name: "mode missing", criteria: Criteria{Mode: ptr("Ranked")}, match: noMode, want: false},
		{name: "mode missing but unset", criteria: Criteria{GodName: ptr("Anubis")}, match: noMode, want: true},
		{name: "map differs", criteria: Criteria{Map: ptr("Joust")}, match: base, want: false},
		{name: "same day bounds", criteria: Criteria{MinDate: &minDate, MaxDate: &maxDate}, match: base, want: true},
		{name: "after max date", criteria: Criteria{MaxDate: &earlyMax}, match: base, want: false},
		{name: "date filter without start", criteria: Criteria{MinDate: &minDate}, match: noStart, want: false},
		{name: "win only keeps win", criteria: Criteria{WinOnly: ptr(true)}, match: base, want: true},
		{name: "win only drops loss", criteria: Criteria{WinOnly: ptr(true)}, match: loss, want: false},
		{name: "losses only keeps loss", criteria: Criteria{WinOnly: ptr(false)}, match: loss, want: true},
		{name: "win only without team", criteria: Criteria{WinOnly: ptr(true)}, match: noTeam, want: false},
		{name: "min kills", criteria: Criteria{MinKills: ptr[int64](10)}, match: base, want: true},
		{name: "min kills too high", criteria: Criteria{MinKills: ptr[int64](11)}, match: base, want: false},
		{name: "min deaths", criteria: Criteria{MinDeaths: ptr[int64](6)}, match: base, want: false},
		{name: "max deaths", criteria: Criteria{MaxDeaths: ptr[int64](4)}, match: base, want: false},
		{name: "min assists", criteria: Criteria{MinAssists: ptr[int64](7)}, match: base, want: true},
		{name: "min damage", criteria: Criteria{MinDamage: ptr[int64](20001)}, match: base, want: false},
		{name: "min healing sums ally and self", criteria: Criteria{MinHealing: ptr[int64](1500)}, match: base, want: true},
		{name: "min healing too high", criteria: Criteria{MinHealing: ptr[int64](1501)}, match: base, want: false},
		{
			name:     "all criteria combined",
			criteria: Criteria{GodName: ptr("Anubis"), Mode: ptr("Ranked"), WinOnly: ptr(true), MinKDA: ptr(3.0)},
			match:    base,
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Evaluate(tt.match))
		})
	}
}

func TestCriteriaIsEmpty(t *testing.T) {
	assert.True(t, Criteria{}.IsEmpty())
	assert.False(t, Criteria{MinKills: ptr[int64](1)}.IsEmpty())
}

func TestParseDate(t *testing.T) {
	start, err := ParseDate("2023-01-01", false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), start)

	end, err := ParseDate("2023-12-31", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC), end)

	exact, err := ParseDate("2023-06-01T12:00:00Z", true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC), exact)

	_, err = ParseDate("June 1st", false)
	assert.Error(t, err)
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name        string
		expression  string
		wantErr     bool
		errContains string
	}{
		{name: "valid expression", expression: `GodName == "Anubis"`},
		{name: "empty expression", expression: "   ", wantErr: true, errContains: "empty expression"},
		{name: "invalid syntax", expression: `GodName == "unclosed`, wantErr: true},
		{name: "complex expression", expression: `Kills > 5 and KDA >= 2.0 and lower(Mode) contains "rank"`},
	}

	compiler := NewExprCompiler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := compiler.Compile(tt.expression)
			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.ErrorAs(t, err, &compErr)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expression, f.Expression())
		})
	}
}

func TestExprFilterEvaluation(t *testing.T) {
	match := testMatch("m1", "Anubis", "Ranked Conquest", 10, 2, 4)
	match.PlayedRole = smite.Some("Mid")
	match.Items = map[string]smite.Item{"Item1": {"DisplayName": "Book of Thoth"}}

	tests := []struct {
		expression string
		want       bool
	}{
		{`GodName == "Anubis"`, true},
		{`Kills >= 10 and Deaths < 3`, true},
		{`KDA > 6.5`, true},
		{`Won`, true},
		{`Role == "Jungle"`, false},
		{`lower(Mode) contains "ranked"`, true},
		{`daysSince(MatchStart) >= 0`, true},
		{`hasItem("book of thoth")`, true},
		{`hasItem("Rod of Tahuti")`, false},
		{`Healing == 1500`, true},
		{`MatchStart > parseDate("2024-01-01")`, true},
	}

	compiler := NewExprCompiler()
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			f, err := compiler.Compile(tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Evaluate(match))
		})
	}
}

func TestExprCompilerCache(t *testing.T) {
	compiler := NewExprCompiler(WithCache(2))

	first, err := compiler.Compile(`Kills > 1`)
	require.NoError(t, err)
	again, err := compiler.Compile(`Kills > 1`)
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = compiler.Compile(`Kills > 2`)
	require.NoError(t, err)
	_, err = compiler.Compile(`Kills > 3`)
	require.NoError(t, err)
	assert.Equal(t, 2, compiler.Size())

	evicted, err := compiler.Compile(`Kills > 1`)
	require.NoError(t, err)
	assert.NotSame(t, first, evicted)

	compiler.Clear()
	assert.Equal(t, 0, compiler.Size())
}

func TestCustomFunctions(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"isCarry": func(role string) bool { return role == "Carry" },
	}))

	f, err := compiler.Compile(`isCarry(Role)`)
	require.NoError(t, err)

	m := testMatch("m1", "Anubis", "Ranked", 1, 1, 1)
	m.PlayedRole = smite.Some("Carry")
	assert.True(t, f.Evaluate(m))
}

func TestApplyStrict(t *testing.T) {
	compiler := NewExprCompiler()
	f, err := compiler.Compile(`Kills / Unknown > 1`)
	require.NoError(t, err)

	matches := []smite.PlayerMatch{testMatch("m1", "Anubis", "Ranked", 1, 1, 1)}
	assert.Empty(t, Apply(matches, f))

	_, err = ApplyStrict(matches, f)
	var evalErr *EvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "m1", evalErr.MatchID)
}

func TestNonBooleanExpression(t *testing.T) {
	compiler := NewExprCompiler()
	matches := []smite.PlayerMatch{testMatch("m1", "Zeus", "Ranked", 1, 1, 1)}

	for _, expression := range []string{"GodName", "Map"} {
		t.Run(expression, func(t *testing.T) {
			f, err := compiler.Compile(expression)
			require.NoError(t, err)

			assert.NotPanics(t, func() {
				assert.False(t, f.Evaluate(matches[0]))
			})
			assert.Empty(t, Apply(matches, f))

			_, err = ApplyStrict(matches, f)
			var evalErr *EvaluationError
			require.ErrorAs(t, err, &evalErr)
			assert.Equal(t, "m1", evalErr.MatchID)
			assert.Contains(t, evalErr.Reason, "did not return a boolean")
		})
	}

	m := NewManager(WithCompiler(compiler))
	require.NoError(t, m.RegisterFilter("god", "GodName"))
	got, err := m.EvaluateFilter("god", matches)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestApplyCombinesFilters(t *testing.T) {
	matches := []smite.PlayerMatch{
		testMatch("a", "Anubis", "Ranked", 10, 1, 0),
		testMatch("b", "Ra", "Ranked", 10, 1, 0),
		testMatch("c", "Anubis", "Casual", 1, 1, 0),
	}

	f, err := NewExprCompiler().Compile(`Kills > 5`)
	require.NoError(t, err)

	got := Apply(matches, Criteria{GodName: ptr("Anubis")}, f)
	assert.Equal(t, []string{"a"}, ids(got))
	assert.Len(t, Apply(matches), 3)
}
