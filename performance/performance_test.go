package performance

import (
	"strconv"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/s2match/smite"
)

type fixtureMatch struct {
	god, mode, role string
	team, winner    int
	k, d, a         int
	damage          int
	allyHeal        int
	selfHeal        int
	gold, wards     int
}

func rawFixture(rows []fixtureMatch) []smite.RawPlayer {
	out := make([]smite.RawPlayer, 0, len(rows))
	for i, r := range rows {
		out = append(out, smite.RawPlayer{
			PlayerUUID: smite.Some("player-1"),
			TeamID:     smite.Some(r.team),
			CustomData: smite.CustomData{
				"CharacterChoice":  "Gods." + r.god,
				"PlayedRole":       r.role,
				"Kills":            strconv.Itoa(r.k),
				"Deaths":           strconv.Itoa(r.d),
				"Assists":          strconv.Itoa(r.a),
				"TotalDamage":      strconv.Itoa(r.damage),
				"TotalAllyHealing": strconv.Itoa(r.allyHeal),
				"TotalSelfHealing": strconv.Itoa(r.selfHeal),
				"TotalGoldEarned":  strconv.Itoa(r.gold),
				"TotalWardsPlaced": strconv.Itoa(r.wards),
			},
			Match: &smite.RawMatch{
				MatchID:        smite.Some("match-" + strconv.Itoa(i)),
				StartTimestamp: smite.Some("2024-05-01T10:00:00Z"),
				CustomData: smite.CustomData{
					"CurrentMode": r.mode,
					"WinningTeam": strconv.Itoa(r.winner),
				},
			},
		})
	}
	return out
}

func TestCalculateEmpty(t *testing.T) {
	sum := Calculate(nil)

	assert.Zero(t, sum.TotalMatches)
	assert.Zero(t, sum.WinRate)
	assert.Zero(t, sum.AvgKDA)
	assert.Empty(t, sum.FavoriteGod)
	assert.NotNil(t, sum.GodStats)
	assert.Empty(t, sum.GodStats)
	assert.NotNil(t, sum.ModeStats)
	assert.NotNil(t, sum.RoleStats)
	assert.Equal(t, "No matches found", Format(sum))
}

func TestCalculateSingleMatch(t *testing.T) {
	matches, err := smite.TransformMatches(rawFixture([]fixtureMatch{
		{god: "Anubis", mode: "Ranked", role: "Mid", team: 1, winner: 1, k: 7, d: 3, a: 5},
	}), nil)
	require.NoError(t, err)

	sum := Calculate(matches)
	require.Contains(t, sum.GodStats, "Anubis")
	assert.InDelta(t, matches[0].BasicStats.KDA(), sum.GodStats["Anubis"].AvgKDA, 1e-9)
	assert.InDelta(t, 4.0, sum.AvgKDA, 1e-9)
	assert.Equal(t, "Anubis", sum.BestPerformingGod)
}

func TestCalculateFixtureRoundTrip(t *testing.T) {
	matches, err := smite.TransformMatches(rawFixture([]fixtureMatch{
		{god: "Anubis", mode: "Ranked", role: "Mid", team: 1, winner: 1, k: 10, d: 2, a: 5, damage: 20000, selfHeal: 1000, gold: 10000, wards: 5},
		{god: "Anubis", mode: "Ranked", role: "Mid", team: 2, winner: 1, k: 4, d: 6, a: 3, damage: 15000, selfHeal: 500, gold: 8000, wards: 3},
		{god: "Ra", mode: "Casual", role: "Support", team: 1, winner: 1, k: 2, d: 1, a: 14, damage: 9000, allyHeal: 6000, gold: 7000, wards: 10},
		{god: "Anubis", mode: "Ranked", role: "Jungle", team: 2, winner: 2, k: 6, d: 0, a: 6, damage: 18000, gold: 9000, wards: 2},
	}), nil)
	require.NoError(t, err)

	sum := Calculate(matches)

	assert.Equal(t, 4, sum.TotalMatches)
	assert.Equal(t, 3, sum.Wins)
	assert.Equal(t, 1, sum.Losses)
	assert.InDelta(t, 0.75, sum.WinRate, 1e-9)

	assert.Equal(t, int64(22), sum.TotalKills)
	assert.Equal(t, int64(9), sum.TotalDeaths)
	assert.Equal(t, int64(28), sum.TotalAssists)
	assert.Equal(t, int64(62000), sum.TotalDamage)
	assert.Equal(t, int64(7500), sum.TotalHealing)
	assert.Equal(t, int64(34000), sum.TotalGoldEarned)
	assert.Equal(t, int64(20), sum.TotalWardsPlaced)

	assert.InDelta(t, 5.5, sum.AvgKills, 1e-9)
	assert.InDelta(t, 2.25, sum.AvgDeaths, 1e-9)
	assert.InDelta(t, 7.0, sum.AvgAssists, 1e-9)
	assert.InDelta(t, 50.0/9.0, sum.AvgKDA, 1e-9)
	assert.InDelta(t, 15500.0, sum.AvgDamagePerMatch, 1e-9)
	assert.InDelta(t, 1875.0, sum.AvgHealingPerMatch, 1e-9)
	assert.InDelta(t, 8500.0, sum.AvgGoldPerMatch, 1e-9)
	assert.InDelta(t, 5.0, sum.AvgWardsPerMatch, 1e-9)

	anubis := sum.GodStats["Anubis"]
	require.NotNil(t, anubis)
	assert.Equal(t, 3, anubis.Matches)
	assert.Equal(t, 2, anubis.Wins)
	assert.InDelta(t, 2.0/3.0, anubis.WinRate, 1e-9)
	assert.InDelta(t, 4.25, anubis.AvgKDA, 1e-9)
	assert.Equal(t, int64(53000), anubis.Damage)
	assert.InDelta(t, 53000.0/3.0, anubis.AvgDamage, 1e-9)

	ra := sum.GodStats["Ra"]
	require.NotNil(t, ra)
	assert.InDelta(t, 16.0, ra.AvgKDA, 1e-9)

	assert.Equal(t, 3, sum.ModeStats["Ranked"].Matches)
	assert.Equal(t, 2, sum.RoleStats["Mid"].Matches)
	assert.InDelta(t, 0.5, sum.RoleStats["Mid"].WinRate, 1e-9)

	assert.Equal(t, "Anubis", sum.FavoriteGod)
	assert.Equal(t, "Mid", sum.FavoriteRole)
	assert.Equal(t, "Ranked", sum.FavoriteMode)
	// Ra has the higher KDA but too few matches
	assert.Equal(t, "Anubis", sum.BestPerformingGod)

	out := Format(sum)
	assert.Contains(t, out, "Performance over 4 matches")
	assert.Contains(t, out, "3W / 1L (75.0%)")
	assert.Contains(t, out, "Favorite god: Anubis")
}

func TestCalculateFavoriteTiesGoToFirstSeen(t *testing.T) {
	matches, err := smite.TransformMatches(rawFixture([]fixtureMatch{
		{god: "Thor", mode: "Arena", role: "Jungle", team: 1, winner: 2, k: 1, d: 1},
		{god: "Ymir", mode: "Joust", role: "Solo", team: 1, winner: 2, k: 9, d: 1},
	}), nil)
	require.NoError(t, err)

	sum := Calculate(matches)
	assert.Equal(t, "Thor", sum.FavoriteGod)
	assert.Equal(t, "Jungle", sum.FavoriteRole)
	assert.Equal(t, "Arena", sum.FavoriteMode)
	// no god reaches the minimum sample, so the favorite is used
	assert.Equal(t, "Thor", sum.BestPerformingGod)
	assert.Zero(t, sum.Wins)
}

func TestCalculateBestPerformingGod(t *testing.T) {
	rows := make([]fixtureMatch, 0, 7)
	for range 4 {
		rows = append(rows, fixtureMatch{god: "Thor", mode: "Ranked", team: 1, winner: 1, k: 2, d: 2, a: 0})
	}
	for range 3 {
		rows = append(rows, fixtureMatch{god: "Ymir", mode: "Ranked", team: 1, winner: 1, k: 5, d: 1, a: 5})
	}
	matches, err := smite.TransformMatches(rawFixture(rows), nil)
	require.NoError(t, err)

	sum := Calculate(matches)
	assert.Equal(t, "Thor", sum.FavoriteGod)
	assert.Equal(t, "Ymir", sum.BestPerformingGod)
	assert.Empty(t, sum.RoleStats)
}

func TestGodStatsAlwaysCarryDamage(t *testing.T) {
	matches, err := smite.TransformMatches(rawFixture([]fixtureMatch{
		{god: "Ymir", mode: "Arena", role: "Support", team: 1, winner: 2, k: 0, d: 4, a: 9},
	}), nil)
	require.NoError(t, err)

	sum := Calculate(matches)
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(sum)
	require.NoError(t, err)

	var out struct {
		GodStats  map[string]map[string]any `json:"god_stats"`
		ModeStats map[string]map[string]any `json:"mode_stats"`
	}
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &out))

	ymir := out.GodStats["Ymir"]
	require.NotNil(t, ymir)
	assert.Equal(t, 0.0, ymir["damage"])
	assert.Equal(t, 0.0, ymir["avg_damage"])
	assert.Equal(t, 1.0, ymir["matches"])
	assert.NotContains(t, out.ModeStats["Arena"], "damage")
}
