// Package performance aggregates a player's normalized match history into
// totals, averages and per god, mode and role breakdowns.
package performance

import (
	"github.com/s0up4200/s2match/smite"
)

// BestGodMinMatches is the sample size a god needs before it can be the
// best performing one.
const BestGodMinMatches = 3

// Breakdown is the aggregate of the matches sharing one god, mode or role.
type Breakdown struct {
	Matches    int     `json:"matches"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
	Kills      int64   `json:"kills"`
	Deaths     int64   `json:"deaths"`
	Assists    int64   `json:"assists"`
	AvgKills   float64 `json:"avg_kills"`
	AvgDeaths  float64 `json:"avg_deaths"`
	AvgAssists float64 `json:"avg_assists"`
	AvgKDA     float64 `json:"avg_kda"`
}

// GodBreakdown is a Breakdown that also carries the damage dealt on the god.
type GodBreakdown struct {
	Breakdown
	Damage    int64   `json:"damage"`
	AvgDamage float64 `json:"avg_damage"`
}

// Summary is the aggregate performance over a list of matches.
type Summary struct {
	TotalMatches int     `json:"total_matches"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`

	AvgKills   float64 `json:"avg_kills"`
	AvgDeaths  float64 `json:"avg_deaths"`
	AvgAssists float64 `json:"avg_assists"`
	AvgKDA     float64 `json:"avg_kda"`

	TotalKills           int64 `json:"total_kills"`
	TotalDeaths          int64 `json:"total_deaths"`
	TotalAssists         int64 `json:"total_assists"`
	TotalDamage          int64 `json:"total_damage"`
	TotalHealing         int64 `json:"total_healing"`
	TotalMitigated       int64 `json:"total_mitigated"`
	TotalStructureDamage int64 `json:"total_structure_damage"`
	TotalMinionDamage    int64 `json:"total_minion_damage"`
	TotalGoldEarned      int64 `json:"total_gold_earned"`
	TotalWardsPlaced     int64 `json:"total_wards_placed"`

	AvgDamagePerMatch  float64 `json:"avg_damage_per_match"`
	AvgHealingPerMatch float64 `json:"avg_healing_per_match"`
	AvgGoldPerMatch    float64 `json:"avg_gold_per_match"`
	AvgWardsPerMatch   float64 `json:"avg_wards_per_match"`

	FavoriteGod       string `json:"favorite_god,omitempty"`
	FavoriteRole      string `json:"favorite_role,omitempty"`
	FavoriteMode      string `json:"favorite_mode,omitempty"`
	BestPerformingGod string `json:"best_performing_god,omitempty"`

	GodStats  map[string]*GodBreakdown `json:"god_stats"`
	ModeStats map[string]*Breakdown    `json:"mode_stats"`
	RoleStats map[string]*Breakdown    `json:"role_stats"`
}

// group accumulates breakdowns and remembers the order keys were first seen
type group struct {
	order []string
	stats map[string]*Breakdown
}

func newGroup() *group {
	return &group{stats: make(map[string]*Breakdown)}
}

func (g *group) add(key string, s smite.BasicStats, won bool) *Breakdown {
	b, ok := g.stats[key]
	if !ok {
		b = &Breakdown{}
		g.stats[key] = b
		g.order = append(g.order, key)
	}
	b.Matches++
	if won {
		b.Wins++
	}
	b.Kills += s.Kills
	b.Deaths += s.Deaths
	b.Assists += s.Assists
	return b
}

func (g *group) finish() {
	for _, b := range g.stats {
		n := float64(b.Matches)
		b.WinRate = float64(b.Wins) / n
		b.AvgKills = float64(b.Kills) / n
		b.AvgDeaths = float64(b.Deaths) / n
		b.AvgAssists = float64(b.Assists) / n
		b.AvgKDA = smite.KDA(b.Kills, b.Deaths, b.Assists)
	}
}

// favorite returns the key with the most matches; ties go to the key seen first.
func (g *group) favorite() string {
	var best string
	most := 0
	for _, key := range g.order {
		if m := g.stats[key].Matches; m > most {
			best, most = key, m
		}
	}
	return best
}

// bestKDA returns the key with the highest avg_kda among keys with at least
// minMatches matches.
func (g *group) bestKDA(minMatches int) (string, bool) {
	var (
		best  string
		found bool
		kda   float64
	)
	for _, key := range g.order {
		b := g.stats[key]
		if b.Matches < minMatches {
			continue
		}
		if !found || b.AvgKDA > kda {
			best, kda, found = key, b.AvgKDA, true
		}
	}
	return best, found
}

// Calculate aggregates matches. An empty list yields a zero Summary with
// empty breakdown maps.
func Calculate(matches []smite.PlayerMatch) Summary {
	gods, modes, roles := newGroup(), newGroup(), newGroup()
	godDamage := make(map[string]int64)
	sum := Summary{
		GodStats:  make(map[string]*GodBreakdown),
		ModeStats: modes.stats,
		RoleStats: roles.stats,
	}
	if len(matches) == 0 {
		return sum
	}

	for _, m := range matches {
		s := m.BasicStats
		won, _ := m.Won()
		if won {
			sum.Wins++
		}

		sum.TotalKills += s.Kills
		sum.TotalDeaths += s.Deaths
		sum.TotalAssists += s.Assists
		sum.TotalDamage += s.TotalDamage
		sum.TotalHealing += s.Healing()
		sum.TotalMitigated += s.TotalDamageMitigated
		sum.TotalStructureDamage += s.TotalStructureDamage
		sum.TotalMinionDamage += s.TotalMinionDamage
		sum.TotalGoldEarned += s.TotalGoldEarned
		sum.TotalWardsPlaced += s.TotalWardsPlaced

		if m.GodName != "" {
			gods.add(m.GodName, s, won)
			godDamage[m.GodName] += s.TotalDamage
		}
		if mode, ok := m.Mode.Get(); ok && mode != "" {
			modes.add(mode, s, won)
		}
		if role, ok := m.PlayedRole.Get(); ok && role != "" {
			roles.add(role, s, won)
		}
	}

	n := float64(len(matches))
	sum.TotalMatches = len(matches)
	sum.Losses = sum.TotalMatches - sum.Wins
	sum.WinRate = float64(sum.Wins) / n
	sum.AvgKills = float64(sum.TotalKills) / n
	sum.AvgDeaths = float64(sum.TotalDeaths) / n
	sum.AvgAssists = float64(sum.TotalAssists) / n
	sum.AvgKDA = smite.KDA(sum.TotalKills, sum.TotalDeaths, sum.TotalAssists)
	sum.AvgDamagePerMatch = float64(sum.TotalDamage) / n
	sum.AvgHealingPerMatch = float64(sum.TotalHealing) / n
	sum.AvgGoldPerMatch = float64(sum.TotalGoldEarned) / n
	sum.AvgWardsPerMatch = float64(sum.TotalWardsPlaced) / n

	gods.finish()
	modes.finish()
	roles.finish()

	for god, b := range gods.stats {
		sum.GodStats[god] = &GodBreakdown{
			Breakdown: *b,
			Damage:    godDamage[god],
			AvgDamage: float64(godDamage[god]) / float64(b.Matches),
		}
	}

	sum.FavoriteGod = gods.favorite()
	sum.FavoriteRole = roles.favorite()
	sum.FavoriteMode = modes.favorite()
	sum.BestPerformingGod = sum.FavoriteGod
	if best, ok := gods.bestKDA(BestGodMinMatches); ok {
		sum.BestPerformingGod = best
	}

	return sum
}
