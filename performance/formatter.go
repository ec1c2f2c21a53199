package performance

import (
	"fmt"
	"sort"
	"strings"
)

// Format renders a summary for console display
func Format(s Summary) string {
	if s.TotalMatches == 0 {
		return "No matches found"
	}

	var sb strings.Builder

	sb.WriteString("\nPerformance over ")
	fmt.Fprintf(&sb, "%d match", s.TotalMatches)
	if s.TotalMatches != 1 {
		sb.WriteString("es")
	}
	sb.WriteString(":\n\n")

	fmt.Fprintf(&sb, "\u251c\u2500\u2500 Record: %dW / %dL (%.1f%%)\n", s.Wins, s.Losses, s.WinRate*100)
	fmt.Fprintf(&sb, "\u251c\u2500\u2500 KDA: %.2f (%.1f / %.1f / %.1f)\n", s.AvgKDA, s.AvgKills, s.AvgDeaths, s.AvgAssists)
	fmt.Fprintf(&sb, "\u251c\u2500\u2500 Damage: %.0f per match\n", s.AvgDamagePerMatch)
	fmt.Fprintf(&sb, "\u251c\u2500\u2500 Healing: %.0f per match\n", s.AvgHealingPerMatch)
	fmt.Fprintf(&sb, "\u251c\u2500\u2500 Gold: %.0f per match\n", s.AvgGoldPerMatch)
	fmt.Fprintf(&sb, "\u2570\u2500\u2500 Wards: %.1f per match\n", s.AvgWardsPerMatch)

	if s.FavoriteGod != "" {
		fmt.Fprintf(&sb, "\nFavorite god: %s\n", s.FavoriteGod)
		fmt.Fprintf(&sb, "Best performing god: %s\n", s.BestPerformingGod)
	}
	if s.FavoriteRole != "" {
		fmt.Fprintf(&sb, "Favorite role: %s\n", s.FavoriteRole)
	}
	if s.FavoriteMode != "" {
		fmt.Fprintf(&sb, "Favorite mode: %s\n", s.FavoriteMode)
	}

	gods := make(map[string]*Breakdown, len(s.GodStats))
	for god, b := range s.GodStats {
		gods[god] = &b.Breakdown
	}
	formatBreakdowns(&sb, "Gods", gods)
	formatBreakdowns(&sb, "Modes", s.ModeStats)
	formatBreakdowns(&sb, "Roles", s.RoleStats)

	sb.WriteString("\n")
	return sb.String()
}

// formatBreakdowns lists breakdowns by matches played, most played first
func formatBreakdowns(sb *strings.Builder, title string, stats map[string]*Breakdown) {
	if len(stats) == 0 {
		return
	}

	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := stats[keys[i]], stats[keys[j]]
		if a.Matches != b.Matches {
			return a.Matches > b.Matches
		}
		return keys[i] < keys[j]
	})

	fmt.Fprintf(sb, "\n%s:\n", title)
	for i, k := range keys {
		prefix := "\u251c"
		if i == len(keys)-1 {
			prefix = "\u2570"
		}
		b := stats[k]
		fmt.Fprintf(sb, "%s\u2500\u2500 %-20s %3d played  %5.1f%% won  KDA %.2f\n",
			prefix, k, b.Matches, b.WinRate*100, b.AvgKDA)
	}
}
