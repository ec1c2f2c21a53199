package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/s2match/performance"
)

var (
	performanceMax     int
	performanceJSON    bool
	performanceFilters matchFilterFlags
)

// performanceCmd represents the performance command
var performanceCmd = &cobra.Command{
	Use:   "performance <player-uuid>",
	Short: "Summarize a player's recent performance",
	Long: `Aggregate a player's match history into totals, averages, win rate and
per god, mode and role breakdowns. The filter flags of the matches command
narrow the history first.`,
	Example: `  s2match performance 1a2b3c --max 50
  s2match performance 1a2b3c --mode Conquest --since 2024-05-01 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runPerformance,
}

func init() {
	rootCmd.AddCommand(performanceCmd)

	performanceCmd.Flags().IntVarP(&performanceMax, "max", "m", 0, "maximum number of matches, 0 for no limit (default from config)")
	performanceCmd.Flags().BoolVar(&performanceJSON, "json", false, "print the summary as JSON")
	performanceFilters.register(performanceCmd)
}

func runPerformance(cmd *cobra.Command, args []string) error {
	limit := cfg.Request.MaxMatches
	if cmd.Flags().Changed("max") {
		limit = performanceMax
	}

	matches, err := client.MatchesByPlayer(cmd.Context(), args[0], 0, limit, callOptions()...)
	if err != nil {
		return fmt.Errorf("failed to fetch match history: %w", err)
	}

	matches, err = performanceFilters.apply(cmd, matches)
	if err != nil {
		return err
	}

	summary := performance.Calculate(matches)
	if performanceJSON {
		return printJSON(cmd.OutOrStdout(), summary)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), performance.Format(summary))
	return err
}
