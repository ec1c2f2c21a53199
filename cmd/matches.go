package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	matchesPlayerUUID string
	matchesInstance   string
	matchesPageSize   int
	matchesMax        int
	matchesRaw        bool
	matchesFilters    matchFilterFlags
)

// matchesCmd represents the matches command
var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Retrieve a player's match history or the matches of an instance",
	Long: `Retrieve a player's match history, normalized and enriched with item
metadata, or every match of a match instance.

Player history can be narrowed with the filter flags and with an expression:

  GodName == "Anubis" && KDA >= 3
  lower(Mode) contains "ranked" && Won
  daysSince(MatchStart) <= 7 && hasItem("Item1")`,
	Example: `  s2match matches --player-uuid 1a2b3c --max 50 --won --min-kda 2.5
  s2match matches --player-uuid 1a2b3c --preset carries
  s2match matches --instance 9f8e7d`,
	RunE: runMatches,
}

func init() {
	rootCmd.AddCommand(matchesCmd)

	matchesCmd.Flags().StringVarP(&matchesPlayerUUID, "player-uuid", "u", "", "player UUID whose history to fetch")
	matchesCmd.Flags().StringVarP(&matchesInstance, "instance", "i", "", "match instance id to fetch")
	matchesCmd.Flags().IntVar(&matchesPageSize, "page-size", 0, "page size of list requests (default from config)")
	matchesCmd.Flags().IntVarP(&matchesMax, "max", "m", 0, "maximum number of matches, 0 for no limit (default from config)")
	matchesCmd.Flags().BoolVar(&matchesRaw, "raw", false, "print the API response without normalization")
	matchesFilters.register(matchesCmd)

	matchesCmd.MarkFlagsOneRequired("player-uuid", "instance")
	matchesCmd.MarkFlagsMutuallyExclusive("player-uuid", "instance")
}

func runMatches(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if matchesInstance != "" {
		if matchesFilters.active(cmd) {
			return fmt.Errorf("filters apply to player match history only")
		}
		if matchesRaw {
			raw, err := client.RawMatchesByInstance(ctx, matchesInstance, matchesPageSize, callOptions()...)
			if err != nil {
				return fmt.Errorf("failed to fetch instance matches: %w", err)
			}
			return printJSON(out, raw)
		}
		matches, err := client.MatchesByInstance(ctx, matchesInstance, matchesPageSize, callOptions()...)
		if err != nil {
			return fmt.Errorf("failed to fetch instance matches: %w", err)
		}
		return printJSON(out, matches)
	}

	limit := cfg.Request.MaxMatches
	if cmd.Flags().Changed("max") {
		limit = matchesMax
	}

	if matchesRaw {
		if matchesFilters.active(cmd) {
			return fmt.Errorf("filters cannot be combined with --raw")
		}
		raw, err := client.RawMatchesByPlayer(ctx, matchesPlayerUUID, matchesPageSize, limit, callOptions()...)
		if err != nil {
			return fmt.Errorf("failed to fetch match history: %w", err)
		}
		return printJSON(out, raw)
	}

	matches, err := client.MatchesByPlayer(ctx, matchesPlayerUUID, matchesPageSize, limit, callOptions()...)
	if err != nil {
		return fmt.Errorf("failed to fetch match history: %w", err)
	}

	total := len(matches)
	matches, err = matchesFilters.apply(cmd, matches)
	if err != nil {
		return err
	}

	logger.Info().
		Str("player_uuid", matchesPlayerUUID).
		Int("fetched", total).
		Int("matched", len(matches)).
		Msg("Retrieved match history")

	return printJSON(out, matches)
}
