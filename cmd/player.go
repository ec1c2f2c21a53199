package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	playerNames          []string
	playerPlatform       string
	playerNoLinked       bool
	playerFlat           bool
	playerPlatformUserID string
)

// playerCmd represents the player command
var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Look up players by display name or platform identity",
	Long: `Look up players by display name, optionally restricted to a platform.

Each identity found is listed with its linked platform portals unless
--no-linked is given. With --platform-user-id the player is resolved from a
platform identity instead.`,
	Example: `  s2match player --name Alice --platform Steam
  s2match player --name Alice --name Bob --flat
  s2match player --platform Steam --platform-user-id 76561198000000000`,
	RunE: runPlayer,
}

func init() {
	rootCmd.AddCommand(playerCmd)

	playerCmd.Flags().StringArrayVarP(&playerNames, "name", "n", nil, "display name to look up (repeatable)")
	playerCmd.Flags().StringVarP(&playerPlatform, "platform", "p", "", "restrict the lookup to a platform")
	playerCmd.Flags().BoolVar(&playerNoLinked, "no-linked", false, "skip fetching linked portals")
	playerCmd.Flags().BoolVar(&playerFlat, "flat", false, "print a flat list of identities tagged with their display name")
	playerCmd.Flags().StringVar(&playerPlatformUserID, "platform-user-id", "", "resolve a player by platform user id (requires --platform)")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if playerPlatformUserID != "" {
		if playerPlatform == "" {
			return fmt.Errorf("--platform is required with --platform-user-id")
		}
		user, err := client.PlayerByPlatformUser(ctx, playerPlatform, playerPlatformUserID, callOptions()...)
		if err != nil {
			return fmt.Errorf("failed to look up platform user: %w", err)
		}
		return printJSON(out, user)
	}

	if len(playerNames) == 0 {
		return fmt.Errorf("at least one --name is required")
	}

	if playerFlat {
		players, err := client.FlatPlayers(ctx, playerNames, playerPlatform, !playerNoLinked, callOptions()...)
		if err != nil {
			return fmt.Errorf("failed to look up players: %w", err)
		}
		return printJSON(out, players)
	}

	lookup, err := client.LookupPlayers(ctx, playerNames, playerPlatform, !playerNoLinked, callOptions()...)
	if err != nil {
		return fmt.Errorf("failed to look up players: %w", err)
	}
	return printJSON(out, lookup)
}
