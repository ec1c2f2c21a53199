package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <player-uuid>",
	Short: "Show the stats document of a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := client.PlayerStats(cmd.Context(), args[0], callOptions()...)
		if err != nil {
			return fmt.Errorf("failed to fetch player stats: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), stats)
	},
}

// ranksCmd represents the ranks command
var ranksCmd = &cobra.Command{
	Use:   "ranks <player-uuid>",
	Short: "Show a player's ranks with their configuration names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ranks, err := client.PlayerRanks(cmd.Context(), args[0], callOptions()...)
		if err != nil {
			return fmt.Errorf("failed to fetch player ranks: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), ranks)
	},
}

// portalsCmd represents the portals command
var portalsCmd = &cobra.Command{
	Use:   "portals <player-id>",
	Short: "List the platform identities linked to a player id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid player id %q: %w", args[0], err)
		}
		portals, err := client.LinkedPortals(cmd.Context(), id, callOptions()...)
		if err != nil {
			return fmt.Errorf("failed to fetch linked portals: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), portals)
	},
}

// cacheCmd groups cache maintenance commands
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached response",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.ClearCache(cmd.Context()); err != nil {
			return err
		}
		logger.Info().Str("backend", cfg.Cache.Backend).Msg("Cache cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(ranksCmd)
	rootCmd.AddCommand(portalsCmd)

	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
