package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/s2match/performance"
	"github.com/s0up4200/s2match/rallyhere"
)

var (
	profileName        string
	profilePlatform    string
	profileMax         int
	profileBestEffort  bool
	profileSummary     bool
	profileConcurrency int
)

// profileSummaryOutput is a profile with the aggregate of its match history
type profileSummaryOutput struct {
	*rallyhere.Profile
	Performance performance.Summary `json:"Performance"`
}

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Gather everything known about a player",
	Long: `Resolve a display name on a platform and gather stats, ranks and match
history for the player and every linked portal.

By default the first failing request fails the whole profile. With
--best-effort failing sections are left out and listed under Failures.`,
	Example: `  s2match profile --name Alice --platform Steam
  s2match profile --name Alice --platform Steam --max 20 --best-effort --summary`,
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().StringVarP(&profileName, "name", "n", "", "display name of the player")
	profileCmd.Flags().StringVarP(&profilePlatform, "platform", "p", "", "platform of the display name")
	profileCmd.Flags().IntVarP(&profileMax, "max", "m", 0, "maximum matches per player UUID (default from config)")
	profileCmd.Flags().BoolVar(&profileBestEffort, "best-effort", false, "keep going when a section fails")
	profileCmd.Flags().BoolVar(&profileSummary, "summary", false, "add a performance summary of the match history")
	profileCmd.Flags().IntVar(&profileConcurrency, "concurrency", rallyhere.DefaultProfileConcurrency, "parallel requests")

	_ = profileCmd.MarkFlagRequired("name")
	_ = profileCmd.MarkFlagRequired("platform")
}

func runProfile(cmd *cobra.Command, args []string) error {
	limit := cfg.Request.MaxMatches
	if cmd.Flags().Changed("max") {
		limit = profileMax
	}

	profile, err := client.FullProfile(cmd.Context(), profilePlatform, profileName, limit, rallyhere.ProfileOptions{
		BestEffort:  profileBestEffort,
		PageSize:    cfg.Request.PageSize,
		Concurrency: profileConcurrency,
	}, callOptions()...)
	if err != nil {
		return fmt.Errorf("failed to build profile: %w", err)
	}

	if len(profile.Failures) > 0 {
		logger.Warn().Int("failures", len(profile.Failures)).Msg("Profile is incomplete")
	}

	if !profileSummary {
		return printJSON(cmd.OutOrStdout(), profile)
	}
	return printJSON(cmd.OutOrStdout(), profileSummaryOutput{
		Profile:     profile,
		Performance: performance.Calculate(profile.MatchHistory),
	})
}
