package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/s2match/filter"
	"github.com/s0up4200/s2match/smite"
)

var (
	// compiler is shared by every command so repeated expressions compile once
	compiler = filter.NewExprCompiler(filter.WithCache(32))
	// presets holds the filter presets of the configuration
	presets *filter.Manager
)

// presetsCmd represents the presets command
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the filter presets of the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := make(map[string]string)
		for _, name := range presets.ListFilters() {
			if f, ok := presets.GetFilter(name); ok {
				out[name] = f.Expression()
			}
		}
		return printJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

// matchFilterFlags holds the filter flags shared by commands that read a
// player's match history
type matchFilterFlags struct {
	god    string
	mode   string
	mapped string
	since  string
	until  string
	won    bool
	lost   bool

	minKills   int64
	minDeaths  int64
	maxDeaths  int64
	minAssists int64
	minKDA     float64
	minDamage  int64
	minHealing int64

	expr   string
	preset string
	strict bool
}

func (f *matchFilterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.god, "god", "", "only matches played as this god")
	fl.StringVar(&f.mode, "mode", "", "only matches of this mode")
	fl.StringVar(&f.mapped, "map", "", "only matches on this map")
	fl.StringVar(&f.since, "since", "", "only matches started on or after this date (YYYY-MM-DD or RFC 3339)")
	fl.StringVar(&f.until, "until", "", "only matches started on or before this date (YYYY-MM-DD or RFC 3339)")
	fl.BoolVar(&f.won, "won", false, "only wins")
	fl.BoolVar(&f.lost, "lost", false, "only losses")
	fl.Int64Var(&f.minKills, "min-kills", 0, "minimum kills")
	fl.Int64Var(&f.minDeaths, "min-deaths", 0, "minimum deaths")
	fl.Int64Var(&f.maxDeaths, "max-deaths", 0, "maximum deaths")
	fl.Int64Var(&f.minAssists, "min-assists", 0, "minimum assists")
	fl.Float64Var(&f.minKDA, "min-kda", 0, "minimum KDA, (kills + assists) / max(deaths, 1)")
	fl.Int64Var(&f.minDamage, "min-damage", 0, "minimum total damage")
	fl.Int64Var(&f.minHealing, "min-healing", 0, "minimum ally plus self healing")
	fl.StringVarP(&f.expr, "expr", "e", "", "filter expression")
	fl.StringVar(&f.preset, "preset", "", "use a preset filter expression from config")
	fl.BoolVar(&f.strict, "strict", false, "fail when the expression cannot be evaluated for a match")

	cmd.MarkFlagsMutuallyExclusive("won", "lost")
	cmd.MarkFlagsMutuallyExclusive("expr", "preset")
}

// criteria builds the criteria of the flags set on the command line
func (f *matchFilterFlags) criteria(cmd *cobra.Command) (filter.Criteria, error) {
	var c filter.Criteria
	changed := cmd.Flags().Changed

	if changed("god") {
		c.GodName = &f.god
	}
	if changed("mode") {
		c.Mode = &f.mode
	}
	if changed("map") {
		c.Map = &f.mapped
	}
	if changed("since") {
		t, err := filter.ParseDate(f.since, false)
		if err != nil {
			return c, fmt.Errorf("invalid --since: %w", err)
		}
		c.MinDate = &t
	}
	if changed("until") {
		t, err := filter.ParseDate(f.until, true)
		if err != nil {
			return c, fmt.Errorf("invalid --until: %w", err)
		}
		c.MaxDate = &t
	}
	if changed("won") || changed("lost") {
		winOnly := f.won
		c.WinOnly = &winOnly
	}
	if changed("min-kills") {
		c.MinKills = &f.minKills
	}
	if changed("min-deaths") {
		c.MinDeaths = &f.minDeaths
	}
	if changed("max-deaths") {
		c.MaxDeaths = &f.maxDeaths
	}
	if changed("min-assists") {
		c.MinAssists = &f.minAssists
	}
	if changed("min-kda") {
		c.MinKDA = &f.minKDA
	}
	if changed("min-damage") {
		c.MinDamage = &f.minDamage
	}
	if changed("min-healing") {
		c.MinHealing = &f.minHealing
	}
	return c, nil
}

// compiled returns the expression filter to apply, or nil when none is set
func (f *matchFilterFlags) compiled() (filter.CompiledFilter, error) {
	// Priority: command line expression > preset
	if f.expr != "" {
		compiled, err := compiler.Compile(f.expr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		return compiled, nil
	}
	if f.preset == "" {
		return nil, nil
	}
	if presets != nil {
		if compiled, ok := presets.GetFilter(f.preset); ok {
			return compiled, nil
		}
	}
	return nil, fmt.Errorf("preset '%s' in config: %w", f.preset, filter.ErrFilterNotFound)
}

// active reports whether any filter flag is set
func (f *matchFilterFlags) active(cmd *cobra.Command) bool {
	for _, name := range []string{
		"god", "mode", "map", "since", "until", "won", "lost",
		"min-kills", "min-deaths", "max-deaths", "min-assists", "min-kda", "min-damage", "min-healing",
		"expr", "preset",
	} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// apply filters matches by the criteria flags and then by the expression
func (f *matchFilterFlags) apply(cmd *cobra.Command, matches []smite.PlayerMatch) ([]smite.PlayerMatch, error) {
	c, err := f.criteria(cmd)
	if err != nil {
		return nil, err
	}
	if !c.IsEmpty() {
		matches = c.Apply(matches)
	}

	compiled, err := f.compiled()
	if err != nil {
		return nil, err
	}
	if compiled == nil {
		return matches, nil
	}
	logger.Debug().Str("filter", compiled.Expression()).Msg("Applying filter expression")

	if f.strict {
		return filter.ApplyStrict(matches, compiled)
	}
	return filter.Apply(matches, compiled), nil
}
