package rallyhere

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/s2match/smite"
)

// DefaultProfileConcurrency bounds the sub-fetches a full profile runs at once
const DefaultProfileConcurrency = 4

// Profile sections
const (
	SectionStats   = "stats"
	SectionMatches = "matches"
	SectionRanks   = "ranks"
)

// ProfileOptions configures FullProfile.
type ProfileOptions struct {
	// BestEffort leaves failed sections out and records them in
	// Profile.Failures instead of failing the whole profile.
	BestEffort bool
	// PageSize of the match history requests; zero uses the client default
	PageSize int
	// Concurrency bounds parallel sub-fetches; zero uses DefaultProfileConcurrency
	Concurrency int
}

// UUIDStats is the stats document of one of the profile's player UUIDs.
type UUIDStats struct {
	PlayerUUID string      `json:"player_uuid"`
	Stats      PlayerStats `json:"stats"`
}

// SectionFailure records a section left out of a best-effort profile.
type SectionFailure struct {
	PlayerUUID string `json:"player_uuid"`
	Section    string `json:"section"`
	Error      string `json:"error"`
}

// Profile is everything known about a player: the lookup result with
// linked portals, plus stats, ranks and match history of every UUID found.
type Profile struct {
	PlayerInfo   *smite.PlayerLookup `json:"PlayerInfo"`
	PlayerStats  []UUIDStats         `json:"PlayerStats"`
	PlayerRanks  []PlayerRank        `json:"PlayerRanks"`
	MatchHistory []smite.PlayerMatch `json:"MatchHistory"`
	Failures     []SectionFailure    `json:"Failures,omitempty"`
}

// uuidResult collects the sections of one UUID
type uuidResult struct {
	stats    PlayerStats
	matches  []smite.PlayerMatch
	ranks    []PlayerRank
	hasStats bool
}

// FullProfile resolves a display name on a platform and gathers stats,
// ranks and up to maxMatches matches for the player and each linked portal.
// Sections are fetched concurrently and assembled in the order the UUIDs
// first appear in the lookup. By default the first failing section fails
// the whole profile and cancels the remaining fetches.
func (c *Client) FullProfile(ctx context.Context, platform, displayName string, maxMatches int, po ProfileOptions, opts ...CallOption) (*Profile, error) {
	lookup, err := c.LookupPlayers(ctx, []string{displayName}, platform, true, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", displayName, err)
	}

	uuids := smite.ProfileUUIDs(lookup)
	results := make([]uuidResult, len(uuids))

	concurrency := po.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultProfileConcurrency
	}

	var (
		mu       sync.Mutex
		failures []SectionFailure
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	section := func(uuid, name string, fn func(ctx context.Context) error) {
		g.Go(func() error {
			err := fn(gctx)
			if err == nil {
				return nil
			}
			if !po.BestEffort || isCanceled(err) {
				return fmt.Errorf("failed to fetch %s for %s: %w", name, uuid, err)
			}

			c.logger.Warn().Err(err).Str("player_uuid", uuid).Str("section", name).Msg("Profile section failed")
			mu.Lock()
			failures = append(failures, SectionFailure{PlayerUUID: uuid, Section: name, Error: err.Error()})
			mu.Unlock()
			return nil
		})
	}

	for i, uuid := range uuids {
		r := &results[i]
		section(uuid, SectionStats, func(ctx context.Context) error {
			stats, err := c.PlayerStats(ctx, uuid, opts...)
			if err != nil {
				return err
			}
			r.stats, r.hasStats = stats, true
			return nil
		})
		section(uuid, SectionMatches, func(ctx context.Context) error {
			matches, err := c.MatchesByPlayer(ctx, uuid, po.PageSize, maxMatches, opts...)
			if err != nil {
				return err
			}
			r.matches = matches
			return nil
		})
		section(uuid, SectionRanks, func(ctx context.Context) error {
			ranks, err := c.PlayerRanks(ctx, uuid, opts...)
			if err != nil {
				return err
			}
			r.ranks = ranks
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile := &Profile{
		PlayerInfo:   lookup,
		PlayerStats:  make([]UUIDStats, 0, len(uuids)),
		PlayerRanks:  []PlayerRank{},
		MatchHistory: []smite.PlayerMatch{},
	}
	for i, uuid := range uuids {
		r := results[i]
		if r.hasStats {
			profile.PlayerStats = append(profile.PlayerStats, UUIDStats{PlayerUUID: uuid, Stats: r.stats})
		}
		profile.MatchHistory = append(profile.MatchHistory, r.matches...)
		profile.PlayerRanks = append(profile.PlayerRanks, r.ranks...)
	}

	// report failures in UUID then section order regardless of completion order
	if len(failures) > 0 {
		profile.Failures = orderFailures(failures, uuids)
	}

	c.logger.Debug().
		Str("display_name", displayName).
		Int("uuids", len(uuids)).
		Int("matches", len(profile.MatchHistory)).
		Int("failures", len(profile.Failures)).
		Msg("Assembled full profile")

	return profile, nil
}

func orderFailures(failures []SectionFailure, uuids []string) []SectionFailure {
	sectionRank := map[string]int{SectionStats: 0, SectionMatches: 1, SectionRanks: 2}
	uuidRank := make(map[string]int, len(uuids))
	for i, u := range uuids {
		uuidRank[u] = i
	}

	slices.SortFunc(failures, func(a, b SectionFailure) int {
		if c := cmp.Compare(uuidRank[a.PlayerUUID], uuidRank[b.PlayerUUID]); c != 0 {
			return c
		}
		return cmp.Compare(sectionRank[a.Section], sectionRank[b.Section])
	})
	return failures
}
