package rallyhere

import (
	"context"
	"net/url"
	"strconv"

	"github.com/s0up4200/s2match/smite"
)

func pageParams(cursor string, pageSize int) url.Values {
	params := url.Values{"page_size": {strconv.Itoa(pageSize)}}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return params
}

// RawMatchesByPlayer returns up to maxMatches entries of a player's match
// history as the API returns them. A zero pageSize uses the client default
// and maxMatches <= 0 fetches everything.
func (c *Client) RawMatchesByPlayer(ctx context.Context, playerUUID string, pageSize, maxMatches int, opts ...CallOption) ([]smite.RawPlayer, error) {
	co := applyCallOptions(opts)
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	endpoint := "/match/v1/player/" + url.PathEscape(playerUUID) + "/match"

	fetch := func(ctx context.Context, cursor string, size int) (Page[smite.RawPlayer], error) {
		var resp playerMatchesResponse
		if err := c.getJSON(ctx, endpoint, pageParams(cursor, size), co, &resp); err != nil {
			return Page[smite.RawPlayer]{}, err
		}
		c.logger.Debug().
			Str("player_uuid", playerUUID).
			Int("count", len(resp.PlayerMatches)).
			Bool("has_cursor", resp.Cursor != "").
			Msg("Retrieved match page")
		return Page[smite.RawPlayer]{Items: resp.PlayerMatches, Cursor: resp.Cursor}, nil
	}

	return FetchAll(ctx, endpoint, fetch, pageSize, maxMatches)
}

// MatchesByPlayer returns a player's match history normalized and enriched
// with the client's item table.
func (c *Client) MatchesByPlayer(ctx context.Context, playerUUID string, pageSize, maxMatches int, opts ...CallOption) ([]smite.PlayerMatch, error) {
	raw, err := c.RawMatchesByPlayer(ctx, playerUUID, pageSize, maxMatches, opts...)
	if err != nil {
		return nil, err
	}
	return smite.TransformMatches(raw, c.items)
}

// RawMatchesByInstance returns every match of an instance as the API
// returns them.
func (c *Client) RawMatchesByInstance(ctx context.Context, instanceID string, pageSize int, opts ...CallOption) ([]smite.RawMatch, error) {
	co := applyCallOptions(opts)
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	const endpoint = "/match/v1/match"

	fetch := func(ctx context.Context, cursor string, size int) (Page[smite.RawMatch], error) {
		params := pageParams(cursor, size)
		params.Set("instance_id", instanceID)

		var resp instanceMatchesResponse
		if err := c.getJSON(ctx, endpoint, params, co, &resp); err != nil {
			return Page[smite.RawMatch]{}, err
		}
		c.logger.Debug().
			Str("instance_id", instanceID).
			Int("count", len(resp.Matches)).
			Bool("has_cursor", resp.Cursor != "").
			Msg("Retrieved instance match page")
		return Page[smite.RawMatch]{Items: resp.Matches, Cursor: resp.Cursor}, nil
	}

	return FetchAll(ctx, endpoint, fetch, pageSize, 0)
}

// MatchesByInstance returns the matches of an instance normalized and
// enriched with the client's item table.
func (c *Client) MatchesByInstance(ctx context.Context, instanceID string, pageSize int, opts ...CallOption) ([]smite.InstanceMatch, error) {
	raw, err := c.RawMatchesByInstance(ctx, instanceID, pageSize, opts...)
	if err != nil {
		return nil, err
	}
	return smite.TransformInstances(raw, c.items)
}

// PlayerStats returns the stats document of a player.
func (c *Client) PlayerStats(ctx context.Context, playerUUID string, opts ...CallOption) (PlayerStats, error) {
	endpoint := "/match/v1/player/" + url.PathEscape(playerUUID) + "/stats"

	var stats PlayerStats
	if err := c.getJSON(ctx, endpoint, nil, applyCallOptions(opts), &stats); err != nil {
		return nil, err
	}
	if stats == nil {
		stats = PlayerStats{}
	}
	return stats, nil
}
