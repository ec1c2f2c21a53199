package rallyhere

import (
	"context"
	"fmt"
	"net/url"
)

// PlayerRanks returns a player's ranks. Each rank is completed with the
// name and description of its first configuration (or "<no_config>") and
// with the custom data of the player's rank detail.
func (c *Client) PlayerRanks(ctx context.Context, playerUUID string, opts ...CallOption) ([]PlayerRank, error) {
	co := applyCallOptions(opts)
	base := "/rank/v2/player/" + url.PathEscape(playerUUID) + "/rank"

	var list playerRanksResponse
	if err := c.getJSON(ctx, base, nil, co, &list); err != nil {
		return nil, err
	}

	ranks := list.PlayerRanks
	if ranks == nil {
		ranks = []PlayerRank{}
	}

	for i := range ranks {
		r := &ranks[i]
		if r.RankID == "" {
			continue
		}

		var cfg rankConfigResponse
		if err := c.getJSON(ctx, "/rank/v3/rank/"+url.PathEscape(r.RankID), nil, co, &cfg); err != nil {
			return nil, fmt.Errorf("failed to fetch config of rank %s: %w", r.RankID, err)
		}
		if len(cfg.RankConfigs) > 0 {
			r.RankName = cfg.RankConfigs[0].Name
			r.RankDescription = cfg.RankConfigs[0].Description
		} else {
			r.RankName = noRankConfig
			r.RankDescription = noRankConfig
		}

		var detail playerRanksResponse
		if err := c.getJSON(ctx, base+"/"+url.PathEscape(r.RankID), nil, co, &detail); err != nil {
			return nil, fmt.Errorf("failed to fetch detail of rank %s: %w", r.RankID, err)
		}
		if len(detail.PlayerRanks) == 0 {
			continue
		}
		if customData, ok := detail.PlayerRanks[0].Rank["custom_data"]; ok {
			if r.Rank == nil {
				r.Rank = make(map[string]any)
			}
			r.Rank["custom_data"] = customData
		}
	}

	return ranks, nil
}
