package rallyhere

import (
	"maps"

	"github.com/s0up4200/s2match/smite"
)

// PlatformUser is the identity returned by the platform user lookup.
type PlatformUser struct {
	PlayerUUID     smite.Optional[string] `json:"player_uuid"`
	PlayerID       smite.Optional[int64]  `json:"player_id"`
	Platform       smite.Optional[string] `json:"platform"`
	PlatformUserID smite.Optional[string] `json:"platform_user_id"`
	DisplayName    smite.Optional[string] `json:"display_name"`
}

// PlayerStats is the stats document of one player as the API returns it.
type PlayerStats map[string]any

// PlayerRank is one rank of a player, enriched with its configuration
// name and description and the custom data of the rank detail. Fields of
// the API object without a typed field are kept in Extra and written back
// out unchanged.
type PlayerRank struct {
	PlayerUUID      string         `json:"player_uuid,omitempty"`
	RankID          string         `json:"rank_id"`
	Rank            map[string]any `json:"rank,omitempty"`
	RankName        string         `json:"rank_name"`
	RankDescription string         `json:"rank_description"`

	Extra map[string]any `json:"-"`
}

var playerRankFields = []string{"player_uuid", "rank_id", "rank", "rank_name", "rank_description"}

// UnmarshalJSON implements json.Unmarshaler
func (r *PlayerRank) UnmarshalJSON(data []byte) error {
	type plain PlayerRank
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var extra map[string]any
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	for _, field := range playerRankFields {
		delete(extra, field)
	}
	if len(extra) > 0 {
		p.Extra = extra
	}

	*r = PlayerRank(p)
	return nil
}

// MarshalJSON implements json.Marshaler
func (r PlayerRank) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+len(playerRankFields))
	maps.Copy(out, r.Extra)
	if r.PlayerUUID != "" {
		out["player_uuid"] = r.PlayerUUID
	}
	out["rank_id"] = r.RankID
	if r.Rank != nil {
		out["rank"] = r.Rank
	}
	out["rank_name"] = r.RankName
	out["rank_description"] = r.RankDescription
	return json.Marshal(out)
}

const noRankConfig = "<no_config>"

type linkedPortalsResponse struct {
	LinkedPortals []smite.LinkedPortal `json:"linked_portals"`
}

type playerMatchesResponse struct {
	PlayerMatches []smite.RawPlayer `json:"player_matches"`
	Cursor        string            `json:"cursor"`
}

type instanceMatchesResponse struct {
	Matches []smite.RawMatch `json:"matches"`
	Cursor  string           `json:"cursor"`
}

type playerRanksResponse struct {
	PlayerRanks []PlayerRank `json:"player_ranks"`
}

type rankConfigResponse struct {
	RankConfigs []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"rank_configs"`
}
