package smite

import (
	"math"
	"strconv"
	"strings"
)

// CustomData is the free-form custom_data object attached to RallyHere
// players and matches. SMITE 2 stores most of its values as strings.
type CustomData map[string]any

// String returns the value under key rendered as a string. Numbers and
// booleans are formatted; objects and arrays are reported as missing.
func (c CustomData) String(key string) (string, bool) {
	v, ok := c[key]
	if !ok || v == nil {
		return "", false
	}
	return stringValue(v)
}

func stringValue(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// digitValue parses a non-negative integer stat. Digit-only strings and
// integral JSON numbers are accepted.
func digitValue(v any) (int64, bool) {
	switch val := v.(type) {
	case string:
		if val == "" {
			return 0, false
		}
		for i := 0; i < len(val); i++ {
			if val[i] < '0' || val[i] > '9' {
				return 0, false
			}
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if val < 0 || val != math.Trunc(val) || val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	default:
		return 0, false
	}
}

// RawPlayer is a player-in-match record as returned by the match endpoints.
type RawPlayer struct {
	PlayerUUID           Optional[string]  `json:"player_uuid"`
	TeamID               Optional[int]     `json:"team_id"`
	Placement            Optional[int]     `json:"placement"`
	JoinedMatchTimestamp Optional[string]  `json:"joined_match_timestamp"`
	LeftMatchTimestamp   Optional[string]  `json:"left_match_timestamp"`
	DurationSeconds      Optional[float64] `json:"duration_seconds"`
	CustomData           CustomData        `json:"custom_data"`
	Match                *RawMatch         `json:"match,omitempty"`
}

// RawMatch is a match as returned by the match endpoints. Segments and
// Players are only populated by the instance endpoint.
type RawMatch struct {
	MatchID         Optional[string]  `json:"match_id"`
	StartTimestamp  Optional[string]  `json:"start_timestamp"`
	EndTimestamp    Optional[string]  `json:"end_timestamp"`
	DurationSeconds Optional[float64] `json:"duration_seconds"`
	CustomData      CustomData        `json:"custom_data"`
	Segments        []RawSegment      `json:"segments,omitempty"`
	Players         []RawPlayer       `json:"players,omitempty"`
}

// RawSegment is one segment of an instance match.
type RawSegment struct {
	MatchSegment    Optional[string]  `json:"match_segment"`
	StartTimestamp  Optional[string]  `json:"start_timestamp"`
	EndTimestamp    Optional[string]  `json:"end_timestamp"`
	DurationSeconds Optional[float64] `json:"duration_seconds"`
	Players         []RawPlayer       `json:"players"`
}

// BasicStats holds the integer combat stats of a player in a match
type BasicStats struct {
	Kills                int64 `json:"Kills"`
	Deaths               int64 `json:"Deaths"`
	Assists              int64 `json:"Assists"`
	TowerKills           int64 `json:"TowerKills"`
	PhoenixKills         int64 `json:"PhoenixKills"`
	TitanKills           int64 `json:"TitanKills"`
	TotalDamage          int64 `json:"TotalDamage"`
	TotalNPCDamage       int64 `json:"TotalNPCDamage"`
	TotalDamageTaken     int64 `json:"TotalDamageTaken"`
	TotalDamageMitigated int64 `json:"TotalDamageMitigated"`
	TotalGoldEarned      int64 `json:"TotalGoldEarned"`
	TotalXPEarned        int64 `json:"TotalXPEarned"`
	TotalStructureDamage int64 `json:"TotalStructureDamage"`
	TotalMinionDamage    int64 `json:"TotalMinionDamage"`
	TotalAllyHealing     int64 `json:"TotalAllyHealing"`
	TotalSelfHealing     int64 `json:"TotalSelfHealing"`
	TotalWardsPlaced     int64 `json:"TotalWardsPlaced"`
	PlayerLevel          int64 `json:"PlayerLevel"`
}

// fields maps custom_data keys to their destination in s.
func (s *BasicStats) fields() map[string]*int64 {
	return map[string]*int64{
		"Kills":                &s.Kills,
		"Deaths":               &s.Deaths,
		"Assists":              &s.Assists,
		"TowerKills":           &s.TowerKills,
		"PhoenixKills":         &s.PhoenixKills,
		"TitanKills":           &s.TitanKills,
		"TotalDamage":          &s.TotalDamage,
		"TotalNPCDamage":       &s.TotalNPCDamage,
		"TotalDamageTaken":     &s.TotalDamageTaken,
		"TotalDamageMitigated": &s.TotalDamageMitigated,
		"TotalGoldEarned":      &s.TotalGoldEarned,
		"TotalXPEarned":        &s.TotalXPEarned,
		"TotalStructureDamage": &s.TotalStructureDamage,
		"TotalMinionDamage":    &s.TotalMinionDamage,
		"TotalAllyHealing":     &s.TotalAllyHealing,
		"TotalSelfHealing":     &s.TotalSelfHealing,
		"TotalWardsPlaced":     &s.TotalWardsPlaced,
		"PlayerLevel":          &s.PlayerLevel,
	}
}

// KDA returns (kills + assists) / max(deaths, 1)
func (s BasicStats) KDA() float64 {
	return KDA(s.Kills, s.Deaths, s.Assists)
}

// Healing returns ally plus self healing.
func (s BasicStats) Healing() int64 {
	return s.TotalAllyHealing + s.TotalSelfHealing
}

// KDA computes the kill/death/assist ratio with deaths floored at one.
func KDA(kills, deaths, assists int64) float64 {
	return float64(kills+assists) / float64(max(deaths, 1))
}

// Item is an entry of the item reference table, or the placeholder used
// for identifiers the table does not know.
type Item map[string]any

// PlayerRecord is a normalized player-in-match record.
type PlayerRecord struct {
	PlayerUUID           string                      `json:"player_uuid"`
	TeamID               Optional[int]               `json:"team_id"`
	Placement            Optional[int]               `json:"placement"`
	JoinedMatchTimestamp Optional[string]            `json:"joined_match_timestamp"`
	LeftMatchTimestamp   Optional[string]            `json:"left_match_timestamp"`
	DurationSeconds      Optional[float64]           `json:"duration_seconds"`
	GodName              string                      `json:"god_name"`
	BasicStats           BasicStats                  `json:"basic_stats"`
	AssignedRole         Optional[string]            `json:"assigned_role"`
	PlayedRole           Optional[string]            `json:"played_role"`
	ItemIDs              map[string]string           `json:"-"`
	Items                map[string]Item             `json:"items"`
	RolePreferences      map[string]any              `json:"role_preferences"`
	DamageBreakdown      map[string]map[string]int64 `json:"damage_breakdown"`
}

// PlayerMatch is one entry of a player's match history: the player's own
// record plus the fields of the match it belongs to.
type PlayerMatch struct {
	PlayerRecord
	MatchID     Optional[string] `json:"match_id"`
	MatchStart  Optional[string] `json:"match_start"`
	MatchEnd    Optional[string] `json:"match_end"`
	Map         Optional[string] `json:"map"`
	Mode        Optional[string] `json:"mode"`
	LobbyType   Optional[string] `json:"lobby_type"`
	WinningTeam Optional[string] `json:"winning_team"`
}

// Won reports whether the player's team won. known is false when either
// the team or the winning team is missing.
func (m PlayerMatch) Won() (won bool, known bool) {
	team, ok := m.TeamID.Get()
	if !ok {
		return false, false
	}
	winner, ok := m.WinningTeam.Get()
	if !ok {
		return false, false
	}
	return strconv.Itoa(team) == strings.TrimSpace(winner), true
}

// InstanceMatch is a full match fetched by instance, with every segment.
type InstanceMatch struct {
	MatchID         string            `json:"match_id"`
	StartTimestamp  Optional[string]  `json:"start_timestamp"`
	EndTimestamp    Optional[string]  `json:"end_timestamp"`
	DurationSeconds Optional[float64] `json:"duration_seconds"`
	Map             string            `json:"map"`
	Mode            string            `json:"mode"`
	LobbyType       string            `json:"lobby_type"`
	WinningTeam     Optional[string]  `json:"winning_team"`
	Segments        []Segment         `json:"segments"`
	FinalPlayers    []PlayerRecord    `json:"final_players"`
}

// Segment is a normalized match segment
type Segment struct {
	SegmentLabel    Optional[string]  `json:"segment_label"`
	StartTimestamp  Optional[string]  `json:"start_timestamp"`
	EndTimestamp    Optional[string]  `json:"end_timestamp"`
	DurationSeconds Optional[float64] `json:"duration_seconds"`
	Players         []PlayerRecord    `json:"players"`
}
