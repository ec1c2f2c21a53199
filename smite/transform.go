package smite

import (
	"errors"
	"fmt"
	"strings"
)

const (
	unknownGod   = "UnknownGod"
	unknownValue = "Unknown"
	godPrefix    = "Gods."
	itemPrefix   = "Items."
)

// TransformPlayer converts a raw player-in-match record into a
// PlayerRecord. Item slots are left unresolved in ItemIDs; see
// ItemTable.EnrichPlayer.
func TransformPlayer(raw RawPlayer) (PlayerRecord, error) {
	uuid, ok := raw.PlayerUUID.Get()
	if !ok || uuid == "" {
		return PlayerRecord{}, &RecordError{Kind: "player", Index: -1, Field: "player_uuid", Err: ErrMissingField}
	}

	cd := raw.CustomData
	rec := PlayerRecord{
		PlayerUUID:           uuid,
		TeamID:               raw.TeamID,
		Placement:            raw.Placement,
		JoinedMatchTimestamp: raw.JoinedMatchTimestamp,
		LeftMatchTimestamp:   raw.LeftMatchTimestamp,
		DurationSeconds:      raw.DurationSeconds,
		GodName:              godName(cd),
		AssignedRole:         optionalString(cd, "AssignedRole"),
		PlayedRole:           optionalString(cd, "PlayedRole"),
		ItemIDs:              itemIDs(cd),
		RolePreferences:      embeddedObject(cd, "RolePreferences"),
		DamageBreakdown:      damageBreakdown(cd),
	}

	for key, dst := range rec.BasicStats.fields() {
		if n, ok := digitValue(cd[key]); ok {
			*dst = n
		}
	}

	return rec, nil
}

// TransformMatches converts a player's raw match history. Every record
// must carry a player_uuid; the first record without one aborts the
// conversion. Item slots are resolved against items, which may be nil.
func TransformMatches(raw []RawPlayer, items *ItemTable) ([]PlayerMatch, error) {
	out := make([]PlayerMatch, 0, len(raw))
	for i, r := range raw {
		rec, err := TransformPlayer(r)
		if err != nil {
			return nil, withIndex(err, i)
		}
		items.EnrichPlayer(&rec)

		pm := PlayerMatch{PlayerRecord: rec}
		if m := r.Match; m != nil {
			pm.MatchID = m.MatchID
			pm.MatchStart = m.StartTimestamp
			pm.MatchEnd = m.EndTimestamp
			pm.Map = optionalString(m.CustomData, "CurrentMap")
			pm.Mode = optionalString(m.CustomData, "CurrentMode")
			pm.LobbyType = optionalString(m.CustomData, "LobbyType")
			pm.WinningTeam = optionalString(m.CustomData, "WinningTeam")
		}
		out = append(out, pm)
	}
	return out, nil
}

// TransformInstances converts matches fetched by instance id, including
// every segment and the final player list.
func TransformInstances(raw []RawMatch, items *ItemTable) ([]InstanceMatch, error) {
	out := make([]InstanceMatch, 0, len(raw))
	for i, m := range raw {
		matchID, ok := m.MatchID.Get()
		if !ok || matchID == "" {
			return nil, &RecordError{Kind: "match", Index: i, Field: "match_id", Err: ErrMissingField}
		}

		im := InstanceMatch{
			MatchID:         matchID,
			StartTimestamp:  m.StartTimestamp,
			EndTimestamp:    m.EndTimestamp,
			DurationSeconds: m.DurationSeconds,
			Map:             optionalString(m.CustomData, "CurrentMap").OrElse(unknownValue),
			Mode:            optionalString(m.CustomData, "CurrentMode").OrElse(unknownValue),
			LobbyType:       optionalString(m.CustomData, "LobbyType").OrElse(unknownValue),
			WinningTeam:     optionalString(m.CustomData, "WinningTeam"),
			Segments:        make([]Segment, 0, len(m.Segments)),
		}

		for s, seg := range m.Segments {
			players, err := transformPlayers(seg.Players, items)
			if err != nil {
				return nil, fmt.Errorf("match %s segment %d: %w", matchID, s, err)
			}
			im.Segments = append(im.Segments, Segment{
				SegmentLabel:    seg.MatchSegment,
				StartTimestamp:  seg.StartTimestamp,
				EndTimestamp:    seg.EndTimestamp,
				DurationSeconds: seg.DurationSeconds,
				Players:         players,
			})
		}

		final, err := transformPlayers(m.Players, items)
		if err != nil {
			return nil, fmt.Errorf("match %s final players: %w", matchID, err)
		}
		im.FinalPlayers = final

		out = append(out, im)
	}
	return out, nil
}

func transformPlayers(raw []RawPlayer, items *ItemTable) ([]PlayerRecord, error) {
	out := make([]PlayerRecord, 0, len(raw))
	for i, r := range raw {
		rec, err := TransformPlayer(r)
		if err != nil {
			return nil, withIndex(err, i)
		}
		items.EnrichPlayer(&rec)
		out = append(out, rec)
	}
	return out, nil
}

func withIndex(err error, index int) error {
	var recErr *RecordError
	if errors.As(err, &recErr) {
		cp := *recErr
		cp.Index = index
		return &cp
	}
	return err
}

func godName(cd CustomData) string {
	choice, _ := cd.String("CharacterChoice")
	if strings.HasPrefix(choice, godPrefix) {
		return choice[len(godPrefix):]
	}
	if choice != "" {
		return choice
	}
	return unknownGod
}

func optionalString(cd CustomData, key string) Optional[string] {
	if s, ok := cd.String(key); ok {
		return Some(s)
	}
	return Optional[string]{}
}

// embeddedObject decodes a custom_data value holding a JSON object encoded
// as a string. Values that do not decode yield an empty map.
func embeddedObject(cd CustomData, key string) map[string]any {
	out := make(map[string]any)
	switch v := cd[key].(type) {
	case map[string]any:
		for k, val := range v {
			out[k] = val
		}
	case string:
		if v == "" {
			return out
		}
		var decoded map[string]any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return out
		}
		for k, val := range decoded {
			out[k] = val
		}
	}
	return out
}

func itemIDs(cd CustomData) map[string]string {
	slots := embeddedObject(cd, "Items")
	ids := make(map[string]string, len(slots))
	for slot, v := range slots {
		if id, ok := stringValue(v); ok {
			ids[slot] = id
		}
	}
	return ids
}

// damageBreakdown groups every numeric custom_data entry by the god or
// item it belongs to.
func damageBreakdown(cd CustomData) map[string]map[string]int64 {
	out := make(map[string]map[string]int64)
	add := func(group, stat string, n int64) {
		g, ok := out[group]
		if !ok {
			g = make(map[string]int64)
			out[group] = g
		}
		g[stat] = n
	}

	for key, v := range cd {
		n, ok := digitValue(v)
		if !ok {
			continue
		}

		switch {
		case strings.HasPrefix(key, godPrefix):
			parts := strings.Split(key, ".")
			if len(parts) >= 3 {
				add(parts[1], strings.Join(parts[2:], "."), n)
			}
		case strings.HasPrefix(key, itemPrefix):
			parts := strings.Split(key, ".")
			if len(parts) == 3 {
				add(parts[1], parts[2], n)
			} else {
				add(parts[1], "value", n)
			}
		case strings.HasPrefix(key, "NPC.") || strings.HasPrefix(key, "Ability.Type.Item"):
			add("Misc", key, n)
		default:
			add("misc_stats", key, n)
		}
	}
	return out
}
