package smite

import (
	"bytes"
	"slices"

	jsoniter "github.com/json-iterator/go"
)

// LinkedPortal is another platform identity linked to a player.
type LinkedPortal struct {
	PlayerUUID     Optional[string] `json:"player_uuid"`
	PlayerID       Optional[int64]  `json:"player_id"`
	Platform       Optional[string] `json:"platform"`
	PlatformUserID Optional[string] `json:"platform_user_id"`
	DisplayName    Optional[string] `json:"display_name"`
}

// PlayerIdentity is one player found by a display name lookup.
type PlayerIdentity struct {
	PlayerUUID         Optional[string] `json:"player_uuid"`
	PlayerID           Optional[int64]  `json:"player_id"`
	Platform           Optional[string] `json:"platform"`
	PlatformUserID     Optional[string] `json:"platform_user_id"`
	LinkedPortals      []LinkedPortal   `json:"linked_portals,omitempty"`
	LinkedPortalsError string           `json:"linked_portals_error,omitempty"`
}

// DisplayNameMatches lists the identities found under one display name.
type DisplayNameMatches struct {
	DisplayName string
	Players     []PlayerIdentity
}

// DisplayNameGroup is one object of the lookup's display_names array. The
// API keys identities by display name; key order is preserved.
type DisplayNameGroup []DisplayNameMatches

// UnmarshalJSON implements json.Unmarshaler
func (g *DisplayNameGroup) UnmarshalJSON(data []byte) error {
	iter := json.BorrowIterator(data)
	defer json.ReturnIterator(iter)

	var out DisplayNameGroup
	iter.ReadMapCB(func(it *jsoniter.Iterator, name string) bool {
		var players []PlayerIdentity
		it.ReadVal(&players)
		out = append(out, DisplayNameMatches{DisplayName: name, Players: players})
		return it.Error == nil
	})
	if iter.Error != nil {
		return iter.Error
	}

	*g = out
	return nil
}

// MarshalJSON implements json.Marshaler
func (g DisplayNameGroup) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.DisplayName)
		if err != nil {
			return nil, err
		}
		players := entry.Players
		if players == nil {
			players = []PlayerIdentity{}
		}
		value, err := json.Marshal(players)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// PlayerLookup is the response of the display name lookup endpoint.
type PlayerLookup struct {
	DisplayNames []DisplayNameGroup `json:"display_names"`
}

// Each calls fn for every identity in response order. fn may modify the
// identity in place.
func (l *PlayerLookup) Each(fn func(displayName string, player *PlayerIdentity)) {
	if l == nil {
		return
	}
	for gi := range l.DisplayNames {
		group := l.DisplayNames[gi]
		for ei := range group {
			for pi := range group[ei].Players {
				fn(group[ei].DisplayName, &group[ei].Players[pi])
			}
		}
	}
}

// FlatPlayer is an identity tagged with the display name it was found under.
type FlatPlayer struct {
	DisplayName string `json:"display_name"`
	PlayerIdentity
}

// Flatten lists every identity of the lookup, tagged with its display
// name. Identities found under several names appear once per name.
func Flatten(lookup *PlayerLookup) []FlatPlayer {
	out := make([]FlatPlayer, 0)
	lookup.Each(func(name string, p *PlayerIdentity) {
		cp := *p
		cp.LinkedPortals = slices.Clone(p.LinkedPortals)
		out = append(out, FlatPlayer{DisplayName: name, PlayerIdentity: cp})
	})
	return out
}

// ExtractUUIDs returns the distinct player UUIDs of the lookup in the
// order they first appear.
func ExtractUUIDs(lookup *PlayerLookup) []string {
	var u uuidSet
	lookup.Each(func(_ string, p *PlayerIdentity) {
		u.add(p.PlayerUUID)
	})
	return u.list()
}

// ProfileUUIDs is ExtractUUIDs extended with the UUIDs of linked portals,
// each following the identity it is linked to.
func ProfileUUIDs(lookup *PlayerLookup) []string {
	var u uuidSet
	lookup.Each(func(_ string, p *PlayerIdentity) {
		u.add(p.PlayerUUID)
		for _, lp := range p.LinkedPortals {
			u.add(lp.PlayerUUID)
		}
	})
	return u.list()
}

type uuidSet struct {
	seen  map[string]struct{}
	order []string
}

func (u *uuidSet) add(id Optional[string]) {
	v, ok := id.Get()
	if !ok || v == "" {
		return
	}
	if u.seen == nil {
		u.seen = make(map[string]struct{})
	}
	if _, dup := u.seen[v]; dup {
		return
	}
	u.seen[v] = struct{}{}
	u.order = append(u.order, v)
}

func (u *uuidSet) list() []string {
	if u.order == nil {
		return []string{}
	}
	return u.order
}
