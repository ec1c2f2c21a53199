package smite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLookup(t *testing.T, data string) *PlayerLookup {
	t.Helper()
	var lookup PlayerLookup
	require.NoError(t, json.Unmarshal([]byte(data), &lookup))
	return &lookup
}

func TestFlattenAndExtract(t *testing.T) {
	lookup := decodeLookup(t, `{"display_names":[{"Alice":[{"player_uuid":"u1"},{"player_uuid":"u2"}]}]}`)

	assert.Equal(t, []string{"u1", "u2"}, ExtractUUIDs(lookup))

	flat := Flatten(lookup)
	require.Len(t, flat, 2)
	for _, p := range flat {
		assert.Equal(t, "Alice", p.DisplayName)
	}
	assert.Equal(t, Some("u1"), flat[0].PlayerUUID)
	assert.Equal(t, Some("u2"), flat[1].PlayerUUID)
}

func TestFlattenEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantFlat  []string
		wantUUIDs []string
	}{
		{
			name:      "no display names",
			data:      `{"display_names":[]}`,
			wantFlat:  []string{},
			wantUUIDs: []string{},
		},
		{
			name:      "display name without players",
			data:      `{"display_names":[{"Bob":[]}]}`,
			wantFlat:  []string{},
			wantUUIDs: []string{},
		},
		{
			name:      "overlapping identities keep order and duplicates",
			data:      `{"display_names":[{"Zed":[{"player_uuid":"u2"}],"Amy":[{"player_uuid":"u1"},{"player_uuid":"u2"}]},{"Cat":[{"player_uuid":"u3"}]}]}`,
			wantFlat:  []string{"Zed/u2", "Amy/u1", "Amy/u2", "Cat/u3"},
			wantUUIDs: []string{"u2", "u1", "u3"},
		},
		{
			name:      "identity without uuid",
			data:      `{"display_names":[{"Dan":[{"player_id":7}]}]}`,
			wantFlat:  []string{"Dan/"},
			wantUUIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := decodeLookup(t, tt.data)

			got := []string{}
			for _, p := range Flatten(lookup) {
				got = append(got, p.DisplayName+"/"+p.PlayerUUID.OrElse(""))
			}
			assert.Equal(t, tt.wantFlat, got)
			assert.Equal(t, tt.wantUUIDs, ExtractUUIDs(lookup))
		})
	}
}

func TestFlattenCopiesRecords(t *testing.T) {
	lookup := decodeLookup(t, `{"display_names":[{"Alice":[{"player_uuid":"u1","linked_portals":[{"player_uuid":"u9"}]}]}]}`)

	flat := Flatten(lookup)
	flat[0].LinkedPortals[0].PlayerUUID = Some("changed")
	flat[0].PlayerUUID = Some("changed")

	assert.Equal(t, []string{"u1", "u9"}, ProfileUUIDs(lookup))
}

func TestProfileUUIDs(t *testing.T) {
	lookup := decodeLookup(t, `{"display_names":[{"Alice":[
		{"player_uuid":"u1","player_id":1,"linked_portals":[{"player_uuid":"u2"},{"player_uuid":"u1"}]},
		{"player_uuid":"u3","linked_portals":[]}
	]}]}`)

	assert.Equal(t, []string{"u1", "u2", "u3"}, ProfileUUIDs(lookup))
	assert.Equal(t, []string{"u1", "u3"}, ExtractUUIDs(lookup))
}

func TestDisplayNameGroupRoundTrip(t *testing.T) {
	data := `{"display_names":[{"Zed":[{"player_uuid":"u2","player_id":2}],"Amy":[]}]}`
	lookup := decodeLookup(t, data)

	out, err := json.Marshal(lookup)
	require.NoError(t, err)
	assert.Contains(t, string(out), `{"Zed":[`)
	assert.Less(t, strings.Index(string(out), `"Zed"`), strings.Index(string(out), `"Amy"`))

	again := decodeLookup(t, string(out))
	assert.Equal(t, lookup, again)
}

func TestItemTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"Item_Id": "a", "DisplayName": "Sword", "Stats": [{"Power": 10}]},
		{"DisplayName": "No id"}
	]`), 0o644))

	table, err := LoadItems(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	item := table.Resolve("a")
	assert.Equal(t, "Sword", item["DisplayName"])

	// resolved items are independent copies
	item["DisplayName"] = "changed"
	item["Stats"].([]any)[0].(map[string]any)["Power"] = 99.0
	again := table.Resolve("a")
	assert.Equal(t, "Sword", again["DisplayName"])
	assert.Equal(t, 10.0, again["Stats"].([]any)[0].(map[string]any)["Power"])

	assert.Equal(t, Item{"Item_Id": "b", "DisplayName": "<display name missing>"}, table.Resolve("b"))
}

func TestItemTableNil(t *testing.T) {
	var table *ItemTable
	assert.Equal(t, 0, table.Len())

	rec := PlayerRecord{ItemIDs: map[string]string{"Item1": "x"}}
	table.EnrichPlayer(&rec)
	assert.Equal(t, "<display name missing>", rec.Items["Item1"]["DisplayName"])
}

func TestLoadItemsErrors(t *testing.T) {
	_, err := LoadItems(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = LoadItems(path)
	assert.Error(t, err)
}
