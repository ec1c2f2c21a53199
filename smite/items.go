package smite

import (
	"fmt"
	"os"
)

const (
	itemIDKey          = "Item_Id"
	displayNameKey     = "DisplayName"
	missingDisplayName = "<display name missing>"
)

// ItemTable resolves item identifiers to item metadata. It is read-only
// once built and safe for concurrent use. A nil *ItemTable resolves every
// identifier to the unknown-item placeholder.
type ItemTable struct {
	items map[string]Item
}

// NewItemTable indexes items by their Item_Id. Entries without an id are
// skipped; later duplicates replace earlier ones.
func NewItemTable(items []Item) *ItemTable {
	t := &ItemTable{items: make(map[string]Item, len(items))}
	for _, item := range items {
		id, ok := item[itemIDKey].(string)
		if !ok || id == "" {
			continue
		}
		t.items[id] = item
	}
	return t
}

// LoadItems reads an items.json file: a JSON array of item objects.
func LoadItems(path string) (*ItemTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read item table: %w", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse item table %s: %w", path, err)
	}

	return NewItemTable(items), nil
}

// Len returns the number of known items
func (t *ItemTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.items)
}

// Lookup returns a copy of the item with the given id.
func (t *ItemTable) Lookup(id string) (Item, bool) {
	if t == nil {
		return nil, false
	}
	item, ok := t.items[id]
	if !ok {
		return nil, false
	}
	return deepCopy(item).(map[string]any), true
}

// Resolve returns the item with the given id, or a placeholder carrying
// the id and a "<display name missing>" display name.
func (t *ItemTable) Resolve(id string) Item {
	if item, ok := t.Lookup(id); ok {
		return item
	}
	return Item{
		itemIDKey:      id,
		displayNameKey: missingDisplayName,
	}
}

// EnrichPlayer replaces the record's item slot ids with item metadata.
func (t *ItemTable) EnrichPlayer(rec *PlayerRecord) {
	rec.Items = make(map[string]Item, len(rec.ItemIDs))
	for slot, id := range rec.ItemIDs {
		rec.Items[slot] = t.Resolve(id)
	}
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case Item:
		return deepCopy(map[string]any(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return val
	}
}
