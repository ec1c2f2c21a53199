// Package smite turns raw RallyHere payloads into SMITE 2 records.
//
// Raw shapes (RawPlayer, RawMatch, PlayerLookup) mirror the API and use
// Optional for every field the API may leave out. The transforms produce
// PlayerMatch, InstanceMatch and FlatPlayer values that are safe to
// serialize and share nothing with their input.
//
// Sub-field problems degrade instead of failing: an undecodable Items
// string yields no items, an unknown item id resolves to a placeholder.
// A record missing its identifier is rejected with a *RecordError.
package smite
