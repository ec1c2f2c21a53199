package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/s0up4200/s2match/smite"
)

const dateLayout = "2006-01-02"

// Criteria is a set of match conditions combined with AND. Nil fields are
// unset and accept every match. A set field rejects matches that lack the
// data it checks.
type Criteria struct {
	GodName *string
	Mode    *string
	Map     *string

	MinDate *time.Time
	MaxDate *time.Time

	// WinOnly keeps wins when true and losses when false
	WinOnly *bool

	MinKills   *int64
	MinDeaths  *int64
	MaxDeaths  *int64
	MinAssists *int64
	MinKDA     *float64
	MinDamage  *int64
	MinHealing *int64
}

// IsEmpty reports whether no criterion is set
func (c Criteria) IsEmpty() bool {
	return c == Criteria{}
}

// Apply returns the matches satisfying every criterion, in input order.
func (c Criteria) Apply(matches []smite.PlayerMatch) []smite.PlayerMatch {
	return Apply(matches, c)
}

// Evaluate implements Filter
func (c Criteria) Evaluate(m smite.PlayerMatch) bool {
	if c.GodName != nil && m.GodName != *c.GodName {
		return false
	}
	if c.Mode != nil && !equalOptional(m.Mode, *c.Mode) {
		return false
	}
	if c.Map != nil && !equalOptional(m.Map, *c.Map) {
		return false
	}

	if c.MinDate != nil || c.MaxDate != nil {
		start, ok := MatchTime(m)
		if !ok {
			return false
		}
		if c.MinDate != nil && start.Before(*c.MinDate) {
			return false
		}
		if c.MaxDate != nil && start.After(*c.MaxDate) {
			return false
		}
	}

	if c.WinOnly != nil {
		won, known := m.Won()
		if !known || won != *c.WinOnly {
			return false
		}
	}

	s := m.BasicStats
	switch {
	case c.MinKills != nil && s.Kills < *c.MinKills:
		return false
	case c.MinDeaths != nil && s.Deaths < *c.MinDeaths:
		return false
	case c.MaxDeaths != nil && s.Deaths > *c.MaxDeaths:
		return false
	case c.MinAssists != nil && s.Assists < *c.MinAssists:
		return false
	case c.MinKDA != nil && s.KDA() < *c.MinKDA:
		return false
	case c.MinDamage != nil && s.TotalDamage < *c.MinDamage:
		return false
	case c.MinHealing != nil && s.Healing() < *c.MinHealing:
		return false
	}

	return true
}

func equalOptional(v smite.Optional[string], want string) bool {
	got, ok := v.Get()
	return ok && got == want
}

// MatchTime parses the match start timestamp.
func MatchTime(m smite.PlayerMatch) (time.Time, bool) {
	raw, ok := m.MatchStart.Get()
	if !ok || raw == "" {
		return time.Time{}, false
	}
	t, err := parseTimestamp(raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseDate parses a date bound. A bare YYYY-MM-DD date is the start of
// that day (UTC), or its last second when endOfDay is set. Full RFC 3339
// timestamps are used as given.
func ParseDate(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if !strings.Contains(value, "T") {
		day, err := time.Parse(dateLayout, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
		}
		if endOfDay {
			return day.Add(24*time.Hour - time.Second), nil
		}
		return day, nil
	}

	t, err := parseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// parseTimestamp accepts RFC 3339 with or without a zone; zone-less values
// are taken as UTC.
func parseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05.999999999", value)
}
