package processor

import (
	"sort"
	"time"

	"derivflow/config"
	"derivflow/models"
)

// ExpiryDateLayout is the provider's expiry date format, e.g. "26-Mar-2026".
const ExpiryDateLayout = "02-Jan-2006"

// NextExpiry returns the next occurrence of the weekly expiry weekday,
// strictly in the future: asked on the expiry weekday itself it returns the
// date seven days out, never today.
func NextExpiry(now time.Time, target time.Weekday) time.Time {
	d := (int(target) - int(now.Weekday()) + 7) % 7
	if d == 0 {
		d = 7
	}
	return now.AddDate(0, 0, d)
}

// FormatExpiry renders a date in the provider's expiry format.
func FormatExpiry(t time.Time) string {
	return t.Format(ExpiryDateLayout)
}

// ParseExpiry parses a provider expiry date string.
func ParseExpiry(s string) (time.Time, error) {
	return time.Parse(ExpiryDateLayout, s)
}

// DistinctExpiries returns the distinct expiry dates present in rows, sorted
// ascending by calendar date. Dates that fail to parse sort last, by string.
func DistinctExpiries(rows []models.Row) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if r.ExpiryDate == "" {
			continue
		}
		if _, ok := seen[r.ExpiryDate]; ok {
			continue
		}
		seen[r.ExpiryDate] = struct{}{}
		out = append(out, r.ExpiryDate)
	}

	sort.Slice(out, func(i, j int) bool {
		ti, erri := ParseExpiry(out[i])
		tj, errj := ParseExpiry(out[j])
		switch {
		case erri == nil && errj == nil:
			return ti.Before(tj)
		case erri == nil:
			return true
		case errj == nil:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// EarliestExpiry returns the calendar-earliest expiry date in rows.
func EarliestExpiry(rows []models.Row) (string, bool) {
	dates := DistinctExpiries(rows)
	if len(dates) == 0 {
		return "", false
	}
	return dates[0], true
}

// SelectExpiry resolves the expiry date to keep for a source: nearest mode
// computes the next weekly expiry from the clock, earliest mode picks the
// first expiry observed in the payload itself.
func SelectExpiry(src config.SourceConfig, rows []models.Row, now time.Time, expiryWeekday time.Weekday) (string, bool) {
	if src.ExpiryMode == config.ExpiryModeEarliest {
		return EarliestExpiry(rows)
	}
	return FormatExpiry(NextExpiry(now, expiryWeekday)), true
}

// FilterByExpiry keeps rows matching the expiry date and drops any row whose
// strike price is exactly zero (the sentinel for "not a real options leg").
func FilterByExpiry(rows []models.Row, expiry string) []models.Row {
	out := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		if r.StrikePrice == 0 {
			continue
		}
		if r.ExpiryDate != expiry {
			continue
		}
		out = append(out, r)
	}
	return out
}
