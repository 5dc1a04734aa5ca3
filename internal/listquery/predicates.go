package listquery

import (
	"strings"
	"time"

	"github.com/ignite/directmail/internal/domain"
)

const day = 24 * time.Hour

// MatchQuickFilter applies the coarse quick filter. Unknown values behave
// like "all".
func MatchQuickFilter(l domain.MailingList, qf QuickFilter, now time.Time) bool {
	switch qf {
	case QuickLast7Days:
		return !l.CreatedAt.IsZero() && !l.CreatedAt.Before(now.Add(-7*day))
	case QuickUsedInCampaign:
		return len(l.Campaigns) > 0
	default:
		return true
	}
}

// MatchSearch is a case-insensitive substring match on the list name.
// A blank query matches everything.
func MatchSearch(l domain.MailingList, query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Name), strings.ToLower(q))
}

// MatchColumnFilter compares one column of the list with the filter value,
// case-insensitively. Missing columns and unknown operators never match.
func MatchColumnFilter(l domain.MailingList, f ColumnFilter) bool {
	get, ok := lookupField(f.Column)
	if !ok {
		return false
	}
	raw, ok := get(l)
	if !ok {
		return false
	}

	value := strings.ToLower(raw)
	want := strings.ToLower(coerceString(f.Value))

	switch f.Operator {
	case OpContains:
		return strings.Contains(value, want)
	case OpEquals:
		return value == want
	case OpNotEquals:
		return value != want
	default:
		return false
	}
}

// MatchTagFilter checks the list's tag ids (in either stored shape) against
// the filter's tag set.
func MatchTagFilter(l domain.MailingList, f TagFilter) bool {
	have := make(map[string]struct{}, len(l.Tags))
	for _, id := range l.TagIDs() {
		have[id] = struct{}{}
	}

	if f.MatchType == MatchAll {
		for _, id := range f.TagIDs {
			if _, ok := have[id]; !ok {
				return false
			}
		}
		return true
	}

	for _, id := range f.TagIDs {
		if _, ok := have[id]; ok {
			return true
		}
	}
	return false
}

// MatchListFilter reports whether the list is one of ids.
func MatchListFilter(l domain.MailingList, ids []string) bool {
	for _, id := range ids {
		if id == l.ID {
			return true
		}
	}
	return false
}

// MatchMailingHistory evaluates the history filter against the latest
// effective mail date across the list's campaigns.
func MatchMailingHistory(l domain.MailingList, f MailingHistoryFilter, now time.Time) bool {
	last := l.LastMailedDate()

	switch f.Type {
	case HistoryNotMailed:
		return last == nil
	case HistoryInLast:
		if last == nil {
			return false
		}
		from := now.Add(-time.Duration(f.Days) * day)
		return !last.Before(from) && !last.After(now)
	case HistoryMoreThan:
		if last == nil {
			return false
		}
		return last.Before(now.Add(-time.Duration(f.Days) * day))
	case HistoryBetweenDates:
		if last == nil {
			return false
		}
		start, ok := parseDate(f.StartDate)
		if !ok {
			return false
		}
		end, ok := parseDate(f.EndDate)
		if !ok {
			return false
		}
		return !last.Before(start) && !last.After(end)
	default:
		return false
	}
}

// MatchRecordCountRange checks record_count against [min(a,b), max(a,b)].
// Fewer than two bounds match everything.
func MatchRecordCountRange(l domain.MailingList, bounds []int) bool {
	if len(bounds) < 2 {
		return true
	}
	lo, hi := bounds[0], bounds[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return l.RecordCount >= lo && l.RecordCount <= hi
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
