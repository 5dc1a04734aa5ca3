package listquery

import (
	"strings"
	"time"

	"github.com/ignite/directmail/internal/domain"
)

// ApplyAdvancedBooleanFilters evaluates every configured filter group and
// combines the results with the criteria's logical operator. Groups with no
// values are left out; with no active group the list always passes.
//
// Column filters are first combined among themselves with the same operator
// and then count as a single group. top/random record-count filters are not
// evaluated here.
func ApplyAdvancedBooleanFilters(l domain.MailingList, c AdvancedSearchCriteria, now time.Time) bool {
	op := c.logic()
	active := make([]bool, 0, 5)

	if len(c.ColumnFilters) > 0 {
		cols := make([]bool, len(c.ColumnFilters))
		for i, f := range c.ColumnFilters {
			cols[i] = MatchColumnFilter(l, f)
		}
		active = append(active, combine(cols, op))
	}
	if len(c.TagFilter.TagIDs) > 0 {
		active = append(active, MatchTagFilter(l, c.TagFilter))
	}
	if len(c.ListFilter) > 0 {
		active = append(active, MatchListFilter(l, c.ListFilter))
	}
	if c.MailingHistoryFilter != nil {
		active = append(active, MatchMailingHistory(l, *c.MailingHistoryFilter, now))
	}
	if c.RecordCountFilter.isRange() {
		active = append(active, MatchRecordCountRange(l, c.RecordCountFilter.Range))
	}

	if len(active) == 0 {
		return true
	}
	return combine(active, op)
}

// logic normalises the operator; anything but OR is AND.
func (c AdvancedSearchCriteria) logic() LogicOperator {
	if strings.EqualFold(string(c.LogicalOperator), string(LogicOr)) {
		return LogicOr
	}
	return LogicAnd
}

func combine(results []bool, op LogicOperator) bool {
	if op == LogicOr {
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	}
	for _, r := range results {
		if !r {
			return false
		}
	}
	return true
}
