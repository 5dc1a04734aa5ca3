// Package listquery filters, samples, sorts and pages an in-memory snapshot
// of mailing lists for the list manager.
//
// Everything in this package is a pure function of its arguments: no I/O,
// no shared state, no errors. Inputs are never mutated; each stage works on
// its own copy so concurrent callers need no coordination.
package listquery

import (
	"time"

	"github.com/ignite/directmail/internal/domain"
)

// ==========================================
// OPERATORS
// ==========================================

// Operator is a column filter comparison.
type Operator string

const (
	OpContains  Operator = "contains"
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "not_equals"
)

// LogicOperator combines the active filter groups.
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// QuickFilter is the single-select coarse filter above the list table.
type QuickFilter string

const (
	QuickAll            QuickFilter = "all"
	QuickLast7Days      QuickFilter = "last_7_days"
	QuickUsedInCampaign QuickFilter = "used_in_campaign"
)

// MatchType decides how a tag filter treats its tag set.
type MatchType string

const (
	MatchAny MatchType = "any"
	MatchAll MatchType = "all"
)

// HistoryType selects the mailing-history variant.
type HistoryType string

const (
	HistoryNotMailed    HistoryType = "not_mailed"
	HistoryInLast       HistoryType = "in_last"
	HistoryMoreThan     HistoryType = "more_than"
	HistoryBetweenDates HistoryType = "between_dates"
)

// RecordCountType selects the record-count variant.
type RecordCountType string

const (
	RecordCountRange  RecordCountType = "range"
	RecordCountTop    RecordCountType = "top"
	RecordCountRandom RecordCountType = "random"
)

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// DefaultPageSize is used when the caller does not ask for one.
const DefaultPageSize = 10

// ==========================================
// CRITERIA
// ==========================================

// ColumnFilter is one row of the advanced search column table. ID is the
// row id the caller assigned; it plays no part in matching.
type ColumnFilter struct {
	ID       string   `json:"id,omitempty"`
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// TagFilter matches lists by tag id.
type TagFilter struct {
	TagIDs    []string  `json:"tagIds"`
	MatchType MatchType `json:"matchType"`
}

// MailingHistoryFilter matches lists by their last mail date. Days is used
// by in_last and more_than; StartDate/EndDate (RFC 3339 or YYYY-MM-DD) by
// between_dates.
type MailingHistoryFilter struct {
	Type      HistoryType `json:"type"`
	Days      int         `json:"days,omitempty"`
	StartDate string      `json:"startDate,omitempty"`
	EndDate   string      `json:"endDate,omitempty"`
}

// RecordCountFilter is either a [min,max] range evaluated with the other
// groups, or a top/random reduction applied after them.
type RecordCountFilter struct {
	Type  RecordCountType `json:"type"`
	Range []int           `json:"range,omitempty"`
	Count int             `json:"count,omitempty"`
}

// isRange reports whether the filter is a range with both bounds present.
func (f *RecordCountFilter) isRange() bool {
	return f != nil && f.Type == RecordCountRange && len(f.Range) >= 2
}

// isReduction reports whether the filter selects top or random lists.
func (f *RecordCountFilter) isReduction() bool {
	return f != nil && (f.Type == RecordCountTop || f.Type == RecordCountRandom)
}

// AdvancedSearchCriteria is the composite filter document of the advanced
// search panel. Groups left empty are not part of the combination.
type AdvancedSearchCriteria struct {
	ColumnFilters        []ColumnFilter        `json:"columnFilters"`
	TagFilter            TagFilter             `json:"tagFilter"`
	ListFilter           []string              `json:"listFilter"`
	MailingHistoryFilter *MailingHistoryFilter `json:"mailingHistoryFilter"`
	RecordCountFilter    *RecordCountFilter    `json:"recordCountFilter"`
	LogicalOperator      LogicOperator         `json:"logicalOperator"`
}

// ==========================================
// OPTIONS / RESULT
// ==========================================

// SortSpec names a UIMailingList column and a direction.
type SortSpec struct {
	Column    string        `json:"column"`
	Direction SortDirection `json:"direction"`
}

// Options are the parameters of one FilterSortPaginate call.
type Options struct {
	Criteria    AdvancedSearchCriteria `json:"criteria"`
	QuickFilter QuickFilter            `json:"quickFilter,omitempty"`
	SearchQuery string                 `json:"searchQuery,omitempty"`
	SortBy      *SortSpec              `json:"sortBy,omitempty"`
	Page        int                    `json:"page,omitempty"`
	PageSize    int                    `json:"pageSize,omitempty"`
	Seed        string                 `json:"seed,omitempty"`

	// Now anchors the relative date filters. Zero means time.Now().
	Now time.Time `json:"-"`
}

// Result is one page of mapped lists plus the filtered total.
type Result struct {
	Items []domain.UIMailingList `json:"items"`
	Total int                    `json:"total"`
}
