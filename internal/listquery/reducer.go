package listquery

import (
	"cmp"
	"encoding/json"
	"slices"

	"github.com/ignite/directmail/internal/domain"
)

// reduceByRecordCount applies a top or random record-count filter to the
// already filtered lists. byVolume is true when the result was ordered by
// record count, which makes recordCount desc the default sort.
func reduceByRecordCount(lists []domain.MailingList, f *RecordCountFilter, seed string) (out []domain.MailingList, byVolume bool) {
	switch f.Type {
	case RecordCountTop:
		if f.Count <= 0 {
			return []domain.MailingList{}, true
		}
		sorted := slices.Clone(lists)
		slices.SortStableFunc(sorted, func(a, b domain.MailingList) int {
			return cmp.Compare(b.RecordCount, a.RecordCount)
		})
		if f.Count < len(sorted) {
			sorted = sorted[:f.Count]
		}
		return sorted, true
	case RecordCountRandom:
		return Sample(lists, f.Count, seed), false
	default:
		return lists, false
	}
}

// seedKey is the canonical form of the inputs that identify a query. Field
// order is fixed by the struct, so equal queries always hash the same.
type seedKey struct {
	Criteria    AdvancedSearchCriteria `json:"criteria"`
	QuickFilter QuickFilter            `json:"quickFilter"`
	SearchQuery string                 `json:"searchQuery"`
}

// DeriveSeed builds the sampling seed used when the caller supplies none.
func DeriveSeed(criteria AdvancedSearchCriteria, qf QuickFilter, search string) string {
	data, err := json.Marshal(seedKey{Criteria: criteria, QuickFilter: qf, SearchQuery: search})
	if err != nil {
		// only reachable with an unencodable column filter value
		return string(qf) + "|" + search
	}
	return string(data)
}
