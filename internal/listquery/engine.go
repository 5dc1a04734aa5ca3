package listquery

import (
	"time"

	"github.com/ignite/directmail/internal/domain"
)

// FilterSortPaginate runs the whole list pipeline over a snapshot:
// quick filter, search, advanced criteria, top/random reduction, mapping,
// sort and pagination. Total is the number of lists left before paging.
func FilterSortPaginate(lists []domain.MailingList, opts Options) Result {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	filtered := make([]domain.MailingList, 0, len(lists))
	for _, l := range lists {
		if !MatchQuickFilter(l, opts.QuickFilter, now) {
			continue
		}
		if !MatchSearch(l, opts.SearchQuery) {
			continue
		}
		if !ApplyAdvancedBooleanFilters(l, opts.Criteria, now) {
			continue
		}
		filtered = append(filtered, l)
	}

	byVolume := false
	if rc := opts.Criteria.RecordCountFilter; rc.isReduction() {
		seed := opts.Seed
		if seed == "" {
			seed = DeriveSeed(opts.Criteria, opts.QuickFilter, opts.SearchQuery)
		}
		filtered, byVolume = reduceByRecordCount(filtered, rc, seed)
	}

	sorted := SortLists(MapLists(filtered), resolveSort(opts.SortBy, byVolume))

	return Result{
		Items: Paginate(sorted, opts.Page, opts.PageSize),
		Total: len(sorted),
	}
}

func resolveSort(spec *SortSpec, byVolume bool) SortSpec {
	if spec != nil && spec.Column != "" {
		return *spec
	}
	if byVolume {
		return SortSpec{Column: "recordCount", Direction: SortDesc}
	}
	return SortSpec{Column: "createdAt", Direction: SortDesc}
}
