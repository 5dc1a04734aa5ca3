package listquery

import (
	"cmp"
	"slices"
	"strings"

	"github.com/ignite/directmail/internal/domain"
)

// sortColumnAliases keeps older callers that send storage names working.
var sortColumnAliases = map[string]string{
	"created_at": "createdAt",
}

type sortValue struct {
	present bool
	num     int64
	str     string
	numeric bool
}

func sortKey(l domain.UIMailingList, column string) sortValue {
	switch column {
	case "createdAt":
		if l.CreatedAt.IsZero() {
			return sortValue{}
		}
		return sortValue{present: true, numeric: true, num: l.CreatedAt.UnixMilli()}
	case "modifiedDate":
		if l.ModifiedDate == nil || l.ModifiedDate.IsZero() {
			return sortValue{}
		}
		return sortValue{present: true, numeric: true, num: l.ModifiedDate.UnixMilli()}
	case "recordCount":
		return sortValue{present: true, numeric: true, num: int64(l.RecordCount)}
	case "id":
		return sortValue{present: true, str: l.ID}
	case "name":
		return sortValue{present: true, str: l.Name}
	case "createdBy":
		return sortValue{present: l.CreatedBy != "", str: l.CreatedBy}
	case "modifiedBy":
		return sortValue{present: l.ModifiedBy != "", str: l.ModifiedBy}
	default:
		return sortValue{}
	}
}

// SortLists returns a stably sorted copy of lists. Missing values go last
// whatever the direction.
func SortLists(lists []domain.UIMailingList, spec SortSpec) []domain.UIMailingList {
	column := spec.Column
	if alias, ok := sortColumnAliases[column]; ok {
		column = alias
	}
	dir := 1
	if strings.EqualFold(string(spec.Direction), string(SortDesc)) {
		dir = -1
	}

	sorted := slices.Clone(lists)
	slices.SortStableFunc(sorted, func(a, b domain.UIMailingList) int {
		va, vb := sortKey(a, column), sortKey(b, column)
		switch {
		case !va.present && !vb.present:
			return 0
		case !va.present:
			return 1
		case !vb.present:
			return -1
		}
		if va.numeric {
			return dir * cmp.Compare(va.num, vb.num)
		}
		return dir * strings.Compare(va.str, vb.str)
	})
	return sorted
}

// Paginate returns the 1-indexed page of items. Pages past the end are
// empty. A zero pageSize means DefaultPageSize; negative sizes floor to 1.
func Paginate[T any](items []T, page, pageSize int) []T {
	page = max(page, 1)
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	pageSize = max(pageSize, 1)

	// Compare page indexes rather than item offsets so huge page sizes
	// cannot overflow.
	if len(items) == 0 || page-1 > (len(items)-1)/pageSize {
		return []T{}
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, len(items)-start)
	return items[start:end]
}
