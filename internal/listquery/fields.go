package listquery

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/ignite/directmail/internal/domain"
)

// fieldAccessor reads one column off a stored list. ok is false when the
// list has no value for it.
type fieldAccessor func(l domain.MailingList) (value string, ok bool)

// columnFields maps the column names the advanced search panel can send to
// their accessors. Unknown names never match.
var columnFields = map[string]fieldAccessor{
	"id":          func(l domain.MailingList) (string, bool) { return l.ID, l.ID != "" },
	"name":        func(l domain.MailingList) (string, bool) { return l.Name, true },
	"description": optionalString(func(l domain.MailingList) string { return l.Description }),
	"record_count": func(l domain.MailingList) (string, bool) {
		return strconv.Itoa(l.RecordCount), true
	},
	"created_at": func(l domain.MailingList) (string, bool) {
		return formatTime(&l.CreatedAt)
	},
	"created_by": optionalString(func(l domain.MailingList) string { return l.CreatedBy }),
	"modified_at": func(l domain.MailingList) (string, bool) {
		return formatTime(l.ModifiedAt)
	},
	"modified_by": optionalString(func(l domain.MailingList) string { return l.ModifiedBy }),
}

func init() {
	// camelCase names used by the rendered table
	aliases := map[string]string{
		"recordCount":  "record_count",
		"createdAt":    "created_at",
		"createdBy":    "created_by",
		"modifiedAt":   "modified_at",
		"modifiedDate": "modified_at",
		"modifiedBy":   "modified_by",
	}
	for alias, field := range aliases {
		columnFields[alias] = columnFields[field]
	}
}

func lookupField(column string) (fieldAccessor, bool) {
	fn, ok := columnFields[column]
	return fn, ok
}

func optionalString(get func(domain.MailingList) string) fieldAccessor {
	return func(l domain.MailingList) (string, bool) {
		v := get(l)
		return v, v != ""
	}
}

func formatTime(t *time.Time) (string, bool) {
	if t == nil || t.IsZero() {
		return "", false
	}
	return t.UTC().Format(time.RFC3339Nano), true
}

// coerceString renders a filter value the way the panel displays it.
func coerceString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if math.IsInf(x, 0) || math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return ""
	}
}
