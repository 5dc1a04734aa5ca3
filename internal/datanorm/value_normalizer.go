package datanorm

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ignite/directmail/internal/domain"
)

// uploadData is stored in Record.Data for uploaded rows. Columns that map
// to no field are kept under Extra by their original header.
type uploadData struct {
	Source string            `json:"source"`
	File   string            `json:"file,omitempty"`
	Extra  map[string]string `json:"extra,omitempty"`
}

// NormalizeRecord builds a list record from one CSV row. Status, ids and
// list membership are left for the list service.
func NormalizeRecord(row []string, mapping *ColumnMapping, sourceFile string) domain.Record {
	var (
		rec                      domain.Record
		address2, zip4, fullName string
		extra                    = make(map[string]string)
	)

	for i, val := range row {
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}

		field, mapped := mapping.FieldMap[i]
		if !mapped {
			if i < len(mapping.RawNames) {
				if raw := strings.TrimSpace(mapping.RawNames[i]); raw != "" {
					extra[raw] = val
				}
			}
			continue
		}

		switch field {
		case FieldEmail:
			rec.Email = normalizeEmail(val)
		case FieldFirstName:
			rec.FirstName = normalizeName(val)
		case FieldLastName:
			rec.LastName = normalizeName(val)
		case FieldFullName:
			fullName = val
		case FieldCompany:
			rec.Company = val
		case FieldAddress:
			rec.Address = normalizeName(val)
		case FieldAddress2:
			address2 = normalizeName(val)
		case FieldCity:
			rec.City = normalizeName(val)
		case FieldState:
			rec.State = strings.ToUpper(val)
		case FieldZip:
			rec.Zip = val
		case FieldZip4:
			zip4 = val
		case FieldPhone:
			rec.Phone = normalizePhone(val)
		case FieldTags:
			rec.Tags = splitTags(val)
		}
	}

	if rec.FirstName == "" && rec.LastName == "" && fullName != "" {
		rec.FirstName, rec.LastName = splitFullName(fullName)
	}
	if address2 != "" && rec.Address != "" {
		rec.Address += " " + address2
	}
	rec.Zip = normalizeZip(rec.Zip, zip4)

	data := uploadData{Source: "upload", File: sourceFile}
	if len(extra) > 0 {
		data.Extra = extra
	}
	rec.Data, _ = json.Marshal(data)
	return rec
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// normalizeName title-cases values that arrive all upper or all lower case
// and leaves mixed-case values such as "McDonald" alone.
func normalizeName(raw string) string {
	s := strings.Join(strings.Fields(raw), " ")
	if s != strings.ToUpper(s) && s != strings.ToLower(s) {
		return s
	}
	return cases.Title(language.English).String(s)
}

// splitFullName accepts "First Last" and "LAST, FIRST".
func splitFullName(raw string) (first, last string) {
	if before, after, ok := strings.Cut(raw, ","); ok {
		return normalizeName(after), normalizeName(before)
	}
	parts := strings.Fields(raw)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return normalizeName(parts[0]), ""
	}
	return normalizeName(parts[0]), normalizeName(strings.Join(parts[1:], " "))
}

// normalizeZip returns "12345" or "12345-6789". Spreadsheets strip leading
// zeros ("2134" for Boston) and sometimes append ".0"; both are undone.
// Values that are not US zips are returned trimmed.
func normalizeZip(raw, plus4 string) string {
	z := strings.TrimSpace(raw)
	if idx := strings.Index(z, "."); idx > 0 {
		z = z[:idx]
	}
	if before, after, ok := strings.Cut(z, "-"); ok {
		z = before
		if plus4 == "" {
			plus4 = after
		}
	}
	if !allDigits(z) {
		return strings.TrimSpace(raw)
	}
	switch {
	case len(z) == 9:
		z, plus4 = z[:5], z[5:]
	case len(z) >= 3 && len(z) < 5:
		z = strings.Repeat("0", 5-len(z)) + z
	case len(z) != 5:
		return strings.TrimSpace(raw)
	}

	plus4 = strings.TrimSpace(plus4)
	if idx := strings.Index(plus4, "."); idx > 0 {
		plus4 = plus4[:idx]
	}
	if allDigits(plus4) && len(plus4) > 0 && len(plus4) <= 4 {
		return z + "-" + strings.Repeat("0", 4-len(plus4)) + plus4
	}
	return z
}

func normalizePhone(raw string) string {
	// Keep only digits and leading +
	var b strings.Builder
	for i, r := range raw {
		if r == '+' && i == 0 {
			b.WriteRune(r)
		} else if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitTags(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == '|' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
