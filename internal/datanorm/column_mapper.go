// Package datanorm turns uploaded CSV files into list records and
// do-not-mail entries. Headers are matched against known aliases so files
// exported by list brokers, mail houses and spreadsheets load unchanged.
package datanorm

import "strings"

// CanonicalField is a normalized field name used across all upload sources.
type CanonicalField string

const (
	FieldEmail     CanonicalField = "email"
	FieldFirstName CanonicalField = "first_name"
	FieldLastName  CanonicalField = "last_name"
	FieldFullName  CanonicalField = "full_name"
	FieldCompany   CanonicalField = "company"
	FieldAddress   CanonicalField = "address"
	FieldAddress2  CanonicalField = "address2"
	FieldCity      CanonicalField = "city"
	FieldState     CanonicalField = "state"
	FieldZip       CanonicalField = "zip"
	FieldZip4      CanonicalField = "zip4"
	FieldPhone     CanonicalField = "phone"
	FieldTags      CanonicalField = "tags"
	FieldReason    CanonicalField = "reason"
	FieldNote      CanonicalField = "note"
)

// columnAliases maps lowercase header names to canonical fields.
var columnAliases = map[string]CanonicalField{
	// Email
	"email":         FieldEmail,
	"email_address": FieldEmail,
	"emailaddress":  FieldEmail,
	"e-mail":        FieldEmail,

	// Names
	"first_name": FieldFirstName,
	"firstname":  FieldFirstName,
	"fname":      FieldFirstName,
	"first":      FieldFirstName,
	"first name": FieldFirstName,
	"last_name":  FieldLastName,
	"lastname":   FieldLastName,
	"lname":      FieldLastName,
	"last":       FieldLastName,
	"last name":  FieldLastName,
	"name":       FieldFullName,
	"full_name":  FieldFullName,
	"full name":  FieldFullName,
	"owner":      FieldFullName,
	"owner_name": FieldFullName,

	"company":      FieldCompany,
	"company_name": FieldCompany,
	"business":     FieldCompany,
	"organization": FieldCompany,

	// Street
	"address":          FieldAddress,
	"address1":         FieldAddress,
	"address_1":        FieldAddress,
	"address line 1":   FieldAddress,
	"street":           FieldAddress,
	"street_address":   FieldAddress,
	"mailing_address":  FieldAddress,
	"property_address": FieldAddress,
	"address2":         FieldAddress2,
	"address_2":        FieldAddress2,
	"address line 2":   FieldAddress2,
	"unit":             FieldAddress2,
	"apt":              FieldAddress2,

	// Location
	"city":        FieldCity,
	"mail_city":   FieldCity,
	"state":       FieldState,
	"st":          FieldState,
	"mail_state":  FieldState,
	"zip":         FieldZip,
	"zipcode":     FieldZip,
	"zip_code":    FieldZip,
	"zip5":        FieldZip,
	"postal_code": FieldZip,
	"post code":   FieldZip,
	"mail_zip":    FieldZip,
	"zip4":        FieldZip4,
	"plus4":       FieldZip4,
	"zip_4":       FieldZip4,

	// Phone
	"phone":        FieldPhone,
	"phone_number": FieldPhone,
	"mobile":       FieldPhone,
	"cell":         FieldPhone,

	"tags":   FieldTags,
	"tag":    FieldTags,
	"reason": FieldReason,
	"note":   FieldNote,
	"notes":  FieldNote,
}

// ColumnMapping holds the resolved mapping from CSV column indices to canonical fields.
type ColumnMapping struct {
	FieldMap map[int]CanonicalField // column index -> canonical field
	RawNames []string               // original header names
}

// Has reports whether some column maps to f.
func (m *ColumnMapping) Has(f CanonicalField) bool {
	for _, field := range m.FieldMap {
		if field == f {
			return true
		}
	}
	return false
}

// Mailable reports whether rows can carry a deliverable target: an email
// column, or a street column together with a zip column.
func (m *ColumnMapping) Mailable() bool {
	return m.Has(FieldEmail) || (m.Has(FieldAddress) && m.Has(FieldZip))
}

// MapColumns takes a raw CSV header row and returns a resolved mapping.
// When two columns map to the same field the first one wins. Returns nil
// if the header carries neither an email nor a street and zip.
func MapColumns(header []string) *ColumnMapping {
	m := &ColumnMapping{
		FieldMap: make(map[int]CanonicalField, len(header)),
		RawNames: header,
	}

	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(h))
		normalized = strings.Trim(normalized, "\"'")

		if field, ok := columnAliases[normalized]; ok && !m.Has(field) {
			m.FieldMap[i] = field
		}
	}

	// Fallback: any header containing "email" if no exact match
	if !m.Has(FieldEmail) {
		for i, h := range header {
			if _, taken := m.FieldMap[i]; !taken && strings.Contains(strings.ToLower(h), "email") {
				m.FieldMap[i] = FieldEmail
				break
			}
		}
	}

	if !m.Mailable() {
		return nil
	}
	return m
}

// LooksLikeEmail returns true if the value appears to be an email address.
func LooksLikeEmail(val string) bool {
	v := strings.TrimSpace(val)
	if len(v) < 5 || len(v) > 254 {
		return false
	}
	at := strings.LastIndex(v, "@")
	if at < 1 || at >= len(v)-1 {
		return false
	}
	domain := v[at+1:]
	return strings.Contains(domain, ".") && len(domain) >= 3
}
