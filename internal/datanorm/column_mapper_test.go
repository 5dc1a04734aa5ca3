package datanorm

import "testing"

func TestMapColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    map[int]CanonicalField
	}{
		{"broker export", []string{"FNAME", "LNAME", "Mail_Address", "Mail_City", "ST", "ZIP5", "PLUS4"},
			map[int]CanonicalField{0: FieldFirstName, 1: FieldLastName, 2: FieldAddress, 3: FieldCity, 4: FieldState, 5: FieldZip, 6: FieldZip4}},
		{"email only", []string{" \"Email Address\" ", "notes"},
			map[int]CanonicalField{0: FieldEmail, 1: FieldNote}},
		{"email fallback", []string{"Primary Email", "name"},
			map[int]CanonicalField{0: FieldEmail, 1: FieldFullName}},
		{"first duplicate wins", []string{"address", "street", "zip"},
			map[int]CanonicalField{0: FieldAddress, 2: FieldZip}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MapColumns(tt.headers)
			if m == nil {
				t.Fatalf("MapColumns(%v) = nil", tt.headers)
			}
			if len(m.FieldMap) != len(tt.want) {
				t.Fatalf("FieldMap = %v, want %v", m.FieldMap, tt.want)
			}
			for i, f := range tt.want {
				if m.FieldMap[i] != f {
					t.Errorf("column %d = %q, want %q", i, m.FieldMap[i], f)
				}
			}
		})
	}
}

func TestMapColumns_Unusable(t *testing.T) {
	for _, headers := range [][]string{
		{"first_name", "last_name"},
		{"address", "city", "state"},
		{},
	} {
		if m := MapColumns(headers); m != nil {
			t.Errorf("MapColumns(%v) = %v, want nil", headers, m.FieldMap)
		}
	}
}

func TestLooksLikeEmail(t *testing.T) {
	cases := map[string]bool{
		"ann@example.com": true,
		" a@b.co ":        true,
		"ann@":            false,
		"@example.com":    false,
		"ann@localhost":   false,
		"123 Main St":     false,
	}
	for in, want := range cases {
		if got := LooksLikeEmail(in); got != want {
			t.Errorf("LooksLikeEmail(%q) = %v, want %v", in, got, want)
		}
	}
}
