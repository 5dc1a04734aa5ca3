package accuzip

import "strings"

// BuildSearchParams translates criteria into provider filters. Unset
// dimensions produce no filter; list values are upper-cased where the
// provider expects codes.
func BuildSearchParams(c ListCriteria) SearchParams {
	var f []Filter
	add := func(field, op string, v any) { f = append(f, Filter{Field: field, Op: op, Value: v}) }

	g := c.Geography
	if v := cleanList(g.States, strings.ToUpper); len(v) > 0 {
		add("st", "in", v)
	}
	if v := cleanList(g.Counties, strings.ToUpper); len(v) > 0 {
		add("county", "in", v)
	}
	if v := cleanList(g.Cities, strings.ToUpper); len(v) > 0 {
		add("city", "in", v)
	}
	if v := cleanList(g.ZipCodes, nil); len(v) > 0 {
		add("zip", "in", v)
	}
	if zip := strings.TrimSpace(g.CenterZip); zip != "" && g.RadiusMiles > 0 {
		add("radius", "within", map[string]any{"zip": zip, "miles": g.RadiusMiles})
	}

	p := c.Property
	if v := cleanList(p.Types, strings.ToLower); len(v) > 0 {
		add("property_type", "in", v)
	}
	addRange(add, "est_value", p.MinValue, p.MaxValue)
	addRange(add, "year_built", p.MinYearBuilt, p.MaxYearBuilt)
	if p.MinEquityPercent > 0 {
		add("equity_pct", "gte", p.MinEquityPercent)
	}
	if p.MinYearsOwned > 0 {
		add("years_owned", "gte", p.MinYearsOwned)
	}
	if p.MinBedrooms > 0 {
		add("bedrooms", "gte", p.MinBedrooms)
	}
	if p.OwnerOccupied != nil {
		add("owner_occupied", "eq", *p.OwnerOccupied)
	}
	if p.AbsenteeOwner != nil {
		add("absentee_owner", "eq", *p.AbsenteeOwner)
	}

	d := c.Demographic
	addRange(add, "age", d.MinAge, d.MaxAge)
	addRange(add, "income", d.MinIncome, d.MaxIncome)
	if g := strings.ToUpper(strings.TrimSpace(d.Gender)); g != "" {
		add("gender", "eq", g[:1])
	}
	if d.HasChildren != nil {
		add("children", "eq", *d.HasChildren)
	}
	if d.Homeowner != nil {
		add("homeowner", "eq", *d.Homeowner)
	}

	if f == nil {
		f = []Filter{}
	}
	return SearchParams{Filters: f}
}

func addRange(add func(string, string, any), field string, lo, hi int) {
	if lo > 0 {
		add(field, "gte", lo)
	}
	if hi > 0 {
		add(field, "lte", hi)
	}
}

// cleanList trims values, drops blanks and repeats, and applies norm.
func cleanList(in []string, norm func(string) string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if norm != nil {
			v = norm(v)
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
