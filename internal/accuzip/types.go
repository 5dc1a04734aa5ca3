// Package accuzip is a client for the AccuZIP list data service. It turns a
// ListCriteria into provider search filters, pages through the matching
// consumer and property rows and converts them into list records.
package accuzip

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Config holds the provider connection settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	PageSize   int
}

// FlexString is a string that can unmarshal from both string and number JSON
// values; the provider sends zips and phone numbers either way.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler for FlexString.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	if string(data) == "null" {
		*f = ""
		return nil
	}
	return fmt.Errorf("FlexString: cannot unmarshal %s", string(data))
}

// ==========================================
// CRITERIA
// ==========================================

// ListCriteria selects the households to pull from the provider. At least
// one geography dimension is required.
type ListCriteria struct {
	Geography   Geography   `json:"geography"`
	Property    Property    `json:"property"`
	Demographic Demographic `json:"demographic"`
	MaxRecords  int         `json:"maxRecords,omitempty"`
}

// Geography narrows the search area. A radius needs a center zip.
type Geography struct {
	States      []string `json:"states,omitempty"`
	Counties    []string `json:"counties,omitempty"`
	Cities      []string `json:"cities,omitempty"`
	ZipCodes    []string `json:"zipCodes,omitempty"`
	CenterZip   string   `json:"centerZip,omitempty"`
	RadiusMiles float64  `json:"radiusMiles,omitempty"`
}

// Property filters on the dwelling. Zero values are unset.
type Property struct {
	Types            []string `json:"types,omitempty"`
	MinValue         int      `json:"minValue,omitempty"`
	MaxValue         int      `json:"maxValue,omitempty"`
	MinEquityPercent int      `json:"minEquityPercent,omitempty"`
	MinYearsOwned    int      `json:"minYearsOwned,omitempty"`
	MinYearBuilt     int      `json:"minYearBuilt,omitempty"`
	MaxYearBuilt     int      `json:"maxYearBuilt,omitempty"`
	MinBedrooms      int      `json:"minBedrooms,omitempty"`
	OwnerOccupied    *bool    `json:"ownerOccupied,omitempty"`
	AbsenteeOwner    *bool    `json:"absenteeOwner,omitempty"`
}

// Demographic filters on the household. Zero values are unset.
type Demographic struct {
	MinAge      int    `json:"minAge,omitempty"`
	MaxAge      int    `json:"maxAge,omitempty"`
	MinIncome   int    `json:"minIncome,omitempty"`
	MaxIncome   int    `json:"maxIncome,omitempty"`
	Gender      string `json:"gender,omitempty"`
	HasChildren *bool  `json:"hasChildren,omitempty"`
	Homeowner   *bool  `json:"homeowner,omitempty"`
}

// Validate reports the first problem with the criteria.
func (c ListCriteria) Validate() error {
	g := c.Geography
	if len(g.States) == 0 && len(g.Counties) == 0 && len(g.Cities) == 0 &&
		len(g.ZipCodes) == 0 && g.CenterZip == "" {
		return fmt.Errorf("at least one geography filter is required")
	}
	if g.RadiusMiles < 0 {
		return fmt.Errorf("radius cannot be negative")
	}
	if g.RadiusMiles > 0 && strings.TrimSpace(g.CenterZip) == "" {
		return fmt.Errorf("radius search needs a center zip")
	}
	if err := checkRange("property value", c.Property.MinValue, c.Property.MaxValue); err != nil {
		return err
	}
	if err := checkRange("year built", c.Property.MinYearBuilt, c.Property.MaxYearBuilt); err != nil {
		return err
	}
	if err := checkRange("age", c.Demographic.MinAge, c.Demographic.MaxAge); err != nil {
		return err
	}
	if err := checkRange("income", c.Demographic.MinIncome, c.Demographic.MaxIncome); err != nil {
		return err
	}
	if p := c.Property.MinEquityPercent; p < 0 || p > 100 {
		return fmt.Errorf("equity percent must be between 0 and 100")
	}
	if c.MaxRecords < 0 {
		return fmt.Errorf("max records cannot be negative")
	}
	return nil
}

func checkRange(name string, lo, hi int) error {
	if lo < 0 || hi < 0 {
		return fmt.Errorf("%s cannot be negative", name)
	}
	if hi > 0 && lo > hi {
		return fmt.Errorf("%s minimum %d exceeds maximum %d", name, lo, hi)
	}
	return nil
}

// ==========================================
// WIRE TYPES
// ==========================================

// Filter is one provider search condition.
type Filter struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value"`
}

// SearchParams is the provider search request body.
type SearchParams struct {
	Filters  []Filter `json:"filters"`
	Page     int      `json:"page,omitempty"`
	PageSize int      `json:"page_size,omitempty"`
}

// ProviderRecord is one household row as the provider returns it.
type ProviderRecord struct {
	First        string     `json:"first"`
	Last         string     `json:"last"`
	Company      string     `json:"company"`
	Address      string     `json:"address"`
	Address2     string     `json:"address2"`
	City         string     `json:"city"`
	State        string     `json:"st"`
	Zip          FlexString `json:"zip"`
	Plus4        FlexString `json:"plus4"`
	Email        string     `json:"email"`
	Phone        FlexString `json:"phone"`
	APN          string     `json:"apn"`
	PropertyType string     `json:"property_type"`
	EstValue     FlexString `json:"est_value"`
	YearBuilt    FlexString `json:"year_built"`
	DPV          string     `json:"dpv"`
}

// SearchResponse is the provider search response body.
type SearchResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	Records []ProviderRecord `json:"records"`
}

// CountResponse is the provider count response body.
type CountResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Records []ProviderRecord
	Total   int
	Page    int
	HasMore bool
}
