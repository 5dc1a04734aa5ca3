package accuzip

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ignite/directmail/internal/domain"
)

// propertyData is stored in Record.Data for rows pulled from the provider.
type propertyData struct {
	Source       string `json:"source"`
	APN          string `json:"apn,omitempty"`
	PropertyType string `json:"property_type,omitempty"`
	EstValue     string `json:"est_value,omitempty"`
	YearBuilt    string `json:"year_built,omitempty"`
	DPV          string `json:"dpv,omitempty"`
}

// ToRecord converts a provider row into a list record. Names, street and
// city arrive upper-case and are title-cased; the zip carries its +4 when
// the provider sent one.
func ToRecord(p ProviderRecord, listID string) domain.Record {
	title := cases.Title(language.English)

	address := strings.TrimSpace(p.Address)
	if a2 := strings.TrimSpace(p.Address2); a2 != "" {
		address += " " + a2
	}

	zip := strings.TrimSpace(string(p.Zip))
	if len(zip) > 0 && len(zip) < 5 {
		zip = strings.Repeat("0", 5-len(zip)) + zip
	}
	if plus4 := strings.TrimSpace(string(p.Plus4)); plus4 != "" && zip != "" {
		zip += "-" + plus4
	}

	data, _ := json.Marshal(propertyData{
		Source:       "accuzip",
		APN:          strings.TrimSpace(p.APN),
		PropertyType: strings.ToLower(strings.TrimSpace(p.PropertyType)),
		EstValue:     strings.TrimSpace(string(p.EstValue)),
		YearBuilt:    strings.TrimSpace(string(p.YearBuilt)),
		DPV:          strings.TrimSpace(p.DPV),
	})

	return domain.Record{
		ListID:    listID,
		FirstName: title.String(strings.TrimSpace(p.First)),
		LastName:  title.String(strings.TrimSpace(p.Last)),
		Company:   title.String(strings.TrimSpace(p.Company)),
		Address:   title.String(address),
		City:      title.String(strings.TrimSpace(p.City)),
		State:     strings.ToUpper(strings.TrimSpace(p.State)),
		Zip:       zip,
		Email:     strings.ToLower(strings.TrimSpace(p.Email)),
		Phone:     strings.TrimSpace(string(p.Phone)),
		Status:    domain.RecordActive,
		Tags:      []string{},
		Data:      data,
	}
}
