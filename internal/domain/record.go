package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// RecordStatus enumerates the states a list record can be in.
type RecordStatus string

const (
	RecordActive     RecordStatus = "active"
	RecordDuplicate  RecordStatus = "duplicate"
	RecordSuppressed RecordStatus = "suppressed"
	RecordInvalid    RecordStatus = "invalid"
)

// Record is a single contact/property row belonging to exactly one list.
type Record struct {
	ID        string          `json:"id" db:"id"`
	ListID    string          `json:"list_id" db:"list_id"`
	FirstName string          `json:"first_name" db:"first_name"`
	LastName  string          `json:"last_name" db:"last_name"`
	Company   string          `json:"company,omitempty" db:"company"`
	Address   string          `json:"address" db:"address"`
	City      string          `json:"city" db:"city"`
	State     string          `json:"state" db:"state"`
	Zip       string          `json:"zip" db:"zip"`
	Email     string          `json:"email,omitempty" db:"email"`
	Phone     string          `json:"phone,omitempty" db:"phone"`
	Status    RecordStatus    `json:"status" db:"status"`
	Tags      []string        `json:"tags" db:"tags"`
	Data      json.RawMessage `json:"data,omitempty" db:"data"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// AddressKey identifies a delivery point: the lower-cased street line with
// runs of whitespace collapsed, plus the 5-digit zip. It is empty unless
// both parts are present.
func AddressKey(address, zip string) string {
	address = strings.ToLower(strings.Join(strings.Fields(address), " "))
	zip = strings.TrimSpace(zip)
	if address == "" || zip == "" {
		return ""
	}
	if len(zip) > 5 {
		zip = zip[:5]
	}
	return address + "|" + zip
}
