package domain

import "time"

// SuppressionReason enumerates why a recipient must not be mailed.
type SuppressionReason string

const (
	ReasonOptOut       SuppressionReason = "opt_out"
	ReasonDeceased     SuppressionReason = "deceased"
	ReasonMoved        SuppressionReason = "moved"
	ReasonReturnedMail SuppressionReason = "returned_mail"
	ReasonManual       SuppressionReason = "manual"
)

// Valid reports whether r is a known reason.
func (r SuppressionReason) Valid() bool {
	switch r {
	case ReasonOptOut, ReasonDeceased, ReasonMoved, ReasonReturnedMail, ReasonManual:
		return true
	}
	return false
}

// SuppressionSource indicates where the suppression signal originated.
type SuppressionSource string

const (
	SourceManual       SuppressionSource = "manual"
	SourceImport       SuppressionSource = "import"
	SourceReturnedMail SuppressionSource = "returned_mail"
	SourceNCOA         SuppressionSource = "ncoa"
)

// Valid reports whether s is a known source.
func (s SuppressionSource) Valid() bool {
	switch s {
	case SourceManual, SourceImport, SourceReturnedMail, SourceNCOA:
		return true
	}
	return false
}

// Suppression is one entry of an organization's do-not-mail list. It
// matches records by email, by delivery point (see AddressKey), or both.
type Suppression struct {
	ID             string            `json:"id" db:"id"`
	OrganizationID string            `json:"organization_id" db:"organization_id"`
	Email          string            `json:"email,omitempty" db:"email"`
	AddressKey     string            `json:"address_key,omitempty" db:"address_key"`
	Reason         SuppressionReason `json:"reason" db:"reason"`
	Source         SuppressionSource `json:"source" db:"source"`
	Note           string            `json:"note,omitempty" db:"note"`
	CreatedAt      time.Time         `json:"created_at" db:"created_at"`
}
