package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// MailingList is the storage shape of a list as it comes back from the
// store, with its tags and campaigns joined in.
type MailingList struct {
	ID             string          `json:"id" db:"id"`
	OrganizationID string          `json:"organization_id,omitempty" db:"organization_id"`
	Name           string          `json:"name" db:"name"`
	Description    string          `json:"description" db:"description"`
	RecordCount    int             `json:"record_count" db:"record_count"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	CreatedBy      string          `json:"created_by,omitempty" db:"created_by"`
	ModifiedAt     *time.Time      `json:"modified_at,omitempty" db:"modified_at"`
	ModifiedBy     string          `json:"modified_by,omitempty" db:"modified_by"`
	Criteria       json.RawMessage `json:"criteria,omitempty" db:"criteria"`
	Metadata       json.RawMessage `json:"metadata,omitempty" db:"metadata"`
	Tags           []TagEntry      `json:"tags"`
	Campaigns      []Campaign      `json:"campaigns"`
}

// TagIDs returns the ids of every well-formed tag on the list, whichever
// shape the entries were stored in.
func (l MailingList) TagIDs() []string {
	ids := make([]string, 0, len(l.Tags))
	for _, t := range l.Tags {
		if t.Valid() && t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// LastMailedDate is the latest effective mail date across the list's
// campaigns, or nil when the list has never been mailed.
func (l MailingList) LastMailedDate() *time.Time {
	var last *time.Time
	for _, c := range l.Campaigns {
		d := c.MailedDate()
		if d == nil {
			continue
		}
		if last == nil || d.After(*last) {
			last = d
		}
	}
	return last
}

// Tag is a label that can be attached to many lists.
type Tag struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// TagEntry is one element of MailingList.Tags. The store returns either a
// flat tag ({"id","name"}) or a join-table row wrapping it ({"tag": {...}}).
// Both decode into the same value; Wrapped records which shape was seen.
//
// Entries whose id or name is missing or not a string decode without error
// but are not Valid.
type TagEntry struct {
	ID      string
	Name    string
	Wrapped bool
	valid   bool
}

// FlatTag builds a TagEntry in the flat shape.
func FlatTag(id, name string) TagEntry {
	return TagEntry{ID: id, Name: name, valid: true}
}

// WrappedTag builds a TagEntry in the {"tag": {...}} shape.
func WrappedTag(id, name string) TagEntry {
	return TagEntry{ID: id, Name: name, Wrapped: true, valid: true}
}

// Valid reports whether the entry carried a string id and a string name.
func (e TagEntry) Valid() bool { return e.valid }

// Tag returns the unwrapped tag and whether the entry was well-formed.
func (e TagEntry) Tag() (Tag, bool) {
	if !e.valid {
		return Tag{}, false
	}
	return Tag{ID: e.ID, Name: e.Name}, true
}

// UnmarshalJSON accepts both tag shapes and never fails on malformed input.
func (e *TagEntry) UnmarshalJSON(data []byte) error {
	*e = TagEntry{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil
	}
	if inner, ok := fields["tag"]; ok {
		e.Wrapped = true
		fields = nil
		if err := json.Unmarshal(inner, &fields); err != nil || fields == nil {
			return nil
		}
	}

	id, idOK := rawString(fields["id"])
	name, nameOK := rawString(fields["name"])
	if idOK {
		e.ID = id
	}
	e.Name = name
	e.valid = idOK && nameOK
	return nil
}

// MarshalJSON writes the entry back in the shape it was read in.
func (e TagEntry) MarshalJSON() ([]byte, error) {
	if !e.valid {
		return []byte("null"), nil
	}
	t := Tag{ID: e.ID, Name: e.Name}
	if e.Wrapped {
		return json.Marshal(struct {
			Tag Tag `json:"tag"`
		}{t})
	}
	return json.Marshal(t)
}

func rawString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// UIMailingList is the flattened list shape the list manager renders.
// It is derived on every request and never persisted.
type UIMailingList struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	RecordCount  int          `json:"recordCount"`
	CreatedAt    time.Time    `json:"createdAt"`
	CreatedBy    string       `json:"createdBy,omitempty"`
	ModifiedDate *time.Time   `json:"modifiedDate,omitempty"`
	ModifiedBy   string       `json:"modifiedBy,omitempty"`
	Tags         []Tag        `json:"tags"`
	Campaigns    []UICampaign `json:"campaigns"`
}
