// Package models defines the matching engine's criteria and candidates.
package models

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Mode selects how criteria are interpreted.
type Mode string

const (
	// ModeWildcard treats fields as glob patterns (* and ?), ANDed.
	ModeWildcard Mode = "wildcard"
	// ModeRanked treats fields as free text scored against the lookup projection.
	ModeRanked Mode = "ranked"
)

// ParseMode returns the mode for s. An empty string selects ranked mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeRanked:
		return ModeRanked, true
	case ModeWildcard:
		return ModeWildcard, true
	default:
		return "", false
	}
}

// Criteria is a sparse set of optional identifying fields. An empty field is
// skipped: it neither filters nor scores.
type Criteria struct {
	Mode Mode `json:"mode,omitempty"`

	FirstName  string `json:"first_name,omitempty"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`

	// Address is free text matched against the whole street address (ranked mode).
	Address           string `json:"address,omitempty"`
	HouseNumber       string `json:"house_number,omitempty"`
	HouseNumberSuffix string `json:"house_number_suffix,omitempty"`
	StreetName        string `json:"street_name,omitempty"`
	StreetType        string `json:"street_type,omitempty"`
	Direction         string `json:"direction,omitempty"`
	PostDirection     string `json:"post_direction,omitempty"`
	Apartment         string `json:"apartment,omitempty"`
	City              string `json:"city,omitempty"`
	State             string `json:"state,omitempty"`
	Zip               string `json:"zip,omitempty"`

	// Limit caps the result size. Zero uses the configured default; larger
	// values are clamped to it.
	Limit int `json:"limit,omitempty"`
}

// fields returns pointers to every text field, in a fixed order.
func (c *Criteria) fields() []*string {
	return []*string{
		&c.FirstName, &c.MiddleName, &c.LastName,
		&c.Address, &c.HouseNumber, &c.HouseNumberSuffix, &c.StreetName, &c.StreetType,
		&c.Direction, &c.PostDirection, &c.Apartment, &c.City, &c.State, &c.Zip,
	}
}

// Normalize trims every field and puts it in Unicode NFC form so composed and
// decomposed accents compare equal.
func (c Criteria) Normalize() Criteria {
	for _, f := range c.fields() {
		*f = norm.NFC.String(strings.TrimSpace(*f))
	}
	if c.Mode == "" {
		c.Mode = ModeRanked
	}
	return c
}

// IsEmpty reports whether no identifying field is set.
func (c Criteria) IsEmpty() bool {
	for _, f := range c.fields() {
		if strings.TrimSpace(*f) != "" {
			return false
		}
	}
	return true
}

// HasName reports whether any name field is set.
func (c Criteria) HasName() bool {
	return c.FirstName != "" || c.MiddleName != "" || c.LastName != ""
}

// NameText joins the supplied name fields for full-text matching.
func (c Criteria) NameText() string {
	return joinNonEmpty(c.FirstName, c.MiddleName, c.LastName)
}

// AddressText is the free-text address, or the structured street parts joined
// when no free text was given.
func (c Criteria) AddressText() string {
	if c.Address != "" {
		return c.Address
	}
	return joinNonEmpty(c.HouseNumber, c.HouseNumberSuffix, c.Direction, c.StreetName, c.StreetType, c.PostDirection)
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
