// Package models defines collected signatures and the claims they are verified from.
package models

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"sowell/pkg/domain"
	dErrors "sowell/pkg/domain-errors"
)

// Status is the match outcome of a collected signature.
type Status string

const (
	StatusRecorded  Status = "Recorded"
	StatusMatched   Status = "Matched"
	StatusNoMatch   Status = "No Match Found"
	StatusValidated Status = "Validated"
)

// Statuses lists every match status in display order.
var Statuses = []Status{StatusRecorded, StatusMatched, StatusNoMatch, StatusValidated}

// CountsAsMatch reports whether the signature counts toward a sheet's valid rate.
func (s Status) CountsAsMatch() bool {
	return s == StatusMatched || s == StatusValidated
}

var (
	last4Pattern = regexp.MustCompile(`^[0-9]{4}$`)
	zipPattern   = regexp.MustCompile(`^[0-9]{5}(-?[0-9]{4})?$`)
)

// Column widths of signatures.collected, in characters.
const (
	maxNameLen      = 255
	maxCityLen      = 255
	maxApartmentLen = 50
	maxStateLen     = 50
)

// Claim is what a signer wrote on the sheet. Every field is optional.
type Claim struct {
	VoterID   string `json:"voter_id,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Address   string `json:"address,omitempty"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Last4     string `json:"last_4,omitempty"`
}

// Trimmed returns c with surrounding whitespace removed from every field.
func (c Claim) Trimmed() Claim {
	for _, f := range []*string{&c.VoterID, &c.FirstName, &c.LastName, &c.Address, &c.Apartment, &c.City, &c.State, &c.Zip, &c.Last4} {
		*f = strings.TrimSpace(*f)
	}
	return c
}

// IsEmpty reports whether the claim identifies nobody.
func (c Claim) IsEmpty() bool {
	return c.VoterID == "" && c.FirstName == "" && c.LastName == "" && c.Address == "" && c.City == "" && c.Zip == ""
}

// VerifyRequest asks for one sheet line to be verified and recorded.
type VerifyRequest struct {
	SheetID       int64       `json:"sheet_id"`
	RowNumber     int         `json:"row_number"`
	DateCollected domain.Date `json:"date_collected"`
	Claim         Claim       `json:"claim"`
}

// Validate checks the request shape. rows is the number of lines on a sheet.
func (r VerifyRequest) Validate(rows int) error {
	switch {
	case r.SheetID <= 0:
		return dErrors.New(dErrors.CodeValidation, "sheet_id is required")
	case r.RowNumber < 1 || r.RowNumber > rows:
		return dErrors.Newf(dErrors.CodeValidation, "row_number must be between 1 and %d", rows)
	case r.DateCollected.IsZero():
		return dErrors.New(dErrors.CodeValidation, "date_collected is required")
	case r.Claim.IsEmpty():
		return dErrors.New(dErrors.CodeValidation, "claim must carry a voter id, name or address")
	case r.Claim.Last4 != "" && !last4Pattern.MatchString(r.Claim.Last4):
		return dErrors.New(dErrors.CodeValidation, "last_4 must be exactly 4 digits")
	case r.Claim.Zip != "" && !zipPattern.MatchString(r.Claim.Zip):
		return dErrors.New(dErrors.CodeValidation, "zip must be 5 digits with an optional 4-digit extension")
	}
	return r.Claim.checkLengths()
}

func (c Claim) checkLengths() error {
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"first_name", c.FirstName, maxNameLen},
		{"last_name", c.LastName, maxNameLen},
		{"apartment", c.Apartment, maxApartmentLen},
		{"city", c.City, maxCityLen},
		{"state", c.State, maxStateLen},
	} {
		if utf8.RuneCountInString(f.value) > f.max {
			return dErrors.Newf(dErrors.CodeValidation, "%s must be at most %d characters", f.name, f.max)
		}
	}
	return nil
}

// CollectedSignature is one recorded sheet line.
type CollectedSignature struct {
	ID                int64       `json:"id"`
	SheetID           int64       `json:"sheet_id"`
	RowNumber         int         `json:"row_number"`
	VoterID           *int64      `json:"voter_id"`
	FirstName         string      `json:"first_name"`
	LastName          string      `json:"last_name"`
	FullStreetAddress string      `json:"full_street_address"`
	Apartment         string      `json:"apartment,omitempty"`
	City              string      `json:"city"`
	State             string      `json:"state"`
	Zip               string      `json:"zip"`
	Last4             string      `json:"last_4,omitempty"`
	DateCollected     domain.Date `json:"date_collected"`
	Status            Status      `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// StatusCount is the number of signatures with one match status.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int64  `json:"count"`
}

// Histogram returns a count for every status, in display order.
func Histogram(counts map[Status]int64) []StatusCount {
	out := make([]StatusCount, 0, len(Statuses))
	for _, st := range Statuses {
		out = append(out, StatusCount{Status: st, Count: counts[st]})
	}
	return out
}
