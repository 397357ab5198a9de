// Package models holds the voter-roll records loaded from the authoritative roll.
// They are read-only to this service.
package models

import (
	"strings"
	"time"
)

// Voter is one registered voter.
type Voter struct {
	IdentificationNumber int64
	FirstName            string
	MiddleName           string
	LastName             string
	Suffix               string
	Gender               string
	DOB                  *time.Time
	RegistrationDate     *time.Time
	EffectiveDate        *time.Time
	// Status is the registration status from the roll, not a lifecycle state.
	Status             string
	ResidenceAddressID int64
	MailingAddressID   *int64
	LocalityID         *int64
}

// Address is a postal address. Several voters may share one.
type Address struct {
	ID                int64
	HouseNumber       string
	HouseNumberSuffix string
	StreetName        string
	StreetType        string
	Direction         string
	PostDirection     string
	AptNum            string
	City              string
	State             string
	Zip               string
}

// FullStreetAddress joins house number, suffix, direction, street name, street
// type and post-direction with single spaces, skipping blank parts.
func (a Address) FullStreetAddress() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.HouseNumber, a.HouseNumberSuffix, a.Direction, a.StreetName, a.StreetType, a.PostDirection} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Zip5 returns the first five characters of the zip code.
func (a Address) Zip5() string {
	zip := []rune(strings.TrimSpace(a.Zip))
	if len(zip) > 5 {
		zip = zip[:5]
	}
	return string(zip)
}

// Locality is the voting jurisdiction a voter belongs to.
type Locality struct {
	ID           int64
	Code         string
	Name         string
	PrecinctCode string
	TownCode     string
}

// ValueCount is one distinct classification value and how many addresses carry it.
type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Directions groups the distinct pre- and post-directions.
type Directions struct {
	Directions     []ValueCount `json:"directions"`
	PostDirections []ValueCount `json:"post_directions"`
}
