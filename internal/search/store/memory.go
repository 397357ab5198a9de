package store

import (
	"context"
	"regexp"
	"sort"
	"strings"

	electorate "sowell/internal/electorate/store"
	"sowell/internal/search/models"
)

// Roll is the part of the in-memory voter roll the search store reads.
type Roll interface {
	Residents(ctx context.Context) []electorate.Resident
}

// InMemoryStore evaluates searches over an in-memory roll. Wildcard mode has
// the same semantics as Postgres LIKE; ranked mode approximates full-text rank
// with word coverage and uses pg_trgm's similarity definition.
type InMemoryStore struct {
	roll    Roll
	weights models.Weights
}

// NewInMemory creates a search store over roll.
func NewInMemory(roll Roll, w models.Weights) *InMemoryStore {
	return &InMemoryStore{roll: roll, weights: w}
}

func (s *InMemoryStore) Wildcard(ctx context.Context, q models.WildcardQuery, limit int) ([]models.Candidate, error) {
	type check struct {
		re    *regexp.Regexp
		value func(electorate.Resident) string
	}
	var checks []check
	addLike := func(pattern string, value func(electorate.Resident) string) {
		if pattern != "" {
			checks = append(checks, check{re: likeRegexp(pattern), value: value})
		}
	}
	addLike(q.FirstName, func(r electorate.Resident) string { return r.Voter.FirstName })
	addLike(q.MiddleName, func(r electorate.Resident) string { return r.Voter.MiddleName })
	addLike(q.LastName, func(r electorate.Resident) string { return r.Voter.LastName })
	addLike(q.HouseNumber, func(r electorate.Resident) string { return r.Address.HouseNumber })
	addLike(q.HouseNumberSuffix, func(r electorate.Resident) string { return r.Address.HouseNumberSuffix })
	addLike(q.StreetName, func(r electorate.Resident) string { return r.Address.StreetName })
	addLike(q.StreetType, func(r electorate.Resident) string { return r.Address.StreetType })
	addLike(q.Apartment, func(r electorate.Resident) string { return r.Address.AptNum })
	addLike(q.City, func(r electorate.Resident) string { return r.Address.City })
	addLike(q.Zip, func(r electorate.Resident) string { return r.Address.Zip })

	out := []models.Candidate{}
	for _, r := range sortedByName(s.roll.Residents(ctx)) {
		if !equalUpper(q.Direction, r.Address.Direction) ||
			!equalUpper(q.PostDirection, r.Address.PostDirection) ||
			!equalUpper(q.State, r.Address.State) {
			continue
		}
		ok := true
		for _, c := range checks {
			if !c.re.MatchString(strings.ToLower(c.value(r))) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, fromResident(r))
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *InMemoryStore) Ranked(ctx context.Context, c models.Criteria, limit int) ([]models.Candidate, error) {
	addrText := c.AddressText()
	out := []models.Candidate{}
	for _, r := range s.roll.Residents(ctx) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, a := r.Voter, r.Address
		fullName := strings.Join([]string{v.FirstName, v.MiddleName, v.LastName, v.Suffix}, " ")
		street := strings.Join([]string{a.HouseNumber, a.HouseNumberSuffix, a.StreetName, a.StreetType, a.Direction, a.PostDirection, a.AptNum}, " ")

		if addrText != "" && !matchesAll(street, addrText) {
			continue
		}
		if c.City != "" && !matchesAll(a.City, c.City) {
			continue
		}
		if c.Zip != "" && !strings.HasPrefix(a.Zip5(), c.Zip) {
			continue
		}
		if c.State != "" && !strings.EqualFold(c.State, a.State) {
			continue
		}
		if c.Apartment != "" && !strings.EqualFold(c.Apartment, a.AptNum) {
			continue
		}

		var sc models.Scores
		if c.HasName() {
			sc.NameRank = tokenCoverage(fullName, c.NameText())
		}
		if addrText != "" {
			sc.AddressRank = tokenCoverage(street, addrText)
		}
		if c.FirstName != "" {
			sc.FirstSim = similarity(v.FirstName, c.FirstName)
		}
		if c.LastName != "" {
			sc.LastSim = similarity(v.LastName, c.LastName)
		}
		if c.MiddleName != "" {
			sc.MiddleSim = similarity(v.MiddleName, c.MiddleName)
		}

		if c.HasName() && !nameIncluded(fullName, c, sc) {
			continue
		}
		cand := fromResident(r)
		cand.Scores = &sc
		out = append(out, cand)
	}

	models.Rank(out, s.weights)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func nameIncluded(fullName string, c models.Criteria, sc models.Scores) bool {
	if matchesAll(fullName, c.NameText()) ||
		(c.FirstName != "" && matchesAll(fullName, c.FirstName)) ||
		(c.LastName != "" && matchesAll(fullName, c.LastName)) {
		return true
	}
	return sc.FirstSim > models.MinSimilarity ||
		sc.MiddleSim > models.MinSimilarity ||
		sc.LastSim > models.MinSimilarity
}

// likeRegexp compiles an escaped LIKE pattern into an anchored regexp.
func likeRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString("(?s:.*)")
		case r == '_':
			b.WriteString("(?s:.)")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func equalUpper(want, got string) bool {
	return want == "" || want == strings.ToUpper(got)
}

func fromResident(r electorate.Resident) models.Candidate {
	v, a := r.Voter, r.Address
	c := models.Candidate{
		IdentificationNumber: v.IdentificationNumber,
		FirstName:            v.FirstName,
		MiddleName:           v.MiddleName,
		LastName:             v.LastName,
		Suffix:               v.Suffix,
		Status:               v.Status,
		HouseNumber:          a.HouseNumber,
		HouseNumberSuffix:    a.HouseNumberSuffix,
		StreetName:           a.StreetName,
		StreetType:           a.StreetType,
		Direction:            a.Direction,
		PostDirection:        a.PostDirection,
		Apartment:            a.AptNum,
		City:                 a.City,
		State:                a.State,
		Zip:                  a.Zip5(),
	}
	c.Address = a.FullStreetAddress()
	return c
}

func sortedByName(rs []electorate.Resident) []electorate.Resident {
	out := make([]electorate.Resident, len(rs))
	copy(out, rs)
	sortResidents(out)
	return out
}

func sortResidents(rs []electorate.Resident) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i].Voter, rs[j].Voter
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.IdentificationNumber < b.IdentificationNumber
	})
}
