package models

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxPatternLength bounds a single wildcard pattern, in runes.
const MaxPatternLength = 64

var lower = cases.Lower(language.Und)

// PatternError describes a rejected wildcard pattern.
type PatternError struct {
	Field  string
	Reason string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// LikePattern turns a glob pattern into a lower-cased LIKE pattern using
// backslash as the escape character. Literal %, _ and \ are escaped; * becomes
// % and ? becomes _.
func LikePattern(field, glob string) (string, error) {
	if err := checkPattern(field, glob); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, r := range lower.String(glob) {
		switch r {
		case '\\', '%', '_':
			b.WriteRune('\\')
			b.WriteRune(r)
		case '*':
			b.WriteRune('%')
		case '?':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// PrefixPattern matches values starting with literal s. Wildcard characters in
// s are taken literally.
func PrefixPattern(field, s string) (string, error) {
	if err := checkPattern(field, s); err != nil {
		return "", err
	}
	return EscapeLike(lower.String(s)) + "%", nil
}

// EscapeLike escapes LIKE metacharacters so s matches only itself.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Exact normalizes a value compared with equality (states, directions).
func Exact(field, s string) (string, error) {
	if err := checkPattern(field, s); err != nil {
		return "", err
	}
	return strings.ToUpper(s), nil
}

func checkPattern(field, s string) error {
	if utf8.RuneCountInString(s) > MaxPatternLength {
		return &PatternError{Field: field, Reason: fmt.Sprintf("longer than %d characters", MaxPatternLength)}
	}
	onlyWildcards := true
	for _, r := range s {
		if unicode.IsControl(r) {
			return &PatternError{Field: field, Reason: "contains control characters"}
		}
		if r != '*' && r != '?' && !unicode.IsSpace(r) {
			onlyWildcards = false
		}
	}
	if onlyWildcards {
		return &PatternError{Field: field, Reason: "must contain at least one non-wildcard character"}
	}
	return nil
}

// WildcardQuery is criteria compiled for wildcard mode. Empty fields are skipped.
type WildcardQuery struct {
	FirstName         string
	MiddleName        string
	LastName          string
	HouseNumber       string
	HouseNumberSuffix string
	StreetName        string
	StreetType        string
	Apartment         string
	City              string
	// Direction, PostDirection and State are upper-cased equality values.
	Direction     string
	PostDirection string
	State         string
	// Zip is a prefix pattern.
	Zip string
}

// CompileWildcard validates every supplied field and converts it for the store.
func CompileWildcard(c Criteria) (WildcardQuery, error) {
	var q WildcardQuery
	likes := []struct {
		name string
		in   string
		out  *string
	}{
		{"first_name", c.FirstName, &q.FirstName},
		{"middle_name", c.MiddleName, &q.MiddleName},
		{"last_name", c.LastName, &q.LastName},
		{"house_number", c.HouseNumber, &q.HouseNumber},
		{"house_number_suffix", c.HouseNumberSuffix, &q.HouseNumberSuffix},
		{"street_name", c.StreetName, &q.StreetName},
		{"street_type", c.StreetType, &q.StreetType},
		{"apartment", c.Apartment, &q.Apartment},
		{"city", c.City, &q.City},
	}
	for _, f := range likes {
		if f.in == "" {
			continue
		}
		p, err := LikePattern(f.name, f.in)
		if err != nil {
			return WildcardQuery{}, err
		}
		*f.out = p
	}

	exacts := []struct {
		name string
		in   string
		out  *string
	}{
		{"direction", c.Direction, &q.Direction},
		{"post_direction", c.PostDirection, &q.PostDirection},
		{"state", c.State, &q.State},
	}
	for _, f := range exacts {
		if f.in == "" {
			continue
		}
		v, err := Exact(f.name, f.in)
		if err != nil {
			return WildcardQuery{}, err
		}
		*f.out = v
	}

	if c.Zip != "" {
		p, err := PrefixPattern("zip", c.Zip)
		if err != nil {
			return WildcardQuery{}, err
		}
		q.Zip = p
	}
	if c.Address != "" {
		return WildcardQuery{}, &PatternError{Field: "address", Reason: "free-text address is only supported in ranked mode; use the street fields"}
	}
	return q, nil
}

// IsEmpty reports whether the query has no filters.
func (q WildcardQuery) IsEmpty() bool {
	return q == WildcardQuery{}
}
