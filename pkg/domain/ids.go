package domain

import (
	"strconv"
	"strings"

	dErrors "sowell/pkg/domain-errors"
)

// ParseVoterID parses a voter identification number from external input.
// An empty string yields 0 with no error: the claim simply carries no id.
//
// Errors: CodeValidation when the value is not a positive integer.
func ParseVoterID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.Newf(dErrors.CodeValidation, "voter_id must be a positive number, got %q", s)
	}
	return id, nil
}

// ParseID parses a positive entity id from a path segment.
func ParseID(field, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.Newf(dErrors.CodeValidation, "%s must be a positive integer", field)
	}
	return id, nil
}
