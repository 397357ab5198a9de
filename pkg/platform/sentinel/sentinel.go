package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally wrapped)
// so services can translate them into domain errors.
//
// These represent factual states about records, not validation failures:
//   - ErrNotFound: entity does not exist in the store
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrInvalidState: entity is not in the state a conditional update required
//   - ErrTimeout: the store cancelled the statement or the context deadline passed
//   - ErrUnavailable: the store could not be reached
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrTimeout      = errors.New("timeout")
	ErrUnavailable  = errors.New("unavailable")
)
