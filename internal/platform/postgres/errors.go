package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"sowell/pkg/platform/sentinel"
)

// Postgres error codes the stores care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeQueryCanceled       = "57014"
)

// Translate maps driver errors onto sentinel facts while keeping the original
// error in the chain. Unrecognised errors are returned unchanged.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", sentinel.ErrTimeout, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", sentinel.ErrConflict, pqErr.Constraint)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", sentinel.ErrNotFound, pqErr.Constraint)
		case codeCheckViolation:
			return fmt.Errorf("%w: %s", sentinel.ErrInvalidState, pqErr.Constraint)
		case codeQueryCanceled:
			return fmt.Errorf("%w: %w", sentinel.ErrTimeout, err)
		}
	}
	return err
}
