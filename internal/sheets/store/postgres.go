// Package store persists sheets and the circulator and notary reference data.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sowell/internal/platform/postgres"
	"sowell/internal/sheets/models"
	"sowell/pkg/domain"
	"sowell/pkg/platform/sentinel"
	txcontext "sowell/pkg/platform/tx"
)

// PostgresStore reads and writes signatures.sheets.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed sheet store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) conn(ctx context.Context) txcontext.Executor {
	return txcontext.Conn(ctx, s.db)
}

const sheetSelect = `
	SELECT s.id, s.collector_id, c.full_name, s.notary_id, s.notarized_on, s.batch_id,
		s.status, s.created_at, s.updated_at
	FROM signatures.sheets s
	LEFT JOIN signatures.circulators c ON c.id = s.collector_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanSheet(row scanner) (*models.Sheet, error) {
	var (
		sh                       models.Sheet
		collector, notary, batch sql.NullInt64
		collectorName            sql.NullString
		notarized                sql.NullTime
		status                   string
	)
	if err := row.Scan(&sh.ID, &collector, &collectorName, &notary, &notarized, &batch,
		&status, &sh.CreatedAt, &sh.UpdatedAt); err != nil {
		return nil, err
	}
	sh.CollectorID = nullInt(collector)
	sh.CollectorName = collectorName.String
	sh.NotaryID = nullInt(notary)
	sh.BatchID = nullInt(batch)
	if notarized.Valid {
		sh.NotarizedOn = domain.NewDate(notarized.Time)
	}
	sh.Status = models.Status(status)
	return &sh, nil
}

func (s *PostgresStore) querySheets(ctx context.Context, op, query string, args ...any) ([]models.Sheet, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, postgres.Translate(err))
	}
	defer rows.Close()

	out := []models.Sheet{}
	for rows.Next() {
		sh, err := scanSheet(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, *sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return out, nil
}

// Print creates count blank sheets in Printed status.
func (s *PostgresStore) Print(ctx context.Context, count int) ([]models.Sheet, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		INSERT INTO signatures.sheets (status)
		SELECT $2 FROM generate_series(1, $1)
		RETURNING id`, count, string(models.StatusPrinted))
	if err != nil {
		return nil, fmt.Errorf("print sheets: %w", postgres.Translate(err))
	}
	ids := make([]int64, 0, count)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("print sheets: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("print sheets: iterate: %w", err)
	}
	rows.Close()
	return s.querySheets(ctx, "list printed sheets", sheetSelect+` WHERE s.id = ANY($1) ORDER BY s.id`, pq.Array(ids))
}

// FindByID returns the sheet with the given id.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Sheet, error) {
	sh, err := scanSheet(s.conn(ctx).QueryRowContext(ctx, sheetSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sheet %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find sheet: %w", postgres.Translate(err))
	}
	return sh, nil
}

// LockStatus returns the sheet's status under a share lock, so a concurrent
// close or batch change waits for the caller's transaction to finish.
func (s *PostgresStore) LockStatus(ctx context.Context, id int64) (models.Status, error) {
	var status string
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT status FROM signatures.sheets WHERE id = $1 FOR SHARE`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("sheet %d: %w", id, sentinel.ErrNotFound)
		}
		return "", fmt.Errorf("lock sheet: %w", postgres.Translate(err))
	}
	return models.Status(status), nil
}

// Advance moves a sheet from one status to another. It fails with
// ErrInvalidState when the sheet is no longer in from.
func (s *PostgresStore) Advance(ctx context.Context, id int64, from, to models.Status) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE signatures.sheets SET status = $3 WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("advance sheet: %w", postgres.Translate(err))
	}
	return s.expectOne(ctx, res, id)
}

// Close stamps the closing fields and sets Closed in one statement, only when
// the sheet is Summarizing.
func (s *PostgresStore) Close(ctx context.Context, id int64, c models.Closing) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE signatures.sheets
		SET collector_id = $2, notary_id = $3, notarized_on = $4, status = $5
		WHERE id = $1 AND status = $6`,
		id, c.CollectorID, c.NotaryID, c.NotarizedOn.Time(),
		string(models.StatusClosed), string(models.StatusSummarizing))
	if err != nil {
		return fmt.Errorf("close sheet: %w", postgres.Translate(err))
	}
	return s.expectOne(ctx, res, id)
}

// AttachToBatch places a Closed sheet in a batch and sets it Pre-shipment.
func (s *PostgresStore) AttachToBatch(ctx context.Context, id, batchID int64) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE signatures.sheets SET batch_id = $2, status = $3
		WHERE id = $1 AND status = $4 AND batch_id IS NULL`,
		id, batchID, string(models.StatusPreShipment), string(models.StatusClosed))
	if err != nil {
		return fmt.Errorf("attach sheet to batch: %w", postgres.Translate(err))
	}
	return s.expectOne(ctx, res, id)
}

// CascadeStatus sets every member sheet of a batch whose status is in from to
// to. Members in any other status are left alone.
func (s *PostgresStore) CascadeStatus(ctx context.Context, batchID int64, from []models.Status, to models.Status) (int64, error) {
	names := make([]string, len(from))
	for i, st := range from {
		names[i] = string(st)
	}
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE signatures.sheets SET status = $3
		WHERE batch_id = $1 AND status = ANY($2)`,
		batchID, pq.Array(names), string(to))
	if err != nil {
		return 0, fmt.Errorf("cascade sheet status: %w", postgres.Translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cascade sheet status: %w", err)
	}
	return n, nil
}

// ListByBatch returns the member sheets of a batch ordered by id.
func (s *PostgresStore) ListByBatch(ctx context.Context, batchID int64) ([]models.Sheet, error) {
	return s.querySheets(ctx, "list batch sheets", sheetSelect+` WHERE s.batch_id = $1 ORDER BY s.id`, batchID)
}

// ListByStatus returns sheets in one status ordered by id.
func (s *PostgresStore) ListByStatus(ctx context.Context, status models.Status) ([]models.Sheet, error) {
	return s.querySheets(ctx, "list sheets by status", sheetSelect+` WHERE s.status = $1 ORDER BY s.id`, string(status))
}

// expectOne turns a conditional update that touched no row into NotFound
// when the sheet is missing and InvalidState when it is in another status.
func (s *PostgresStore) expectOne(ctx context.Context, res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	var status string
	err = s.conn(ctx).QueryRowContext(ctx, `SELECT status FROM signatures.sheets WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sheet %d: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("recheck sheet: %w", postgres.Translate(err))
	}
	return fmt.Errorf("sheet %d is %s: %w", id, status, sentinel.ErrInvalidState)
}

// StatusCounts counts sheets per status.
func (s *PostgresStore) StatusCounts(ctx context.Context) (map[models.Status]int64, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `SELECT status, COUNT(id) FROM signatures.sheets GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count sheets: %w", postgres.Translate(err))
	}
	defer rows.Close()

	counts := map[models.Status]int64{}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan sheet count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sheet counts: %w", err)
	}
	return counts, nil
}

var catalogTables = map[models.CatalogKind]string{
	models.CatalogSheet:     "meta.sheet_status",
	models.CatalogBatch:     "meta.batch_status",
	models.CatalogSignature: "meta.signature_status",
}

// Catalog returns the status definitions of one kind in display order.
func (s *PostgresStore) Catalog(ctx context.Context, kind models.CatalogKind) ([]models.StatusDefinition, error) {
	table, ok := catalogTables[kind]
	if !ok {
		return nil, fmt.Errorf("catalog %q: %w", kind, sentinel.ErrNotFound)
	}
	rows, err := s.conn(ctx).QueryContext(ctx, fmt.Sprintf(
		`SELECT status, COALESCE(description, ''), COALESCE("order", 0) FROM %s ORDER BY "order", status`, table))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, postgres.Translate(err))
	}
	defer rows.Close()

	out := []models.StatusDefinition{}
	for rows.Next() {
		var d models.StatusDefinition
		if err := rows.Scan(&d.Status, &d.Description, &d.Order); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

// Circulators lists circulators ordered by name.
func (s *PostgresStore) Circulators(ctx context.Context) ([]models.Circulator, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT id, full_name, address_1, COALESCE(address_2, ''), city, state, zip
		FROM signatures.circulators ORDER BY full_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list circulators: %w", postgres.Translate(err))
	}
	defer rows.Close()

	out := []models.Circulator{}
	for rows.Next() {
		var c models.Circulator
		if err := rows.Scan(&c.ID, &c.FullName, &c.Address1, &c.Address2, &c.City, &c.State, &c.Zip); err != nil {
			return nil, fmt.Errorf("scan circulator: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate circulators: %w", err)
	}
	return out, nil
}

// FindCirculator returns the circulator with the given id.
func (s *PostgresStore) FindCirculator(ctx context.Context, id int64) (*models.Circulator, error) {
	var c models.Circulator
	err := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, full_name, address_1, COALESCE(address_2, ''), city, state, zip
		FROM signatures.circulators WHERE id = $1`, id).
		Scan(&c.ID, &c.FullName, &c.Address1, &c.Address2, &c.City, &c.State, &c.Zip)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("circulator %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find circulator: %w", postgres.Translate(err))
	}
	return &c, nil
}

// Notaries lists notaries ordered by name.
func (s *PostgresStore) Notaries(ctx context.Context) ([]models.Notary, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT id, full_name, registration_number, commission_expiration, commission_state
		FROM signatures.notaries ORDER BY full_name, id`)
	if err != nil {
		return nil, fmt.Errorf("list notaries: %w", postgres.Translate(err))
	}
	defer rows.Close()

	out := []models.Notary{}
	for rows.Next() {
		n, err := scanNotary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notary: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notaries: %w", err)
	}
	return out, nil
}

// FindNotary returns the notary with the given id.
func (s *PostgresStore) FindNotary(ctx context.Context, id int64) (*models.Notary, error) {
	n, err := scanNotary(s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, full_name, registration_number, commission_expiration, commission_state
		FROM signatures.notaries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("notary %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find notary: %w", postgres.Translate(err))
	}
	return n, nil
}

func scanNotary(row scanner) (*models.Notary, error) {
	var (
		n       models.Notary
		expires time.Time
	)
	if err := row.Scan(&n.ID, &n.FullName, &n.RegistrationNumber, &expires, &n.CommissionState); err != nil {
		return nil, err
	}
	n.CommissionExpiration = domain.NewDate(expires)
	return &n, nil
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
