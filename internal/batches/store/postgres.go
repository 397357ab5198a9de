// Package store persists shipment batches.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sowell/internal/batches/models"
	"sowell/internal/platform/postgres"
	"sowell/pkg/domain"
	"sowell/pkg/platform/sentinel"
	txcontext "sowell/pkg/platform/tx"
)

// createAttempts bounds the insert-or-select loop in Create. A retry is only
// needed when the Building batch found by the insert is closed before the
// select reads it.
const createAttempts = 3

// PostgresStore reads and writes signatures.batches. The single Building
// batch is enforced by the batches_single_building partial unique index.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed batch store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) conn(ctx context.Context) txcontext.Executor {
	return txcontext.Conn(ctx, s.db)
}

const batchColumns = `id, carrier, tracking_number, ship_date, arrival_date, status, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (*models.Batch, error) {
	var (
		b                 models.Batch
		carrier, tracking sql.NullString
		shipped, arrived  sql.NullTime
		status            string
	)
	if err := row.Scan(&b.ID, &carrier, &tracking, &shipped, &arrived,
		&status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Carrier = carrier.String
	b.TrackingNumber = tracking.String
	if shipped.Valid {
		b.ShipDate = domain.NewDate(shipped.Time)
	}
	if arrived.Valid {
		b.ArrivalDate = domain.NewDate(arrived.Time)
	}
	b.Status = models.Status(status)
	return &b, nil
}

// Create inserts a Building batch, or returns the existing one with
// created=false when another Building batch already holds the index.
func (s *PostgresStore) Create(ctx context.Context) (*models.Batch, bool, error) {
	for attempt := 0; attempt < createAttempts; attempt++ {
		b, err := scanBatch(s.conn(ctx).QueryRowContext(ctx, `
			INSERT INTO signatures.batches (status) VALUES ($1)
			ON CONFLICT (status) WHERE status = 'Building' DO NOTHING
			RETURNING `+batchColumns, string(models.StatusBuilding)))
		if err == nil {
			return b, true, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("create batch: %w", postgres.Translate(err))
		}

		existing, err := s.FindBuilding(ctx)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, err
		}
	}
	return nil, false, fmt.Errorf("create batch: building batch kept changing: %w", sentinel.ErrConflict)
}

// FindByID returns the batch with the given id.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Batch, error) {
	b, err := scanBatch(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM signatures.batches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("batch %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find batch: %w", postgres.Translate(err))
	}
	return b, nil
}

// FindBuilding returns the Building batch under a share lock, so it cannot be
// closed until the caller's transaction ends.
func (s *PostgresStore) FindBuilding(ctx context.Context) (*models.Batch, error) {
	b, err := scanBatch(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+batchColumns+` FROM signatures.batches WHERE status = $1 FOR SHARE`,
		string(models.StatusBuilding)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("building batch: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find building batch: %w", postgres.Translate(err))
	}
	return b, nil
}

// List returns every batch, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]models.Batch, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+batchColumns+` FROM signatures.batches ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", postgres.Translate(err))
	}
	defer rows.Close()

	out := []models.Batch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("list batches: scan: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batches: iterate: %w", err)
	}
	return out, nil
}

// Transition moves a batch from one status to another and stamps the fields
// in u. It fails with ErrInvalidState when the batch is no longer in from.
func (s *PostgresStore) Transition(ctx context.Context, id int64, from, to models.Status, u models.Update) error {
	var carrier, tracking sql.NullString
	var shipDate *time.Time
	if u.Shipment != nil {
		carrier = nullString(u.Shipment.Carrier)
		tracking = nullString(u.Shipment.TrackingNumber)
		shipDate = u.Shipment.ShipDate.Ptr()
	}
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE signatures.batches
		SET status = $3,
			carrier = COALESCE($4, carrier),
			tracking_number = COALESCE($5, tracking_number),
			ship_date = COALESCE($6, ship_date),
			arrival_date = COALESCE($7, arrival_date)
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), carrier, tracking, shipDate, u.ArrivalDate.Ptr())
	if err != nil {
		return fmt.Errorf("transition batch: %w", postgres.Translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	current, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("batch %d is %s: %w", id, current.Status, sentinel.ErrInvalidState)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
