// Package store persists collected signatures.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"sowell/internal/platform/postgres"
	sheets "sowell/internal/sheets/models"
	"sowell/internal/signatures/models"
	"sowell/pkg/domain"
	"sowell/pkg/platform/sentinel"
	txcontext "sowell/pkg/platform/tx"
)

// PostgresStore writes signatures.collected.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed signature store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) conn(ctx context.Context) txcontext.Executor {
	return txcontext.Conn(ctx, s.db)
}

const upsertSQL = `
	INSERT INTO signatures.collected (
		sheet_id, row_number, voter_id, first_name, last_name, full_street_address,
		apt, city, state, zip, last_4, date_collected, status
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT ON CONSTRAINT collected_sheet_row_unique DO UPDATE SET
		voter_id = EXCLUDED.voter_id,
		first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		full_street_address = EXCLUDED.full_street_address,
		apt = EXCLUDED.apt,
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		zip = EXCLUDED.zip,
		last_4 = EXCLUDED.last_4,
		date_collected = EXCLUDED.date_collected,
		status = EXCLUDED.status
	RETURNING id, created_at, updated_at`

// Upsert records sig under its (sheet, row) key, replacing any earlier entry
// for that line. The stored id and creation time survive a replacement.
func (s *PostgresStore) Upsert(ctx context.Context, sig *models.CollectedSignature) error {
	var voterID sql.NullInt64
	if sig.VoterID != nil {
		voterID = sql.NullInt64{Int64: *sig.VoterID, Valid: true}
	}
	err := s.conn(ctx).QueryRowContext(ctx, upsertSQL,
		sig.SheetID, sig.RowNumber, voterID,
		nullString(sig.FirstName), nullString(sig.LastName), nullString(sig.FullStreetAddress),
		nullString(sig.Apartment), nullString(sig.City), nullString(sig.State), nullString(sig.Zip),
		nullString(sig.Last4), sig.DateCollected.Time(), string(sig.Status),
	).Scan(&sig.ID, &sig.CreatedAt, &sig.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert signature sheet %d row %d: %w", sig.SheetID, sig.RowNumber, postgres.Translate(err))
	}
	return nil
}

// Find returns the signature recorded on a sheet line.
func (s *PostgresStore) Find(ctx context.Context, sheetID int64, row int) (*models.CollectedSignature, error) {
	r := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, sheet_id, row_number, voter_id, first_name, last_name, full_street_address,
			apt, city, state, zip, last_4, date_collected, status, created_at, updated_at
		FROM signatures.collected
		WHERE sheet_id = $1 AND row_number = $2`, sheetID, row)

	var (
		sig       models.CollectedSignature
		voterID   sql.NullInt64
		cols      [8]sql.NullString
		collected time.Time
		status    string
	)
	err := r.Scan(&sig.ID, &sig.SheetID, &sig.RowNumber, &voterID,
		&cols[0], &cols[1], &cols[2], &cols[3], &cols[4], &cols[5], &cols[6], &cols[7],
		&collected, &status, &sig.CreatedAt, &sig.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("signature sheet %d row %d: %w", sheetID, row, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find signature: %w", postgres.Translate(err))
	}
	if voterID.Valid {
		sig.VoterID = &voterID.Int64
	}
	sig.FirstName, sig.LastName, sig.FullStreetAddress = cols[0].String, cols[1].String, cols[2].String
	sig.Apartment, sig.City, sig.State, sig.Zip, sig.Last4 = cols[3].String, cols[4].String, cols[5].String, cols[6].String, cols[7].String
	sig.DateCollected = domain.NewDate(collected)
	sig.Status = models.Status(status)
	return &sig, nil
}

// StatusCounts counts signatures per match status, optionally for one sheet.
func (s *PostgresStore) StatusCounts(ctx context.Context, sheetID *int64) (map[models.Status]int64, error) {
	var filter sql.NullInt64
	if sheetID != nil {
		filter = sql.NullInt64{Int64: *sheetID, Valid: true}
	}
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT status, COUNT(id) FROM signatures.collected
		WHERE $1::BIGINT IS NULL OR sheet_id = $1
		GROUP BY status`, filter)
	if err != nil {
		return nil, fmt.Errorf("count signatures: %w", postgres.Translate(err))
	}
	defer rows.Close()

	counts := map[models.Status]int64{}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan signature count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signature counts: %w", err)
	}
	return counts, nil
}

// TallyBySheet returns signature totals for each requested sheet. Sheets with
// no signatures are absent from the result.
func (s *PostgresStore) TallyBySheet(ctx context.Context, sheetIDs []int64) (map[int64]sheets.Tally, error) {
	out := map[int64]sheets.Tally{}
	if len(sheetIDs) == 0 {
		return out, nil
	}
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT sheet_id,
			COUNT(id),
			COUNT(id) FILTER (WHERE status IN ($2, $3)),
			MAX(date_collected)
		FROM signatures.collected
		WHERE sheet_id = ANY($1)
		GROUP BY sheet_id`,
		pq.Array(sheetIDs), string(models.StatusMatched), string(models.StatusValidated))
	if err != nil {
		return nil, fmt.Errorf("tally signatures: %w", postgres.Translate(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			t    sheets.Tally
			last sql.NullTime
		)
		if err := rows.Scan(&id, &t.Total, &t.Matched, &last); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		if last.Valid {
			t.LastCollected = &last.Time
		}
		out[id] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tallies: %w", err)
	}
	return out, nil
}

// PrintRows returns the recorded lines of a sheet ordered by row number.
func (s *PostgresStore) PrintRows(ctx context.Context, sheetID int64) ([]sheets.PrintRow, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT row_number, voter_id, first_name, last_name, full_street_address,
			apt, city, state, zip, date_collected, last_4
		FROM signatures.collected
		WHERE sheet_id = $1
		ORDER BY row_number`, sheetID)
	if err != nil {
		return nil, fmt.Errorf("list sheet rows: %w", postgres.Translate(err))
	}
	defer rows.Close()

	out := []sheets.PrintRow{}
	for rows.Next() {
		var (
			r         sheets.PrintRow
			voterID   sql.NullInt64
			cols      [7]sql.NullString
			collected time.Time
			last4     sql.NullString
		)
		if err := rows.Scan(&r.RowNumber, &voterID, &cols[0], &cols[1], &cols[2],
			&cols[3], &cols[4], &cols[5], &cols[6], &collected, &last4); err != nil {
			return nil, fmt.Errorf("scan sheet row: %w", err)
		}
		if voterID.Valid {
			r.VoterID = &voterID.Int64
		}
		r.FirstName, r.LastName, r.Address = cols[0].String, cols[1].String, cols[2].String
		r.Apartment, r.City, r.State, r.Zip = cols[3].String, cols[4].String, cols[5].String, cols[6].String
		r.DateCollected = domain.NewDate(collected)
		r.Last4 = last4.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sheet rows: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
