// Package store reads the voter roll. The roll is written only by the bulk
// loader; this package never mutates voter or address rows.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sowell/internal/electorate/models"
	"sowell/internal/platform/postgres"
	"sowell/pkg/platform/sentinel"
	txcontext "sowell/pkg/platform/tx"
)

// PostgresStore reads voters and addresses from the electorate schema.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed voter roll reader.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) conn(ctx context.Context) txcontext.Executor {
	return txcontext.Conn(ctx, s.db)
}

const voterColumns = `identification_number, first_name, middle_name, last_name, suffix, gender,
	dob, registration_date, effective_date, status, residence_address_id, mailing_address_id, locality_id`

// FindVoter returns the voter with the given identification number.
func (s *PostgresStore) FindVoter(ctx context.Context, id int64) (*models.Voter, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+voterColumns+` FROM electorate.voters WHERE identification_number = $1`, id)

	var (
		v                                   models.Voter
		first, middle, last, suffix, gender sql.NullString
		status                              sql.NullString
		dob, registered, effective          sql.NullTime
		mailing, locality                   sql.NullInt64
	)
	err := row.Scan(&v.IdentificationNumber, &first, &middle, &last, &suffix, &gender,
		&dob, &registered, &effective, &status, &v.ResidenceAddressID, &mailing, &locality)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("voter %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find voter: %w", postgres.Translate(err))
	}
	v.FirstName, v.MiddleName, v.LastName = first.String, middle.String, last.String
	v.Suffix, v.Gender, v.Status = suffix.String, gender.String, status.String
	v.DOB = nullTime(dob)
	v.RegistrationDate = nullTime(registered)
	v.EffectiveDate = nullTime(effective)
	v.MailingAddressID = nullInt(mailing)
	v.LocalityID = nullInt(locality)
	return &v, nil
}

// FindAddress returns the address with the given id.
func (s *PostgresStore) FindAddress(ctx context.Context, id int64) (*models.Address, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, house_number, house_number_suffix, street_name, street_type, direction,
			post_direction, apt_num, city, state, zip
		FROM electorate.address WHERE id = $1`, id)

	var (
		a    models.Address
		cols [10]sql.NullString
	)
	err := row.Scan(&a.ID, &cols[0], &cols[1], &cols[2], &cols[3], &cols[4],
		&cols[5], &cols[6], &cols[7], &cols[8], &cols[9])
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("address %d: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find address: %w", postgres.Translate(err))
	}
	a.HouseNumber, a.HouseNumberSuffix = cols[0].String, cols[1].String
	a.StreetName, a.StreetType = cols[2].String, cols[3].String
	a.Direction, a.PostDirection = cols[4].String, cols[5].String
	a.AptNum, a.City, a.State, a.Zip = cols[6].String, cols[7].String, cols[8].String, cols[9].String
	return &a, nil
}

// States lists the distinct states on file.
func (s *PostgresStore) States(ctx context.Context) ([]string, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT DISTINCT upper(trim(state)) AS state FROM electorate.address
		WHERE state IS NOT NULL AND trim(state) <> ''
		ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", postgres.Translate(err))
	}
	defer rows.Close()

	states := []string{}
	for rows.Next() {
		var state string
		if err := rows.Scan(&state); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate states: %w", err)
	}
	return states, nil
}

// Directions lists distinct pre- and post-directions with address counts.
func (s *PostgresStore) Directions(ctx context.Context) (*models.Directions, error) {
	pre, err := s.valueCounts(ctx, "direction")
	if err != nil {
		return nil, err
	}
	post, err := s.valueCounts(ctx, "post_direction")
	if err != nil {
		return nil, err
	}
	return &models.Directions{Directions: pre, PostDirections: post}, nil
}

// StreetTypes lists distinct street types with address counts.
func (s *PostgresStore) StreetTypes(ctx context.Context) ([]models.ValueCount, error) {
	return s.valueCounts(ctx, "street_type")
}

// valueCounts aggregates one classification column. column is always a
// package constant, never caller input.
func (s *PostgresStore) valueCounts(ctx context.Context, column string) ([]models.ValueCount, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(id) FROM electorate.address
		WHERE %[1]s IS NOT NULL AND %[1]s <> ''
		GROUP BY %[1]s
		ORDER BY %[1]s`, column)
	rows, err := s.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", column, postgres.Translate(err))
	}
	defer rows.Close()

	out := []models.ValueCount{}
	for rows.Next() {
		var vc models.ValueCount
		if err := rows.Scan(&vc.Value, &vc.Count); err != nil {
			return nil, fmt.Errorf("scan %s count: %w", column, err)
		}
		out = append(out, vc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s counts: %w", column, err)
	}
	return out, nil
}

// RefreshLookup rebuilds the search projection after a bulk load.
// CONCURRENTLY keeps the view readable while it rebuilds.
func (s *PostgresStore) RefreshLookup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY electorate.voter_lookup`); err != nil {
		return fmt.Errorf("refresh voter lookup: %w", postgres.Translate(err))
	}
	return nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
