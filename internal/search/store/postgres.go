// Package store runs matching-engine queries against the voter roll.
package store

import (
	"context"
	"database/sql"
	"fmt"

	electorate "sowell/internal/electorate/models"
	"sowell/internal/platform/postgres"
	"sowell/internal/search/models"
)

// PostgresStore queries the roll and its lookup projection.
type PostgresStore struct {
	db      *sql.DB
	weights models.Weights
}

// NewPostgres constructs a Postgres-backed search store ranking with w.
func NewPostgres(db *sql.DB, w models.Weights) *PostgresStore {
	return &PostgresStore{db: db, weights: w}
}

// Wildcard returns voters matching every pattern in q, ordered by name.
func (s *PostgresStore) Wildcard(ctx context.Context, q models.WildcardQuery, limit int) ([]models.Candidate, error) {
	query, args := buildWildcard(q, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("wildcard search: %w", postgres.Translate(err))
	}
	defer rows.Close()

	out := []models.Candidate{}
	for rows.Next() {
		var r candidateRow
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, fmt.Errorf("scan wildcard candidate: %w", postgres.Translate(err))
		}
		out = append(out, r.candidate())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wildcard candidates: %w", postgres.Translate(err))
	}
	return out, nil
}

// Ranked returns scored candidates, best first, at most limit of them.
func (s *PostgresStore) Ranked(ctx context.Context, c models.Criteria, limit int) ([]models.Candidate, error) {
	query, args := buildRanked(c, s.weights, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ranked search: %w", postgres.Translate(err))
	}
	defer rows.Close()

	out := []models.Candidate{}
	for rows.Next() {
		var (
			r      candidateRow
			scores models.Scores
		)
		dest := append(r.dest(), &scores.NameRank, &scores.AddressRank, &scores.FirstSim, &scores.MiddleSim, &scores.LastSim)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan ranked candidate: %w", postgres.Translate(err))
		}
		cand := r.candidate()
		cand.Scores = &scores
		out = append(out, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked candidates: %w", postgres.Translate(err))
	}
	return out, nil
}

type candidateRow struct {
	id   int64
	cols [15]sql.NullString
}

func (r *candidateRow) dest() []any {
	d := make([]any, 0, 1+len(r.cols))
	d = append(d, &r.id)
	for i := range r.cols {
		d = append(d, &r.cols[i])
	}
	return d
}

func (r *candidateRow) candidate() models.Candidate {
	c := models.Candidate{
		IdentificationNumber: r.id,
		FirstName:            r.cols[0].String,
		MiddleName:           r.cols[1].String,
		LastName:             r.cols[2].String,
		Suffix:               r.cols[3].String,
		Status:               r.cols[4].String,
		HouseNumber:          r.cols[5].String,
		HouseNumberSuffix:    r.cols[6].String,
		StreetName:           r.cols[7].String,
		StreetType:           r.cols[8].String,
		Direction:            r.cols[9].String,
		PostDirection:        r.cols[10].String,
		Apartment:            r.cols[11].String,
		City:                 r.cols[12].String,
		State:                r.cols[13].String,
		Zip:                  r.cols[14].String,
	}
	c.Address = StreetAddress(c)
	return c
}

// StreetAddress composes the display street address of a candidate.
func StreetAddress(c models.Candidate) string {
	return electorate.Address{
		HouseNumber:       c.HouseNumber,
		HouseNumberSuffix: c.HouseNumberSuffix,
		StreetName:        c.StreetName,
		StreetType:        c.StreetType,
		Direction:         c.Direction,
		PostDirection:     c.PostDirection,
	}.FullStreetAddress()
}
