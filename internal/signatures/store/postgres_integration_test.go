//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"sowell/internal/signatures/models"
	"sowell/internal/signatures/store"
	"sowell/pkg/domain"
	"sowell/pkg/platform/sentinel"
	"sowell/pkg/testutil/containers"
)

type PostgresSignatureSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresSignatureSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSignatureSuite))
}

func (s *PostgresSignatureSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresSignatureSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx,
		"signatures.collected", "signatures.sheets", "signatures.batches"))
	_, err := s.postgres.DB.ExecContext(ctx,
		`INSERT INTO signatures.sheets (id, status) VALUES (7, 'Signing')`)
	s.Require().NoError(err)
}

func (s *PostgresSignatureSuite) TestUpsertOverwritesSameLine() {
	ctx := context.Background()
	on, err := domain.ParseDate("2024-05-01")
	s.Require().NoError(err)

	first := &models.CollectedSignature{SheetID: 7, RowNumber: 3, LastName: "Smith", Status: models.StatusNoMatch, DateCollected: on}
	s.Require().NoError(s.store.Upsert(ctx, first))

	second := &models.CollectedSignature{SheetID: 7, RowNumber: 3, LastName: "Smyth", Status: models.StatusNoMatch, DateCollected: on}
	s.Require().NoError(s.store.Upsert(ctx, second))

	s.Equal(first.ID, second.ID)
	got, err := s.store.Find(ctx, 7, 3)
	s.Require().NoError(err)
	s.Equal("Smyth", got.LastName)

	counts, err := s.store.StatusCounts(ctx, nil)
	s.Require().NoError(err)
	s.Equal(int64(1), counts[models.StatusNoMatch])
}

func (s *PostgresSignatureSuite) TestRowNumberCheck() {
	err := s.store.Upsert(context.Background(), &models.CollectedSignature{
		SheetID: 7, RowNumber: 13, Status: models.StatusNoMatch,
	})
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresSignatureSuite) TestUnknownSheet() {
	err := s.store.Upsert(context.Background(), &models.CollectedSignature{
		SheetID: 99, RowNumber: 1, Status: models.StatusNoMatch,
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
