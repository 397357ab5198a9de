//go:build integration

package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sowell/internal/audit"
	"sowell/internal/batches/models"
	"sowell/internal/batches/service"
	"sowell/internal/batches/store"
	"sowell/internal/platform/postgres"
	sheets "sowell/internal/sheets/models"
	sheetstore "sowell/internal/sheets/store"
	sigstore "sowell/internal/signatures/store"
	"sowell/pkg/domain"
	dErrors "sowell/pkg/domain-errors"
	"sowell/pkg/testutil/containers"
)

type PostgresBatchSuite struct {
	suite.Suite
	ctx      context.Context
	postgres *containers.PostgresContainer
	sheets   *sheetstore.PostgresStore
	sink     *audit.MemorySink
	service  *service.Service
}

func TestPostgresBatchSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresBatchSuite))
}

func (s *PostgresBatchSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.sheets = sheetstore.NewPostgres(s.postgres.DB)
}

func (s *PostgresBatchSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx,
		"signatures.collected", "signatures.sheets", "signatures.batches"))
	s.sink = audit.NewMemorySink()
	s.service = s.newService(s.sheets)
}

func (s *PostgresBatchSuite) newService(sheetStore service.Sheets) *service.Service {
	db := s.postgres.DB
	return service.New(store.NewPostgres(db), sheetStore, sigstore.NewPostgres(db),
		postgres.NewTx(db, 5*time.Second),
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithAuditPublisher(audit.NewPublisher(s.sink)),
	)
}

func (s *PostgresBatchSuite) closedSheet() int64 {
	var id int64
	err := s.postgres.DB.QueryRowContext(s.ctx,
		`INSERT INTO signatures.sheets (status) VALUES ('Closed') RETURNING id`).Scan(&id)
	s.Require().NoError(err)
	return id
}

func (s *PostgresBatchSuite) sheetStatus(id int64) sheets.Status {
	sh, err := s.sheets.FindByID(s.ctx, id)
	s.Require().NoError(err)
	return sh.Status
}

func (s *PostgresBatchSuite) TestConcurrentCreateLeavesOneBuildingBatch() {
	const callers = 8
	ids := make(chan int64, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, _, err := s.service.Create(s.ctx)
			if s.NoError(err) {
				ids <- b.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[int64]bool{}
	for id := range ids {
		seen[id] = true
	}
	s.Len(seen, 1)

	var building int
	s.Require().NoError(s.postgres.DB.QueryRowContext(s.ctx,
		`SELECT count(*) FROM signatures.batches WHERE status = 'Building'`).Scan(&building))
	s.Equal(1, building)
}

func (s *PostgresBatchSuite) TestLifecycleCascadesMembers() {
	b, created, err := s.service.Create(s.ctx)
	s.Require().NoError(err)
	s.True(created)

	first, second := s.closedSheet(), s.closedSheet()
	for _, id := range []int64{first, second} {
		sh, err := s.service.AddSheet(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(sheets.StatusPreShipment, sh.Status)
	}

	_, err = s.service.Close(s.ctx, b.ID)
	s.Require().NoError(err)

	shipped, err := s.service.Ship(s.ctx, b.ID, models.Shipment{Carrier: "UPS", TrackingNumber: "1Z999", ShipDate: domain.NewDate(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))})
	s.Require().NoError(err)
	s.Equal("UPS", shipped.Carrier)
	s.Equal(sheets.StatusShipped, s.sheetStatus(first))

	arrival, err := domain.ParseDate("2024-07-03")
	s.Require().NoError(err)
	_, err = s.service.Deliver(s.ctx, b.ID, arrival)
	s.Require().NoError(err)
	s.Equal(sheets.StatusVerification, s.sheetStatus(second))

	done, err := s.service.Complete(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusComplete, done.Status)
	s.Equal(sheets.StatusComplete, s.sheetStatus(first))
	s.Equal(sheets.StatusComplete, s.sheetStatus(second))

	_, err = s.service.Complete(s.ctx, b.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

type brokenCascade struct {
	*sheetstore.PostgresStore
}

func (brokenCascade) CascadeStatus(context.Context, int64, []sheets.Status, sheets.Status) (int64, error) {
	return 0, errors.New("connection reset")
}

func (s *PostgresBatchSuite) TestFailedCascadeRollsBackBatch() {
	b, _, err := s.service.Create(s.ctx)
	s.Require().NoError(err)
	member := s.closedSheet()
	_, err = s.service.AddSheet(s.ctx, member)
	s.Require().NoError(err)
	_, err = s.service.Close(s.ctx, b.ID)
	s.Require().NoError(err)
	events := len(s.sink.Events())

	broken := s.newService(brokenCascade{s.sheets})
	_, err = broken.Ship(s.ctx, b.ID, models.Shipment{Carrier: "UPS", TrackingNumber: "1Z999", ShipDate: domain.NewDate(time.Now())})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	got, err := s.service.Get(s.ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPreShipment, got.Status)
	s.Empty(got.Carrier)
	s.Equal(sheets.StatusPreShipment, s.sheetStatus(member))
	s.Len(s.sink.Events(), events)
}
