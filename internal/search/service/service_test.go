package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sowell/internal/audit"
	electoratemodels "sowell/internal/electorate/models"
	electorate "sowell/internal/electorate/store"
	"sowell/internal/search/cache"
	"sowell/internal/search/models"
	"sowell/internal/search/service/mocks"
	searchstore "sowell/internal/search/store"
	dErrors "sowell/pkg/domain-errors"
	"sowell/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/store-mocks.go -package=mocks Store
type SearchServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *mocks.MockStore
	roll  *electorate.InMemoryStore
}

func TestSearchServiceSuite(t *testing.T) {
	suite.Run(t, new(SearchServiceSuite))
}

func (s *SearchServiceSuite) SetupTest() {
	s.ctx = context.Background()
	ctrl := gomock.NewController(s.T())
	s.store = mocks.NewMockStore(ctrl)
	s.roll = electorate.NewInMemory()
}

func (s *SearchServiceSuite) newService(opts ...Option) *Service {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(s.store, s.roll, opts...)
}

func scored(id int64, name, last float64) models.Candidate {
	return models.Candidate{
		IdentificationNumber: id,
		Scores:               &models.Scores{NameRank: name, LastSim: last},
	}
}

func (s *SearchServiceSuite) TestEmptyCriteriaSkipsStore() {
	got, err := s.newService().Search(s.ctx, models.Criteria{FirstName: "   "})
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *SearchServiceSuite) TestUnknownModeRejected() {
	_, err := s.newService().Search(s.ctx, models.Criteria{Mode: "fuzzy", LastName: "Smith"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *SearchServiceSuite) TestNegativeLimitRejected() {
	_, err := s.newService().Search(s.ctx, models.Criteria{LastName: "Smith", Limit: -1})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *SearchServiceSuite) TestWildcardPatternErrorIsValidation() {
	svc := s.newService()

	_, err := svc.Search(s.ctx, models.Criteria{Mode: models.ModeWildcard, FirstName: "**"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.Search(s.ctx, models.Criteria{Mode: models.ModeWildcard, Address: "123 Main"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *SearchServiceSuite) TestWildcardLimitClamped() {
	svc := s.newService()
	cases := []struct {
		requested int
		want      int
	}{
		{0, 40},
		{5, 5},
		{500, 40},
	}
	for _, tc := range cases {
		s.Run(fmt.Sprintf("requested %d", tc.requested), func() {
			s.store.EXPECT().Wildcard(gomock.Any(), gomock.Any(), tc.want).Return([]models.Candidate{}, nil)
			_, err := svc.Search(s.ctx, models.Criteria{Mode: models.ModeWildcard, LastName: "Smith", Limit: tc.requested})
			s.Require().NoError(err)
		})
	}
}

func (s *SearchServiceSuite) TestRankedResultsOrderedAndTruncated() {
	s.store.EXPECT().Ranked(gomock.Any(), gomock.Any(), 2).Return([]models.Candidate{
		scored(30, 0.1, 0.1),
		scored(20, 0.9, 0.2),
		scored(10, 0.9, 0.2),
		scored(40, 0.9, 0.5),
	}, nil)

	got, err := s.newService().Search(s.ctx, models.Criteria{LastName: "Smith", Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(int64(40), got[0].IdentificationNumber)
	s.Equal(int64(10), got[1].IdentificationNumber)
	s.InDelta(0.46, got[0].Scores.Combined, 1e-9)
}

func (s *SearchServiceSuite) TestDeadlineExceededIsTimeout() {
	s.store.EXPECT().Ranked(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ models.Criteria, _ int) ([]models.Candidate, error) {
			<-ctx.Done()
			return nil, fmt.Errorf("ranked search: %w", ctx.Err())
		})

	svc := s.newService(WithLimits(Limits{Timeout: 10 * time.Millisecond}))
	got, err := svc.Search(s.ctx, models.Criteria{LastName: "Smith"})
	s.Nil(got)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *SearchServiceSuite) TestStatementTimeoutIsTimeout() {
	s.store.EXPECT().Wildcard(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("wildcard search: %w", sentinel.ErrTimeout))

	_, err := s.newService().Search(s.ctx, models.Criteria{Mode: models.ModeWildcard, LastName: "Smith"})
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *SearchServiceSuite) TestStoreFailureIsInternal() {
	s.store.EXPECT().Ranked(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset"))

	_, err := s.newService().Search(s.ctx, models.Criteria{LastName: "Smith"})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *SearchServiceSuite) TestCallerDeadlineRespected() {
	s.store.EXPECT().Ranked(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ models.Criteria, _ int) ([]models.Candidate, error) {
			deadline, ok := ctx.Deadline()
			s.True(ok)
			s.WithinDuration(time.Now().Add(50*time.Millisecond), deadline, 40*time.Millisecond)
			return []models.Candidate{}, nil
		})

	ctx, cancel := context.WithTimeout(s.ctx, 50*time.Millisecond)
	defer cancel()
	_, err := s.newService().Search(ctx, models.Criteria{LastName: "Smith"})
	s.NoError(err)
}

func TestRefreshLookup(t *testing.T) {
	ctx := context.Background()
	roll := electorate.NewInMemory()
	roll.PutAddress(electoratemodels.Address{ID: 1, StreetName: "Main", StreetType: "St", State: "OR"})
	roll.PutVoter(electoratemodels.Voter{IdentificationNumber: 1, FirstName: "John", LastName: "Smith", ResidenceAddressID: 1})

	sink := audit.NewMemorySink()
	svc := New(
		searchstore.NewInMemory(roll, models.DefaultWeights),
		cache.New(roll, nil, time.Minute),
		WithRefresher(roll),
		WithAuditPublisher(audit.NewPublisher(sink)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	require.NoError(t, svc.RefreshLookup(ctx))
	assert.Equal(t, []audit.EventType{audit.EventLookupRefreshed}, sink.Types())

	states, err := svc.States(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"OR"}, states)
}

func TestRefreshLookupNotConfigured(t *testing.T) {
	roll := electorate.NewInMemory()
	svc := New(searchstore.NewInMemory(roll, models.DefaultWeights), roll)
	err := svc.RefreshLookup(context.Background())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
