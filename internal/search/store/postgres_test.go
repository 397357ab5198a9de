package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowell/internal/search/models"
	"sowell/pkg/platform/sentinel"
)

var candidateColumns = []string{
	"identification_number", "first_name", "middle_name", "last_name", "suffix", "status",
	"house_number", "house_number_suffix", "street_name", "street_type", "direction", "post_direction",
	"apt_num", "city", "state", "zip",
}

func TestPostgresWildcardScansCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM electorate.voters v")).
		WithArgs("jo%", "smith", 40).
		WillReturnRows(sqlmock.NewRows(candidateColumns).
			AddRow(1001, "John", nil, "Smith", nil, "Active", "123", nil, "Main", "St", nil, nil, nil, "Anytown", "OR", "97201"))

	s := NewPostgres(db, models.DefaultWeights)
	got, err := s.Wildcard(context.Background(), models.WildcardQuery{FirstName: "jo%", LastName: "smith"}, 40)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1001), got[0].IdentificationNumber)
	assert.Equal(t, "123 Main St", got[0].Address)
	assert.Nil(t, got[0].Scores)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRankedScansScores(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := append(append([]string{}, candidateColumns...), "name_rank", "address_rank", "first_sim", "middle_sim", "last_sim")
	mock.ExpectQuery(regexp.QuoteMeta("FROM electorate.voter_lookup l")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(7, "Jon", nil, "Smyth", nil, nil, "5", nil, "Oak", "Ave", nil, nil, nil, "Anytown", "OR", "97201",
				0.1, 0.0, 0.5, 0.0, 0.4))

	s := NewPostgres(db, models.DefaultWeights)
	got, err := s.Ranked(context.Background(), models.Criteria{FirstName: "John", LastName: "Smith"}, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Scores)
	assert.InDelta(t, 0.5, got[0].Scores.FirstSim, 1e-9)
	assert.InDelta(t, 0.4, got[0].Scores.LastSim, 1e-9)
}

func TestPostgresRankedStatementTimeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM electorate.voter_lookup l")).
		WillReturnError(&pq.Error{Code: "57014", Message: "canceling statement due to statement timeout"})

	s := NewPostgres(db, models.DefaultWeights)
	_, err = s.Ranked(context.Background(), models.Criteria{LastName: "Smith"}, 50)
	assert.ErrorIs(t, err, sentinel.ErrTimeout)
}
