package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	electoratemodels "sowell/internal/electorate/models"
	electorate "sowell/internal/electorate/store"
	"sowell/internal/search/models"
)

func seededRoll() *electorate.InMemoryStore {
	roll := electorate.NewInMemory()
	roll.PutAddress(electoratemodels.Address{ID: 1, HouseNumber: "123", StreetName: "Main", StreetType: "St", City: "Anytown", State: "OR", Zip: "97201-1111"})
	roll.PutAddress(electoratemodels.Address{ID: 2, HouseNumber: "9", StreetName: "Elm", StreetType: "Ave", Direction: "N", City: "Othertown", State: "OR", Zip: "97301"})
	roll.PutVoter(electoratemodels.Voter{IdentificationNumber: 1001, FirstName: "John", LastName: "Smith", ResidenceAddressID: 1})
	roll.PutVoter(electoratemodels.Voter{IdentificationNumber: 1002, FirstName: "Joan", MiddleName: "Marie", LastName: "Smithers", ResidenceAddressID: 2})
	roll.PutVoter(electoratemodels.Voter{IdentificationNumber: 1003, FirstName: "Mary", LastName: "Jones", ResidenceAddressID: 2})
	return roll
}

func wildcard(t *testing.T, s *InMemoryStore, c models.Criteria) []models.Candidate {
	t.Helper()
	q, err := models.CompileWildcard(c)
	require.NoError(t, err)
	got, err := s.Wildcard(context.Background(), q, 40)
	require.NoError(t, err)
	return got
}

func ids(cs []models.Candidate) []int64 {
	out := make([]int64, len(cs))
	for i, c := range cs {
		out[i] = c.IdentificationNumber
	}
	return out
}

func TestInMemoryWildcard(t *testing.T) {
	s := NewInMemory(seededRoll(), models.DefaultWeights)

	t.Run("prefix first name and exact last name", func(t *testing.T) {
		got := wildcard(t, s, models.Criteria{FirstName: "Jo*", LastName: "Smith"})
		assert.Equal(t, []int64{1001}, ids(got))
		assert.Equal(t, "123 Main St", got[0].Address)
		assert.Equal(t, "97201", got[0].Zip)
	})

	t.Run("no match is empty not error", func(t *testing.T) {
		assert.Empty(t, wildcard(t, s, models.Criteria{FirstName: "Zzz*"}))
	})

	t.Run("single character wildcard", func(t *testing.T) {
		assert.Equal(t, []int64{1001, 1002}, ids(wildcard(t, s, models.Criteria{FirstName: "Jo?n"})))
		assert.Empty(t, wildcard(t, s, models.Criteria{FirstName: "Jo?"}))
	})

	t.Run("fields are ANDed and ordered by name", func(t *testing.T) {
		got := wildcard(t, s, models.Criteria{City: "othertown", Direction: "n"})
		assert.Equal(t, []int64{1003, 1002}, ids(got))
	})

	t.Run("zip prefix", func(t *testing.T) {
		assert.Equal(t, []int64{1001}, ids(wildcard(t, s, models.Criteria{Zip: "972"})))
	})

	t.Run("percent is literal", func(t *testing.T) {
		assert.Empty(t, wildcard(t, s, models.Criteria{FirstName: "J%"}))
	})
}

func TestInMemoryRanked(t *testing.T) {
	s := NewInMemory(seededRoll(), models.DefaultWeights)

	got, err := s.Ranked(context.Background(), models.Criteria{FirstName: "John", LastName: "Smith"}, 50)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, int64(1001), got[0].IdentificationNumber, "exact name must rank first")
	assert.NotContains(t, ids(got), int64(1003), "dissimilar names are excluded")

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Scores.Combined, got[i].Scores.Combined)
	}
}

func TestInMemoryRankedIgnoresAbsentMiddleName(t *testing.T) {
	roll := electorate.NewInMemory()
	roll.PutAddress(electoratemodels.Address{ID: 1, HouseNumber: "1", StreetName: "Oak", City: "Anytown", State: "OR", Zip: "97201"})
	roll.PutVoter(electoratemodels.Voter{IdentificationNumber: 1, FirstName: "Alice", MiddleName: "Johnna", LastName: "Zed", ResidenceAddressID: 1})
	s := NewInMemory(roll, models.DefaultWeights)

	got, err := s.Ranked(context.Background(), models.Criteria{FirstName: "Johnna"}, 50)
	require.NoError(t, err)
	for _, c := range got {
		assert.Zero(t, c.Scores.MiddleSim)
		assert.Less(t, c.Scores.FirstSim, 0.5)
	}

	got, err = s.Ranked(context.Background(), models.Criteria{MiddleName: "Johnna"}, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Scores.MiddleSim, 1e-9)
}

func TestInMemoryRankedFiltersAndLimit(t *testing.T) {
	s := NewInMemory(seededRoll(), models.DefaultWeights)

	got, err := s.Ranked(context.Background(), models.Criteria{LastName: "Smith", City: "Anytown"}, 50)
	require.NoError(t, err)
	assert.Equal(t, []int64{1001}, ids(got))

	got, err = s.Ranked(context.Background(), models.Criteria{LastName: "Smith"}, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSimilarityMatchesPgTrgm(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("Smith", "smith"), 1e-9)
	assert.Zero(t, similarity("", "smith"))
	// "smith" and "smyth" share "  s", " sm", "th " of 6 + 6 - 3 = 9 trigrams
	assert.InDelta(t, 3.0/9.0, similarity("smith", "smyth"), 1e-9)
}
