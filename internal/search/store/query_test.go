package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowell/internal/search/models"
)

func TestBuildWildcard(t *testing.T) {
	q, err := models.CompileWildcard(models.Criteria{FirstName: "Jo*", LastName: "Smith", State: "or", Zip: "972"})
	require.NoError(t, err)

	sql, args := buildWildcard(q, 40)

	assert.Contains(t, sql, `lower(v.first_name) LIKE $1 ESCAPE '\'`)
	assert.Contains(t, sql, `lower(v.last_name) LIKE $2 ESCAPE '\'`)
	assert.Contains(t, sql, `lower(a.zip) LIKE $3 ESCAPE '\'`)
	assert.Contains(t, sql, `upper(a.state) = $4`)
	assert.Contains(t, sql, "ORDER BY v.last_name, v.first_name, v.identification_number")
	assert.Contains(t, sql, "LIMIT $5")
	assert.NotContains(t, sql, "middle_name) LIKE", "unset fields must not filter")
	assert.Equal(t, []any{"jo%", "smith", "972%", "OR", 40}, args)
}

func TestBuildWildcardNeverInlinesInput(t *testing.T) {
	q, err := models.CompileWildcard(models.Criteria{LastName: "x'; DROP TABLE electorate.voters; --"})
	require.NoError(t, err)

	sql, args := buildWildcard(q, 10)
	assert.NotContains(t, sql, "DROP TABLE")
	assert.Contains(t, args[0], "drop table")
}

func TestBuildRankedNameOnly(t *testing.T) {
	sql, args := buildRanked(models.Criteria{FirstName: "John", LastName: "Smith"}, models.DefaultWeights, 50)

	assert.Contains(t, sql, "FROM electorate.voter_lookup l")
	assert.Contains(t, sql, "ts_rank_cd(l.full_name_searchable, plainto_tsquery('english', $1)) AS name_rank")
	assert.Contains(t, sql, "0::real AS address_rank")
	assert.Contains(t, sql, "similarity(COALESCE(l.first_name, ''), $2) AS first_sim")
	assert.Contains(t, sql, "similarity(COALESCE(l.last_name, ''), $3) AS last_sim")
	assert.Contains(t, sql, "0::real AS middle_sim")
	assert.NotContains(t, sql, "l.middle_name, ''")
	assert.Contains(t, sql, "> $4")
	assert.Contains(t, sql, models.DefaultWeights.SQL()+" DESC, last_sim DESC, identification_number ASC")
	assert.Contains(t, sql, "LIMIT $5")
	assert.Equal(t, []any{"John Smith", "John", "Smith", models.MinSimilarity, 50}, args)
}

func TestBuildRankedMiddleNameWhenGiven(t *testing.T) {
	sql, args := buildRanked(models.Criteria{FirstName: "Joan", MiddleName: "Marie"}, models.DefaultWeights, 50)

	assert.Contains(t, sql, "similarity(COALESCE(l.middle_name, ''), $3) AS middle_sim")
	assert.Contains(t, sql, "similarity(COALESCE(l.middle_name, ''), $3) > $4")
	assert.Equal(t, []any{"Joan Marie", "Joan", "Marie", models.MinSimilarity, 50}, args)
}

func TestBuildRankedAddressFiltersWithoutName(t *testing.T) {
	sql, args := buildRanked(models.Criteria{Address: "123 Main", City: "Anytown", Zip: "97_", State: "or"}, models.DefaultWeights, 50)

	assert.Contains(t, sql, "0::real AS name_rank")
	assert.Contains(t, sql, "ts_rank_cd(l.address_searchable, plainto_tsquery('english', $1)) AS address_rank")
	assert.Contains(t, sql, "l.address_searchable @@ plainto_tsquery('english', $1)")
	assert.Contains(t, sql, "l.city_searchable @@ plainto_tsquery('english', $2)")
	assert.Contains(t, sql, `l.zip LIKE $3 ESCAPE '\'`)
	assert.Contains(t, sql, "upper(l.state) = $4")
	assert.NotContains(t, sql, "similarity(", "no name fields means no similarity filter")
	assert.Equal(t, []any{"123 Main", "Anytown", `97\_%`, "OR", 50}, args)
}
