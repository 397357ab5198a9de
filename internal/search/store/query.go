package store

import (
	"fmt"
	"strings"

	"sowell/internal/search/models"
)

// builder collects positional arguments while SQL fragments are assembled.
type builder struct {
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

const wildcardSelect = `SELECT v.identification_number, v.first_name, v.middle_name, v.last_name, v.suffix, v.status,
	a.house_number, a.house_number_suffix, a.street_name, a.street_type, a.direction, a.post_direction,
	a.apt_num, a.city, a.state, SUBSTRING(a.zip FROM 1 FOR 5)
FROM electorate.voters v
JOIN electorate.address a ON a.id = v.residence_address_id`

// buildWildcard reads the roll directly rather than the lookup projection, so
// wildcard results never lag a bulk load.
func buildWildcard(q models.WildcardQuery, limit int) (string, []any) {
	b := &builder{}
	var where []string

	like := func(col, pattern string) {
		if pattern != "" {
			where = append(where, fmt.Sprintf(`lower(%s) LIKE %s ESCAPE '\'`, col, b.arg(pattern)))
		}
	}
	eq := func(col, value string) {
		if value != "" {
			where = append(where, fmt.Sprintf(`upper(%s) = %s`, col, b.arg(value)))
		}
	}

	like("v.first_name", q.FirstName)
	like("v.middle_name", q.MiddleName)
	like("v.last_name", q.LastName)
	like("a.house_number", q.HouseNumber)
	like("a.house_number_suffix", q.HouseNumberSuffix)
	like("a.street_name", q.StreetName)
	like("a.street_type", q.StreetType)
	like("a.apt_num", q.Apartment)
	like("a.city", q.City)
	like("a.zip", q.Zip)
	eq("a.direction", q.Direction)
	eq("a.post_direction", q.PostDirection)
	eq("a.state", q.State)

	var sb strings.Builder
	sb.WriteString(wildcardSelect)
	if len(where) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(where, "\n  AND "))
	}
	sb.WriteString("\nORDER BY v.last_name, v.first_name, v.identification_number")
	sb.WriteString("\nLIMIT ")
	sb.WriteString(b.arg(limit))
	return sb.String(), b.args
}

// buildRanked scores the lookup projection. Sub-scores for fields that were not
// supplied are the constant 0 so they neither filter nor score.
func buildRanked(c models.Criteria, w models.Weights, limit int) (string, []any) {
	b := &builder{}

	nameRank, addressRank := "0::real", "0::real"
	firstSim, middleSim, lastSim := "0::real", "0::real", "0::real"
	var include []string
	var filters []string

	if c.HasName() {
		nameQuery := fmt.Sprintf("plainto_tsquery('english', %s)", b.arg(c.NameText()))
		nameRank = "ts_rank_cd(l.full_name_searchable, " + nameQuery + ")"
		include = append(include, "l.full_name_searchable @@ "+nameQuery)
	}
	if c.FirstName != "" {
		p := b.arg(c.FirstName)
		firstSim = fmt.Sprintf("similarity(COALESCE(l.first_name, ''), %s)", p)
		include = append(include, fmt.Sprintf("l.full_name_searchable @@ plainto_tsquery('english', %s)", p))
	}
	if c.LastName != "" {
		p := b.arg(c.LastName)
		lastSim = fmt.Sprintf("similarity(COALESCE(l.last_name, ''), %s)", p)
		include = append(include, fmt.Sprintf("l.full_name_searchable @@ plainto_tsquery('english', %s)", p))
	}
	if c.MiddleName != "" {
		middleSim = fmt.Sprintf("similarity(COALESCE(l.middle_name, ''), %s)", b.arg(c.MiddleName))
	}
	if c.HasName() {
		threshold := b.arg(models.MinSimilarity)
		for _, sim := range []string{firstSim, middleSim, lastSim} {
			if sim != "0::real" {
				include = append(include, sim+" > "+threshold)
			}
		}
	}

	if addr := c.AddressText(); addr != "" {
		addrQuery := fmt.Sprintf("plainto_tsquery('english', %s)", b.arg(addr))
		addressRank = "ts_rank_cd(l.address_searchable, " + addrQuery + ")"
		filters = append(filters, "l.address_searchable @@ "+addrQuery)
	}
	if c.City != "" {
		filters = append(filters, fmt.Sprintf("l.city_searchable @@ plainto_tsquery('english', %s)", b.arg(c.City)))
	}
	if c.Zip != "" {
		filters = append(filters, fmt.Sprintf(`l.zip LIKE %s ESCAPE '\'`, b.arg(models.EscapeLike(c.Zip)+"%")))
	}
	if c.State != "" {
		filters = append(filters, fmt.Sprintf("upper(l.state) = %s", b.arg(strings.ToUpper(c.State))))
	}
	if c.Apartment != "" {
		filters = append(filters, fmt.Sprintf("lower(l.apt_num) = lower(%s)", b.arg(c.Apartment)))
	}

	var where []string
	if len(include) > 0 {
		where = append(where, "("+strings.Join(include, "\n      OR ")+")")
	}
	where = append(where, filters...)

	var sb strings.Builder
	sb.WriteString(`SELECT identification_number, first_name, middle_name, last_name, suffix, status,
	house_number, house_number_suffix, street_name, street_type, direction, post_direction,
	apt_num, city, state, zip,
	name_rank, address_rank, first_sim, middle_sim, last_sim
FROM (
	SELECT l.identification_number, l.first_name, l.middle_name, l.last_name, l.suffix, l.status,
		l.house_number, l.house_number_suffix, l.street_name, l.street_type, l.direction, l.post_direction,
		l.apt_num, l.city, l.state, l.zip,
		`)
	fmt.Fprintf(&sb, "%s AS name_rank,\n\t\t%s AS address_rank,\n\t\t%s AS first_sim,\n\t\t%s AS middle_sim,\n\t\t%s AS last_sim",
		nameRank, addressRank, firstSim, middleSim, lastSim)
	sb.WriteString("\n\tFROM electorate.voter_lookup l")
	if len(where) > 0 {
		sb.WriteString("\n\tWHERE ")
		sb.WriteString(strings.Join(where, "\n\t  AND "))
	}
	sb.WriteString("\n) ranked\nORDER BY ")
	sb.WriteString(w.SQL())
	sb.WriteString(" DESC, last_sim DESC, identification_number ASC\nLIMIT ")
	sb.WriteString(b.arg(limit))
	return sb.String(), b.args
}
