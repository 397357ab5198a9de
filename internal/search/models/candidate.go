package models

import (
	"fmt"
	"sort"
)

// Scores are the ranked-mode sub-scores of one candidate.
type Scores struct {
	NameRank    float64 `json:"name_rank"`
	AddressRank float64 `json:"address_rank"`
	FirstSim    float64 `json:"first_name_similarity"`
	MiddleSim   float64 `json:"middle_name_similarity"`
	LastSim     float64 `json:"last_name_similarity"`
	Combined    float64 `json:"combined"`
}

// Weights sets how sub-scores contribute to the combined score.
type Weights struct {
	NameRank    float64
	AddressRank float64
	LastSim     float64
	FirstSim    float64
	MiddleSim   float64
}

// DefaultWeights ranks name relevance highest, then last-name similarity and
// address relevance, then first and middle similarity.
var DefaultWeights = Weights{
	NameRank:    0.4,
	AddressRank: 0.2,
	LastSim:     0.2,
	FirstSim:    0.1,
	MiddleSim:   0.1,
}

// Combine returns the weighted sum of s.
func (w Weights) Combine(s Scores) float64 {
	return s.NameRank*w.NameRank +
		s.AddressRank*w.AddressRank +
		s.LastSim*w.LastSim +
		s.FirstSim*w.FirstSim +
		s.MiddleSim*w.MiddleSim
}

// SQL renders the weighted sum over columns named like the Scores fields.
func (w Weights) SQL() string {
	return fmt.Sprintf("(%g * name_rank + %g * address_rank + %g * last_sim + %g * first_sim + %g * middle_sim)",
		w.NameRank, w.AddressRank, w.LastSim, w.FirstSim, w.MiddleSim)
}

// MinSimilarity is the fuzzy-similarity floor a name field must beat for a
// candidate to be kept when no full-text predicate matched.
const MinSimilarity = 0.1

// Candidate is one voter returned by a search.
type Candidate struct {
	IdentificationNumber int64  `json:"voter_id"`
	FirstName            string `json:"first_name"`
	MiddleName           string `json:"middle_name,omitempty"`
	LastName             string `json:"last_name"`
	Suffix               string `json:"suffix,omitempty"`
	Status               string `json:"status,omitempty"`
	HouseNumber          string `json:"house_number,omitempty"`
	HouseNumberSuffix    string `json:"house_number_suffix,omitempty"`
	StreetName           string `json:"street_name,omitempty"`
	StreetType           string `json:"street_type,omitempty"`
	Direction            string `json:"direction,omitempty"`
	PostDirection        string `json:"post_direction,omitempty"`
	Apartment            string `json:"apartment,omitempty"`
	City                 string `json:"city,omitempty"`
	State                string `json:"state,omitempty"`
	Zip                  string `json:"zip,omitempty"`
	// Address is the composed street address for display.
	Address string  `json:"address"`
	Scores  *Scores `json:"scores,omitempty"`
}

// Rank computes combined scores with w and orders candidates by combined score
// descending, then last-name similarity descending, then identification number.
// The sort is stable so equal candidates keep the store's order.
func Rank(candidates []Candidate, w Weights) {
	for i := range candidates {
		if candidates[i].Scores != nil {
			candidates[i].Scores.Combined = w.Combine(*candidates[i].Scores)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].Scores, candidates[j].Scores
		if a == nil || b == nil {
			return candidates[i].IdentificationNumber < candidates[j].IdentificationNumber
		}
		if a.Combined != b.Combined {
			return a.Combined > b.Combined
		}
		if a.LastSim != b.LastSim {
			return a.LastSim > b.LastSim
		}
		return candidates[i].IdentificationNumber < candidates[j].IdentificationNumber
	})
}
