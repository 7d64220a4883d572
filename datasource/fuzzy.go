package datasource

import "github.com/sahilm/fuzzy"

// MaxAlternates caps the ranked alternates returned by name resolution.
const MaxAlternates = 5

// Candidate is one ranked name-resolution candidate.
type Candidate struct {
	Value string `json:"value"`
	Score int    `json:"score"`
}

// Match is the outcome of fuzzy name resolution: a best match plus a
// ranked list of alternates. A no-match carries nil Best and an empty
// (never nil) Alternates list; a best match is never fabricated.
type Match struct {
	Best       *Candidate  `json:"best,omitempty"`
	Alternates []Candidate `json:"alternates"`
}

// Rank fuzzily matches name against values and returns the best candidate
// plus up to MaxAlternates ranked alternates.
func Rank(name string, values []string) *Match {
	matches := fuzzy.Find(name, values)
	if len(matches) == 0 {
		return &Match{Alternates: []Candidate{}}
	}

	best := Candidate{Value: values[matches[0].Index], Score: matches[0].Score}
	alternates := make([]Candidate, 0, MaxAlternates)
	for _, m := range matches[1:] {
		if len(alternates) == MaxAlternates {
			break
		}
		alternates = append(alternates, Candidate{Value: values[m.Index], Score: m.Score})
	}

	return &Match{Best: &best, Alternates: alternates}
}
