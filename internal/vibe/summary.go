package vibe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/neighborlens/neighborlens/internal/model"
)

// Input is everything the summary rule engine looks at.
type Input struct {
	DisplayName        string
	Census             model.CensusData
	Amenities          []string
	CommunityTextCount int
	SentimentScore     float64
}

// clauseFunc builds one summary clause and its tags. An empty clause is
// skipped; tags are unioned into the final set.
type clauseFunc func(Rules, Input) (string, []string)

// clauseFuncs run in order; the summary is their clauses joined by a
// single space.
var clauseFuncs = []clauseFunc{
	demographicsClause,
	incomeTags,
	ageTags,
	walkabilityClause,
	keywordTags,
	sentimentClause,
}

// Compose builds the vibe summary and the deduplicated lifestyle tag
// set for a location. It is pure: no I/O, no hidden state.
func Compose(rules Rules, in Input) (string, []string) {
	var clauses []string
	seen := make(map[string]struct{})

	for _, fn := range clauseFuncs {
		clause, tags := fn(rules, in)
		if clause != "" {
			clauses = append(clauses, clause)
		}
		for _, t := range tags {
			seen[t] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	return strings.Join(clauses, " "), tags
}

func demographicsClause(_ Rules, in Input) (string, []string) {
	var parts []string
	if in.Census.Population > 0 {
		parts = append(parts, fmt.Sprintf("a population of %d", in.Census.Population))
	}
	if in.Census.MedianIncome > 0 {
		parts = append(parts, fmt.Sprintf("a median household income of $%d", in.Census.MedianIncome))
	}
	if in.Census.MedianAge > 0 {
		parts = append(parts, fmt.Sprintf("a median age of %.1f", in.Census.MedianAge))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%s is a US postal area.", in.DisplayName), nil
	}
	return fmt.Sprintf("%s has %s.", in.DisplayName, joinAnd(parts)), nil
}

func incomeTags(rules Rules, in Input) (string, []string) {
	income := in.Census.MedianIncome
	switch {
	case income >= rules.IncomeExpensive:
		return "", []string{"expensive"}
	case income > 0 && income < rules.IncomeUpAndComing:
		return "", []string{"up-and-coming"}
	}
	return "", nil
}

// ageTags checks age bands in priority order; first match wins, and
// every band requires a known (non-zero) median age.
func ageTags(rules Rules, in Input) (string, []string) {
	age := in.Census.MedianAge
	switch {
	case age > 0 && age < rules.AgeCollegeTown:
		return "", []string{"college town"}
	case age > 0 && age < rules.AgeYoungProfessionals:
		return "", []string{"young professionals"}
	case age > rules.AgeQuiet:
		return "", []string{"quiet"}
	}
	return "", nil
}

func walkabilityClause(rules Rules, in Input) (string, []string) {
	n := len(in.Amenities)
	switch {
	case n >= rules.WalkableAmenities:
		clause := fmt.Sprintf("The area is highly walkable, with spots like %s nearby.",
			joinAnd(in.Amenities[:3]))
		return clause, []string{"walkable"}
	case n >= rules.SparseAmenities:
		clause := fmt.Sprintf("Amenities such as %s are within reach.",
			joinAnd(in.Amenities[:2]))
		return clause, nil
	default:
		return "Getting around is car-dependent, with few amenities close by.", []string{"suburban"}
	}
}

func keywordTags(rules Rules, in Input) (string, []string) {
	var tags []string
	if matchesAny(in.Amenities, rules.NightlifeKeywords) {
		tags = append(tags, "nightlife")
	}
	if matchesAny(in.Amenities, rules.FamilyKeywords) {
		tags = append(tags, "family-friendly")
	}
	return "", tags
}

func sentimentClause(rules Rules, in Input) (string, []string) {
	if in.CommunityTextCount == 0 {
		return "No recent community discussion was found.", nil
	}

	word := "negative"
	switch {
	case in.SentimentScore >= rules.SentimentPositive:
		word = "positive"
	case in.SentimentScore >= rules.SentimentMixed:
		word = "mixed"
	}
	return fmt.Sprintf("Community sentiment across %d posts and reviews is %s.",
		in.CommunityTextCount, word), nil
}

// matchesAny reports whether any name contains any keyword,
// case-insensitively.
func matchesAny(names, keywords []string) bool {
	for _, name := range names {
		lower := strings.ToLower(name)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// joinAnd renders a list as "a", "a and b", or "a, b, and c".
func joinAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}
