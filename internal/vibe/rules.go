// Package vibe synthesizes a human-readable summary, lifestyle tags,
// and a sentiment score from acquired location data. Synthesis is a
// deterministic rule engine: same inputs, same output.
package vibe

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules holds every threshold and keyword list the synthesizer uses.
type Rules struct {
	IncomeExpensive       int     `yaml:"income_expensive"`
	IncomeUpAndComing     int     `yaml:"income_up_and_coming"`
	AgeCollegeTown        float64 `yaml:"age_college_town"`
	AgeYoungProfessionals float64 `yaml:"age_young_professionals"`
	AgeQuiet              float64 `yaml:"age_quiet"`

	WalkableAmenities int `yaml:"walkable_amenities"`
	SparseAmenities   int `yaml:"sparse_amenities"`

	SentimentPositive float64 `yaml:"sentiment_positive"`
	SentimentMixed    float64 `yaml:"sentiment_mixed"`

	NightlifeKeywords []string `yaml:"nightlife_keywords"`
	FamilyKeywords    []string `yaml:"family_keywords"`
}

// DefaultRules returns the built-in rule set.
func DefaultRules() Rules {
	return Rules{
		IncomeExpensive:       120000,
		IncomeUpAndComing:     45000,
		AgeCollegeTown:        24,
		AgeYoungProfessionals: 33,
		AgeQuiet:              45,
		WalkableAmenities:     8,
		SparseAmenities:       3,
		SentimentPositive:     0.66,
		SentimentMixed:        0.33,
		NightlifeKeywords:     []string{"bar", "club", "lounge", "brewery", "pub", "cocktail"},
		FamilyKeywords:        []string{"park", "school", "playground", "library", "recreation", "daycare"},
	}
}

// LoadRules reads a rule override file. Keys absent from the file keep
// their defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, eris.Wrapf(err, "vibe: read rules %s", path)
	}

	var wrapper struct {
		Rules *Rules `yaml:"rules"`
	}
	wrapper.Rules = &rules
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return DefaultRules(), eris.Wrap(err, "vibe: parse rules")
	}

	return rules, nil
}
