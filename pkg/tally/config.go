package tally

import (
	"regexp"
	"strings"
)

// Config holds the category vocabulary and the pipeline switches.
type Config struct {
	// CountCategories collapse to their maximum when duplicates disagree.
	CountCategories []string `yaml:"count_categories"`
	// YesCategory and NoCategory are the raw category names recovered by summation.
	YesCategory string `yaml:"yes_category"`
	NoCategory  string `yaml:"no_category"`
	// YesPattern and NoPattern select the pivot columns.
	YesPattern string `yaml:"yes_pattern"`
	NoPattern  string `yaml:"no_pattern"`
	// RecoveryPrefix is the number of folded runes used as recovery key.
	RecoveryPrefix int  `yaml:"recovery_prefix"`
	Recover        bool `yaml:"recover"`
	// TraceKeys are substrings of join labels whose rows are traced at
	// every stage through Diagnostics.
	TraceKeys []string `yaml:"trace_keys"`
}

// DefaultConfig returns the vocabulary of the federal vote exports.
func DefaultConfig() Config {
	return Config{
		CountCategories: []string{"STIMMBERECHTIGTE", "ABGEGEBENE STIMMEN", "GÜLTIGE STIMMZETTEL", "JA", "NEIN"},
		YesCategory:     "Ja",
		NoCategory:      "Nein",
		YesPattern:      `(?i)^ja$`,
		NoPattern:       `(?i)^nein$`,
		RecoveryPrefix:  4,
		Recover:         true,
		TraceKeys:       []string{"FRI", "FREI"},
	}
}

// withDefaults fills zero fields from DefaultConfig. Recover and TraceKeys
// are taken as given.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if len(c.CountCategories) == 0 {
		c.CountCategories = d.CountCategories
	}
	if c.YesCategory == "" {
		c.YesCategory = d.YesCategory
	}
	if c.NoCategory == "" {
		c.NoCategory = d.NoCategory
	}
	if c.YesPattern == "" {
		c.YesPattern = d.YesPattern
	}
	if c.NoPattern == "" {
		c.NoPattern = d.NoPattern
	}
	if c.RecoveryPrefix <= 0 {
		c.RecoveryPrefix = d.RecoveryPrefix
	}
	return c
}

func (c Config) countSet() map[string]bool {
	set := make(map[string]bool, len(c.CountCategories))
	for _, cat := range c.CountCategories {
		set[strings.ToUpper(strings.TrimSpace(cat))] = true
	}
	return set
}

func (c Config) patterns() (yes, no *regexp.Regexp, err error) {
	if yes, err = regexp.Compile(c.YesPattern); err != nil {
		return nil, nil, err
	}
	if no, err = regexp.Compile(c.NoPattern); err != nil {
		return nil, nil, err
	}
	return yes, no, nil
}
