// Package classifier assigns a coarse error category to a log line using an
// ordered table of case-insensitive patterns.
package classifier

import (
	"fmt"
	"regexp"
)

// General is returned when no pattern matches.
const General = "GENERAL_ERROR"

// Pattern maps a regular expression to a category.
type Pattern struct {
	Expr     string
	Category string
}

type rule struct {
	re       *regexp.Regexp
	category string
}

// Classifier evaluates patterns in table order; the first match wins.
type Classifier struct {
	rules []rule
}

// New compiles an ordered pattern table. Matching is case-insensitive.
func New(patterns []Pattern) (*Classifier, error) {
	c := &Classifier{rules: make([]rule, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p.Expr)
		if err != nil {
			return nil, fmt.Errorf("classifier: pattern %q: %w", p.Expr, err)
		}
		c.rules = append(c.rules, rule{re: re, category: p.Category})
	}
	return c, nil
}

// Classify returns the category of the first matching pattern, or General.
func (c *Classifier) Classify(line string) string {
	for _, r := range c.rules {
		if r.re.MatchString(line) {
			return r.category
		}
	}
	return General
}

var defaultClassifier = mustDefault()

func mustDefault() *Classifier {
	c, err := New(DefaultPatterns())
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the classifier built from DefaultPatterns.
func Default() *Classifier {
	return defaultClassifier
}

// Classify categorizes line with the default table.
func Classify(line string) string {
	return defaultClassifier.Classify(line)
}
