package canopy

import (
	"github.com/crimson-sun/canopy/internal/engine/classifier"
	"github.com/crimson-sun/canopy/internal/stats"
)

// Pattern maps a case-insensitive regular expression to an error category.
type Pattern = classifier.Pattern

type options struct {
	patterns    []Pattern
	sampleLimit int
}

// Option configures a Canopy instance.
type Option func(*options)

// WithPatterns replaces the built-in classification table. Patterns are
// tried in order and the first match wins.
func WithPatterns(p []Pattern) Option {
	return func(o *options) {
		o.patterns = p
	}
}

// WithSampleLimit bounds the failure samples kept per task. Default: 20.
func WithSampleLimit(n int) Option {
	return func(o *options) {
		o.sampleLimit = n
	}
}

func defaultOptions() options {
	return options{
		patterns:    classifier.DefaultPatterns(),
		sampleLimit: stats.DefaultSampleLimit,
	}
}
