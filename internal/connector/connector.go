package connector

import (
	"context"
	"time"

	"github.com/crimson-sun/canopy/internal/model"
)

// MaxPageSize is the largest page a single FilterLogEvents call may request.
const MaxPageSize = 10000

// Connector is a windowed, paginated log query service.
type Connector interface {
	// FilterLogEvents returns one page of events from a log group.
	// An empty NextToken in the response means there are no further pages.
	FilterLogEvents(ctx context.Context, req FilterRequest) (FilterResponse, error)

	// ListLogGroups returns the names of log groups starting with prefix.
	ListLogGroups(ctx context.Context, prefix string) ([]string, error)
}

// Config holds provider-specific connection settings.
type Config struct {
	Provider  string
	Endpoint  string
	Token     string
	Region    string
	RateLimit float64 // requests per second; 0 disables limiting
	Timeout   time.Duration
	Extra     map[string]string
}

// FilterRequest selects one page of events in [StartMs, EndMs).
type FilterRequest struct {
	LogGroup      string
	StartMs       int64
	EndMs         int64
	Limit         int
	FilterPattern string
	NextToken     string
}

// FilterResponse is one page of events.
type FilterResponse struct {
	Events    []model.LogEvent
	NextToken string
}
