package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crimson-sun/canopy/internal/connector"
	"github.com/crimson-sun/canopy/internal/model"
)

// ErrFetch wraps every failure of the pagination loop.
var ErrFetch = errors.New("log fetch failed")

// TaskGroupSuffix marks log groups that carry task logs.
const TaskGroupSuffix = "-Task"

// Query selects events from one log group.
type Query struct {
	LogGroup      string
	StartMs       int64
	EndMs         int64
	MaxEvents     int
	FilterPattern string
}

// Fetch pages through the query, handing each event to fn in arrival order.
// Each page requests min(MaxPageSize, MaxEvents-fetched) events; the loop stops
// when the service returns no continuation token or MaxEvents is reached.
// It returns the number of events delivered. Any page error aborts the fetch.
func Fetch(ctx context.Context, src connector.Connector, q Query, fn func(model.LogEvent) error) (int, error) {
	if q.MaxEvents <= 0 {
		return 0, nil
	}
	fetched := 0
	token := ""
	for {
		resp, err := src.FilterLogEvents(ctx, connector.FilterRequest{
			LogGroup:      q.LogGroup,
			StartMs:       q.StartMs,
			EndMs:         q.EndMs,
			Limit:         min(connector.MaxPageSize, q.MaxEvents-fetched),
			FilterPattern: q.FilterPattern,
			NextToken:     token,
		})
		if err != nil {
			return fetched, fmt.Errorf("%w: %s after %d events: %w", ErrFetch, q.LogGroup, fetched, err)
		}
		for _, ev := range resp.Events {
			if fetched >= q.MaxEvents {
				break
			}
			if err := fn(ev); err != nil {
				return fetched, fmt.Errorf("%w: %s: %w", ErrFetch, q.LogGroup, err)
			}
			fetched++
		}
		slog.Debug("page fetched", "component", "extractor", "group", q.LogGroup, "events", len(resp.Events), "total", fetched)
		if resp.NextToken == "" || fetched >= q.MaxEvents {
			return fetched, nil
		}
		token = resp.NextToken
	}
}

// TaskGroups lists log groups under prefix whose names end in TaskGroupSuffix.
func TaskGroups(ctx context.Context, src connector.Connector, prefix string) ([]string, error) {
	all, err := src.ListLogGroups(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: list groups: %w", ErrFetch, err)
	}
	var groups []string
	for _, name := range all {
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, TaskGroupSuffix) {
			groups = append(groups, name)
		}
	}
	slog.Info("task log groups detected", "component", "extractor", "prefix", prefix, "count", len(groups))
	return groups, nil
}
