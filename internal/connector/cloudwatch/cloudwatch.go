// Package cloudwatch queries log groups over the CloudWatch Logs JSON protocol.
//
// Requests are sent with a bearer token rather than SigV4 signatures, so the
// endpoint is expected to be a compatible service or a signing gateway.
package cloudwatch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/crimson-sun/canopy/internal/connector"
	"github.com/crimson-sun/canopy/internal/connector/httpclient"
	"github.com/crimson-sun/canopy/internal/model"
)

const (
	targetPrefix = "Logs_20140328."
	contentType  = "application/x-amz-json-1.1"
	groupsPage   = 50
)

func init() {
	connector.Register("cloudwatch", func(cfg connector.Config) (connector.Connector, error) {
		return New(cfg)
	})
}

// Connector implements connector.Connector for CloudWatch Logs.
type Connector struct {
	client *httpclient.Client
}

// New creates a Connector. Without an explicit endpoint the regional AWS
// endpoint is used.
func New(cfg connector.Config) (*Connector, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.Region == "" {
			return nil, fmt.Errorf("cloudwatch connector: endpoint or region is required")
		}
		endpoint = "https://logs." + cfg.Region + ".amazonaws.com"
	}
	client := httpclient.New(strings.TrimSuffix(endpoint, "/"), cfg.Token,
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithRateLimit(cfg.RateLimit, 1),
	)
	return &Connector{client: client}, nil
}

// Request and response types (unexported).

type filterRequest struct {
	LogGroupName  string `json:"logGroupName"`
	StartTime     int64  `json:"startTime,omitempty"`
	EndTime       int64  `json:"endTime,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	FilterPattern string `json:"filterPattern,omitempty"`
	NextToken     string `json:"nextToken,omitempty"`
}

type filteredEvent struct {
	LogStreamName string `json:"logStreamName"`
	Timestamp     int64  `json:"timestamp"`
	Message       string `json:"message"`
	EventID       string `json:"eventId"`
}

type filterResponse struct {
	Events    []filteredEvent `json:"events"`
	NextToken string          `json:"nextToken"`
}

type describeRequest struct {
	LogGroupNamePrefix string `json:"logGroupNamePrefix,omitempty"`
	NextToken          string `json:"nextToken,omitempty"`
	Limit              int    `json:"limit"`
}

type describeResponse struct {
	LogGroups []struct {
		LogGroupName string `json:"logGroupName"`
	} `json:"logGroups"`
	NextToken string `json:"nextToken"`
}

func header(action string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", contentType)
	h.Set("X-Amz-Target", targetPrefix+action)
	return h
}

func (c *Connector) FilterLogEvents(ctx context.Context, req connector.FilterRequest) (connector.FilterResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > connector.MaxPageSize {
		limit = connector.MaxPageSize
	}
	body := filterRequest{
		LogGroupName:  req.LogGroup,
		StartTime:     req.StartMs,
		EndTime:       req.EndMs,
		Limit:         limit,
		FilterPattern: req.FilterPattern,
		NextToken:     req.NextToken,
	}

	var resp filterResponse
	if err := c.client.PostJSON(ctx, "/", header("FilterLogEvents"), body, &resp); err != nil {
		return connector.FilterResponse{}, fmt.Errorf("cloudwatch connector: filter %s: %w", req.LogGroup, err)
	}

	events := make([]model.LogEvent, 0, len(resp.Events))
	for _, e := range resp.Events {
		events = append(events, model.LogEvent{
			Message:       e.Message,
			LogStreamName: e.LogStreamName,
			Timestamp:     e.Timestamp,
		})
	}
	return connector.FilterResponse{Events: events, NextToken: resp.NextToken}, nil
}

func (c *Connector) ListLogGroups(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	token := ""
	for {
		var resp describeResponse
		req := describeRequest{LogGroupNamePrefix: prefix, NextToken: token, Limit: groupsPage}
		if err := c.client.PostJSON(ctx, "/", header("DescribeLogGroups"), req, &resp); err != nil {
			return nil, fmt.Errorf("cloudwatch connector: describe log groups: %w", err)
		}
		for _, g := range resp.LogGroups {
			names = append(names, g.LogGroupName)
		}
		if resp.NextToken == "" || resp.NextToken == token {
			break
		}
		token = resp.NextToken
	}
	return names, nil
}
