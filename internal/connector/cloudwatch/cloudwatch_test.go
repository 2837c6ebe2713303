package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/crimson-sun/canopy/internal/connector"
	"github.com/crimson-sun/canopy/internal/connector/httpclient"
)

func TestFilterLogEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Amz-Target"); got != "Logs_20140328.FilterLogEvents" {
			t.Errorf("unexpected target %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/x-amz-json-1.1" {
			t.Errorf("unexpected content type %q", got)
		}
		var req filterRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.LogGroupName != "airflow-Task" || req.StartTime != 100 || req.EndTime != 200 ||
			req.Limit != 500 || req.FilterPattern != "ERROR" || req.NextToken != "t1" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Write([]byte(`{"events":[{"logStreamName":"etl/load/r1/1.log","timestamp":150,"message":"ERROR x","eventId":"1"}],"nextToken":"t2"}`))
	}))
	defer srv.Close()

	c, err := New(connector.Config{Endpoint: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := c.FilterLogEvents(context.Background(), connector.FilterRequest{
		LogGroup: "airflow-Task", StartMs: 100, EndMs: 200, Limit: 500, FilterPattern: "ERROR", NextToken: "t1",
	})
	if err != nil {
		t.Fatalf("FilterLogEvents: %v", err)
	}
	if len(resp.Events) != 1 || resp.NextToken != "t2" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	ev := resp.Events[0]
	if ev.LogStreamName != "etl/load/r1/1.log" || ev.Timestamp != 150 || ev.Message != "ERROR x" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestFilterLogEvents_LimitClamped(t *testing.T) {
	var got int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req filterRequest
		json.NewDecoder(r.Body).Decode(&req)
		got = req.Limit
		w.Write([]byte(`{"events":[]}`))
	}))
	defer srv.Close()

	c, _ := New(connector.Config{Endpoint: srv.URL})
	if _, err := c.FilterLogEvents(context.Background(), connector.FilterRequest{LogGroup: "g", Limit: 50000}); err != nil {
		t.Fatalf("FilterLogEvents: %v", err)
	}
	if got != connector.MaxPageSize {
		t.Fatalf("expected limit clamped to %d, got %d", connector.MaxPageSize, got)
	}
}

func TestFilterLogEvents_ClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		w.Write([]byte(`{"__type":"ResourceNotFoundException"}`))
	}))
	defer srv.Close()

	c, _ := New(connector.Config{Endpoint: srv.URL})
	_, err := c.FilterLogEvents(context.Background(), connector.FilterRequest{LogGroup: "missing"})
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 400 {
		t.Fatalf("expected wrapped APIError, got %v", err)
	}
}

func TestListLogGroups_Paginates(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Amz-Target"); got != "Logs_20140328.DescribeLogGroups" {
			t.Errorf("unexpected target %q", got)
		}
		var req describeRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.LogGroupNamePrefix != "airflow" {
			t.Errorf("unexpected prefix %q", req.LogGroupNamePrefix)
		}
		calls++
		if req.NextToken == "" {
			w.Write([]byte(`{"logGroups":[{"logGroupName":"airflow-Task"},{"logGroupName":"airflow-Scheduler"}],"nextToken":"p2"}`))
			return
		}
		w.Write([]byte(`{"logGroups":[{"logGroupName":"airflow-dev-Task"}]}`))
	}))
	defer srv.Close()

	c, _ := New(connector.Config{Endpoint: srv.URL})
	got, err := c.ListLogGroups(context.Background(), "airflow")
	if err != nil {
		t.Fatalf("ListLogGroups: %v", err)
	}
	want := []string{"airflow-Task", "airflow-Scheduler", "airflow-dev-Task"}
	if !reflect.DeepEqual(got, want) || calls != 2 {
		t.Fatalf("got %v after %d calls", got, calls)
	}
}

func TestNew_RequiresEndpointOrRegion(t *testing.T) {
	if _, err := New(connector.Config{}); err == nil {
		t.Fatal("expected error without endpoint and region")
	}
	if _, err := New(connector.Config{Region: "eu-west-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
