package main_test

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/containerd/nerdctl/mod/tigron/expect"
	"github.com/containerd/nerdctl/mod/tigron/test"
	"github.com/containerd/nerdctl/mod/tigron/tig"

	"github.com/crimson-sun/canopy/internal/model"
	"github.com/crimson-sun/canopy/internal/testutils"
)

func expectContains(parts ...string) test.Comparator {
	return func(stdout string, testing tig.T) {
		testing.Helper()

		for _, part := range parts {
			if !strings.Contains(stdout, part) {
				testing.Log(fmt.Sprintf("expected %q in output:\n%s", part, stdout))
				testing.Fail()
			}
		}
	}
}

func writeExport(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	now := time.Now()
	events := []model.LogEvent{
		{
			LogStreamName: "dag_id=etl/task_id=load/run_id=r1/attempt=1.log",
			Message:       "Marking task as SUCCESS",
			Timestamp:     now.Add(-time.Hour).UnixMilli(),
		},
		{
			LogStreamName: "dag_id=etl/task_id=load/run_id=r2/attempt=1.log",
			Message:       "Marking task as FAILED",
			Timestamp:     now.Add(-30 * time.Minute).UnixMilli(),
		},
	}
	var b strings.Builder
	for _, ev := range events {
		line, err := json.Marshal(ev)
		if err != nil {
			t.Fatal(err)
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(dir, "airflow-prod-Task.ndjson"), []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestCommands(t *testing.T) {
	testCase := testutils.Setup(t)
	logs := writeExport(t)
	reports := t.TempDir()

	testCase.SubTests = []*test.Case{
		{
			Description: "version flag",
			Command:     test.Command("--version"),
			Expected:    test.Expects(expect.ExitCodeSuccess, nil, expectContains("canopy")),
		},
		{
			Description: "classify without arguments fails",
			Command:     test.Command("classify"),
			Expected:    test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
		{
			Description: "classify reports the category",
			Command: func(_ test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("classify", "--format", "json", "ERROR - ConnectionError: refused by upstream")
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectContains("CONNECTION_ERROR"),
				}
			},
		},
		{
			Description: "identify parses a stream name",
			Command: func(_ test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("identify", "--format", "json", "dag_id=etl/task_id=load/run_id=r1/attempt=1.log")
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectContains("etl", "load", "r1", "attempt=1.log"),
				}
			},
		},
		{
			Description: "stats reads an export directory",
			Command: func(_ test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("stats",
					"--provider", "export",
					"--endpoint", logs,
					"--reports", reports,
					"--format", "json",
				)
			},
			Expected: func(_ test.Data, _ test.Helpers) *test.Expected {
				return &test.Expected{
					ExitCode: expect.ExitCodeSuccess,
					Output:   expectContains("etl", "total_runs"),
				}
			},
		},
		{
			Description: "stats with an unknown provider fails",
			Command: func(_ test.Data, helpers test.Helpers) test.TestableCommand {
				return helpers.Command("stats", "--provider", "nope", "--reports", reports)
			},
			Expected: test.Expects(expect.ExitCodeGenericFail, nil, nil),
		},
	}

	testCase.Run(t)
}
