package compactor

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"whitespace", "   \t\n  ", 0},
		{"single word", "Traceback", 2},
		{"error line", "ERROR - ValueError: bad row", 7},
		{"frame line", `  File "/opt/airflow/dags/etl.py", line 12, in load`, 8},
		{"task status", "[2024-05-01 10:00:00] INFO - Marking task as FAILED.", 11},
		{"long message", strings.Repeat("row ", 500), 650},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateTokens(tt.in); got != tt.want {
				t.Fatalf("EstimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCompactBudgetOnContextBlock(t *testing.T) {
	block := strings.Join([]string{
		"Traceback (most recent call last):",
		`  File "/opt/airflow/dags/etl.py", line 12, in load`,
		"ERROR - ValueError: bad row",
		"[2024-05-01 10:00:00] INFO - Marking task as FAILED.",
	}, "\n")

	// 7 + 8 + 7 tokens fit; the status line (11) does not.
	got, truncated := New(22, 0).Compact(block)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if !strings.HasSuffix(got, "ERROR - ValueError: bad row\n... [1 lines truncated]") {
		t.Fatalf("unexpected compaction:\n%s", got)
	}

	got, truncated = New(33, 0).Compact(block)
	if truncated || got != block {
		t.Fatalf("block within budget was changed (truncated=%v):\n%s", truncated, got)
	}
}
