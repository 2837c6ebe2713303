package classifier

import "testing"

func TestClassify_Default(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"ERROR - ModuleNotFoundError: No module named 'pandas'", "IMPORT_ERROR"},
		{"ERROR - importerror: cannot import name 'x'", "IMPORT_ERROR"},
		{"ERROR - requests.exceptions.ConnectionError: refused", "CONNECTION_ERROR"},
		{"ERROR - KeyError: 'id'", "DATA_ERROR"},
		{"ERROR - sqlalchemy.exc.OperationalError", "DATABASE_ERROR"},
		{"ERROR - psycopg2.errors.UniqueViolation", "DATABASE_ERROR"},
		{"ERROR - Task failed with exception", "TASK_FAILURE"},
		{"ERROR - Dag run etl has failed", "DAG_FAILURE"},
		{"ERROR - Broken DAG: [/dags/etl.py]", "DAG_BROKEN"},
		{"ERROR - Missing required dependency: boto3", "DEPENDENCY_ERROR"},
		{"ERROR - something odd happened", General},
		{"", General},
	}
	for _, tt := range tests {
		if got := Classify(tt.line); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	// Both ImportError and "Task failed" occur; the earlier table entry decides.
	line := "ERROR - Task failed: ImportError: cannot import name 'DAG'"
	if got := Classify(line); got != "IMPORT_ERROR" {
		t.Fatalf("got %q, want IMPORT_ERROR", got)
	}

	swapped, err := New([]Pattern{
		{Expr: `Task failed`, Category: "TASK_FAILURE"},
		{Expr: `ImportError`, Category: "IMPORT_ERROR"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := swapped.Classify(line); got != "TASK_FAILURE" {
		t.Fatalf("swapped table: got %q, want TASK_FAILURE", got)
	}
}

func TestClassify_ModuleNotFoundBeforeImport(t *testing.T) {
	c, err := New([]Pattern{
		{Expr: `ImportError`, Category: "A"},
		{Expr: `ModuleNotFoundError`, Category: "B"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	line := "ModuleNotFoundError (subclass of ImportError)"
	if got := c.Classify(line); got != "A" {
		t.Fatalf("got %q, want A", got)
	}
	if got := Classify(line); got != "IMPORT_ERROR" {
		t.Fatalf("default table: got %q", got)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	if _, err := New([]Pattern{{Expr: "(", Category: "X"}}); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
