package classifier

// TableVersion identifies the revision of DefaultPatterns. Bump it whenever the
// table changes, since categories are persisted in analysis artifacts.
const TableVersion = 1

// DefaultPatterns returns the built-in table. Order matters: specific
// exception names come before the generic task and DAG failure phrases, and
// ModuleNotFoundError precedes ImportError.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Expr: `ModuleNotFoundError`, Category: "IMPORT_ERROR"},
		{Expr: `ImportError`, Category: "IMPORT_ERROR"},
		{Expr: `ConnectionError`, Category: "CONNECTION_ERROR"},
		{Expr: `TimeoutError`, Category: "TIMEOUT_ERROR"},
		{Expr: `FileNotFoundError`, Category: "FILE_ERROR"},
		{Expr: `PermissionError`, Category: "PERMISSION_ERROR"},
		{Expr: `KeyError`, Category: "DATA_ERROR"},
		{Expr: `ValueError`, Category: "DATA_ERROR"},
		{Expr: `TypeError`, Category: "TYPE_ERROR"},
		{Expr: `AttributeError`, Category: "ATTRIBUTE_ERROR"},
		{Expr: `SyntaxError`, Category: "SYNTAX_ERROR"},
		{Expr: `IndentationError`, Category: "SYNTAX_ERROR"},
		{Expr: `NameError`, Category: "NAME_ERROR"},
		{Expr: `UnboundLocalError`, Category: "NAME_ERROR"},
		{Expr: `IndexError`, Category: "INDEX_ERROR"},
		{Expr: `ZeroDivisionError`, Category: "MATH_ERROR"},
		{Expr: `MemoryError`, Category: "RESOURCE_ERROR"},
		{Expr: `DiskSpaceError`, Category: "RESOURCE_ERROR"},
		{Expr: `DatabaseError`, Category: "DATABASE_ERROR"},
		{Expr: `SQLAlchemy`, Category: "DATABASE_ERROR"},
		{Expr: `psycopg2`, Category: "DATABASE_ERROR"},
		{Expr: `Task failed`, Category: "TASK_FAILURE"},
		{Expr: `Dag.*failed`, Category: "DAG_FAILURE"},
		{Expr: `Broken DAG`, Category: "DAG_BROKEN"},
		{Expr: `Missing.*dependency`, Category: "DEPENDENCY_ERROR"},
	}
}
