package executor

import "github.com/tuannm99/novasql/internal/record"

// Row is one decoded tuple, column-ordered per the table's schema.
type Row []record.Value

// Result is the outcome of a single executed statement: Columns/Rows for
// a query, AffectedRows for DDL/DML (for a query, the number of rows
// returned).
type Result struct {
	Columns      []string
	Rows         []Row
	AffectedRows int64
}
