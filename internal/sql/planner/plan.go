// Package planner turns a parsed Statement into a physical Plan, choosing
// between a sequential scan and an index lookup for SELECT ... WHERE.
package planner

import (
	"github.com/tuannm99/novasql/internal/record"
	"github.com/tuannm99/novasql/internal/sql/parser"
)

// Plan is the interface for executable plans.
type Plan interface {
	planNode()
}

// CreateTablePlan creates a new table with the given column specs.
type CreateTablePlan struct {
	TableName string
	Columns   []record.ColumnSpec
}

func (*CreateTablePlan) planNode() {}

// CreateIndexPlan creates a new single-column INTEGER index.
type CreateIndexPlan struct {
	IndexName string
	TableName string
	Column    string
}

func (*CreateIndexPlan) planNode() {}

// InsertPlan inserts one row of literal values, positionally matched
// against the table's schema.
type InsertPlan struct {
	TableName string
	Values    []parser.Expr
}

func (*InsertPlan) planNode() {}

// WhereEq is an optional equality filter carried by scan plans.
type WhereEq struct {
	Column string
	Value  any
}

// SeqScanPlan walks every row of a table, applying Where if present.
type SeqScanPlan struct {
	TableName string
	Where     *WhereEq
}

func (*SeqScanPlan) planNode() {}

// IndexLookupPlan uses a registered index to find matching rows directly,
// chosen by the planner whenever Where compares an indexed column with an
// INTEGER literal.
type IndexLookupPlan struct {
	TableName string
	IndexName string
	Column    string
	Key       int32
}

func (*IndexLookupPlan) planNode() {}
