// Package executor runs a physical Plan against an engine.Database,
// using a small volcano-style Init/Next iterator protocol for scans.
package executor

import (
	"fmt"

	"github.com/tuannm99/novasql/internal/engine"
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
	"github.com/tuannm99/novasql/internal/sql/parser"
	"github.com/tuannm99/novasql/internal/sql/planner"
)

// Executor runs plans against one open database.
type Executor struct {
	DB *engine.Database
}

func NewExecutor(db *engine.Database) *Executor {
	return &Executor{DB: db}
}

// ExecSQL is the top-level entry point: parse, plan, execute.
func (e *Executor) ExecSQL(sql string) (*Result, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}

	plan, err := planner.BuildPlan(stmt, e.DB.Catalog())
	if err != nil {
		return nil, err
	}

	return e.execPlan(plan)
}

func (e *Executor) execPlan(p planner.Plan) (*Result, error) {
	switch plan := p.(type) {
	case *planner.CreateTablePlan:
		return e.execCreateTable(plan)
	case *planner.CreateIndexPlan:
		return e.execCreateIndex(plan)
	case *planner.InsertPlan:
		return e.execInsert(plan)
	case *planner.SeqScanPlan:
		return e.execSeqScan(plan)
	case *planner.IndexLookupPlan:
		return e.execIndexLookup(plan)
	default:
		return nil, fmt.Errorf("executor: unsupported plan type %T", p)
	}
}

func (e *Executor) execCreateTable(p *planner.CreateTablePlan) (*Result, error) {
	if _, err := e.DB.CreateTable(p.TableName, p.Columns); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: 0}, nil
}

func (e *Executor) execCreateIndex(p *planner.CreateIndexPlan) (*Result, error) {
	if _, err := e.DB.CreateIndex(p.IndexName, p.TableName, p.Column); err != nil {
		return nil, err
	}
	return &Result{AffectedRows: 0}, nil
}

func (e *Executor) execInsert(p *planner.InsertPlan) (*Result, error) {
	info, err := e.DB.Catalog().Table(p.TableName)
	if err != nil {
		return nil, err
	}

	values, err := coerceInsertValues(info.Schema, p.Values)
	if err != nil {
		return nil, err
	}

	data, err := record.EncodeTuple(info.Schema, values)
	if err != nil {
		return nil, err
	}

	rid, err := info.Heap.InsertTuple(data)
	if err != nil {
		return nil, err
	}

	if err := e.maintainIndexesOnInsert(p.TableName, info.Schema, values, rid); err != nil {
		return nil, err
	}

	return &Result{AffectedRows: 1}, nil
}

// maintainIndexesOnInsert inserts the new row's key into every index
// registered against tableName. Index key columns are always INTEGER,
// enforced at CREATE INDEX time by the catalog.
func (e *Executor) maintainIndexesOnInsert(tableName string, schema *record.Schema, values []record.Value, rid heap.RID) error {
	for _, idx := range e.DB.Catalog().IndexesOnTable(tableName) {
		pos := -1
		for i, c := range schema.Columns {
			if c.Name == idx.KeyColumn {
				pos = i
				break
			}
		}
		if pos < 0 {
			return fmt.Errorf("executor: index %q refers to unknown column %q", idx.Name, idx.KeyColumn)
		}
		if err := idx.Index.Insert(values[pos].Int, rid); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) execSeqScan(p *planner.SeqScanPlan) (*Result, error) {
	info, err := e.DB.Catalog().Table(p.TableName)
	if err != nil {
		return nil, err
	}

	scan := NewSeqScanExecutor(info.Heap, info.Schema, p.Where)
	return runScan(scan, info.Schema)
}

func (e *Executor) execIndexLookup(p *planner.IndexLookupPlan) (*Result, error) {
	tblInfo, err := e.DB.Catalog().Table(p.TableName)
	if err != nil {
		return nil, err
	}
	idxInfo, err := e.DB.Catalog().Index(p.IndexName)
	if err != nil {
		return nil, err
	}

	scan := NewIndexScanExecutor(tblInfo.Heap, tblInfo.Schema, idxInfo.Index, p.Key)
	return runScan(scan, tblInfo.Schema)
}

func runScan(scan QueryExecutor, schema *record.Schema) (*Result, error) {
	if err := scan.Init(); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, col := range schema.Columns {
		res.Columns = append(res.Columns, col.Name)
	}

	for {
		row, ok, err := scan.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		res.Rows = append(res.Rows, row)
	}
	res.AffectedRows = int64(len(res.Rows))
	return res, nil
}

// coerceInsertValues evaluates each literal expression and binds it to
// its column's declared type, in positional order.
func coerceInsertValues(schema *record.Schema, exprs []parser.Expr) ([]record.Value, error) {
	if len(exprs) != len(schema.Columns) {
		return nil, fmt.Errorf("executor: insert values count %d != schema columns %d", len(exprs), len(schema.Columns))
	}

	out := make([]record.Value, len(exprs))
	for i, expr := range exprs {
		lit, ok := expr.(*parser.LiteralExpr)
		if !ok {
			return nil, fmt.Errorf("executor: only literal expressions supported in INSERT")
		}

		col := schema.Columns[i]
		switch v := lit.Value.(type) {
		case int32:
			if col.Type != record.Integer {
				return nil, fmt.Errorf("executor: column %q expects %s, got INTEGER literal", col.Name, col.Type)
			}
			out[i] = record.IntValue(v)
		case string:
			if col.Type != record.Varchar {
				return nil, fmt.Errorf("executor: column %q expects %s, got VARCHAR literal", col.Name, col.Type)
			}
			out[i] = record.StrValue(v)
		default:
			return nil, fmt.Errorf("executor: unsupported literal type %T for column %q", lit.Value, col.Name)
		}
	}
	return out, nil
}
