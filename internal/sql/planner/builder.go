package planner

import (
	"fmt"
	"strings"

	"github.com/tuannm99/novasql/internal/catalog"
	"github.com/tuannm99/novasql/internal/record"
	"github.com/tuannm99/novasql/internal/sql/parser"
)

// BuildPlan builds a physical plan from an AST statement, consulting cat
// to choose an index lookup over a sequential scan when possible.
func BuildPlan(stmt parser.Statement, cat *catalog.Catalog) (Plan, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		return buildCreateTablePlan(s)
	case *parser.CreateIndexStmt:
		return buildCreateIndexPlan(s)
	case *parser.InsertStmt:
		return buildInsertPlan(s)
	case *parser.SelectStmt:
		return buildSelectPlan(s, cat)
	default:
		return nil, fmt.Errorf("planner: unsupported statement type %T", stmt)
	}
}

func buildCreateTablePlan(s *parser.CreateTableStmt) (Plan, error) {
	specs := make([]record.ColumnSpec, 0, len(s.Columns))
	for _, c := range s.Columns {
		colType, err := mapSQLType(c.Type)
		if err != nil {
			return nil, err
		}
		specs = append(specs, record.ColumnSpec{
			Name:   c.Name,
			Type:   colType,
			Length: c.Length,
		})
	}
	return &CreateTablePlan{TableName: s.TableName, Columns: specs}, nil
}

func buildCreateIndexPlan(s *parser.CreateIndexStmt) (Plan, error) {
	return &CreateIndexPlan{
		IndexName: s.IndexName,
		TableName: s.TableName,
		Column:    s.Column,
	}, nil
}

func buildInsertPlan(s *parser.InsertStmt) (Plan, error) {
	return &InsertPlan{TableName: s.TableName, Values: s.Values}, nil
}

// buildSelectPlan picks an IndexLookupPlan when the WHERE column has a
// registered index and the literal is an INTEGER; otherwise a SeqScanPlan.
func buildSelectPlan(s *parser.SelectStmt, cat *catalog.Catalog) (Plan, error) {
	if s.Where == nil {
		return &SeqScanPlan{TableName: s.TableName}, nil
	}

	lit, ok := s.Where.Value.(*parser.LiteralExpr)
	if !ok {
		return nil, fmt.Errorf("planner: unsupported WHERE value expression %T", s.Where.Value)
	}

	where := &WhereEq{Column: s.Where.Column, Value: lit.Value}

	key, isInt := lit.Value.(int32)
	if isInt {
		for _, idx := range cat.IndexesOnTable(s.TableName) {
			if idx.KeyColumn == s.Where.Column {
				return &IndexLookupPlan{
					TableName: s.TableName,
					IndexName: idx.Name,
					Column:    s.Where.Column,
					Key:       key,
				}, nil
			}
		}
	}

	return &SeqScanPlan{TableName: s.TableName, Where: where}, nil
}

func mapSQLType(t string) (record.ColumnType, error) {
	switch strings.ToUpper(t) {
	case "INT", "INTEGER":
		return record.Integer, nil
	case "VARCHAR":
		return record.Varchar, nil
	default:
		return 0, fmt.Errorf("unsupported column type: %s", t)
	}
}
