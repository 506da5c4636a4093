package planner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novasql/internal/catalog"
	"github.com/tuannm99/novasql/internal/record"
	"github.com/tuannm99/novasql/internal/sql/parser"
)

func TestBuildCreateTablePlan(t *testing.T) {
	stmt := &parser.CreateTableStmt{
		TableName: "t",
		Columns: []parser.ColumnDef{
			{Name: "id", Type: "INT"},
			{Name: "name", Type: "VARCHAR", Length: 16},
		},
	}
	p, err := BuildPlan(stmt, nil)
	require.NoError(t, err)

	plan, ok := p.(*CreateTablePlan)
	require.True(t, ok)
	require.Equal(t, "t", plan.TableName)
	require.Len(t, plan.Columns, 2)
	require.Equal(t, record.Integer, plan.Columns[0].Type)
	require.Equal(t, record.Varchar, plan.Columns[1].Type)
	require.Equal(t, 16, plan.Columns[1].Length)
}

func TestBuildCreateTablePlan_UnsupportedType(t *testing.T) {
	stmt := &parser.CreateTableStmt{
		TableName: "t",
		Columns:   []parser.ColumnDef{{Name: "x", Type: "FLOAT"}},
	}
	_, err := BuildPlan(stmt, nil)
	require.Error(t, err)
}

func TestBuildCreateIndexPlan(t *testing.T) {
	stmt := &parser.CreateIndexStmt{IndexName: "by_id", TableName: "users", Column: "id"}
	p, err := BuildPlan(stmt, nil)
	require.NoError(t, err)

	plan, ok := p.(*CreateIndexPlan)
	require.True(t, ok)
	require.Equal(t, "by_id", plan.IndexName)
	require.Equal(t, "users", plan.TableName)
	require.Equal(t, "id", plan.Column)
}

func TestBuildInsertPlan(t *testing.T) {
	stmt := &parser.InsertStmt{
		TableName: "users",
		Values: []parser.Expr{
			&parser.LiteralExpr{Value: int32(1)},
			&parser.LiteralExpr{Value: "a"},
		},
	}
	p, err := BuildPlan(stmt, nil)
	require.NoError(t, err)

	plan, ok := p.(*InsertPlan)
	require.True(t, ok)
	require.Equal(t, "users", plan.TableName)
	require.Len(t, plan.Values, 2)
}

func newCatalogWithIndexedTable(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat := catalog.New()

	schema, err := record.NewSchema([]record.ColumnSpec{{Name: "id", Type: record.Integer}})
	require.NoError(t, err)

	require.NoError(t, cat.RegisterTable(&catalog.TableInfo{
		ID:     catalog.NewID(),
		Name:   "users",
		Schema: schema,
	}))
	return cat
}

func TestBuildSelectPlan_NoWhere_SeqScan(t *testing.T) {
	stmt := &parser.SelectStmt{TableName: "users"}
	p, err := BuildPlan(stmt, catalog.New())
	require.NoError(t, err)

	plan, ok := p.(*SeqScanPlan)
	require.True(t, ok)
	require.Equal(t, "users", plan.TableName)
	require.Nil(t, plan.Where)
}

func TestBuildSelectPlan_WhereWithoutIndex_SeqScan(t *testing.T) {
	stmt := &parser.SelectStmt{
		TableName: "users",
		Where:     &parser.WhereEq{Column: "id", Value: &parser.LiteralExpr{Value: int32(7)}},
	}
	p, err := BuildPlan(stmt, catalog.New())
	require.NoError(t, err)

	plan, ok := p.(*SeqScanPlan)
	require.True(t, ok)
	require.NotNil(t, plan.Where)
	require.Equal(t, "id", plan.Where.Column)
	require.Equal(t, int32(7), plan.Where.Value)
}

func TestBuildSelectPlan_WhereWithIndex_IndexLookup(t *testing.T) {
	cat := newCatalogWithIndexedTable(t)
	require.NoError(t, cat.RegisterIndex(&catalog.IndexInfo{
		ID:        catalog.NewID(),
		Name:      "by_id",
		TableName: "users",
		KeyColumn: "id",
	}))

	stmt := &parser.SelectStmt{
		TableName: "users",
		Where:     &parser.WhereEq{Column: "id", Value: &parser.LiteralExpr{Value: int32(42)}},
	}
	p, err := BuildPlan(stmt, cat)
	require.NoError(t, err)

	plan, ok := p.(*IndexLookupPlan)
	require.True(t, ok)
	require.Equal(t, "users", plan.TableName)
	require.Equal(t, "by_id", plan.IndexName)
	require.Equal(t, "id", plan.Column)
	require.Equal(t, int32(42), plan.Key)
}

func TestBuildSelectPlan_StringWhereNeverUsesIndex(t *testing.T) {
	cat := newCatalogWithIndexedTable(t)
	require.NoError(t, cat.RegisterIndex(&catalog.IndexInfo{
		ID:        catalog.NewID(),
		Name:      "by_id",
		TableName: "users",
		KeyColumn: "id",
	}))

	stmt := &parser.SelectStmt{
		TableName: "users",
		Where:     &parser.WhereEq{Column: "id", Value: &parser.LiteralExpr{Value: "bob"}},
	}
	p, err := BuildPlan(stmt, cat)
	require.NoError(t, err)

	_, ok := p.(*SeqScanPlan)
	require.True(t, ok)
}

func TestMapSQLType(t *testing.T) {
	t.Run("int_variants", func(t *testing.T) {
		got, err := mapSQLType("INT")
		require.NoError(t, err)
		require.Equal(t, record.Integer, got)

		got, err = mapSQLType("integer")
		require.NoError(t, err)
		require.Equal(t, record.Integer, got)
	})

	t.Run("varchar", func(t *testing.T) {
		got, err := mapSQLType("VaRcHaR")
		require.NoError(t, err)
		require.Equal(t, record.Varchar, got)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := mapSQLType("FLOAT")
		require.Error(t, err)
	})
}
