// Package catalog is the registry of tables and indexes: TableInfo owns a
// table's heap and schema; IndexInfo is referenced by both table name and
// index name.
package catalog

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tuannm99/novasql/internal/btree"
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
)

var (
	// ErrTableExists is returned by CreateTable for a name already registered.
	ErrTableExists = errors.New("catalog: table already exists")
	// ErrTableNotFound is returned when a named table is absent.
	ErrTableNotFound = errors.New("catalog: table not found")
	// ErrIndexExists is returned by CreateIndex for a name already registered.
	ErrIndexExists = errors.New("catalog: index already exists")
	// ErrIndexNotFound is returned when a named index is absent.
	ErrIndexNotFound = errors.New("catalog: index not found")
	// ErrNonIntegerIndexKey is returned when CREATE INDEX targets a
	// VARCHAR column: index keys must be INTEGER, rejected at catalog
	// time rather than left to the index to discover.
	ErrNonIntegerIndexKey = errors.New("catalog: index key column must be INTEGER")
)

// TableInfo is a catalog entry owning one table's heap and schema.
type TableInfo struct {
	ID     uuid.UUID
	Name   string
	Schema *record.Schema
	Heap   *heap.Table
}

// IndexInfo is a catalog entry referencing a single-column INTEGER index
// over one table.
type IndexInfo struct {
	ID        uuid.UUID
	Name      string
	TableName string
	KeyColumn string
	Index     *btree.Tree
}

// Catalog owns every table and index in the database, looked up by name.
type Catalog struct {
	mu      sync.RWMutex
	tables  map[string]*TableInfo
	indexes map[string]*IndexInfo
}

// New constructs an empty catalog.
func New() *Catalog {
	return &Catalog{
		tables:  make(map[string]*TableInfo),
		indexes: make(map[string]*IndexInfo),
	}
}

// RegisterTable adds a freshly created TableInfo to the catalog.
func (c *Catalog) RegisterTable(info *TableInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tables[info.Name]; ok {
		return fmt.Errorf("%w: %s", ErrTableExists, info.Name)
	}
	c.tables[info.Name] = info
	return nil
}

// Table looks up a table by name.
func (c *Catalog) Table(name string) (*TableInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return t, nil
}

// RegisterIndex adds a freshly created IndexInfo to the catalog, rejecting
// non-INTEGER key columns.
func (c *Catalog) RegisterIndex(info *IndexInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.indexes[info.Name]; ok {
		return fmt.Errorf("%w: %s", ErrIndexExists, info.Name)
	}

	table, ok := c.tables[info.TableName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableNotFound, info.TableName)
	}
	col, ok := table.Schema.ColumnByName(info.KeyColumn)
	if !ok {
		return fmt.Errorf("catalog: column %q not found on table %q", info.KeyColumn, info.TableName)
	}
	if col.Type != record.Integer {
		return fmt.Errorf("%w: %s.%s", ErrNonIntegerIndexKey, info.TableName, info.KeyColumn)
	}

	c.indexes[info.Name] = info
	return nil
}

// Index looks up an index by name.
func (c *Catalog) Index(name string) (*IndexInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx, ok := c.indexes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	return idx, nil
}

// IndexesOnTable returns every index registered against tableName, for
// the planner to consider when choosing between a sequential scan and an
// index lookup.
func (c *Catalog) IndexesOnTable(tableName string) []*IndexInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*IndexInfo
	for _, idx := range c.indexes {
		if idx.TableName == tableName {
			out = append(out, idx)
		}
	}
	return out
}

// NewID returns a fresh surrogate id for a table or index.
func NewID() uuid.UUID { return uuid.New() }
