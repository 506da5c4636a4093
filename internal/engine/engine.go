// Package engine wires the catalog, buffer pools, table heaps, and
// indexes together into a single database rooted at one data directory.
package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tuannm99/novasql/internal/buffer"
	"github.com/tuannm99/novasql/internal/btree"
	"github.com/tuannm99/novasql/internal/catalog"
	"github.com/tuannm99/novasql/internal/heap"
	"github.com/tuannm99/novasql/internal/record"
	"github.com/tuannm99/novasql/internal/storage"
)

// tableHandle pairs one table's backing file with its own buffer pool.
type tableHandle struct {
	disk *storage.DiskManager
	pool *buffer.Pool
}

// indexHandle pairs one index's backing file with its own buffer pool.
type indexHandle struct {
	disk *storage.DiskManager
	pool *buffer.Pool
}

// Database is the top-level handle the executor drives: it owns the
// catalog and every table/index's storage.
type Database struct {
	dir                string
	bufferPoolCapacity int
	catalog            *catalog.Catalog
	tables             map[string]*tableHandle
	indexes            map[string]*indexHandle
}

// tableMeta / indexMeta are the JSON-persisted catalog records written
// alongside each table/index's data file, so a restart can reattach
// without re-running CREATE TABLE/CREATE INDEX.
type tableMeta struct {
	Name    string              `json:"name"`
	Columns []record.ColumnSpec `json:"columns"`
}

type indexMeta struct {
	Name      string `json:"name"`
	TableName string `json:"table_name"`
	KeyColumn string `json:"key_column"`
}

// Open opens (creating if absent) a database rooted at dir, with the
// given per-table/index buffer pool capacity, and reattaches to any
// tables/indexes whose metadata files already exist there.
func Open(dir string, bufferPoolCapacity int) (*Database, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create data dir %s: %w", dir, err)
	}

	db := &Database{
		dir:                dir,
		bufferPoolCapacity: bufferPoolCapacity,
		catalog:            catalog.New(),
		tables:             make(map[string]*tableHandle),
		indexes:            make(map[string]*indexHandle),
	}

	if err := db.reattachTables(); err != nil {
		return nil, err
	}
	if err := db.reattachIndexes(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *Database) tableMetaPath(name string) string { return filepath.Join(db.dir, name+".table.json") }
func (db *Database) tableDataPath(name string) string { return filepath.Join(db.dir, name+".table.db") }
func (db *Database) indexMetaPath(name string) string  { return filepath.Join(db.dir, name+".index.json") }
func (db *Database) indexDataPath(name string) string  { return filepath.Join(db.dir, name+".index.db") }

func (db *Database) reattachTables() error {
	matches, err := filepath.Glob(filepath.Join(db.dir, "*.table.json"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("engine: read %s: %w", path, err)
		}
		var meta tableMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return fmt.Errorf("engine: parse %s: %w", path, err)
		}

		schema, err := record.NewSchema(meta.Columns)
		if err != nil {
			return err
		}

		h, err := db.openTableHandle(meta.Name)
		if err != nil {
			return err
		}

		// The first page of a table's file is always its first/last page
		// on a fresh create; on reattach we trust the on-disk chain
		// starting at page 0 and walk to find the true last page.
		lastPageID, err := findLastPageID(h)
		if err != nil {
			return err
		}

		tbl := heap.Open(h.pool, 0, lastPageID)
		if err := db.catalog.RegisterTable(&catalog.TableInfo{
			ID:     catalog.NewID(),
			Name:   meta.Name,
			Schema: schema,
			Heap:   tbl,
		}); err != nil {
			return err
		}
		slog.Debug("engine: reattached table", "name", meta.Name)
	}
	return nil
}

func (db *Database) reattachIndexes() error {
	matches, err := filepath.Glob(filepath.Join(db.dir, "*.index.json"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("engine: read %s: %w", path, err)
		}
		var meta indexMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return fmt.Errorf("engine: parse %s: %w", path, err)
		}

		h, err := db.openIndexHandle(meta.Name)
		if err != nil {
			return err
		}

		rootPageID, err := findRootPageID(h)
		if err != nil {
			return err
		}
		tree := btree.OpenTree(h.pool, rootPageID)

		if err := db.catalog.RegisterIndex(&catalog.IndexInfo{
			ID:        catalog.NewID(),
			Name:      meta.Name,
			TableName: meta.TableName,
			KeyColumn: meta.KeyColumn,
			Index:     tree,
		}); err != nil {
			return err
		}
		slog.Debug("engine: reattached index", "name", meta.Name)
	}
	return nil
}

// findLastPageID walks the heap's page chain starting at 0 to find the
// current tail, used only when reattaching to an existing table file.
func findLastPageID(h *tableHandle) (storage.PageID, error) {
	pageID := storage.PageID(0)
	for {
		g, err := h.pool.FetchGuarded(pageID)
		if err != nil {
			return storage.InvalidPageID, err
		}
		tp := heap.NewTablePage(g.Bytes())
		next := tp.NextPageID()
		if err := g.Release(); err != nil {
			return storage.InvalidPageID, err
		}
		if next == storage.InvalidPageID {
			return pageID, nil
		}
		pageID = next
	}
}

// findRootPageID returns InvalidPageID (an empty tree) if the index file
// has no pages yet. Otherwise it starts at page 0, the first leaf that
// Tree.Insert's empty-tree bootstrap allocates and which stays the
// leftmost leaf, and follows parent_page_id up to the node that has none.
func findRootPageID(h *indexHandle) (storage.PageID, error) {
	if h.disk.AllocatedPageCount() == 0 {
		return storage.InvalidPageID, nil
	}
	pageID := storage.PageID(0)
	for {
		g, err := h.pool.FetchGuarded(pageID)
		if err != nil {
			return storage.InvalidPageID, err
		}
		// leaf and internal pages share the header, so a leaf view reads
		// parent_page_id for either kind.
		parent := btree.NewLeafPage(g.Bytes()).ParentPageID()
		if err := g.Release(); err != nil {
			return storage.InvalidPageID, err
		}
		if parent == storage.InvalidPageID {
			return pageID, nil
		}
		pageID = parent
	}
}

func (db *Database) openTableHandle(name string) (*tableHandle, error) {
	if h, ok := db.tables[name]; ok {
		return h, nil
	}
	disk, err := storage.Open(db.tableDataPath(name))
	if err != nil {
		return nil, err
	}
	h := &tableHandle{disk: disk, pool: buffer.NewPool(disk, db.bufferPoolCapacity)}
	db.tables[name] = h
	return h, nil
}

func (db *Database) openIndexHandle(name string) (*indexHandle, error) {
	if h, ok := db.indexes[name]; ok {
		return h, nil
	}
	disk, err := storage.Open(db.indexDataPath(name))
	if err != nil {
		return nil, err
	}
	h := &indexHandle{disk: disk, pool: buffer.NewPool(disk, db.bufferPoolCapacity)}
	db.indexes[name] = h
	return h, nil
}

// CreateTable creates a brand-new table, persists its metadata, and
// registers it in the catalog.
func (db *Database) CreateTable(name string, specs []record.ColumnSpec) (*catalog.TableInfo, error) {
	schema, err := record.NewSchema(specs)
	if err != nil {
		return nil, err
	}

	h, err := db.openTableHandle(name)
	if err != nil {
		return nil, err
	}
	tbl, err := heap.Create(h.pool)
	if err != nil {
		return nil, err
	}

	meta := tableMeta{Name: name, Columns: specs}
	if err := writeJSON(db.tableMetaPath(name), meta); err != nil {
		return nil, err
	}

	info := &catalog.TableInfo{ID: catalog.NewID(), Name: name, Schema: schema, Heap: tbl}
	if err := db.catalog.RegisterTable(info); err != nil {
		return nil, err
	}
	slog.Info("engine: created table", "name", name)
	return info, nil
}

// CreateIndex creates a brand-new, empty index over one INTEGER column
// of an existing table, persists its metadata, and registers it.
func (db *Database) CreateIndex(name, tableName, keyColumn string) (*catalog.IndexInfo, error) {
	h, err := db.openIndexHandle(name)
	if err != nil {
		return nil, err
	}
	tree := btree.NewTree(h.pool)

	info := &catalog.IndexInfo{
		ID:        catalog.NewID(),
		Name:      name,
		TableName: tableName,
		KeyColumn: keyColumn,
		Index:     tree,
	}
	if err := db.catalog.RegisterIndex(info); err != nil {
		return nil, err
	}

	meta := indexMeta{Name: name, TableName: tableName, KeyColumn: keyColumn}
	if err := writeJSON(db.indexMetaPath(name), meta); err != nil {
		return nil, err
	}
	slog.Info("engine: created index", "name", name, "table", tableName, "column", keyColumn)
	return info, nil
}

// Catalog exposes the database's catalog to the planner/executor.
func (db *Database) Catalog() *catalog.Catalog { return db.catalog }

// Close flushes and closes every open table/index file.
func (db *Database) Close() error {
	for _, h := range db.tables {
		if err := h.pool.FlushAll(); err != nil {
			return err
		}
		if err := h.disk.Close(); err != nil {
			return err
		}
	}
	for _, h := range db.indexes {
		if err := h.pool.FlushAll(); err != nil {
			return err
		}
		if err := h.disk.Close(); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
