package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// OpenSQLite opens an in-memory SQLite database wrapped in bun. The pool is
// pinned to a single connection so every query sees the same database.
func OpenSQLite(t testing.TB) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

// SeedTable creates table with the given column declarations and inserts
// rows. Row keys must match declared columns.
func SeedTable(t testing.TB, db *bun.DB, table string, columns map[string]string, rows []map[string]any) {
	t.Helper()
	ctx := context.Background()

	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)

	decls := make([]string, 0, len(names))
	for _, name := range names {
		decls = append(decls, fmt.Sprintf("%q %s", name, columns[name]))
	}

	ddl := fmt.Sprintf("CREATE TABLE %q (%s)", table, strings.Join(decls, ", "))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		t.Fatalf("failed to create table %s: %v", table, err)
	}

	for _, row := range rows {
		cols := make([]string, 0, len(row))
		marks := make([]string, 0, len(row))
		args := make([]any, 0, len(row))
		for _, name := range names {
			v, ok := row[name]
			if !ok {
				continue
			}
			cols = append(cols, fmt.Sprintf("%q", name))
			marks = append(marks, "?")
			args = append(args, v)
		}
		insert := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(marks, ", "))
		if _, err := db.DB.ExecContext(ctx, insert, args...); err != nil {
			t.Fatalf("failed to seed %s: %v", table, err)
		}
	}
}
