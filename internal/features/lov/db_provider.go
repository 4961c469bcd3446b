package lov

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
)

// databaseProvider runs a SQL query whose first column is the key and whose
// second column is the label. Postgres and MySQL drivers are linked in.
type databaseProvider struct {
	source *workflow.LovDatabaseSource
}

func (p *databaseProvider) Fetch(ctx context.Context) ([]Entry, error) {
	switch p.source.Driver {
	case "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported lov database driver %q", p.source.Driver)
	}

	db, err := sql.Open(p.source.Driver, p.source.DSN)
	if err != nil {
		return nil, fmt.Errorf("lov database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, p.source.Query)
	if err != nil {
		return nil, fmt.Errorf("lov database query: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var key, label string
		if err := rows.Scan(&key, &label); err != nil {
			return nil, fmt.Errorf("lov database row: %w", err)
		}
		entries = append(entries, Entry{Key: key, Label: label})
	}
	return entries, rows.Err()
}
