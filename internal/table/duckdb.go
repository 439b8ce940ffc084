package table

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Reader owns an in-memory DuckDB connection used to parse delimited,
// Parquet and JSON tables. Nothing is written to disk.
type Reader struct {
	DB *sql.DB
}

// NewReader opens an in-memory DuckDB database.
func NewReader() (*Reader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	return &Reader{DB: db}, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	return r.DB.Close()
}

func (r *Reader) readDuckDB(ctx context.Context, path, ext string) ([]string, [][]string, error) {
	lit := quoteLiteral(path)

	var from string
	switch ext {
	case ".csv", ".txt":
		from = fmt.Sprintf("read_csv(%s, header = true, all_varchar = true)", lit)
	case ".tsv":
		from = fmt.Sprintf("read_csv(%s, header = true, all_varchar = true, delim = '\t')", lit)
	case ".parquet":
		from = fmt.Sprintf("read_parquet(%s)", lit)
	case ".json", ".ndjson":
		from = fmt.Sprintf("read_json_auto(%s)", lit)
	default:
		return nil, nil, fmt.Errorf("no duckdb reader for %q", ext)
	}

	header, err := r.columns(ctx, from)
	if err != nil {
		return nil, nil, err
	}

	// Parquet and JSON columns keep their inferred types such as DECIMAL;
	// casting in SQL hands every cell to Go as text.
	casts := make([]string, len(header))
	for i, name := range header {
		id := quoteIdent(name)
		casts[i] = fmt.Sprintf("CAST(%s AS VARCHAR) AS %s", id, id)
	}
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s", strings.Join(casts, ", "), from))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var records [][]string
	vals := make([]sql.NullString, len(header))
	ptrs := make([]any, len(header))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = v.String
		}
		records = append(records, rec)
	}
	return header, records, rows.Err()
}

func (r *Reader) columns(ctx context.Context, from string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT * FROM "+from+" LIMIT 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return rows.Columns()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
