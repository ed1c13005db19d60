package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/verte-zerg/concerto/internal/logging"
	"github.com/verte-zerg/concerto/internal/model"
)

// Columns names the dataset columns holding each catalog field.
type Columns struct {
	ProgramID string
	WorkOrder string
	Title     string
	Composer  string
	Conductor string
	Session   string
	Series    string
	Weekday   string
	Month     string
}

// DefaultColumns returns the column names of the published season dataset.
func DefaultColumns() Columns {
	return Columns{
		ProgramID: "program_id",
		WorkOrder: "work_order",
		Title:     "titulo",
		Composer:  "compositor",
		Conductor: "regente",
		Session:   "concerto",
		Series:    "serie",
		Weekday:   "dia_semana",
		Month:     "mês",
	}
}

// Load reads a Parquet, CSV or JSON dataset through an in-memory DuckDB.
func Load(ctx context.Context, path string, cols Columns) (*Catalog, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat catalog: %w", err)
	}
	source, err := sourceExpr(path)
	if err != nil {
		return nil, err
	}
	query, err := selectQuery(source, cols)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close of the in-memory database.
			_ = cerr
		}
	}()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Row
	for rows.Next() {
		var r model.Row
		var workOrder, month sql.NullInt64
		if err := rows.Scan(&r.ProgramID, &workOrder, &r.Title, &r.Composer, &r.Conductor,
			&r.Session, &r.Series, &r.Weekday, &month); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		r.WorkOrder = int(workOrder.Int64)
		if month.Valid && month.Int64 >= 1 && month.Int64 <= 12 {
			r.Month = int(month.Int64)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog rows: %w", err)
	}

	cat := New(result)
	logging.Info().Str("path", path).Int("rows", cat.Len()).Int("programs", cat.ProgramCount()).Msg("catalog loaded")
	return cat, nil
}

func sourceExpr(path string) (string, error) {
	lit := quoteLiteral(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return fmt.Sprintf("read_parquet(%s)", lit), nil
	case ".csv", ".tsv":
		return fmt.Sprintf("read_csv(%s, header = true)", lit), nil
	case ".json", ".jsonl", ".ndjson":
		return fmt.Sprintf("read_json_auto(%s)", lit), nil
	default:
		return "", fmt.Errorf("unsupported catalog format %q (want parquet, csv or json)", filepath.Ext(path))
	}
}

func selectQuery(source string, cols Columns) (string, error) {
	fields := []struct {
		name    string
		column  string
		numeric bool
	}{
		{"program_id", cols.ProgramID, false},
		{"work_order", cols.WorkOrder, true},
		{"title", cols.Title, false},
		{"composer", cols.Composer, false},
		{"conductor", cols.Conductor, false},
		{"session", cols.Session, false},
		{"series", cols.Series, false},
		{"weekday", cols.Weekday, false},
		{"month", cols.Month, true},
	}
	exprs := make([]string, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.column) == "" {
			return "", fmt.Errorf("catalog column for %s is empty", f.name)
		}
		ident := quoteIdent(f.column)
		if f.numeric {
			exprs = append(exprs, fmt.Sprintf("TRY_CAST(%s AS BIGINT)", ident))
			continue
		}
		exprs = append(exprs, fmt.Sprintf("TRIM(COALESCE(CAST(%s AS VARCHAR), ''))", ident))
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(exprs, ", "), source), nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
