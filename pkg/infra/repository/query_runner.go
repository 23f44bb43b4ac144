package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// ResultSet is one query result with columns addressable by index or name.
// Enrichment lookups read it as maps, the price aggregate reads it
// positionally.
type ResultSet struct {
	Columns []string
	Rows    [][]interface{}
}

func (rs *ResultSet) Empty() bool {
	return rs == nil || len(rs.Rows) == 0
}

// MapAt returns row i as a column-name keyed map of string values.
func (rs *ResultSet) MapAt(i int) map[string]string {
	if rs == nil || i >= len(rs.Rows) {
		return nil
	}
	out := make(map[string]string, len(rs.Columns))
	for c, col := range rs.Columns {
		out[col] = stringify(rs.Rows[i][c])
	}
	return out
}

// FloatAt converts the cell at (row, col) to a float, returning def for
// missing or NULL cells.
func (rs *ResultSet) FloatAt(row, col int, def float64) float64 {
	if rs == nil || row >= len(rs.Rows) || col >= len(rs.Rows[row]) {
		return def
	}
	cell := rs.Rows[row][col]
	if cell == nil {
		return def
	}
	switch v := cell.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return def
		}
		return f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

// StringAt converts the cell at (row, col) to a string, empty for missing
// or NULL cells.
func (rs *ResultSet) StringAt(row, col int) string {
	if rs == nil || row >= len(rs.Rows) || col >= len(rs.Rows[row]) {
		return ""
	}
	return stringify(rs.Rows[row][col])
}

func stringify(cell interface{}) string {
	if cell == nil {
		return ""
	}
	switch v := cell.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// QueryRunner executes a substituted query string against the relational
// store with its accumulated named parameters.
//
//go:generate mockery --name=QueryRunner --dir=. --output=./mocks --filename=query_runner_mock.go --case=underscore --with-expecter
type QueryRunner interface {
	Query(ctx context.Context, query string, params []sql.NamedArg) (*ResultSet, error)
}

type gormQueryRunner struct {
	db *gorm.DB
}

func NewQueryRunner(db *gorm.DB) QueryRunner {
	return &gormQueryRunner{
		db: db,
	}
}

func (r *gormQueryRunner) Query(ctx context.Context, query string, params []sql.NamedArg) (*ResultSet, error) {
	args := make([]interface{}, len(params))
	for i, p := range params {
		args[i] = p
	}

	rows, err := r.db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := &ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanTargets := make([]interface{}, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return result, nil
}
