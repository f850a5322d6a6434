package render

import (
	"database/sql"
	"fmt"
	"time"
)

// Limits caps how much of a result set is handed back to the model.
type Limits struct {
	MaxRows       int
	MaxCellLength int
}

// ResultSet is the shaped form of a query result.
type ResultSet struct {
	Columns     []string         `json:"columns"`
	Rows        []map[string]any `json:"rows"`
	RowCount    int              `json:"rowCount"`
	Truncated   bool             `json:"truncated"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

type Renderer interface {
	Render(rs ResultSet) map[string]any
}

type JSONRenderer struct{}

func NewRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

func (r *JSONRenderer) Render(rs ResultSet) map[string]any {
	return map[string]any{
		"columns":     rs.Columns,
		"rows":        rs.Rows,
		"rowCount":    rs.RowCount,
		"truncated":   rs.Truncated,
		"generatedAt": rs.GeneratedAt,
	}
}

// ScanRows drains rows into a ResultSet, stopping at limits.MaxRows.
// Truncated is set when more rows remained.
func ScanRows(rows *sql.Rows, limits Limits) (ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return ResultSet{}, err
	}
	rs := ResultSet{Columns: columns, GeneratedAt: time.Now().UTC()}

	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	for rows.Next() {
		if limits.MaxRows > 0 && rs.RowCount >= limits.MaxRows {
			rs.Truncated = true
			break
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return rs, err
		}
		rs.Rows = append(rs.Rows, Shape(columns, values, limits))
		rs.RowCount++
	}
	if err := rows.Err(); err != nil {
		return rs, err
	}
	return rs, nil
}

// Shape converts one scanned row into a JSON-able map, normalizing driver
// types and truncating oversized cells.
func Shape(columns []string, values []any, limits Limits) map[string]any {
	row := make(map[string]any, len(columns))
	for i, column := range columns {
		row[column] = shapeValue(values[i], limits.MaxCellLength)
	}
	return row
}

func shapeValue(value any, maxLen int) any {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return clip(string(v), maxLen)
	case string:
		return clip(v, maxLen)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case int64, float64, bool:
		return v
	default:
		return clip(fmt.Sprintf("%v", v), maxLen)
	}
}

func clip(s string, maxLen int) any {
	if maxLen > 0 && len(s) > maxLen {
		return s[:maxLen] + "...(truncated)"
	}
	return s
}
