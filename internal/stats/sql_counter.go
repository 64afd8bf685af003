package stats

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// SQLCounter runs aggregate queries against the bookings table.
type SQLCounter struct {
	db *sql.DB
}

// NewSQLCounter creates a counter over db.
func NewSQLCounter(db *sql.DB) *SQLCounter {
	if db == nil {
		panic("stats: sql db required")
	}
	return &SQLCounter{db: db}
}

func (c *SQLCounter) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("stats: count bookings: %w", err)
	}
	return n, nil
}

func (c *SQLCounter) CountByFormat(ctx context.Context, formatTypes []string) (map[string]int64, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT format_type, COUNT(*)
		FROM bookings
		WHERE format_type = ANY($1)
		GROUP BY format_type
	`, pq.Array(formatTypes))
	if err != nil {
		return nil, fmt.Errorf("stats: count by format: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64, len(formatTypes))
	for rows.Next() {
		var (
			format string
			n      int64
		)
		if err := rows.Scan(&format, &n); err != nil {
			return nil, fmt.Errorf("stats: scan format count: %w", err)
		}
		counts[format] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats: format count rows: %w", err)
	}
	return counts, nil
}
