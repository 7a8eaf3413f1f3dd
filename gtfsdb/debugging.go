package gtfsdb

import (
	"context"
	"fmt"
)

// storeTables are the tables the debug page reports on, in display order.
var storeTables = []string{"routes", "import_metadata"}

// TableCounts returns row counts for the store's own tables. Any table
// outside storeTables is never queried.
func (c *Client) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(storeTables))
	for _, table := range storeTables {
		var count int
		// table comes from storeTables, never from input
		if err := c.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			return nil, fmt.Errorf("counting %s: %w", table, err)
		}
		counts[table] = count
	}
	return counts, nil
}
