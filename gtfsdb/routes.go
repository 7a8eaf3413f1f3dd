package gtfsdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tripplanner.org/internal/logging"
)

// ErrRouteNotFound is returned by GetRoute for unknown ids.
var ErrRouteNotFound = errors.New("route not found")

// Route is one row of the routes table.
type Route struct {
	ID        string
	ShortName string
	LongName  string
}

// ImportMetadata describes the last successful ReplaceRoutes.
type ImportMetadata struct {
	Source      string
	ContentHash string
	RouteCount  int
	ImportedAt  time.Time
}

// ReplaceRoutes swaps the whole routes table in one transaction. When the
// content hash matches the previous import nothing is rewritten and false is
// returned.
func (c *Client) ReplaceRoutes(ctx context.Context, source string, routes []Route) (bool, error) {
	logger := slog.Default().With(slog.String("component", "gtfsdb"))
	hash := routesHash(routes)

	if prev, err := c.ImportMetadata(ctx); err == nil && prev.ContentHash == hash {
		logging.LogOperation(logger, "routes_unchanged_skipping_import", slog.String("source", source))
		return false, nil
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin routes import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM routes`); err != nil {
		return false, fmt.Errorf("clear routes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO routes (id, short_name, long_name, sort_key) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return false, fmt.Errorf("prepare route insert: %w", err)
	}
	defer logging.SafeCloseWithLogging(stmt, logger, "route_insert_stmt")

	for i, r := range routes {
		if _, err := stmt.ExecContext(ctx, r.ID, r.ShortName, r.LongName, i); err != nil {
			return false, fmt.Errorf("insert route %s: %w", r.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO import_metadata (id, source, content_hash, route_count, imported_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			source = excluded.source,
			content_hash = excluded.content_hash,
			route_count = excluded.route_count,
			imported_at = excluded.imported_at`,
		source, hash, len(routes), time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("record import metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit routes import: %w", err)
	}

	logging.LogOperation(logger, "routes_imported",
		slog.String("source", source), slog.Int("routes", len(routes)))
	return true, nil
}

// ListRoutes returns every route in feed order.
func (c *Client) ListRoutes(ctx context.Context) ([]Route, error) {
	return c.queryRoutes(ctx, `SELECT id, short_name, long_name FROM routes ORDER BY sort_key`)
}

// SearchRoutes matches a case-insensitive prefix of the short name or any
// substring of the long name.
func (c *Client) SearchRoutes(ctx context.Context, query string, limit int) ([]Route, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Route{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	escaped := escapeLike(strings.ToLower(query))
	return c.queryRoutes(ctx, `
		SELECT id, short_name, long_name FROM routes
		WHERE lower(short_name) LIKE ? ESCAPE '\' OR lower(long_name) LIKE ? ESCAPE '\'
		ORDER BY sort_key
		LIMIT ?`,
		escaped+"%", "%"+escaped+"%", limit)
}

// GetRoute returns ErrRouteNotFound when id is unknown.
func (c *Client) GetRoute(ctx context.Context, id string) (Route, error) {
	var r Route
	err := c.DB.QueryRowContext(ctx,
		`SELECT id, short_name, long_name FROM routes WHERE id = ?`, id).
		Scan(&r.ID, &r.ShortName, &r.LongName)
	if errors.Is(err, sql.ErrNoRows) {
		return Route{}, ErrRouteNotFound
	}
	if err != nil {
		return Route{}, fmt.Errorf("get route %s: %w", id, err)
	}
	return r, nil
}

// ImportMetadata returns sql.ErrNoRows before the first import.
func (c *Client) ImportMetadata(ctx context.Context) (ImportMetadata, error) {
	var m ImportMetadata
	var importedAt int64
	err := c.DB.QueryRowContext(ctx,
		`SELECT source, content_hash, route_count, imported_at FROM import_metadata WHERE id = 1`).
		Scan(&m.Source, &m.ContentHash, &m.RouteCount, &importedAt)
	if err != nil {
		return ImportMetadata{}, err
	}
	m.ImportedAt = time.Unix(importedAt, 0)
	return m, nil
}

func (c *Client) queryRoutes(ctx context.Context, query string, args ...any) ([]Route, error) {
	rows, err := c.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows,
		slog.Default().With(slog.String("component", "gtfsdb")),
		"database_rows")

	routes := []Route{}
	for rows.Next() {
		var r Route
		if err := rows.Scan(&r.ID, &r.ShortName, &r.LongName); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func routesHash(routes []Route) string {
	h := sha256.New()
	for _, r := range routes {
		h.Write([]byte(r.ID))
		h.Write([]byte{0})
		h.Write([]byte(r.ShortName))
		h.Write([]byte{0})
		h.Write([]byte(r.LongName))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
