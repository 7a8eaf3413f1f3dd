// Package gtfsdb is the relational store behind the routes list. It keeps a
// copy of routes.txt in SQLite so the list can be served and searched without
// touching the in-memory schedule.
package gtfsdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver
	"tripplanner.org/internal/logging"
)

// Client is the main entry point for the store.
type Client struct {
	config Config
	DB     *sql.DB
}

// NewClient opens the database and applies the embedded schema.
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, fmt.Errorf("unable to create DB: %w", err)
	}
	if config.verbose {
		logging.LogOperation(slog.Default().With(slog.String("component", "gtfsdb")),
			"routes_store_opened", slog.String("db_path", config.DBPath))
	}
	return &Client{config: config, DB: db}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func (c *Client) GetDBPath() string {
	return c.config.DBPath
}

// Ping verifies the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}
