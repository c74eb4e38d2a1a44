// Package mssql is the metadata client: a thin, purely data-returning
// wrapper over SQL Server's catalog views, built on database/sql with the
// github.com/denisenkom/go-mssqldb driver and github.com/jmoiron/sqlx for
// struct-scanning query results, in the style of the SQL Server introspector
// in the retrieval pack. It performs no DDL and executes no application SQL
// — every method here answers a specific catalog question the analyzer,
// planner, or snapshot writer needs.
package mssql

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/xtraq/xtraq/internal/xerrors"
)

// Client exposes the catalog operations of spec §4.1 against one SQL
// Server connection.
type Client struct {
	db *sqlx.DB
}

// NewClient wraps an already-open *sql.DB (established via
// cmd/util.Connect) for struct-scanning catalog queries.
func NewClient(db *sql.DB) *Client {
	return &Client{db: sqlx.NewDb(db, "sqlserver")}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// query runs a SELECT that scans into dest, wrapping any failure as a
// DatabaseError tagged with op for the caller's diagnostics.
func (c *Client) query(ctx context.Context, op string, dest interface{}, query string, args ...interface{}) error {
	if err := c.db.SelectContext(ctx, dest, query, args...); err != nil {
		return xerrors.Database(op, err)
	}
	return nil
}
