package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Database wraps the MariaDB pool shared by the API and the worker.
// Batch commits hold a connection for the whole store write, so the
// pool limits come from configuration rather than driver defaults.
type Database struct {
	*sql.DB
}

// New opens a pool against the store of record and verifies it answers
// before any pipeline work starts.
func New(dsn string, maxOpen, maxIdle int, connMaxLifetime time.Duration) (*Database, error) {
	pool, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store connection: %w", err)
	}

	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxIdle)
	pool.SetConnMaxLifetime(connMaxLifetime)

	if err := pool.Ping(); err != nil {
		if cErr := pool.Close(); cErr != nil {
			return nil, cErr
		}
		return nil, fmt.Errorf("store unreachable: %w", err)
	}
	return &Database{pool}, nil
}
