package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const pingTimeout = 5 * time.Second

// Database wraps the MariaDB pool backing the document and activity stores.
type Database struct {
	*sql.DB
}

// New opens a pool and fails fast when the server cannot be reached.
func New(dsn string, maxOpen, maxIdle int, connMaxLifetime time.Duration) (*Database, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		if cErr := db.Close(); cErr != nil {
			return nil, fmt.Errorf("ping database: %w (close: %v)", err, cErr)
		}
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Database{db}, nil
}
