package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// Connector opens a database connection for a single operation.
// Each repository call runs on its own short-lived connection; the
// caller must close the returned handle when the operation completes.
type Connector interface {
	Connect(ctx context.Context) (*sql.DB, error)
}

// MySQLConnector opens MySQL connections from a fixed DSN.
type MySQLConnector struct {
	dsn string
}

// NewMySQLConnector creates a connector for the given data source name.
func NewMySQLConnector(dsn string) *MySQLConnector {
	return &MySQLConnector{dsn: dsn}
}

// Connect opens a new connection and verifies it with a ping so that
// connectivity errors surface here rather than on first use.
func (c *MySQLConnector) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("mysql", c.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection per operation, no idle pool
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
