package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DB wraps the SQL connection pages and blocks are stored in.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// Open connects to the database selected by driver ("sqlite", "postgres" or
// "mysql") and applies the schema. For sqlite the DSN is a file path whose
// directory is created when missing.
func Open(driver, dsn string) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	if d.name == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	dsn, err = d.dsn(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse %s dsn: %w", d.name, err)
	}

	conn, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	if d.name == DriverSQLite {
		// SQLite only supports one writer; a single connection avoids SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(5)
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(10 * time.Minute)
	}

	db := &DB{conn: conn, dialect: d}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Driver returns the name of the selected driver.
func (db *DB) Driver() string {
	return db.dialect.name
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// q adapts a query written with ? placeholders to the dialect.
func (db *DB) q(query string) string {
	return db.dialect.rebind(query)
}

func (db *DB) migrate() error {
	for _, m := range db.dialect.schema {
		if _, err := db.conn.Exec(m); err != nil {
			// MySQL has no CREATE INDEX IF NOT EXISTS; a second run reports a duplicate key name.
			if strings.HasPrefix(m, "CREATE INDEX") && strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %.40s: %w", m, err)
		}
	}
	return nil
}
