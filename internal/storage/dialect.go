package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Drivers lists the accepted values for the db.driver setting.
var Drivers = []string{DriverSQLite, DriverPostgres, DriverMySQL}

type dialect struct {
	name   string
	driver string // database/sql driver name
	schema []string
	dsn    func(string) (string, error)
	rebind func(string) string
}

func dialectFor(name string) (dialect, error) {
	switch name {
	case DriverSQLite, "":
		return dialect{
			name:   DriverSQLite,
			driver: "sqlite",
			schema: schema("TEXT", "DATETIME", "INTEGER", "IF NOT EXISTS "),
			dsn:    sqliteDSN,
			rebind: keep,
		}, nil
	case DriverPostgres:
		return dialect{
			name:   DriverPostgres,
			driver: "postgres",
			schema: schema("TEXT", "TIMESTAMPTZ", "BOOLEAN", "IF NOT EXISTS "),
			dsn:    func(s string) (string, error) { return s, nil },
			rebind: dollarPlaceholders,
		}, nil
	case DriverMySQL:
		return dialect{
			name:   DriverMySQL,
			driver: "mysql",
			schema: schema("VARCHAR(64)", "DATETIME(6)", "BOOLEAN", ""),
			dsn:    mysqlDSN,
			rebind: keep,
		}, nil
	}
	return dialect{}, fmt.Errorf("unsupported db driver %q (want one of %s)", name, strings.Join(Drivers, ", "))
}

// schema renders the tables for one dialect. Key columns use keyType since
// MySQL cannot index unbounded TEXT.
func schema(keyType, timeType, boolType, indexIfNotExists string) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS pages (
			id ` + keyType + ` PRIMARY KEY,
			title TEXT NOT NULL,
			cover TEXT NOT NULL,
			linked_file TEXT NOT NULL,
			sort_order INTEGER NOT NULL,
			created_at ` + timeType + ` NOT NULL,
			updated_at ` + timeType + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS blocks (
			id ` + keyType + ` PRIMARY KEY,
			page_id ` + keyType + ` NOT NULL REFERENCES pages(id),
			parent_id ` + keyType + ` NOT NULL,
			sort_order INTEGER NOT NULL,
			type ` + keyType + ` NOT NULL,
			content TEXT NOT NULL,
			checked ` + boolType + ` NOT NULL
		)`,
		`CREATE INDEX ` + indexIfNotExists + `idx_blocks_page ON blocks(page_id)`,
	}
}

// sqliteDSN turns a file path into a modernc DSN with WAL and a busy timeout.
func sqliteDSN(path string) (string, error) {
	if strings.Contains(path, "?") {
		return path, nil
	}
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", nil
}

// mysqlDSN forces parseTime so DATETIME columns scan into time.Time, and
// clientFoundRows so an UPDATE that matches a row counts as affecting it.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	cfg.ClientFoundRows = true
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg.FormatDSN(), nil
}

func keep(q string) string { return q }

// dollarPlaceholders rewrites ? placeholders to Postgres' $1, $2, ...
func dollarPlaceholders(q string) string {
	var sb strings.Builder
	sb.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
