package database

import (
	"regexp"
	"strconv"
)

// Dialect identifies the SQL flavor spoken by the configured backend.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var dollarParam = regexp.MustCompile(`\$(\d+)`)

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == SQLite {
		return "sqlite"
	}
	return "pgx"
}

// Rebind rewrites $N placeholders into the dialect's numbered form.
// SQLite binds ?N with the same positional semantics as Postgres $N.
func (d Dialect) Rebind(query string) string {
	if d != SQLite {
		return query
	}
	return dollarParam.ReplaceAllString(query, "?$1")
}

// Placeholder returns the numbered bind parameter for position n.
func (d Dialect) Placeholder(n int) string {
	if d == SQLite {
		return "?" + strconv.Itoa(n)
	}
	return "$" + strconv.Itoa(n)
}
