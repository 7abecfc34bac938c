package sqlstore

import (
	"fmt"
	"strconv"
	"strings"

	// Registered database/sql drivers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect captures the differences between supported SQL backends.
type Dialect struct {
	Name       string
	DriverName string
	Schema     []string
	// Placeholders rewrites '?' placeholders for drivers that need another form.
	Placeholders func(query string) string
	// SingleConn limits the pool to one connection (in-memory sqlite).
	SingleConn bool
}

var (
	SQLite = Dialect{
		Name:       "sqlite",
		DriverName: "sqlite",
		Schema: []string{
			`CREATE TABLE IF NOT EXISTS td_accounts (
				owner_id   TEXT PRIMARY KEY,
				version    INTEGER NOT NULL,
				data       TEXT NOT NULL,
				updated_at INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS td_history (
				owner_id   TEXT NOT NULL,
				seq        INTEGER NOT NULL,
				data       TEXT NOT NULL,
				created_at INTEGER NOT NULL,
				PRIMARY KEY (owner_id, seq)
			)`,
		},
		SingleConn: true,
	}

	MySQL = Dialect{
		Name:       "mysql",
		DriverName: "mysql",
		Schema: []string{
			`CREATE TABLE IF NOT EXISTS td_accounts (
				owner_id   VARCHAR(128) NOT NULL PRIMARY KEY,
				version    BIGINT NOT NULL,
				data       MEDIUMTEXT NOT NULL,
				updated_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS td_history (
				owner_id   VARCHAR(128) NOT NULL,
				seq        BIGINT NOT NULL,
				data       TEXT NOT NULL,
				created_at BIGINT NOT NULL,
				PRIMARY KEY (owner_id, seq)
			)`,
		},
	}

	Postgres = Dialect{
		Name:       "postgres",
		DriverName: "pgx",
		Schema: []string{
			`CREATE TABLE IF NOT EXISTS td_accounts (
				owner_id   TEXT PRIMARY KEY,
				version    BIGINT NOT NULL,
				data       TEXT NOT NULL,
				updated_at BIGINT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS td_history (
				owner_id   TEXT NOT NULL,
				seq        BIGINT NOT NULL,
				data       TEXT NOT NULL,
				created_at BIGINT NOT NULL,
				PRIMARY KEY (owner_id, seq)
			)`,
		},
		Placeholders: numberedPlaceholders,
	}
)

// DialectFor looks up a dialect by name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported sql dialect %q", name)
}

func (d Dialect) rebind(query string) string {
	if d.Placeholders == nil {
		return query
	}
	return d.Placeholders(query)
}

// numberedPlaceholders turns '?' into $1, $2, ...
func numberedPlaceholders(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
