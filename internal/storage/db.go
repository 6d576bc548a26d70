package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	stdfs "io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

const queryTimeout = 3 * time.Second

// dialect captures what differs between the SQLite and Postgres backends.
type dialect struct {
	driver     string
	migrations string
	numbered   bool // $1-style placeholders
}

var (
	sqliteDialect   = dialect{driver: "sqlite", migrations: "migrations/sqlite"}
	postgresDialect = dialect{driver: "pgx", migrations: "migrations/postgres", numbered: true}
)

// rebind rewrites ?-placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
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

// DB wraps a sql.DB connection.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// NewDB opens a database connection and runs migrations. A dsn starting
// with postgres:// or postgresql:// selects Postgres; anything else is a
// SQLite path (":memory:" included).
func NewDB(dsn string) (*DB, error) {
	d, source := resolveDialect(dsn)

	conn, err := sql.Open(d.driver, source)
	if err != nil {
		return nil, err
	}
	if d == sqliteDialect {
		// One connection keeps :memory: databases coherent and serialises
		// writers the way SQLite wants.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn, dialect: d}
	if d == sqliteDialect {
		if _, err := conn.Exec(`PRAGMA foreign_keys=ON`); err != nil {
			_ = conn.Close()
			return nil, err
		}
		// journal_mode may not be supported in some contexts (e.g., in-memory). Ignore errors.
		_, _ = conn.Exec(`PRAGMA journal_mode=WAL`)
	}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func resolveDialect(dsn string) (dialect, string) {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return postgresDialect, dsn
	}
	if dsn == "" {
		dsn = "expenses.db"
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return sqliteDialect, dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Driver names the database/sql driver in use.
func (db *DB) Driver() string {
	return db.dialect.driver
}

func (db *DB) q(query string) string {
	return db.dialect.rebind(query)
}

// withTx runs fn inside a transaction that is rolled back on every path
// except a successful commit.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

//go:embed migrations
var migrationsFS embed.FS

var migFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.up\.sql$`)

type migration struct {
	version int
	file    string
}

func (db *DB) loadMigrations() ([]migration, error) {
	list, err := stdfs.ReadDir(migrationsFS, db.dialect.migrations)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var out []migration
	for _, de := range list {
		if de.IsDir() {
			continue
		}
		m := migFileRe.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		ver, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, migration{version: ver, file: path.Join(db.dialect.migrations, de.Name())})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// migrate applies embedded migrations that have not been recorded yet.
func (db *DB) migrate() error {
	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	migs, err := db.loadMigrations()
	if err != nil {
		return err
	}
	for _, m := range migs {
		var applied int
		if err := db.conn.QueryRow(db.q(`SELECT COUNT(*) FROM schema_migrations WHERE version = ?`), m.version).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %04d: %w", m.version, err)
		}
		if applied > 0 {
			continue
		}
		text, err := migrationsFS.ReadFile(m.file)
		if err != nil {
			return err
		}
		err = db.withTx(context.Background(), func(tx *sql.Tx) error {
			if _, err := tx.Exec(string(text)); err != nil {
				return fmt.Errorf("migration %04d failed: %w", m.version, err)
			}
			_, err := tx.Exec(db.q(`INSERT INTO schema_migrations(version) VALUES(?)`), m.version)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}
