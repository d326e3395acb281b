package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func (d Dialect) driver() (string, error) {
	switch d {
	case DialectPostgres:
		return "pgx", nil
	case DialectSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported sql dialect %q", d)
	}
}

// bind rewrites ? placeholders into $n for postgres.
func (d Dialect) bind(query string) string {
	if d != DialectPostgres {
		return query
	}
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

// SQLStore keeps snapshots in a contract_snapshots table. Timestamps are
// stored as unix nanoseconds so both dialects share one schema.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect

	schemaOnce sync.Once
	schemaErr  error
}

// OpenSQL opens and pings the database behind dsn.
func OpenSQL(dialect Dialect, dsn string) (*SQLStore, error) {
	driver, err := dialect.driver()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// One writer at a time; also keeps ":memory:" on a single connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	return NewSQLStore(db, dialect), nil
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS contract_snapshots (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    name TEXT NOT NULL,
    contract TEXT NOT NULL,
    created_at BIGINT NOT NULL
)`)
	})
	return s.schemaErr
}

func (s *SQLStore) Put(ctx context.Context, snap Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.dialect.bind(`
INSERT INTO contract_snapshots (id, session_id, name, contract, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id)
DO UPDATE SET session_id=excluded.session_id, name=excluded.name, contract=excluded.contract, created_at=excluded.created_at
`), snap.ID, snap.SessionID, snap.Name, snap.Contract, snap.CreatedAt.UnixNano())
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Snapshot, error) {
	id, err := normalizeID(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Snapshot{}, err
	}
	row := s.db.QueryRowContext(ctx, s.dialect.bind(
		`SELECT id, session_id, name, contract, created_at FROM contract_snapshots WHERE id=?`), id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	return snap, err
}

func (s *SQLStore) List(ctx context.Context) ([]Snapshot, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, name, contract, created_at FROM contract_snapshots ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.dialect.bind(`DELETE FROM contract_snapshots WHERE id=?`), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (Snapshot, error) {
	var (
		snap    Snapshot
		created int64
	)
	if err := row.Scan(&snap.ID, &snap.SessionID, &snap.Name, &snap.Contract, &created); err != nil {
		return Snapshot{}, err
	}
	snap.CreatedAt = time.Unix(0, created).UTC()
	return snap, nil
}
