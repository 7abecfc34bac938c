// Package sqlstore provides a database/sql-backed LedgerPort for SQLite,
// MySQL and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"towerdefense/internal/domain"
	"towerdefense/internal/ports"
)

// Store persists accounts and history rows.
type Store struct {
	sqlDB   *sql.DB
	dialect Dialect
	now     func() time.Time
}

// Open opens the database for dialect and applies the schema.
func Open(dialect Dialect, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("storage dsn is required")
	}
	sqlDB, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect.Name, err)
	}
	if dialect.SingleConn {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect.Name, err)
	}
	for _, stmt := range dialect.Schema {
		if _, err := sqlDB.Exec(stmt); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{sqlDB: sqlDB, dialect: dialect, now: time.Now}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Load returns the owner's account and its row version.
func (s *Store) Load(ctx context.Context, ownerID string) (*domain.Account, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	var (
		version int64
		data    string
	)
	row := s.sqlDB.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT version, data FROM td_accounts WHERE owner_id = ?`), ownerID)
	if err := row.Scan(&version, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ports.ErrAccountNotFound
		}
		return nil, "", fmt.Errorf("select account: %w", err)
	}
	var acct domain.Account
	if err := json.Unmarshal([]byte(data), &acct); err != nil {
		return nil, "", fmt.Errorf("decode account: %w", err)
	}
	return &acct, strconv.FormatInt(version, 10), nil
}

// Commit writes the account and history rows in one transaction.
func (s *Store) Commit(ctx context.Context, ownerID, expectedVersion string, acct *domain.Account, appended []domain.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	rows := make([]string, 0, len(appended))
	for _, record := range appended {
		b, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		rows = append(rows, string(b))
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := s.write(ctx, tx, ownerID, expectedVersion, string(data), int64(acct.HistoryCount), rows); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, errInsertAccount) && s.exists(ctx, ownerID) {
			return ports.ErrVersionConflict
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var errInsertAccount = errors.New("insert account")

func (s *Store) write(ctx context.Context, tx *sql.Tx, ownerID, expectedVersion, data string, historyCount int64, rows []string) error {
	now := s.now().UTC().UnixMilli()

	if expectedVersion == "" {
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(
			`INSERT INTO td_accounts (owner_id, version, data, updated_at) VALUES (?, 1, ?, ?)`),
			ownerID, data, now); err != nil {
			return fmt.Errorf("%w: %v", errInsertAccount, err)
		}
	} else {
		version, err := strconv.ParseInt(expectedVersion, 10, 64)
		if err != nil {
			return fmt.Errorf("bad version %q: %w", expectedVersion, ports.ErrVersionConflict)
		}
		res, err := tx.ExecContext(ctx, s.dialect.rebind(
			`UPDATE td_accounts SET version = version + 1, data = ?, updated_at = ? WHERE owner_id = ? AND version = ?`),
			data, now, ownerID, version)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if n != 1 {
			return ports.ErrVersionConflict
		}
	}

	start := historyCount - int64(len(rows))
	if len(rows) > 0 {
		var length int64
		if err := tx.QueryRowContext(ctx, s.dialect.rebind(
			`SELECT COUNT(*) FROM td_history WHERE owner_id = ?`), ownerID).Scan(&length); err != nil {
			return fmt.Errorf("history length: %w", err)
		}
		if length != start {
			return fmt.Errorf("history position %d, log has %d entries: %w", start, length, ports.ErrVersionConflict)
		}
	}
	for i, row := range rows {
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(
			`INSERT INTO td_history (owner_id, seq, data, created_at) VALUES (?, ?, ?, ?)`),
			ownerID, start+int64(i), row, now); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}
	return nil
}

// History returns every history row for the owner in sequence order.
func (s *Store) History(ctx context.Context, ownerID string) ([]domain.GameRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, s.dialect.rebind(
		`SELECT data FROM td_history WHERE owner_id = ? ORDER BY seq ASC`), ownerID)
	if err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	defer rows.Close()

	var out []domain.GameRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		var record domain.GameRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func (s *Store) exists(ctx context.Context, ownerID string) bool {
	var one int
	err := s.sqlDB.QueryRowContext(ctx, s.dialect.rebind(
		`SELECT 1 FROM td_accounts WHERE owner_id = ?`), ownerID).Scan(&one)
	return err == nil
}

var _ ports.LedgerPort = (*Store)(nil)
