// Package store reads the exported WeChat sqlite message store. The store is
// opened read-only once per orchestration run and every window re-queries it
// from scratch.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "modernc.org/sqlite"
)

// RawRecord is one message row as stored, never mutated. CreatedAt is
// already bias-adjusted to presentation time.
type RawRecord struct {
	LocalID   int64
	CreatedAt int64
	Payload   string
	Status    int
	TypeTag   int
}

// Range is a half-open interval [Start, Stop) in presentation epoch seconds.
type Range struct {
	Start int64
	Stop  int64
}

// Store is a read-only handle on one conversation table of the message
// store, plus the Friend contact directory.
type Store struct {
	db    *sql.DB
	table string
	bias  int64
}

// Chat table names come straight from config and are interpolated into SQL,
// so they are restricted to identifier characters.
var tablePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Open opens the message store read-only. bias is subtracted from
// presentation timestamps before querying and added back to CreateTime on
// the way out.
func Open(path, table string, bias int64) (*Store, error) {
	if !tablePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid chat table name %q", table)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open message store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open message store at %s: %w", path, err)
	}

	return &Store{db: db, table: table, bias: bias}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CountMessages returns the number of messages in the range.
func (s *Store) CountMessages(ctx context.Context, r Range) (int, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE CreateTime >= ? AND CreateTime < ?", s.table)
	var n int
	if err := s.db.QueryRowContext(ctx, q, r.Start-s.bias, r.Stop-s.bias).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

// MessageTypeCounts returns the per-type-tag message counts in the range.
func (s *Store) MessageTypeCounts(ctx context.Context, r Range) (map[int]int, error) {
	q := fmt.Sprintf("SELECT Type, COUNT(*) FROM %s WHERE CreateTime >= ? AND CreateTime < ? GROUP BY Type", s.table)
	rows, err := s.db.QueryContext(ctx, q, r.Start-s.bias, r.Stop-s.bias)
	if err != nil {
		return nil, fmt.Errorf("failed to count message types: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var tag, n int
		if err := rows.Scan(&tag, &n); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		counts[tag] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read type counts: %w", err)
	}
	return counts, nil
}

// IterateMessages scans the range in CreateTime order, calling fn once per
// row. The scan is lazy and one-pass; a fresh call re-queries the store. An
// error from fn stops the scan and is returned unchanged.
func (s *Store) IterateMessages(ctx context.Context, r Range, fn func(RawRecord) error) error {
	q := fmt.Sprintf(
		"SELECT MesLocalID, CreateTime, Message, Status, Type FROM %s WHERE CreateTime >= ? AND CreateTime < ? ORDER BY CreateTime",
		s.table)
	rows, err := s.db.QueryContext(ctx, q, r.Start-s.bias, r.Stop-s.bias)
	if err != nil {
		return fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec RawRecord
		if err := rows.Scan(&rec.LocalID, &rec.CreatedAt, &rec.Payload, &rec.Status, &rec.TypeTag); err != nil {
			return fmt.Errorf("failed to scan message row: %w", err)
		}
		rec.CreatedAt += s.bias
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read message rows: %w", err)
	}
	return nil
}

// ResolveContactName looks up a display name for an internal identifier in
// the Friend table. The second return is false when no entry exists.
func (s *Store) ResolveContactName(ctx context.Context, internalID string) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, "SELECT NickName FROM Friend WHERE UsrName = ?", internalID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve contact %q: %w", internalID, err)
	}
	return name, true, nil
}
