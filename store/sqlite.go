package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// CredentialRecord is the Bun model for a stored credential slot.
type CredentialRecord struct {
	bun.BaseModel `bun:"table:session_credentials,alias:sc"`

	Slot      string    `bun:"slot,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// SQLite keeps the credential in a key/value table. Only the configured slot
// is ever touched.
type SQLite struct {
	db   *bun.DB
	slot string
	now  func() time.Time
}

var _ Store = (*SQLite)(nil)

// SQLiteOption customizes the SQLite store.
type SQLiteOption func(*SQLite)

// WithSlot overrides the key used to store the credential.
func WithSlot(slot string) SQLiteOption {
	return func(s *SQLite) {
		if slot != "" {
			s.slot = slot
		}
	}
}

// WithSQLiteClock injects a custom clock (useful for tests).
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLite) {
		if now != nil {
			s.now = now
		}
	}
}

// OpenSQLite opens the database at dsn with the sqlite shim driver and
// prepares the credential table.
func OpenSQLite(ctx context.Context, dsn string, opts ...SQLiteOption) (*SQLite, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	s, err := NewSQLite(ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an existing Bun database and creates the credential table
// when missing.
func NewSQLite(ctx context.Context, db *bun.DB, opts ...SQLiteOption) (*SQLite, error) {
	s := &SQLite{
		db:   db,
		slot: DefaultKey,
		now:  time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	_, err := db.NewCreateTable().
		Model((*CredentialRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("create credential table: %w", err)
	}

	return s, nil
}

// Save implements Store.
func (s *SQLite) Save(ctx context.Context, credential string) error {
	record := &CredentialRecord{
		Slot:      s.slot,
		Value:     credential,
		UpdatedAt: s.now().UTC(),
	}

	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (slot) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLite) Load(ctx context.Context) (string, error) {
	var record CredentialRecord
	err := s.db.NewSelect().
		Model(&record).
		Where("slot = ?", s.slot).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("load credential: %w", err)
	}
	return record.Value, nil
}

// Clear implements Store.
func (s *SQLite) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*CredentialRecord)(nil)).
		Where("slot = ?", s.slot).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
