package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLiteStore keeps saves in a local sqlite database, one row per slot.
type SQLiteStore struct {
	db     *sql.DB
	slot   string
	writer string
}

func NewSQLiteStore(ctx context.Context, db *sql.DB, slot string) (*SQLiteStore, error) {
	if slot == "" {
		slot = DefaultSlot
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			epoch INTEGER NOT NULL DEFAULT 0,
			writer TEXT NOT NULL DEFAULT '',
			data TEXT,
			saved_at DATETIME
		);`); err != nil {
		return nil, fmt.Errorf("create saves table: %w", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO saves (slot) VALUES (?)`, slot); err != nil {
		return nil, fmt.Errorf("init save slot: %w", err)
	}
	return &SQLiteStore{db: db, slot: slot, writer: uuid.NewString()}, nil
}

func (s *SQLiteStore) Writer() string {
	return s.writer
}

func (s *SQLiteStore) Load(ctx context.Context) (Loaded, error) {
	var (
		out     Loaded
		data    sql.NullString
		savedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT epoch, writer, data, saved_at FROM saves WHERE slot = ?
	`, s.slot).Scan(&out.Epoch, &out.Writer, &data, &savedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return out, ErrNoSave
		}
		return out, fmt.Errorf("load save: %w", err)
	}
	if savedAt.Valid {
		out.SavedAt = savedAt.Time
	}
	if !data.Valid || data.String == "" {
		return out, ErrNoSave
	}
	out.Data = []byte(data.String)
	return out, nil
}

// Save is a single conditional update, so the epoch check and the write
// cannot interleave with a Wipe.
func (s *SQLiteStore) Save(ctx context.Context, epoch int64, data []byte) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE saves SET data = ?, writer = ?, saved_at = ?
		WHERE slot = ? AND epoch = ?
	`, string(data), s.writer, time.Now().UTC(), s.slot, epoch)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: epoch %d", ErrStaleSession, epoch)
	}
	return nil
}

func (s *SQLiteStore) Wipe(ctx context.Context) (int64, error) {
	var epoch int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE saves SET epoch = epoch + 1, data = NULL, writer = ?, saved_at = ?
		WHERE slot = ?
		RETURNING epoch
	`, s.writer, time.Now().UTC(), s.slot).Scan(&epoch)
	if err != nil {
		return 0, fmt.Errorf("wipe: %w", err)
	}
	return epoch, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
