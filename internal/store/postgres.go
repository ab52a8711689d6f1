package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps saves in ouro.saves. Save and Wipe lock the slot row so
// a wipe from another host cannot slip between the epoch check and the write.
type PostgresStore struct {
	db     *pgxpool.Pool
	slot   string
	writer string
}

func NewPostgresStore(ctx context.Context, db *pgxpool.Pool, slot string) (*PostgresStore, error) {
	if slot == "" {
		slot = DefaultSlot
	}
	if _, err := db.Exec(ctx, `
		CREATE SCHEMA IF NOT EXISTS ouro;
		CREATE TABLE IF NOT EXISTS ouro.saves (
			slot TEXT PRIMARY KEY,
			epoch BIGINT NOT NULL DEFAULT 0,
			writer TEXT NOT NULL DEFAULT '',
			data JSONB,
			saved_at TIMESTAMPTZ
		);
	`); err != nil {
		return nil, fmt.Errorf("create saves table: %w", err)
	}
	if _, err := db.Exec(ctx, `
		INSERT INTO ouro.saves (slot) VALUES ($1)
		ON CONFLICT (slot) DO NOTHING
	`, slot); err != nil {
		return nil, fmt.Errorf("init save slot: %w", err)
	}
	return &PostgresStore{db: db, slot: slot, writer: uuid.NewString()}, nil
}

func (s *PostgresStore) Writer() string {
	return s.writer
}

func (s *PostgresStore) Load(ctx context.Context) (Loaded, error) {
	var (
		out  Loaded
		data []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT epoch, writer, data, COALESCE(saved_at, 'epoch'::timestamptz)
		FROM ouro.saves
		WHERE slot = $1
	`, s.slot).Scan(&out.Epoch, &out.Writer, &data, &out.SavedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return out, ErrNoSave
		}
		return out, fmt.Errorf("load save: %w", err)
	}
	if len(data) == 0 {
		return out, ErrNoSave
	}
	out.Data = data
	return out, nil
}

func (s *PostgresStore) Save(ctx context.Context, epoch int64, data []byte) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current int64
	if err := tx.QueryRow(ctx, `
		SELECT epoch FROM ouro.saves WHERE slot = $1 FOR UPDATE
	`, s.slot).Scan(&current); err != nil {
		return fmt.Errorf("lock save slot: %w", err)
	}
	if current != epoch {
		return fmt.Errorf("%w: have epoch %d, store at %d", ErrStaleSession, epoch, current)
	}
	if _, err := tx.Exec(ctx, `
		UPDATE ouro.saves SET data = $2::jsonb, writer = $3, saved_at = now()
		WHERE slot = $1
	`, s.slot, string(data), s.writer); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Wipe(ctx context.Context) (int64, error) {
	var epoch int64
	err := s.db.QueryRow(ctx, `
		UPDATE ouro.saves SET epoch = epoch + 1, data = NULL, writer = $2, saved_at = now()
		WHERE slot = $1
		RETURNING epoch
	`, s.slot, s.writer).Scan(&epoch)
	if err != nil {
		return 0, fmt.Errorf("wipe: %w", err)
	}
	return epoch, nil
}

// Close leaves the pool open; its owner closes it.
func (s *PostgresStore) Close() error {
	return nil
}
