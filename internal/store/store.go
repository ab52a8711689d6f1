// Package store persists serialized save records. Every backend keeps an
// epoch that Wipe bumps; a Save presenting an older epoch is refused so a
// session opened before a wipe cannot resurrect the wiped progress.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoSave       = errors.New("no save found")
	ErrStaleSession = errors.New("save refused: progress was wiped by another session")
)

// DefaultSlot is the save slot used when none is configured.
const DefaultSlot = "default"

// Loaded is a stored record. Epoch is valid even when Load returns ErrNoSave.
type Loaded struct {
	Epoch   int64
	Writer  string
	SavedAt time.Time
	Data    []byte
}

type Store interface {
	// Load returns the latest record, or ErrNoSave with the current epoch.
	Load(ctx context.Context) (Loaded, error)
	// Save writes data if epoch still matches the stored epoch.
	Save(ctx context.Context, epoch int64, data []byte) error
	// Wipe discards the record and returns the new epoch.
	Wipe(ctx context.Context) (int64, error)
	// Writer identifies this store handle in saved rows.
	Writer() string
	Close() error
}
