package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

type fileEnvelope struct {
	Epoch   int64           `json:"epoch"`
	Writer  string          `json:"writer,omitempty"`
	SavedAt time.Time       `json:"saved_at"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// FileStore keeps one JSON file per slot under a data directory.
type FileStore struct {
	mu     sync.Mutex
	path   string
	writer string
	now    func() time.Time
}

func NewFileStore(dir, slot string) (*FileStore, error) {
	if slot == "" {
		slot = DefaultSlot
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{
		path:   filepath.Join(dir, slot+".save.json"),
		writer: uuid.NewString(),
		now:    time.Now,
	}, nil
}

func (s *FileStore) Writer() string {
	return s.writer
}

func (s *FileStore) read() (fileEnvelope, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileEnvelope{}, nil
		}
		return fileEnvelope{}, err
	}
	if len(raw) == 0 {
		return fileEnvelope{}, nil
	}
	var env fileEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// An unreadable envelope is treated like an empty slot; the record
		// inside cannot be trusted either.
		return fileEnvelope{}, nil
	}
	return env, nil
}

func (s *FileStore) write(env fileEnvelope) error {
	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Load(ctx context.Context) (Loaded, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.read()
	if err != nil {
		return Loaded{}, fmt.Errorf("read save: %w", err)
	}
	out := Loaded{Epoch: env.Epoch, Writer: env.Writer, SavedAt: env.SavedAt}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return out, ErrNoSave
	}
	out.Data = []byte(env.Data)
	return out, nil
}

func (s *FileStore) Save(ctx context.Context, epoch int64, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.read()
	if err != nil {
		return fmt.Errorf("read save: %w", err)
	}
	if env.Epoch != epoch {
		return fmt.Errorf("%w: have epoch %d, store at %d", ErrStaleSession, epoch, env.Epoch)
	}
	if !json.Valid(data) {
		return fmt.Errorf("save payload is not valid json")
	}
	env.Writer = s.writer
	env.SavedAt = s.now().UTC()
	env.Data = json.RawMessage(data)
	if err := s.write(env); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}

func (s *FileStore) Wipe(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	env, err := s.read()
	if err != nil {
		return 0, fmt.Errorf("read save: %w", err)
	}
	next := fileEnvelope{Epoch: env.Epoch + 1, Writer: s.writer, SavedAt: s.now().UTC()}
	if err := s.write(next); err != nil {
		return 0, fmt.Errorf("write save: %w", err)
	}
	return next.Epoch, nil
}

func (s *FileStore) Close() error {
	return nil
}
