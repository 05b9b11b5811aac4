package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	resilientgraphql "github.com/opengovern/resilient-graphql"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps all cursors in one JSON file. A sibling ".lock" file
// serialises access across processes.
type FileStore struct {
	mu   sync.Mutex
	path string
	lock *flock.Flock
}

var _ resilientgraphql.CursorStore = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &FileStore{path: path, lock: flock.New(path + ".lock")}, nil
}

func (s *FileStore) Load(ctx context.Context, key string) (string, bool, error) {
	var (
		cursor string
		found  bool
	)
	err := s.withLock(ctx, func() error {
		cursors, err := s.read()
		if err != nil {
			return err
		}
		cursor, found = cursors[key]
		return nil
	})
	return cursor, found, err
}

func (s *FileStore) Save(ctx context.Context, key, cursor string) error {
	return s.withLock(ctx, func() error {
		cursors, err := s.read()
		if err != nil {
			return err
		}
		cursors[key] = cursor
		return s.write(cursors)
	})
}

func (s *FileStore) Clear(ctx context.Context, key string) error {
	return s.withLock(ctx, func() error {
		cursors, err := s.read()
		if err != nil {
			return err
		}
		if _, ok := cursors[key]; !ok {
			return nil
		}
		delete(cursors, key)
		return s.write(cursors)
	})
}

func (s *FileStore) withLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock checkpoint file: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock checkpoint file: not acquired")
	}
	defer s.lock.Unlock()
	return fn()
}

func (s *FileStore) read() (map[string]string, error) {
	cursors := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return cursors, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint file: %w", err)
	}
	if len(data) == 0 {
		return cursors, nil
	}
	if err := json.Unmarshal(data, &cursors); err != nil {
		return nil, fmt.Errorf("decode checkpoint file: %w", err)
	}
	return cursors, nil
}

// write replaces the file atomically via rename.
func (s *FileStore) write(cursors map[string]string) error {
	data, err := json.MarshalIndent(cursors, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace checkpoint file: %w", err)
	}
	return nil
}
