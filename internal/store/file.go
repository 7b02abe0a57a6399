package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore persists values as one JSON document on local disk. Every write
// rewrites the file through a temporary file and a rename.
type FileStore struct {
	path string

	mu   sync.Mutex
	data map[string]fileEntry
}

type fileEntry struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitzero"`
}

// NewFileStore opens path, loading whatever it already holds. A missing
// file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	f := &FileStore{path: path, data: make(map[string]fileEntry)}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", path, err)
	}
	return f, nil
}

func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e, ok := f.data[key]
	if !ok || (!e.Expires.IsZero() && time.Now().After(e.Expires)) {
		return "", ErrNotFound
	}
	return e.Value, nil
}

func (f *FileStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	e := fileEntry{Value: value}
	if ttl > 0 {
		e.Expires = time.Now().Add(ttl).UTC()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.data[key]
	f.data[key] = e
	if err := f.flush(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *FileStore) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	changed := false
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return f.flush()
}

func (f *FileStore) Close() error {
	return nil
}

// flush writes the whole map. Must be called with mu held.
func (f *FileStore) flush() error {
	now := time.Now()
	for k, e := range f.data {
		if !e.Expires.IsZero() && now.After(e.Expires) {
			delete(f.data, k)
		}
	}

	raw, err := json.Marshal(f.data)
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("store: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".medpres-*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("store: replace %s: %w", f.path, err)
	}
	return nil
}
