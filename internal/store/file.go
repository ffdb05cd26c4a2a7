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

	"go.uber.org/zap"
)

// File keeps all entries in one JSON object on disk, the way a browser keeps
// localStorage for an origin. Every write rewrites the whole file through a
// temp file and rename. A file that is not valid JSON reads as empty; the
// first write after that moves it to <path>.corrupt before replacing it.
type File struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

func NewFile(path string, logger *zap.Logger) *File {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{path: path, logger: logger}
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, _, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := entries[key]
	return v, ok, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, corrupt, err := f.load()
	if err != nil {
		return err
	}
	if corrupt {
		if err := f.setAside(); err != nil {
			return err
		}
	}
	entries[key] = value
	return f.save(entries)
}

func (f *File) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, corrupt, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	if corrupt {
		if err := f.setAside(); err != nil {
			return err
		}
	}
	delete(entries, key)
	return f.save(entries)
}

// load returns an empty map for a missing file. A file that is not a JSON
// object also loads as empty, with corrupt set.
func (f *File) load() (entries map[string]string, corrupt bool, err error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, false, nil
		}
		return nil, false, fmt.Errorf("read store file: %w", err)
	}

	entries = map[string]string{}
	if len(raw) == 0 {
		return entries, false, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		f.logger.Warn("store file is malformed, treating as empty",
			zap.String("path", f.path),
			zap.Error(err),
		)
		return map[string]string{}, true, nil
	}
	return entries, false, nil
}

func (f *File) setAside() error {
	backup := f.path + ".corrupt"
	if err := os.Rename(f.path, backup); err != nil {
		return fmt.Errorf("set aside corrupt store file: %w", err)
	}
	f.logger.Warn("moved malformed store file aside", zap.String("backup", backup))
	return nil
}

func (f *File) save(entries map[string]string) error {
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store file: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}
