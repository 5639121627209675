package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"hostel-backend-go/internal/models"
)

// FileBackend keeps the document in a single indented JSON file.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		path = "storage/database.json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	return &FileBackend{path: path}, nil
}

func (b *FileBackend) Load(ctx context.Context) (*models.Document, error) {
	content, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, nil
	}
	doc := models.NewDocument()
	if err := json.Unmarshal(content, doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.path, err)
	}
	return doc, nil
}

// Save rewrites the whole file through a temp file so readers never see a
// partial document.
func (b *FileBackend) Save(ctx context.Context, doc *models.Document, _ map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }

// MemoryBackend persists nothing.
type MemoryBackend struct {
	Initial *models.Document
}

func (b *MemoryBackend) Load(context.Context) (*models.Document, error) {
	return b.Initial, nil
}

func (b *MemoryBackend) Save(context.Context, *models.Document, map[string][]byte) error {
	return nil
}

func (b *MemoryBackend) Close() error { return nil }
