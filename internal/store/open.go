package store

import (
	"context"
	"fmt"
	"strings"
)

type Options struct {
	Driver      string
	Path        string
	DatabaseURL string
}

// Open builds the backend named by opts.Driver and loads the document.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var backend Backend
	switch strings.ToLower(opts.Driver) {
	case "", "json":
		fb, err := NewFileBackend(opts.Path)
		if err != nil {
			return nil, err
		}
		backend = fb
	case "sqlite":
		sb, err := NewSQLiteBackend(ctx, opts.Path)
		if err != nil {
			return nil, err
		}
		backend = sb
	case "postgres":
		pb, err := NewPostgresBackend(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		backend = pb
	case "memory":
		backend = &MemoryBackend{}
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
	st, err := New(ctx, backend)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return st, nil
}
