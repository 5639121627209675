// Package backup stores document snapshots on the local filesystem or in an
// S3 compatible bucket.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Info describes a stored snapshot.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	SHA256       string    `json:"sha256,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() string
}

var (
	ErrEmpty  = errors.New("backup: empty payload")
	ErrExists = errors.New("backup: key already exists")
)

type Config struct {
	Driver    string
	Root      string
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// Open returns the store named by cfg.Driver, or nil for "none".
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "fs":
		return NewFS(cfg.Root)
	case "s3":
		return NewS3(ctx, cfg)
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown backup driver %q", cfg.Driver)
}

func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return key, nil
}
