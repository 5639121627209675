package services

import (
	"bytes"
	"context"
	"fmt"

	"hostel-backend-go/internal/backup"

	"github.com/google/uuid"
)

const backupPrefix = "snapshots/"

var ErrBackupsDisabled = ServiceError{Kind: KindNotFound, Code: "BACKUPS_DISABLED", Message: "Backups are not configured"}

// CreateBackup writes the current document to the backup store.
func (s *Service) CreateBackup(ctx context.Context) (backup.Info, error) {
	if s.Backups == nil {
		return backup.Info{}, ErrBackupsDisabled
	}
	content, err := s.Store.Export(ctx)
	if err != nil {
		return backup.Info{}, WrapError(err, "export document")
	}
	key := fmt.Sprintf("%s%s-%s.json", backupPrefix, s.now().Format("20060102T150405Z"), uuid.NewString())
	info, err := s.Backups.Put(ctx, key, bytes.NewReader(content), "application/json")
	if err != nil {
		return backup.Info{}, WrapError(err, "store backup")
	}
	s.Log.Info().Str("key", info.Key).Int64("size_bytes", info.Size).Str("driver", s.Backups.Driver()).Msg("backup written")
	return info, nil
}

func (s *Service) ListBackups(ctx context.Context) ([]backup.Info, error) {
	if s.Backups == nil {
		return nil, ErrBackupsDisabled
	}
	items, err := s.Backups.List(ctx, backupPrefix)
	if err != nil {
		return nil, WrapError(err, "list backups")
	}
	return items, nil
}
