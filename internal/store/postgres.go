package store

import (
	"context"
	"fmt"
	"time"

	"hostel-backend-go/internal/db"
	"hostel-backend-go/internal/migrations"
	"hostel-backend-go/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

const stateTable = "hostel_state"

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// PostgresBackend stores one JSONB row per collection.
type PostgresBackend struct {
	db *sqlx.DB
}

func NewPostgresBackend(ctx context.Context, dsn string) (*PostgresBackend, error) {
	conn, err := db.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := migrations.Apply(ctx, conn, migrations.Files); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return &PostgresBackend{db: conn}, nil
}

func (b *PostgresBackend) Load(ctx context.Context) (*models.Document, error) {
	query, args, err := psql.Select("bucket", "payload").From(stateTable).ToSql()
	if err != nil {
		return nil, err
	}
	rows := []struct {
		Bucket  string `db:"bucket"`
		Payload []byte `db:"payload"`
	}{}
	if err := b.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	buckets := make(map[string][]byte, len(rows))
	for _, row := range rows {
		buckets[row.Bucket] = row.Payload
	}
	return DecodeBuckets(buckets)
}

func (b *PostgresBackend) Save(ctx context.Context, _ *models.Document, changed map[string][]byte) (retErr error) {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	now := time.Now().UTC()
	for _, name := range sortedKeys(changed) {
		query, args, err := upsertBucket(name, changed[name], now)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert %s: %w", name, err)
		}
	}
	return tx.Commit()
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}

func upsertBucket(name string, payload []byte, now time.Time) (string, []interface{}, error) {
	return psql.Insert(stateTable).
		Columns("bucket", "payload", "updated_at").
		Values(name, string(payload), now).
		Suffix("ON CONFLICT (bucket) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at").
		ToSql()
}
