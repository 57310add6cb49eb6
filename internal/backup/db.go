package backup

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB defines the database operations the backup engine uses.
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ArtifactStore is the blob-storage surface the engine depends on.
// *storage.Store satisfies this interface.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Locker is the single-flight guard keyed by schedule id.
// *db.Locker satisfies this interface.
type Locker interface {
	TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error)
}
