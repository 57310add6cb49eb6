package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of *pgxpool.Pool the services need.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ArtifactStore is the slice of the object store the services need.
type ArtifactStore interface {
	Delete(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ErrNotFound is returned when a row does not exist or is owned by another
// user. The two cases are deliberately indistinguishable to the caller.
var ErrNotFound = errors.New("not found or access denied")

// ErrNoArtifact is returned when a download is requested for a backup that
// has no stored artifact (not completed, or already pruned).
var ErrNoArtifact = errors.New("backup has no stored artifact")
