package db

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Locker takes Postgres advisory locks keyed by resource id. It is used as a
// single-flight guard so that at most one backup execution runs per schedule,
// even across processes (a manual run racing the scheduler sweep).
type Locker struct {
	pool *pgxpool.Pool
}

func NewLocker(pool *pgxpool.Pool) *Locker {
	return &Locker{pool: pool}
}

// TryLock attempts to take the advisory lock for key without blocking. On
// success it returns an unlock function that must be called when the guarded
// work finishes. ok is false when another holder already has the lock.
//
// The lock is session-scoped, so the underlying connection is pinned until
// unlock is called.
func (l *Locker) TryLock(ctx context.Context, key string) (unlock func(), ok bool, err error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock connection: %w", err)
	}

	id := lockID(key)
	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", id).Scan(&locked); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, false, nil
	}

	unlock = func() {
		// Unlock on a background context so a cancelled run still releases.
		conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", id)
		conn.Release()
	}
	return unlock, true, nil
}

// lockID maps a string key into the advisory lock keyspace.
func lockID(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}
