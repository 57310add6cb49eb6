package backup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func prunableRows(ids ...string) *mockRows {
	var scanFuncs []func(dest ...any) error
	for _, id := range ids {
		id := id
		scanFuncs = append(scanFuncs, func(dest ...any) error {
			path := "user-1/conn-1/" + id + ".sql"
			*dest[0].(*string) = id
			*dest[1].(**string) = &path
			return nil
		})
	}
	return newMockRows(scanFuncs...)
}

func TestEnforceCountCap(t *testing.T) {
	db := new(mockDB)
	store := newFakeStore()
	enforcer := NewEnforcer(db, store, zerolog.Nop())

	db.On("Query", mock.Anything, sqlContains("OFFSET"), []any{"sched-1", 10}).
		Return(prunableRows("b-11", "b-12", "b-13", "b-14", "b-15"), nil).Once()
	db.On("Exec", mock.Anything, sqlContains("DELETE FROM backup_history"), mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 1"), nil).Times(5)

	removed, err := enforcer.Enforce(context.Background(), "sched-1", 10, 0)

	require.NoError(t, err)
	assert.Equal(t, 5, removed)
	assert.Len(t, store.deleted, 5)
	assert.Contains(t, store.deleted, "user-1/conn-1/b-11.sql")
	db.AssertExpectations(t)
}

func TestEnforceAgeCap(t *testing.T) {
	db := new(mockDB)
	store := newFakeStore()
	enforcer := NewEnforcer(db, store, zerolog.Nop())

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	enforcer.now = func() time.Time { return now }

	db.On("Query", mock.Anything, sqlContains("created_at < $2"), mock.MatchedBy(func(args []any) bool {
		return len(args) == 2 && args[0] == "sched-1" && args[1].(time.Time).Equal(now.AddDate(0, 0, -30))
	})).Return(prunableRows("b-1", "b-2"), nil).Once()
	db.On("Exec", mock.Anything, sqlContains("DELETE FROM backup_history"), mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 1"), nil).Times(2)

	removed, err := enforcer.Enforce(context.Background(), "sched-1", 0, 30)

	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	db.AssertExpectations(t)
}

func TestEnforceDeduplicatesAcrossPolicies(t *testing.T) {
	db := new(mockDB)
	store := newFakeStore()
	enforcer := NewEnforcer(db, store, zerolog.Nop())

	db.On("Query", mock.Anything, sqlContains("OFFSET"), mock.Anything).
		Return(prunableRows("b-1", "b-2"), nil).Once()
	db.On("Query", mock.Anything, sqlContains("created_at < $2"), mock.Anything).
		Return(prunableRows("b-2", "b-3"), nil).Once()
	db.On("Exec", mock.Anything, sqlContains("DELETE FROM backup_history"), mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 1"), nil).Times(3)

	removed, err := enforcer.Enforce(context.Background(), "sched-1", 5, 30)

	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	db.AssertExpectations(t)
}

func TestEnforceZeroCapsDisableBothPolicies(t *testing.T) {
	db := new(mockDB)
	enforcer := NewEnforcer(db, newFakeStore(), zerolog.Nop())

	removed, err := enforcer.Enforce(context.Background(), "sched-1", 0, 0)

	require.NoError(t, err)
	assert.Zero(t, removed)
	db.AssertNotCalled(t, "Query", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnforceArtifactDeleteFailureStillDeletesRecord(t *testing.T) {
	db := new(mockDB)
	store := newFakeStore()
	store.deleteErr = errors.New("bucket unreachable")
	enforcer := NewEnforcer(db, store, zerolog.Nop())

	db.On("Query", mock.Anything, sqlContains("OFFSET"), mock.Anything).
		Return(prunableRows("b-1"), nil).Once()
	db.On("Exec", mock.Anything, sqlContains("DELETE FROM backup_history"), []any{"b-1"}).
		Return(pgconn.NewCommandTag("DELETE 1"), nil).Once()

	removed, err := enforcer.Enforce(context.Background(), "sched-1", 1, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	db.AssertExpectations(t)
}

func TestEnforceRecordDeleteFailureSkipsVictim(t *testing.T) {
	db := new(mockDB)
	store := newFakeStore()
	enforcer := NewEnforcer(db, store, zerolog.Nop())

	db.On("Query", mock.Anything, sqlContains("OFFSET"), mock.Anything).
		Return(prunableRows("b-1", "b-2"), nil).Once()
	db.On("Exec", mock.Anything, sqlContains("DELETE FROM backup_history"), []any{"b-1"}).
		Return(pgconn.CommandTag{}, fmt.Errorf("deadlock detected")).Once()
	db.On("Exec", mock.Anything, sqlContains("DELETE FROM backup_history"), []any{"b-2"}).
		Return(pgconn.NewCommandTag("DELETE 1"), nil).Once()

	removed, err := enforcer.Enforce(context.Background(), "sched-1", 1, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	db.AssertExpectations(t)
}

func TestEnforceQueryFailure(t *testing.T) {
	db := new(mockDB)
	enforcer := NewEnforcer(db, newFakeStore(), zerolog.Nop())

	db.On("Query", mock.Anything, sqlContains("OFFSET"), mock.Anything).
		Return(nil, errors.New("connection reset")).Once()

	_, err := enforcer.Enforce(context.Background(), "sched-1", 5, 0)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "count-capped")
}
