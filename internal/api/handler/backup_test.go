package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/dbvault/internal/backup"
	"github.com/edvin/dbvault/internal/core"
)

func TestBackup_Download_ForeignOwner(t *testing.T) {
	db := &handlerMockDB{}
	store := &handlerMockStore{}
	svc := core.NewBackupService(db, store, zerolog.Nop())
	h := NewBackup(svc, nil, nil, nil)

	// The owner-scoped lookup misses for another user's backup.
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"b-1", "user-2"}).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})

	r := withIdentity(newRequest(http.MethodPost, "/api/v1/backups/b-1/download", nil), "user-2")
	r = withChiURLParam(r, "id", "b-1")
	rec := httptest.NewRecorder()
	h.Download(rec, r)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "not found or access denied", body["message"])
	store.AssertNotCalled(t, "SignedURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestBackup_Download_Success(t *testing.T) {
	db := &handlerMockDB{}
	store := &handlerMockStore{}
	svc := core.NewBackupService(db, store, zerolog.Nop())
	h := NewBackup(svc, nil, nil, nil)

	fileName := "backup_appdb_2024-03-15T04-30-00Z.sql"
	filePath := "user-1/conn-1/" + fileName
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"b-1", "user-1"}).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			*dest[0].(*string) = "b-1"
			*dest[1].(*string) = "user-1"
			*dest[4].(*string) = "completed"
			*dest[5].(*string) = "full"
			*dest[6].(*string) = "sql"
			*dest[7].(**string) = &fileName
			*dest[8].(**string) = &filePath
			return nil
		}})
	store.On("SignedURL", mock.Anything, filePath, time.Hour).
		Return("https://signed.example/"+filePath, nil).Once()

	r := withIdentity(newRequest(http.MethodPost, "/api/v1/backups/b-1/download", nil), "user-1")
	r = withChiURLParam(r, "id", "b-1")
	rec := httptest.NewRecorder()
	h.Download(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "https://signed.example/"+filePath, body["download_url"])
	assert.Equal(t, fileName, body["file_name"])
	assert.Equal(t, float64(3600), body["expires_in"])
	store.AssertExpectations(t)
}

func TestBackup_Run_InvalidBackupType(t *testing.T) {
	db := &handlerMockDB{}
	svc := core.NewBackupService(db, &handlerMockStore{}, zerolog.Nop())
	h := NewBackup(svc, core.NewConnectionService(db, newHandlerCipher(t)), nil, nil)

	r := withIdentity(newRequest(http.MethodPost, "/api/v1/backups/run", map[string]any{
		"connection_id": "conn-1",
		"backup_type":   "incremental",
		"backup_format": "sql",
	}), "user-1")
	rec := httptest.NewRecorder()
	h.Run(rec, r)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "validation error")
	db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
}

func TestBackup_Run_ForeignConnection(t *testing.T) {
	db := &handlerMockDB{}
	svc := core.NewBackupService(db, &handlerMockStore{}, zerolog.Nop())
	h := NewBackup(svc, core.NewConnectionService(db, newHandlerCipher(t)), nil, nil)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"conn-1", "user-2"}).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})

	r := withIdentity(newRequest(http.MethodPost, "/api/v1/backups/run", map[string]any{
		"connection_id": "conn-1",
		"backup_type":   "full",
		"backup_format": "sql",
	}), "user-2")
	rec := httptest.NewRecorder()
	h.Run(rec, r)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "not found or access denied", decodeBody(rec)["message"])
}

func TestBackup_Sweep_QueryFailure(t *testing.T) {
	db := &handlerMockDB{}
	executor := backup.NewExecutor(db, nil, nil, nil, zerolog.Nop(), 0)
	enforcer := backup.NewEnforcer(db, nil, zerolog.Nop())
	scheduler := backup.NewScheduler(db, executor, enforcer, zerolog.Nop(), 2)
	h := NewBackup(nil, nil, executor, scheduler)

	db.On("Query", mock.Anything, sqlContains("FROM backup_schedules s"), mock.Anything).
		Return(nil, errors.New("connection reset")).Once()

	r := withIdentity(newRequest(http.MethodPost, "/api/v1/backups/sweep", nil), "user-1")
	rec := httptest.NewRecorder()
	h.Sweep(rec, r)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(rec)
	assert.Equal(t, false, body["success"])
	db.AssertExpectations(t)
}
