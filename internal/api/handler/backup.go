package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/dbvault/internal/api/request"
	"github.com/edvin/dbvault/internal/api/response"
	"github.com/edvin/dbvault/internal/backup"
	"github.com/edvin/dbvault/internal/core"
)

// downloadTTL bounds how long an issued artifact URL stays valid.
const downloadTTL = time.Hour

// Backup handles backup execution and history endpoints.
type Backup struct {
	svc       *core.BackupService
	connSvc   *core.ConnectionService
	executor  *backup.Executor
	scheduler *backup.Scheduler
}

func NewBackup(svc *core.BackupService, connSvc *core.ConnectionService, executor *backup.Executor, scheduler *backup.Scheduler) *Backup {
	return &Backup{svc: svc, connSvc: connSvc, executor: executor, scheduler: scheduler}
}

// Run executes one on-demand backup synchronously. On failure the record is
// already persisted as failed before the error response goes out.
func (h *Backup) Run(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	var req request.RunBackup
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := h.connSvc.GetByID(r.Context(), userID, req.ConnectionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	record, err := h.executor.Run(r.Context(), backup.Request{
		Connection:         conn,
		ScheduleID:         req.ScheduleID,
		BackupType:         req.BackupType,
		BackupFormat:       req.BackupFormat,
		CompressionEnabled: req.CompressionEnabled,
		EncryptionEnabled:  req.EncryptionEnabled,
		SelectedSchemas:    req.SelectedSchemas,
		SelectedTables:     req.SelectedTables,
	})
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	response.WriteSuccess(w, http.StatusOK, map[string]any{
		"backup_id":        record.ID,
		"file_name":        record.FileName,
		"file_size_bytes":  record.FileSizeBytes,
		"tables_backed_up": record.TablesBackedUp,
		"checksum":         record.Checksum,
	})
}

// Sweep runs one scheduler pass over all due schedules.
func (h *Backup) Sweep(w http.ResponseWriter, r *http.Request) {
	if _, ok := authedUserID(w, r); !ok {
		return
	}

	result, err := h.scheduler.Sweep(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteSuccess(w, http.StatusOK, map[string]any{
		"processed": result.Processed,
		"results":   result.Results,
	})
}

// Download issues a time-limited signed URL for a completed backup.
func (h *Backup) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	url, fileName, err := h.svc.DownloadURL(r.Context(), userID, id, downloadTTL)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteSuccess(w, http.StatusOK, map[string]any{
		"download_url": url,
		"file_name":    fileName,
		"expires_in":   int(downloadTTL.Seconds()),
	})
}

func (h *Backup) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	pg := request.ParsePagination(r)
	filter := core.BackupHistoryFilter{
		ConnectionID: r.URL.Query().Get("connection_id"),
		ScheduleID:   r.URL.Query().Get("schedule_id"),
		Status:       r.URL.Query().Get("status"),
	}

	backups, hasMore, err := h.svc.ListByUser(r.Context(), userID, pg.Limit, pg.Cursor, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(backups) > 0 {
		nextCursor = backups[len(backups)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, backups, nextCursor, hasMore)
}

func (h *Backup) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.svc.GetByID(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{"backup": record})
}

func (h *Backup) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{})
}

func (h *Backup) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Cancel(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{})
}
