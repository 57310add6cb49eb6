package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/dbvault/internal/api/request"
	"github.com/edvin/dbvault/internal/api/response"
	"github.com/edvin/dbvault/internal/core"
	"github.com/edvin/dbvault/internal/model"
)

// Schedule handles backup schedule endpoints.
type Schedule struct {
	svc     *core.ScheduleService
	connSvc *core.ConnectionService
}

func NewSchedule(svc *core.ScheduleService, connSvc *core.ConnectionService) *Schedule {
	return &Schedule{svc: svc, connSvc: connSvc}
}

func (h *Schedule) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	pg := request.ParsePagination(r)
	schedules, hasMore, err := h.svc.ListByUser(r.Context(), userID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(schedules) > 0 {
		nextCursor = schedules[len(schedules)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, schedules, nextCursor, hasMore)
}

func (h *Schedule) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	var req request.CreateSchedule
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The referenced connection must belong to the caller.
	if _, err := h.connSvc.GetByID(r.Context(), userID, req.ConnectionID); err != nil {
		writeServiceError(w, err)
		return
	}

	sched := &model.Schedule{
		UserID:             userID,
		ConnectionID:       req.ConnectionID,
		Name:               req.Name,
		Frequency:          req.Frequency,
		CronExpression:     req.CronExpression,
		BackupType:         req.BackupType,
		BackupFormat:       req.BackupFormat,
		CompressionEnabled: true,
		EncryptionEnabled:  req.EncryptionEnabled,
		SelectedSchemas:    req.SelectedSchemas,
		SelectedTables:     req.SelectedTables,
		RetentionDays:      model.DefaultRetentionDays,
		MaxBackups:         model.DefaultMaxBackups,
	}
	if req.CompressionEnabled != nil {
		sched.CompressionEnabled = *req.CompressionEnabled
	}
	if req.RetentionDays != nil {
		sched.RetentionDays = *req.RetentionDays
	}
	if req.MaxBackups != nil {
		sched.MaxBackups = *req.MaxBackups
	}

	if err := h.svc.Create(r.Context(), sched); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	response.WriteSuccess(w, http.StatusCreated, map[string]any{"schedule": sched})
}

func (h *Schedule) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sched, err := h.svc.GetByID(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{"schedule": sched})
}

func (h *Schedule) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateSchedule
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sched, err := h.svc.GetByID(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	sched.Name = req.Name
	sched.Frequency = req.Frequency
	sched.CronExpression = req.CronExpression
	sched.BackupType = req.BackupType
	sched.BackupFormat = req.BackupFormat
	sched.EncryptionEnabled = req.EncryptionEnabled
	sched.SelectedSchemas = req.SelectedSchemas
	sched.SelectedTables = req.SelectedTables
	sched.IsActive = req.IsActive
	if req.CompressionEnabled != nil {
		sched.CompressionEnabled = *req.CompressionEnabled
	}
	if req.RetentionDays != nil {
		sched.RetentionDays = *req.RetentionDays
	}
	if req.MaxBackups != nil {
		sched.MaxBackups = *req.MaxBackups
	}

	if err := h.svc.Update(r.Context(), sched); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{"schedule": sched})
}

func (h *Schedule) Pause(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Schedule) Resume(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Schedule) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.SetActive(r.Context(), userID, id, active); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{"is_active": active})
}

func (h *Schedule) Delete(w http.ResponseWriter, r *http.Request) {
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
