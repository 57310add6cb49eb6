package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/dbvault/internal/api/request"
	"github.com/edvin/dbvault/internal/api/response"
	"github.com/edvin/dbvault/internal/core"
	"github.com/edvin/dbvault/internal/model"
	"github.com/edvin/dbvault/internal/pgdump"
)

// Connection handles stored database connection endpoints.
type Connection struct {
	svc *core.ConnectionService
}

func NewConnection(svc *core.ConnectionService) *Connection {
	return &Connection{svc: svc}
}

func (h *Connection) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	pg := request.ParsePagination(r)
	conns, hasMore, err := h.svc.ListByUser(r.Context(), userID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(conns) > 0 {
		nextCursor = conns[len(conns)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, conns, nextCursor, hasMore)
}

func (h *Connection) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	var req request.CreateConnection
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn := &model.Connection{
		UserID:       userID,
		Name:         req.Name,
		Host:         req.Host,
		Port:         req.Port,
		DatabaseName: req.DatabaseName,
		Username:     req.Username,
		SSLMode:      req.SSLMode,
	}

	if err := h.svc.Create(r.Context(), conn, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}

	response.WriteSuccess(w, http.StatusCreated, map[string]any{"connection": conn})
}

func (h *Connection) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := h.svc.GetByID(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{"connection": conn})
}

func (h *Connection) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateConnection
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := h.svc.GetByID(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	conn.Name = req.Name
	conn.Host = req.Host
	conn.Port = req.Port
	conn.DatabaseName = req.DatabaseName
	conn.Username = req.Username
	conn.IsActive = req.IsActive
	if req.SSLMode != "" {
		conn.SSLMode = req.SSLMode
	}

	if err := h.svc.Update(r.Context(), conn, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{"connection": conn})
}

func (h *Connection) Delete(w http.ResponseWriter, r *http.Request) {
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

// TestInline probes an endpoint from inline credentials without storing
// anything.
func (h *Connection) TestInline(w http.ResponseWriter, r *http.Request) {
	_, ok := authedUserID(w, r)
	if !ok {
		return
	}

	var req request.TestConnection
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.svc.TestParams(r.Context(), pgdump.ConnectParams{
		Host:     req.Host,
		Port:     req.Port,
		Database: req.Database,
		Username: req.Username,
		Password: req.Password,
		SSLMode:  req.SSLMode,
	})
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeTestResult(w, info)
}

// Test probes a stored connection using its encrypted credential.
func (h *Connection) Test(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	info, err := h.svc.Test(r.Context(), userID, id)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeTestResult(w, info)
}

func writeTestResult(w http.ResponseWriter, info *pgdump.ServerInfo) {
	response.WriteSuccess(w, http.StatusOK, map[string]any{
		"message": "Connection successful",
		"details": map[string]any{
			"version":  info.Version,
			"database": info.Database,
			"user":     info.User,
		},
	})
}
