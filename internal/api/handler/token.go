package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/dbvault/internal/api/request"
	"github.com/edvin/dbvault/internal/api/response"
	"github.com/edvin/dbvault/internal/core"
)

// Token handles bearer token management endpoints.
type Token struct {
	svc *core.TokenService
}

func NewToken(svc *core.TokenService) *Token {
	return &Token{svc: svc}
}

func (h *Token) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	tokens, err := h.svc.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{"tokens": tokens})
}

// Create issues a new token. The raw value appears in this response and
// nowhere else.
func (h *Token) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	var req request.CreateToken
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, raw, err := h.svc.Create(r.Context(), userID, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusCreated, map[string]any{
		"token":     raw,
		"api_token": token,
	})
}

func (h *Token) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Revoke(r.Context(), userID, id); err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteSuccess(w, http.StatusOK, map[string]any{})
}
