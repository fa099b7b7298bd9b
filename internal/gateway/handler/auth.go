package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"presence/internal/audit"
	identitymodels "presence/internal/identity/models"
	"presence/internal/platform/middleware"
	dErrors "presence/pkg/domainerrors"
	"presence/pkg/platform/httputil"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid_body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing_credentials"))
		return
	}

	token, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

type registerResponse struct {
	UserID int64 `json:"user_id"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	admin := h.requireAdmin(w, r)
	if admin == nil {
		return
	}

	var reg identitymodels.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid_body"))
		return
	}

	userID, err := h.identity.Register(r.Context(), reg)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.emitAudit(r.Context(), audit.Event{
		UserID: admin.ID,
		Action: audit.ActionUserRegistered,
		Detail: fmt.Sprintf("new_user_id=%d email=%s", userID, reg.Email),
	})
	httputil.WriteJSON(w, http.StatusCreated, registerResponse{UserID: userID})
}

type homeAreaBody struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (h *Handler) homeArea(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	area, err := h.identity.HomeArea(r.Context(), principal.ID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, homeAreaBody{Lat: area.Lat, Lon: area.Lon})
}

func (h *Handler) updateHomeArea(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	var body homeAreaBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid_body"))
		return
	}

	area, err := h.identity.UpdateHomeArea(r.Context(), principal.ID, body.Lat, body.Lon)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, homeAreaBody{Lat: area.Lat, Lon: area.Lon})
}
