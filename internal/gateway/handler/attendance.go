package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"presence/internal/audit"
	evidenceservice "presence/internal/evidence/service"
	"presence/internal/platform/middleware"
	dErrors "presence/pkg/domainerrors"
	"presence/pkg/platform/httputil"
)

// multipartMemoryLimit bounds in-memory multipart buffering; larger parts
// spill to disk before the size check rejects them.
const multipartMemoryLimit = evidenceservice.MaxPayloadBytes + 1<<20

type checkInResponse struct {
	EventID     int64  `json:"event_id"`
	EvidenceRef string `json:"evidence_ref"`
}

// checkIn accepts a multipart form: a "file" part with the photo evidence
// and "lat"/"lon" fields. The evidence is uploaded first; if the ledger
// then rejects the check-in the object stays orphaned in the store and is
// recorded in the audit trail for later cleanup.
func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid_multipart_form"))
		return
	}

	lat, lon, err := parseCoordinates(r.FormValue("lat"), r.FormValue("lon"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing_evidence_file"))
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, evidenceservice.MaxPayloadBytes+1))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable_evidence_file"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(payload)
	}
	// Reject oversized and mistyped uploads before any network hop.
	if err := evidenceservice.ValidatePayload(contentType, int64(len(payload))); err != nil {
		httputil.WriteError(w, err)
		return
	}

	reference, err := h.evidence.Upload(r.Context(), header.Filename, contentType, payload)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	eventID, err := h.ledger.CheckIn(r.Context(), principal.ID, lat, lon, reference)
	if err != nil {
		h.emitAudit(r.Context(), audit.Event{
			UserID: principal.ID,
			Action: audit.ActionEvidenceOrphaned,
			Detail: fmt.Sprintf("ref=%s reason=%s", reference, dErrors.MessageOf(err)),
		})
		httputil.WriteError(w, err)
		return
	}

	h.emitAudit(r.Context(), audit.Event{
		UserID: principal.ID,
		Action: audit.ActionCheckIn,
		Detail: fmt.Sprintf("event_id=%d ref=%s", eventID, reference),
	})
	httputil.WriteJSON(w, http.StatusCreated, checkInResponse{EventID: eventID, EvidenceRef: reference})
}

type checkOutRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type checkOutResponse struct {
	EventID int64 `json:"event_id"`
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	var req checkOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid_body"))
		return
	}

	eventID, err := h.ledger.CheckOut(r.Context(), principal.ID, req.Lat, req.Lon)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.emitAudit(r.Context(), audit.Event{
		UserID: principal.ID,
		Action: audit.ActionCheckOut,
		Detail: fmt.Sprintf("event_id=%d", eventID),
	})
	httputil.WriteJSON(w, http.StatusCreated, checkOutResponse{EventID: eventID})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	status, err := h.ledger.Status(r.Context(), principal.ID, chi.URLParam(r, "date"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)
	result, err := h.ledger.History(r.Context(), page, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	startDay := r.URL.Query().Get("start_date")
	endDay := r.URL.Query().Get("end_date")
	if startDay == "" || endDay == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "missing_date_range"))
		return
	}

	stats, err := h.ledger.Stats(r.Context(), principal.ID, startDay, endDay)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

type resolveEvidenceResponse struct {
	URL              string `json:"url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// resolveEvidence is admin-only: references carry no ownership record, so
// exposure is limited to the role that already sees the full history.
func (h *Handler) resolveEvidence(w http.ResponseWriter, r *http.Request) {
	if h.requireAdmin(w, r) == nil {
		return
	}

	url, expiresIn, err := h.evidence.Resolve(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resolveEvidenceResponse{URL: url, ExpiresInSeconds: expiresIn})
}

func parseCoordinates(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, dErrors.New(dErrors.CodeBadRequest, "invalid_coordinate")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return 0, 0, dErrors.New(dErrors.CodeBadRequest, "invalid_coordinate")
	}
	return lat, lon, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
