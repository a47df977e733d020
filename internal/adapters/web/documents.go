package web

import (
	"net/http"
	"strconv"

	"trade-docs/internal/app"

	"github.com/go-chi/chi/v5"
)

// apiListDocuments handles GET /api/documents/{type}?owner=&q=&status=&limit=.
func (h *Handler) apiListDocuments(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req := app.ListDocumentsRequest{
		Type:   chi.URLParam(r, "type"),
		Owner:  q.Get("owner"),
		Status: q.Get("status"),
		Search: q.Get("q"),
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeErrorBody(w, http.StatusUnprocessableEntity, errorResponse{
				Error: "limit must be an integer", Code: "VALIDATION_ERROR", Field: "limit",
				RequestID: requestIDFromContext(r.Context()),
			})
			return
		}
		req.Limit = n
	}

	result, err := h.svc.ListDocuments(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateDocument handles POST /api/documents/{type}.
func (h *Handler) apiCreateDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req app.CreateDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Type = chi.URLParam(r, "type")

	result, err := h.svc.CreateDocument(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// apiGetDocument handles GET /api/documents/{type}/{id}.
func (h *Handler) apiGetDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetDocument(r.Context(), actor, chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiUpdateDocument handles PATCH /api/documents/{type}/{id}.
func (h *Handler) apiUpdateDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req app.UpdateDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Type = chi.URLParam(r, "type")
	req.ID = chi.URLParam(r, "id")

	result, err := h.svc.UpdateDocument(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiDeleteDocument handles DELETE /api/documents/{type}/{id}.
func (h *Handler) apiDeleteDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), actor, chi.URLParam(r, "type"), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiApplyAction handles POST /api/documents/{type}/{id}/actions/{action}.
// The body is optional; actions like accept need none.
func (h *Handler) apiApplyAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	var req app.ActionRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	req.Type = chi.URLParam(r, "type")
	req.ID = chi.URLParam(r, "id")
	req.Action = chi.URLParam(r, "action")

	result, err := h.svc.ApplyAction(r.Context(), actor, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListEvents handles GET /api/documents/{type}/{id}/events.
func (h *Handler) apiListEvents(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListEvents(r.Context(), actor, chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListPayments handles GET /api/documents/invoice/{id}/payments.
func (h *Handler) apiListPayments(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	if chi.URLParam(r, "type") != "invoice" {
		writeError(w, r, "payments exist only on invoices", "NOT_FOUND", http.StatusNotFound)
		return
	}
	result, err := h.svc.ListPayments(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
