package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"trade-docs/internal/app"
	"trade-docs/internal/storage"

	"github.com/go-chi/chi/v5"
)

// multipartOverhead is the slack allowed above a policy's file limit for the
// multipart envelope itself.
const multipartOverhead = 64 << 10

// apiRegisterCompany handles POST /api/companies.
func (h *Handler) apiRegisterCompany(w http.ResponseWriter, r *http.Request) {
	var req app.RegisterCompanyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.RegisterCompany(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// apiMyCompany handles GET /api/companies/me.
func (h *Handler) apiMyCompany(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetCompany(r.Context(), actor.CompanyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiSetCompanyLogo handles PUT /api/companies/me/logo (multipart field "file").
func (h *Handler) apiSetCompanyLogo(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	data, ok := readUpload(w, r, storage.LogoPolicy)
	if !ok {
		return
	}
	result, err := h.svc.SetCompanyLogo(r.Context(), actor, data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiUpload handles POST /api/uploads/{kind} for receipts and signatures.
func (h *Handler) apiUpload(w http.ResponseWriter, r *http.Request) {
	actor, ok := mustActor(w, r)
	if !ok {
		return
	}
	kind := chi.URLParam(r, "kind")
	policy, known := storage.PolicyFor(kind)
	if !known {
		writeErrorBody(w, http.StatusUnprocessableEntity, errorResponse{
			Error: fmt.Sprintf("unknown upload kind %q", kind), Code: "VALIDATION_ERROR", Field: "kind",
			RequestID: requestIDFromContext(r.Context()),
		})
		return
	}
	data, ok := readUpload(w, r, policy)
	if !ok {
		return
	}
	result, err := h.svc.UploadFile(r.Context(), actor, kind, data)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

// readUpload reads the multipart "file" field. It reads one byte past the
// policy limit so oversize files reach the policy check and get a field error.
func readUpload(w http.ResponseWriter, r *http.Request, p storage.Policy) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, p.MaxBytes+multipartOverhead)
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeErrorBody(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("file exceeds maximum size of %d MB", p.MaxBytes>>20), Code: "REQUEST_TOO_LARGE",
				Field: "file", RequestID: requestIDFromContext(r.Context()),
			})
			return nil, false
		}
		writeErrorBody(w, http.StatusBadRequest, errorResponse{
			Error: "multipart field \"file\" is required", Code: "BAD_REQUEST", Field: "file",
			RequestID: requestIDFromContext(r.Context()),
		})
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, p.MaxBytes+1))
	if err != nil {
		writeError(w, r, "failed to read upload", "BAD_REQUEST", http.StatusBadRequest)
		return nil, false
	}
	return data, true
}
