package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"trade-docs/internal/app"

	"github.com/go-chi/chi/v5"
)

// Options configures NewHandler.
type Options struct {
	AllowedOrigins string
	JWTSecret      string
	// AdminToken must accompany company registration in the X-Admin-Token
	// header. Empty disables registration over HTTP.
	AdminToken string
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *RateLimiter
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc        app.ApplicationService
	router     chi.Router
	jwtSecret  string
	adminToken string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	h := &Handler{
		svc:        svc,
		jwtSecret:  opts.JWTSecret,
		adminToken: opts.AdminToken,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(opts.AllowedOrigins))

	// ── Public ───────────────────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Get("/api/schemas/{type}", h.apiDocumentSchema)
	r.With(h.RequireAdmin, RequestBodyLimit(64<<10)).Post("/api/companies", h.apiRegisterCompany)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}

		// Uploads: body limit is enforced inside the handler per upload policy.
		r.Put("/api/companies/me/logo", h.apiSetCompanyLogo)
		r.Post("/api/uploads/{kind}", h.apiUpload)

		// All other protected endpoints: 1 MB body limit.
		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(1 << 20))

			r.Get("/api/companies/me", h.apiMyCompany)

			r.Route("/api/documents/{type}", func(r chi.Router) {
				r.Get("/", h.apiListDocuments)
				r.Post("/", h.apiCreateDocument)
				r.Get("/{id}", h.apiGetDocument)
				r.Patch("/{id}", h.apiUpdateDocument)
				r.Delete("/{id}", h.apiDeleteDocument)
				r.Post("/{id}/actions/{action}", h.apiApplyAction)
				r.Get("/{id}/events", h.apiListEvents)
				r.Get("/{id}/payments", h.apiListPayments)
			})
		})
	})

	h.router = r
	return r
}

// health reports liveness.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// apiDocumentSchema handles GET /api/schemas/{type}.
func (h *Handler) apiDocumentSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.svc.DocumentSchema(chi.URLParam(r, "type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, schema)
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
