package web

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"trade-docs/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type actorKey struct{}

// actorFromContext returns the authenticated company stored in ctx.
func actorFromContext(ctx context.Context) (core.Actor, bool) {
	v, ok := ctx.Value(actorKey{}).(core.Actor)
	return v, ok
}

// jwtClaims is the JWT payload struct used for signing and parsing.
type jwtClaims struct {
	CompanyID   string `json:"company_id"`
	CompanyKind string `json:"company_kind"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token identifying actor. Credential checks happen
// upstream; this only mints the token the API accepts.
func IssueToken(secret string, actor core.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &jwtClaims{
		CompanyID:   actor.CompanyID.String(),
		CompanyKind: string(actor.Kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.CompanyID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// RequireAuth is chi middleware that validates the bearer token (or the auth_token
// cookie) and injects the core.Actor into the request context. Returns 401 if the
// token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		companyID, err := uuid.Parse(claims.CompanyID)
		kind := core.CompanyKind(claims.CompanyKind)
		if err != nil || !kind.IsValid() {
			writeError(w, r, "token does not identify a company", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, core.Actor{CompanyID: companyID, Kind: kind})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards operator-only routes with the X-Admin-Token header. With no
// admin token configured the route is closed to everyone.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.adminToken == "" {
			writeError(w, r, "company registration is disabled", "FORBIDDEN", http.StatusForbidden)
			return
		}
		got := r.Header.Get("X-Admin-Token")
		if got == "" {
			writeError(w, r, "admin token required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.adminToken)) != 1 {
			writeError(w, r, "invalid admin token", "FORBIDDEN", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if c, err := r.Cookie("auth_token"); err == nil {
		return c.Value
	}
	return ""
}

// mustActor returns the actor set by RequireAuth.
func mustActor(w http.ResponseWriter, r *http.Request) (core.Actor, bool) {
	a, ok := actorFromContext(r.Context())
	if !ok {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
	}
	return a, ok
}
