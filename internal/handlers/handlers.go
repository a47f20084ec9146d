// Package handlers contains the HTTP layer: JSON request decoding,
// session cookie minting, and the mapping from service errors to status
// codes. Business rules live in the confession service.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"confide/internal/broadcast"
	"confide/internal/confession"
)

// sessionCookieName is the anonymous session cookie. The random token it
// carries is the rate-limit identifier and the vote dedup key; it is
// never exposed in any response body.
const sessionCookieName = "confide_session"

// sessionMaxAge keeps the pseudonymous alias stable across visits.
const sessionMaxAge = 365 * 24 * time.Hour

// Config holds handler configuration options
type Config struct {
	// SecureCookies sets the Secure flag on the session cookie.
	// Should be true in production (HTTPS), false for local development.
	SecureCookies bool

	// AdminKey is the shared secret for /api/admin routes. Empty
	// disables the admin surface entirely.
	AdminKey string
}

// Handler contains all HTTP handler methods and their dependencies.
// Dependencies are injected via the constructor for better testability.
type Handler struct {
	service     *confession.Service
	broadcaster *broadcast.Broadcaster
	config      Config
}

// NewHandler creates a new Handler with all required dependencies.
func NewHandler(service *confession.Service, broadcaster *broadcast.Broadcaster, config Config) *Handler {
	return &Handler{
		service:     service,
		broadcaster: broadcaster,
		config:      config,
	}
}

// sessionToken returns the client's session token, minting and setting
// the cookie on first contact.
func (h *Handler) sessionToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// errorResponse is the stable JSON error shape.
type errorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	ResetAt string `json:"resetAt,omitempty"`
}

// writeJSON encodes and writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError maps a service error onto the HTTP taxonomy. Unclassified
// errors surface as storage failures.
func writeError(w http.ResponseWriter, err error) {
	svcErr, ok := confession.AsError(err)
	if !ok {
		svcErr = &confession.Error{Kind: confession.KindStorage, Message: "internal error"}
	}

	resp := errorResponse{Error: svcErr.Message, Kind: string(svcErr.Kind)}
	status := statusForKind(svcErr.Kind)

	if svcErr.Kind == confession.KindRateLimited && !svcErr.ResetAt.IsZero() {
		resp.ResetAt = svcErr.ResetAt.UTC().Format(time.RFC3339Nano)
		retryAfter := int(time.Until(svcErr.ResetAt).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}

	writeJSON(w, status, resp)
}

func statusForKind(kind confession.Kind) int {
	switch kind {
	case confession.KindValidation:
		return http.StatusBadRequest
	case confession.KindRateLimited:
		return http.StatusTooManyRequests
	case confession.KindNotFound:
		return http.StatusNotFound
	case confession.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusServiceUnavailable
	}
}

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 64 << 10

// decodeJSON decodes a JSON request body into target.
func decodeJSON(r *http.Request, target any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	return nil
}
