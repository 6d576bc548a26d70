package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expense-ledger/internal/apperr"
	"expense-ledger/internal/auth"
	"expense-ledger/internal/storage"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the per-request id back to the client.
	RequestIDHeader = "X-Request-ID"
	// maxBodyBytes bounds JSON and form bodies.
	maxBodyBytes = 1 << 20
)

// Options tunes handler behavior.
type Options struct {
	// TokenTTL is the lifetime of tokens issued by Login.
	TokenTTL time.Duration
	// RequireAuthOnMutations puts the edit and delete statement routes behind
	// the bearer check and restricts them to the caller's own user_id.
	RequireAuthOnMutations bool
	// Now is the clock used for default statistics periods.
	Now func() time.Time
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db     *storage.DB
	creds  *auth.Credentials
	tokens *auth.TokenService
	opts   Options
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, creds *auth.Credentials, tokens *auth.TokenService, opts Options) *Handlers {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 60 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handlers{db: db, creds: creds, tokens: tokens, opts: opts}
}

// RequireUser wraps handlers to require a valid bearer token. The caller's
// user id is placed in the request context.
func (h *Handlers) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.authenticate(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

var errInvalidToken = apperr.Authentication("Invalid or expired token")

// authenticate resolves the bearer token to a user id. Every failure is the
// same error.
func (h *Handlers) authenticate(r *http.Request) (int64, error) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return 0, errInvalidToken
	}
	sub, ok := h.tokens.Verify(token)
	if !ok {
		return 0, errInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, errInvalidToken
	}
	return userID, nil
}

// Mutation wraps the edit and delete statement routes. Without
// RequireAuthOnMutations they accept any caller.
func (h *Handlers) Mutation(next http.HandlerFunc) http.Handler {
	if h.opts.RequireAuthOnMutations {
		return h.RequireUser(next)
	}
	return next
}

// authorizeOwner rejects a path user_id that is not the caller when
// mutations require authentication.
func (h *Handlers) authorizeOwner(r *http.Request, userID int64) error {
	if !h.opts.RequireAuthOnMutations {
		return nil
	}
	caller, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return errInvalidToken
	}
	if caller != userID {
		return apperr.NotFound("No records found for the given user_id")
	}
	return nil
}

// Health reports whether the database is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		log.Printf("[%s] health check failed: %v", requestID(r), err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LogRequests assigns a request id and logs one line per request. The
// matched route pattern is logged instead of the raw path so that amounts
// and dates in statement URLs stay out of the log.
func (h *Handlers) LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r.Header.Set(RequestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = r.Method + " (unmatched)"
		}
		log.Printf("[%s] %s -> %d (%s)", id, route, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

func requestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// writeError translates err into a status and a {"detail": ...} body.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	if status == http.StatusInternalServerError {
		log.Printf("[%s] %s %s error: %v", requestID(r), r.Method, r.Pattern, err)
	}
	if kind == apperr.KindAuthentication {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, map[string]string{"detail": apperr.PublicMessage(err)})
}

// decodeJSON reads a JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, io.EOF) {
		return apperr.Validation("request body is required")
	}
	return apperr.Wrap(apperr.KindValidation, "Invalid request body", err)
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json")
}
