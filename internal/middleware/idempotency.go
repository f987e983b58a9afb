// Package middleware provides HTTP middleware components for the card ledger API.
package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/benx421/rapidpay/internal/models"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "X-Idempotent-Replayed"
)

// IdempotencyStore reserves Idempotency-Key values per request path and keeps
// the response produced under each reservation.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key, requestPath string) (*models.IdempotencyKey, error)
	Complete(ctx context.Context, idemKey *models.IdempotencyKey) error
	Release(ctx context.Context, key, requestPath string) error
}

// Idempotency runs a request at most once per Idempotency-Key and request path.
//
// The key is reserved before the handler runs, so a second request carrying
// the same key while the first is in flight gets 409 instead of repeating the
// side effect. A 2xx response is stored and replayed for later requests with
// the key; any other outcome releases the key so the client may retry.
//
// Mount it per route. Authorization attempts must never sit behind it, since
// each attempt is recorded and feeds the velocity check.
func Idempotency(store IdempotencyStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyKeyHeader)
			if key == "" || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			req := idempotentRequest{
				store:  store,
				logger: logger,
				key:    key,
				path:   strings.TrimSuffix(r.URL.Path, "/"),
			}

			existing, err := store.Reserve(r.Context(), req.key, req.path)
			switch {
			case err != nil:
				logger.ErrorContext(r.Context(), "idempotency reservation failed, serving request unprotected",
					"error", err,
					"key", req.key,
					"path", req.path,
				)
				next.ServeHTTP(w, r)
				return
			case existing == nil:
				req.serve(w, r, next)
			case existing.Pending():
				logger.InfoContext(r.Context(), "idempotency key in use", "key", req.key, "path", req.path)
				writeJSONError(w, http.StatusConflict, "conflict", "a request with this Idempotency-Key is still in progress")
			default:
				logger.DebugContext(r.Context(), "replaying stored response",
					"key", req.key,
					"path", req.path,
					"status", existing.ResponseStatus,
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(replayedHeader, "true")
				w.WriteHeader(existing.ResponseStatus)
				//nolint:errcheck // Best effort response writing
				w.Write([]byte(existing.ResponseBody))
			}
		})
	}
}

// idempotentRequest is a request that holds a reservation.
type idempotentRequest struct {
	store  IdempotencyStore
	logger *slog.Logger
	key    string
	path   string
}

func (q idempotentRequest) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	// Outcomes are recorded even when the client has already gone away.
	ctx := context.WithoutCancel(r.Context())
	rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}

	finished := false
	defer func() {
		if !finished {
			q.release(ctx)
		}
	}()

	next.ServeHTTP(rec, r)
	finished = true

	if rec.status < 200 || rec.status >= 300 {
		q.release(ctx)
		return
	}

	err := q.store.Complete(ctx, &models.IdempotencyKey{
		Key:            q.key,
		RequestPath:    q.path,
		ResponseStatus: rec.status,
		ResponseBody:   rec.body.String(),
	})
	if err != nil {
		q.logger.ErrorContext(ctx, "failed to store idempotent response", "error", err, "key", q.key, "path", q.path)
	}
}

func (q idempotentRequest) release(ctx context.Context) {
	if err := q.store.Release(ctx, q.key, q.path); err != nil {
		q.logger.ErrorContext(ctx, "failed to release idempotency key", "error", err, "key", q.key, "path", q.path)
	}
}

// recordingWriter tees the response so it can be stored after the handler returns.
type recordingWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (rw *recordingWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}
