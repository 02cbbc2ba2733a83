package chi

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/idempotency"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/metrics"
)

// idempotencyKeyHeader carries the client-chosen deduplication key.
const idempotencyKeyHeader = "Idempotency-Key"

// Admitter decides whether a request from an owner may proceed.
type Admitter interface {
	Admit(ownerID string) bool
}

// Deduplicator runs a write at most once per (owner, key) and replays the
// stored response to duplicates.
type Deduplicator interface {
	Execute(
		ctx context.Context, key, ownerID, fingerprint string, op idempotency.Operation,
	) (idempotency.Response, error)
}

// rateLimit rejects requests whose owner has exhausted its token bucket.
// Rejected requests consume no tokens and carry a Retry-After hint.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		owner := "anonymous"
		if p, ok := principal(r); ok {
			owner = p.OwnerID
		}

		if !s.limiter.Admit(owner) {
			metrics.RateLimitRejectedTotal.WithLabelValues(owner).Inc()
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, codeRateLimit, "", "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// idempotent wraps a write handler with deduplication. The request body is
// buffered so the fingerprint covers the exact bytes the handler consumes,
// and the captured response is replayed byte for byte on duplicates.
func (s *Server) idempotent(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(idempotencyKeyHeader)
		if key == "" || s.idem == nil {
			next(w, r)
			return
		}

		p, ok := principal(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "", "authentication required")
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "", "unreadable request body")
			return
		}

		resp, err := s.idem.Execute(
			r.Context(), key, p.OwnerID, idempotency.Fingerprint(body),
			func(ctx context.Context) (idempotency.Response, error) {
				rec := newResponseRecorder()
				req := r.Clone(ctx)
				req.Body = io.NopCloser(bytes.NewReader(body))
				next(rec, req)
				return idempotency.Response{
					Status:      rec.status,
					ContentType: rec.Header().Get("Content-Type"),
					Body:        rec.body.Bytes(),
				}, nil
			},
		)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}

		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		w.WriteHeader(resp.Status)
		_, _ = w.Write(resp.Body)
	}
}

// responseRecorder captures a handler's response for the idempotency store.
type responseRecorder struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{header: make(http.Header), status: http.StatusOK}
}

func (r *responseRecorder) Header() http.Header { return r.header }

func (r *responseRecorder) WriteHeader(status int) { r.status = status }

func (r *responseRecorder) Write(b []byte) (int, error) { return r.body.Write(b) }
