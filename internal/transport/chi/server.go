// Package chi exposes the JSON/HTTP API surface.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	askuc "github.com/Abhinavkrtiwari/ResumeRAG/internal/usecase/ask"
	healthuc "github.com/Abhinavkrtiwari/ResumeRAG/internal/usecase/health"
	jobuc "github.com/Abhinavkrtiwari/ResumeRAG/internal/usecase/job"
	matchuc "github.com/Abhinavkrtiwari/ResumeRAG/internal/usecase/match"
	resumeuc "github.com/Abhinavkrtiwari/ResumeRAG/internal/usecase/resume"
)

const (
	// maxUploadMemory bounds multipart form parsing.
	maxUploadMemory = 32 << 20
	// defaultTopN applies when a match request omits top_n.
	defaultTopN = 10
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server routes HTTP requests to the use case services.
type Server struct {
	resumes       *resumeuc.Service
	jobs          *jobuc.Service
	ask           *askuc.Service
	match         *matchuc.Service
	health        *healthuc.Service
	limiter       Admitter
	idem          Deduplicator
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. limiter and idem can be nil, which
// disables rate limiting and write deduplication respectively.
func NewServer(
	resumes *resumeuc.Service,
	jobs *jobuc.Service,
	ask *askuc.Service,
	match *matchuc.Service,
	health *healthuc.Service,
	limiter Admitter,
	idem Deduplicator,
	logger *zap.Logger,
) *Server {
	s := &Server{
		resumes: resumes,
		jobs:    jobs,
		ask:     ask,
		match:   match,
		health:  health,
		limiter: limiter,
		idem:    idem,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrJobNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrFileTooLarge, http.StatusBadRequest, codeFileTooLarge),
		sentinelHandler(domain.ErrUnsupportedFileType, http.StatusBadRequest, codeUnsupportedFileType),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimit),
		sentinelHandler(domain.ErrIdempotencyConflict, http.StatusConflict, codeIdempotencyConflict),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingProvider),
	}
	return s
}

// Routes builds the API router. Health and metrics sit outside the rate
// limited group.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)

		r.Route("/resumes", func(r chi.Router) {
			r.Post("/", s.idempotent(s.UploadResume))
			r.Get("/", s.ListResumes)
			r.Get("/{id}", s.GetResume)
			r.Delete("/{id}", s.DeleteResume)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.idempotent(s.CreateJob))
			r.Get("/", s.ListJobs)
			r.Get("/{id}", s.GetJob)
			r.Post("/{id}/match", s.MatchJob)
		})

		r.Post("/ask", s.Ask)
	})

	return r
}

// UploadResume handles POST /resumes (multipart, field "file").
func (s *Server) UploadResume(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "", "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "", "invalid multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeFieldRequired, "file", "file part is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "file", "unreadable file part")
		return
	}

	res, err := s.resumes.Upload(r.Context(), p, header.Filename, data)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resumeToResponse(&res))
}

// ListResumes handles GET /resumes?limit&offset&q.
func (s *Server) ListResumes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "", "authentication required")
		return
	}

	offset, limit, err := pagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "", err.Error())
		return
	}

	page, err := s.resumes.List(r.Context(), p, r.URL.Query().Get("q"), offset, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]resumeResponse, len(page.Items))
	for i := range page.Items {
		items[i] = resumeToResponse(&page.Items[i])
	}
	resp := resumeListResponse{Items: items, Total: page.Total}
	if page.NextOffset >= 0 {
		resp.NextOffset = &page.NextOffset
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetResume handles GET /resumes/{id}.
func (s *Server) GetResume(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "", "authentication required")
		return
	}

	res, err := s.resumes.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resumeToResponse(&res))
}

// DeleteResume handles DELETE /resumes/{id}.
func (s *Server) DeleteResume(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "", "authentication required")
		return
	}

	if err := s.resumes.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateJob handles POST /jobs.
func (s *Server) CreateJob(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "", "authentication required")
		return
	}

	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "", "invalid request body: "+err.Error())
		return
	}

	j, err := s.jobs.Create(r.Context(), p, jobuc.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, jobToResponse(&j))
}

// GetJob handles GET /jobs/{id}.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobToResponse(&j))
}

// ListJobs handles GET /jobs?limit&offset.
func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "", err.Error())
		return
	}

	page, err := s.jobs.List(r.Context(), offset, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]jobResponse, len(page.Items))
	for i := range page.Items {
		items[i] = jobToResponse(&page.Items[i])
	}
	resp := jobListResponse{Items: items, Total: page.Total}
	if page.NextOffset >= 0 {
		resp.NextOffset = &page.NextOffset
	}
	writeJSON(w, http.StatusOK, resp)
}

// MatchJob handles POST /jobs/{id}/match.
func (s *Server) MatchJob(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "", "authentication required")
		return
	}

	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "", "invalid request body: "+err.Error())
		return
	}
	topN := defaultTopN
	if req.TopN != nil {
		topN = *req.TopN
	}

	results, err := s.match.Match(r.Context(), p, chi.URLParam(r, "id"), topN)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	matches := make([]matchResultResponse, len(results))
	for i := range results {
		matches[i] = matchResultToResponse(&results[i])
	}
	writeJSON(w, http.StatusOK, matchListResponse{Matches: matches})
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "", "authentication required")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "", "invalid request body: "+err.Error())
		return
	}

	ans, err := s.ask.Ask(r.Context(), p, req.Query, req.K)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answerToResponse(&ans))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, healthResponse{
		Status:        string(report.Status),
		Checks:        checks,
		IndexedChunks: report.IndexedChunks,
	})
}

func principal(r *http.Request) (domain.Principal, bool) {
	return domain.PrincipalFromContext(r.Context())
}

func pagination(r *http.Request) (offset, limit int, err error) {
	q := r.URL.Query()
	if v := q.Get("offset"); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("offset must be an integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("limit must be an integer")
		}
	}
	return offset, limit, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, field, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{
		Code:    code,
		Field:   field,
		Message: message,
	}})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrJobNotFound,
		domain.ErrFileTooLarge,
		domain.ErrUnsupportedFileType,
		domain.ErrRateLimited,
		domain.ErrIdempotencyConflict,
		domain.ErrEmbeddingProvider,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, "", msg)
		return true
	}
}

// validationHandler maps ValidationError to the envelope with its field.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		code := codeBadRequest
		if ve.Field != "" {
			code = codeFieldRequired
		}
		writeError(w, http.StatusBadRequest, code, ve.Field, ve.Reason)
		return true
	}
	writeError(w, http.StatusBadRequest, codeBadRequest, "", domain.ErrValidation.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("domain error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "", "internal error")
}
