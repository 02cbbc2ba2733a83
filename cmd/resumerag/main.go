package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Abhinavkrtiwari/ResumeRAG/internal/config"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/domain"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/idempotency"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/index"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/kv"
	kvMemory "github.com/Abhinavkrtiwari/ResumeRAG/internal/kv/memory"
	kvRedis "github.com/Abhinavkrtiwari/ResumeRAG/internal/kv/redis"
	logpkg "github.com/Abhinavkrtiwari/ResumeRAG/internal/logger"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/metrics"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/ratelimit"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/repository/embcache"
	idemrepo "github.com/Abhinavkrtiwari/ResumeRAG/internal/repository/idempotency"
	jobrepo "github.com/Abhinavkrtiwari/ResumeRAG/internal/repository/job"
	resumerepo "github.com/Abhinavkrtiwari/ResumeRAG/internal/repository/resume"
	chiTransport "github.com/Abhinavkrtiwari/ResumeRAG/internal/transport/chi"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/transport/localembed"
	openaiEmb "github.com/Abhinavkrtiwari/ResumeRAG/internal/transport/openai"
	askuc "github.com/Abhinavkrtiwari/ResumeRAG/internal/usecase/ask"
	embeddinguc "github.com/Abhinavkrtiwari/ResumeRAG/internal/usecase/embedding"
	healthuc "github.com/Abhinavkrtiwari/ResumeRAG/internal/usecase/health"
	jobuc "github.com/Abhinavkrtiwari/ResumeRAG/internal/usecase/job"
	matchuc "github.com/Abhinavkrtiwari/ResumeRAG/internal/usecase/match"
	resumeuc "github.com/Abhinavkrtiwari/ResumeRAG/internal/usecase/resume"
	"github.com/Abhinavkrtiwari/ResumeRAG/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting resumerag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	// Create the record store based on driver
	var store kv.Store
	switch cfg.Store.Driver {
	case "memory":
		store = kvMemory.NewStore()
	case "redis":
		store, err = kvRedis.NewStore(kvRedis.Config{
			Addrs:    cfg.Store.Addrs,
			Username: cfg.Store.Username,
			Password: cfg.Store.Password,
			DB:       cfg.Store.DB,
		})
	default:
		logger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create record store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Record store not ready", zap.Error(err))
	}
	logger.Info("Connected to record store")

	// Register application metrics explicitly (no init())
	metrics.RegisterAppMetrics()

	embedder, baseEmbedder := buildEmbedder(cfg.Embedding, store, logger)

	// Repositories and index
	resumeRepo := resumerepo.New(store)
	jobRepo := jobrepo.New(store)
	idx := index.New()
	if err := rebuildIndex(ctx, idx, resumeRepo, logger); err != nil {
		logger.Fatal("Failed to rebuild index", zap.Error(err))
	}

	// Use case services
	resumeSvc := resumeuc.New(resumeRepo, idx, embedder, resumeuc.Config{
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
	}, logger)
	jobSvc := jobuc.New(jobRepo, logger)
	askSvc := askuc.New(idx, embedder, nil, askuc.Config{
		SimilarityFloor: cfg.Ask.SimilarityFloor,
		AnswerMaxLen:    cfg.Ask.AnswerMaxLen,
	}, logger)
	matchSvc := matchuc.New(jobRepo, resumeRepo, idx, embedder, matchuc.Config{
		RequirementThreshold: cfg.Matching.RequirementThreshold,
		CoverageWeight:       cfg.Matching.CoverageWeight,
	}, logger)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(baseEmbedder), idx)

	limiter := ratelimit.New(ratelimit.Config{
		Capacity:  cfg.RateLimit.Capacity,
		RefillPer: time.Second / time.Duration(cfg.RateLimit.RefillPerSec),
		IdleAfter: time.Duration(cfg.RateLimit.IdleAfterSec) * time.Second,
	})
	coordinator := idempotency.New(
		idemrepo.New(store),
		time.Duration(cfg.Idempotency.RetentionHours)*time.Hour,
	)

	server := chiTransport.NewServer(
		resumeSvc, jobSvc, askSvc, matchSvc, healthSvc, limiter, coordinator, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(principals(cfg.Auth)))
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]any{
						"error": map[string]string{
							"code":    "INTERNAL_ERROR",
							"message": "internal error",
						},
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

// principals maps the configured API keys to their principals.
func principals(cfg config.AuthConfig) map[string]domain.Principal {
	out := make(map[string]domain.Principal, len(cfg.Keys))
	for _, k := range cfg.Keys {
		out[k.Key] = domain.Principal{OwnerID: k.OwnerID, Role: domain.Role(k.Role)}
	}
	return out
}

// rebuildIndex loads every stored resume back into the in-process index.
// The index is derived state; the record store is the source of truth.
func rebuildIndex(ctx context.Context, idx *index.Index, repo *resumerepo.Repo, logger *zap.Logger) error {
	resumes, err := repo.All(ctx)
	if err != nil {
		return fmt.Errorf("load resumes: %w", err)
	}
	for i := range resumes {
		idx.SetDocument(resumes[i].ID(), resumes[i].OwnerID(), resumes[i].Chunks())
	}
	metrics.IndexedChunks.Set(float64(idx.ChunkCount()))
	logger.Info("Index rebuilt",
		zap.Int("resumes", len(resumes)),
		zap.Int("chunks", idx.ChunkCount()),
	)
	return nil
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: provider -> Cached -> Retry.
// The base provider is returned alongside the chain for health checks, which
// the decorators do not forward.
func buildEmbedder(
	cfg config.EmbeddingConfig, store kv.Store, logger *zap.Logger,
) (chain, base domain.Embedder) {
	switch cfg.Provider {
	case "openai":
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		})
	default:
		base = localembed.NewEmbedder(cfg.Dimensions)
	}

	cached := embcache.New(base, store, cfg.Model, metrics.EmbeddingCacheTotal, logger)

	chain = embeddinguc.NewRetryEmbedder(
		cached, cfg.Retries, time.Duration(cfg.BackoffMs)*time.Millisecond, logger,
	)
	return chain, base
}
