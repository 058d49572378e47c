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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/openhaus/propsearch/internal/config"
	dbRedis "github.com/openhaus/propsearch/internal/db/redis"
	"github.com/openhaus/propsearch/internal/domain"
	logpkg "github.com/openhaus/propsearch/internal/logger"
	"github.com/openhaus/propsearch/internal/metrics"
	listingrepo "github.com/openhaus/propsearch/internal/repository/listing"
	chiTransport "github.com/openhaus/propsearch/internal/transport/chi"
	openaiTransport "github.com/openhaus/propsearch/internal/transport/openai"
	boostuc "github.com/openhaus/propsearch/internal/usecase/boost"
	embeddinguc "github.com/openhaus/propsearch/internal/usecase/embedding"
	expanduc "github.com/openhaus/propsearch/internal/usecase/expand"
	extractuc "github.com/openhaus/propsearch/internal/usecase/extract"
	fuseuc "github.com/openhaus/propsearch/internal/usecase/fuse"
	healthuc "github.com/openhaus/propsearch/internal/usecase/health"
	planuc "github.com/openhaus/propsearch/internal/usecase/plan"
	qualityuc "github.com/openhaus/propsearch/internal/usecase/quality"
	retrieveuc "github.com/openhaus/propsearch/internal/usecase/retrieve"
	searchuc "github.com/openhaus/propsearch/internal/usecase/search"
	"github.com/openhaus/propsearch/internal/version"
)

func main() {
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

	logger.Info("Starting propsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create document store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Document store not ready", zap.Error(err))
	}
	logger.Info("Connected to document store")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	collection := cfg.Storage.DefaultCollection
	if cfg.Embedding.Dimensions > 0 {
		err := listingrepo.EnsureIndex(ctx, store,
			cfg.Storage.KeyPrefix, collection, cfg.Embedding.Dimensions,
			listingrepo.HNSWConfig{M: cfg.Index.HNSWM, EFConstruct: cfg.Index.HNSWEFConstruct},
		)
		if err != nil {
			logger.Fatal("Failed to ensure listings index", zap.Error(err))
		}
		logger.Info("Listings index ready",
			zap.String("collection", collection),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	}

	embedder := buildEmbedder(&cfg, logger)
	extractor, expander := buildNLU(&cfg, logger)

	repo := listingrepo.New(store, cfg.Storage.KeyPrefix)
	fuser := fuseuc.New(logger)

	var expandSvc *expanduc.Service
	if expander != nil {
		expandSvc = expanduc.New(expander, fuser,
			cfg.Search.MaxSubQueries, cfg.Search.ExpansionConcurrency, logger)
	}

	searchSvc := searchuc.New(
		extractuc.New(extractor, time.Duration(cfg.NLU.TimeoutMS)*time.Millisecond, logger),
		planuc.New(logger),
		embedder,
		retrieveuc.New(repo, time.Duration(cfg.Search.StrategyTimeoutMS)*time.Millisecond, logger),
		fuser,
		boostuc.New(cfg.Search.MaxBoost, cfg.Search.MustHaveBoost, cfg.Search.NiceToHaveBoost, logger),
		qualityuc.New(),
		expandSvc,
		time.Duration(cfg.Search.OverallDeadlineMS)*time.Millisecond,
		logger,
	)
	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder))

	server := chiTransport.NewServer(searchSvc, healthSvc, collection, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

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

// buildEmbedder assembles the embedding chain: OpenAI provider wrapped by the
// concurrency/retry gate. Returns nil when no provider is configured; the
// search degrades to lexical retrieval.
func buildEmbedder(cfg *config.Config, logger *zap.Logger) domain.Embedder {
	if cfg.Embedding.APIKey == "" {
		logger.Warn("No embedding provider configured, vector strategies disabled")
		return nil
	}

	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	return embeddinguc.NewGate(base, embeddinguc.Options{
		Model:       cfg.Embedding.Model,
		MaxInFlight: int64(cfg.Embedding.MaxInFlight),
		Timeout:     time.Duration(cfg.Embedding.TimeoutMS) * time.Millisecond,
		RetryMax:    cfg.Embedding.RetryMax,
		RetryBase:   time.Duration(cfg.Embedding.RetryBaseMS) * time.Millisecond,
	}, logger)
}

// buildNLU creates the constraint parser and query expander. Both are nil
// when no NLU service is configured; extraction falls back to keyword rules
// and every search runs single-query.
func buildNLU(cfg *config.Config, logger *zap.Logger) (extractuc.Parser, expanduc.Expander) {
	if cfg.NLU.APIKey == "" || cfg.NLU.Model == "" {
		logger.Warn("No NLU service configured, using keyword extraction only")
		return nil, nil
	}

	nluCfg := &openaiTransport.Config{
		APIKey:  cfg.NLU.APIKey,
		BaseURL: cfg.NLU.BaseURL,
		Model:   cfg.NLU.Model,
		Logger:  logger,
	}
	logger.Info("NLU service configured", zap.String("model", cfg.NLU.Model))
	return openaiTransport.NewExtractor(nluCfg), openaiTransport.NewExpander(nluCfg)
}

// embeddingHealthChecker exposes the embedder's health check when it has one.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) healthuc.EmbeddingChecker {
	if embedder == nil {
		return nil
	}
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
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

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
