package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/vasu-devs/Vaani/internal/adapters/livekit"
	"github.com/vasu-devs/Vaani/internal/config"
	"github.com/vasu-devs/Vaani/internal/handler"
	"github.com/vasu-devs/Vaani/internal/llm"
	"github.com/vasu-devs/Vaani/internal/services/call"
	"github.com/vasu-devs/Vaani/internal/services/risk"
	"github.com/vasu-devs/Vaani/internal/storage"
	"github.com/vasu-devs/Vaani/pkg/logger"
	"github.com/vasu-devs/Vaani/pkg/redis"
	"go.uber.org/zap"
)

// Server is the Vaani call gateway: the HTTP trigger/reporting surface plus
// the per-session call workers.
type Server struct {
	config   *config.Config
	router   *mux.Router
	registry *call.Registry
}

// NewServer wires every component of the gateway.
func NewServer(cfg *config.Config) (*Server, error) {
	rooms, err := livekit.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	var index *redis.Service
	if cfg.RedisAddr != "" {
		index, err = redis.NewService(&redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			logger.Base().Warn("failed to connect to redis, running without record index", zap.Error(err))
			index = nil
		}
	}

	store, err := storage.NewRecordStore(cfg.RecordsDir, index)
	if err != nil {
		return nil, err
	}

	analyzer := risk.NewAnalyzer(llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.AnalysisModel))
	registry := call.NewRegistry()
	runner := livekit.NewSessionRunner(cfg, rooms, registry, analyzer, store, nil)
	dispatcher := call.NewDispatcher(rooms, cfg.SIPOutboundTrunkID)

	callHandler := handler.NewCallHandler(dispatcher, runner, store)
	router := mux.NewRouter()
	handler.NewHandlerManager(cfg, callHandler).SetupAllRoutes(router)

	return &Server{
		config:   cfg,
		router:   router,
		registry: registry,
	}, nil
}

// Start runs the HTTP server until ctx is cancelled, then drains: sessions
// that have not finalized yet get their last chance, bounded by the shutdown
// grace period.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%s", s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Base().Info("starting server", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Base().Info("shutting down", zap.Int("live_sessions", s.registry.Len()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownGracePeriod)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Base().Error("http shutdown failed", zap.Error(err))
	}

	// Last-resort finalize pass, same bound as the server drain.
	s.registry.FinalizeAll(shutdownCtx)
	return nil
}

func main() {
	// .env.local wins over .env for local development.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	if _, err := logger.Init(os.Getenv("LOG_ENV")); err != nil {
		logger.Base().Error("failed to initialize zap logger, falling back to std log")
	}
	defer logger.Sync()

	cfg := config.LoadFromEnv()

	server, err := NewServer(cfg)
	if err != nil {
		logger.Base().Fatal("failed to initialize server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && err != http.ErrServerClosed {
		logger.Base().Fatal("server exited", zap.Error(err))
	}
}
