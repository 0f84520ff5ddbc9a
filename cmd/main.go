package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentic-context/internal/ai"
	"agentic-context/internal/config"
	"agentic-context/internal/logger"
	"agentic-context/internal/telemetry"
	"agentic-context/internal/vectorstore"
	"agentic-context/routes"
	"agentic-context/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	shutdownTracer, err := telemetry.InitTracer(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	shutdownMeter, err := telemetry.InitMeterProvider(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	store, err := vectorstore.New(cfg, logger.Logger)
	if err != nil {
		logger.Fatal("Failed to open vector store", zap.Error(err))
	}

	// Provider clients are built on first use and shared across requests.
	embedder := ai.NewLazyEmbedder(func(ctx context.Context) (ai.Embedder, error) {
		return ai.NewEmbedder(ctx, cfg)
	})
	chat := ai.NewLazyChatClient(func(context.Context) (ai.ChatClient, error) {
		return ai.NewDeepSeekClient(cfg, metrics)
	})

	loader, err := services.NewDocumentLoader(cfg.TextEncodings)
	if err != nil {
		logger.Fatal("Invalid text encodings", zap.Error(err))
	}
	splitter := services.NewTextSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	retrieval := services.NewRetrievalService(embedder, store, cfg.MMRFetchK, cfg.MMRLambda, metrics)
	formatting := services.NewFormattingService(chat)
	svc := &routes.Services{
		Ingestion:  services.NewIngestionService(cfg.UploadDir, loader, splitter, embedder, store, metrics),
		Retrieval:  retrieval,
		Formatting: formatting,
		Query:      services.NewQueryService(retrieval, formatting),
		Agents:     services.NewAgentService(store, metrics),
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	if !cfg.AuthEnabled() {
		logger.Warn("API_KEY is empty, API key authentication is disabled")
	}

	router := routes.SetupRouter(cfg, svc, metrics)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("vector_store", store.Backend()),
			zap.String("embeddings_provider", cfg.EmbeddingsProvider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := store.Close(); err != nil {
		logger.Error("Failed to close vector store", zap.Error(err))
	}
	if err := embedder.Close(); err != nil {
		logger.Error("Failed to close embeddings client", zap.Error(err))
	}
	shutdownMeter(ctx)
	shutdownTracer(ctx)

	logger.Info("Server exited")
}
