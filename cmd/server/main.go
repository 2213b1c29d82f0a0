package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bfindeiss/handwerker-app/internal/billing"
	"github.com/bfindeiss/handwerker-app/internal/config"
	"github.com/bfindeiss/handwerker-app/internal/conversation"
	"github.com/bfindeiss/handwerker-app/internal/llm"
	"github.com/bfindeiss/handwerker-app/internal/persistence"
	"github.com/bfindeiss/handwerker-app/internal/pricing"
	"github.com/bfindeiss/handwerker-app/internal/server"
	"github.com/bfindeiss/handwerker-app/internal/worker"
	"github.com/bfindeiss/handwerker-app/pkg/database"
	"github.com/bfindeiss/handwerker-app/pkg/provider/stt"
	"github.com/bfindeiss/handwerker-app/pkg/provider/tts"
	"github.com/bfindeiss/handwerker-app/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Handwerker invoice service",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Int("port", cfg.Server.Port))

	// Initialize the material price database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	registry, err := pricing.NewSQLiteRegistry(db, logger)
	if err != nil {
		logger.Fatal("Failed to initialize price registry", zap.Error(err))
	}

	pricer := pricing.NewEngine(pricing.Rates{
		LaborMeister:    cfg.Pricing.LaborMeister,
		LaborGeselle:    cfg.Pricing.LaborGeselle,
		LaborDefault:    cfg.Pricing.LaborDefault,
		TravelPerKm:     cfg.Pricing.TravelPerKm,
		MaterialDefault: cfg.Pricing.MaterialDefault,
		VATRate:         cfg.Pricing.VATRate,
	}, registry, logger)

	// Initialize the annotator backend and the reconciliation extractor
	completionProvider, err := llm.NewProvider(llm.Config{
		Provider:      cfg.LLM.Provider,
		Model:         cfg.LLM.Model,
		APIKey:        cfg.LLM.APIKey,
		OllamaBaseURL: cfg.LLM.OllamaBaseURL,
		Timeout:       cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize LLM provider", zap.Error(err))
	}
	extractor := llm.NewMultiPassExtractor(completionProvider, logger)

	// Initialize speech providers
	transcriber, err := stt.NewProvider(stt.Config{
		Provider:     cfg.STT.Provider,
		Model:        cfg.STT.Model,
		APIKey:       cfg.LLM.APIKey,
		Language:     cfg.STT.Language,
		Prompt:       cfg.STT.Prompt,
		Timeout:      cfg.STT.Timeout,
		Replacements: cfg.STT.Replacements,
	})
	if err != nil {
		logger.Fatal("Failed to initialize STT provider", zap.Error(err))
	}

	synthesizer, err := tts.NewProvider(tts.Config{
		Provider: cfg.TTS.Provider,
		Model:    cfg.TTS.Model,
		Voice:    cfg.TTS.Voice,
		APIKey:   cfg.LLM.APIKey,
		Timeout:  cfg.TTS.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to initialize TTS provider", zap.Error(err))
	}

	// Initialize the billing adapter and artifact storage
	dispatcher, err := billing.NewAdapter(billing.Config{
		Adapter:  cfg.Billing.Adapter,
		Endpoint: cfg.Billing.Endpoint,
		Timeout:  cfg.Billing.Timeout,
	})
	if err != nil {
		logger.Fatal("Failed to initialize billing adapter", zap.Error(err))
	}

	archive, err := persistence.NewArchive(cfg.Data.Dir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize artifact storage", zap.Error(err))
	}

	background := worker.NewRunner(2, 32, logger)
	defer background.Stop()

	engine := conversation.NewEngine(
		conversation.NewMemoryStore(),
		extractor,
		pricer,
		synthesizer,
		dispatcher,
		archive,
		config.NewEnvFileWriter(""),
		logger,
	).WithBackground(background)

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	handlers := server.NewHandlers(engine, transcriber, logger)
	router := server.NewRouter(handlers, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
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

	logger.Info("Server exited successfully")
}
