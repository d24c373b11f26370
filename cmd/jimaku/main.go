package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/torisu/jimaku/config"
	HTTPAdapter "github.com/torisu/jimaku/internal/adapter/http"
	"github.com/torisu/jimaku/internal/adapter/probe/ffprobe"
	sqlitestore "github.com/torisu/jimaku/internal/adapter/storage/sqlite"
	"github.com/torisu/jimaku/internal/adapter/transcriber/whisper"
	"github.com/torisu/jimaku/internal/adapter/translator/llm"
	"github.com/torisu/jimaku/internal/infrastructure/logger"
	"github.com/torisu/jimaku/internal/retry"
	"github.com/torisu/jimaku/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error.Printf("failed to load config: %v", err)
		os.Exit(1)
	}

	logger.Info.Printf("starting jimaku on port %d, %s -> %s", cfg.Port, cfg.SourceLang, cfg.TargetLang)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error.Printf("failed to create data directory: %v", err)
		os.Exit(1)
	}

	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error.Printf("failed to create store: %v", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	transcriber := whisper.NewClient(cfg.OpenAIAPIKey, whisper.WithModel(cfg.WhisperModel))
	translator := llm.NewClient(cfg.OpenAIAPIKey, cfg.SourceLang, cfg.TargetLang, llm.WithModel(cfg.TranslateModel))
	prober := ffprobe.NewProber()
	hub := service.NewHub()

	// Worker pool for async processing jobs
	runnerCtx, runnerCancel := context.WithCancel(context.Background())
	defer runnerCancel()

	runner := service.NewRunner(cfg.PipelineWorkers, 64)
	runner.Start(runnerCtx)

	pipeline := service.NewPipeline(store, transcriber, translator, hub, runner, retry.DefaultPolicy(), cfg.SourceLang)
	audioSvc := service.NewAudioService(store, prober, pipeline, cfg.DataDir)

	server := HTTPAdapter.NewServer(audioSvc, hub, cfg.MaxUploadSizeMB)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info.Printf("received %s, shutting down", sig)

		// Stop accepting new requests
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error.Printf("http shutdown error: %v", err)
		}

		// Stop workers, then let in-flight jobs finish
		runnerCancel()
		runner.Wait()

		logger.Info.Printf("shutdown complete")
	}()

	logger.Info.Printf("server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error.Printf("server failed: %v", err)
		os.Exit(1)
	}
}
