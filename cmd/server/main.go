package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"sentry-gate/internal/backup"
	"sentry-gate/internal/config"
	"sentry-gate/internal/db"
	sentryhttp "sentry-gate/internal/http"
	"sentry-gate/internal/ocr"
	"sentry-gate/internal/pipeline"
	"sentry-gate/internal/repository"
	"sentry-gate/internal/service"
	"sentry-gate/internal/validator"
	"sentry-gate/internal/vision"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	store := repository.NewStore(gdb, log)

	backups, err := backup.NewManager(gdb, cfg.Backup.Dir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init backup manager")
	}

	val, err := validator.New(
		cfg.Validator.MinConfidence,
		cfg.Validator.AutoAccept,
		cfg.Validator.Patterns,
		cfg.Validator.Substitutions,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid validator configuration")
	}

	notifier := pipeline.NewNotifier()
	gateService := service.NewGateService(store, notifier, cfg.Gate, log)

	frames := vision.NewPushSource(cfg.Pipeline.QueueSize)
	recognizer := ocr.NewAgentClient(cfg.OCR.AgentURL, cfg.OCR.Timeout)
	pipe := pipeline.New(
		cfg.Pipeline,
		cfg.OCR.MaxRetries,
		frames,
		vision.NewPreprocessor(),
		recognizer,
		val,
		gateService,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipelineDone := make(chan struct{})
	go func() {
		defer close(pipelineDone)
		if err := pipe.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("pipeline stopped")
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	handler := sentryhttp.NewHandler(gateService, store, backups, notifier, frames, cfg, log)
	handler.Register(router, sentryhttp.AuthMiddleware(cfg.Auth.JWTSecret))

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	frames.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("pipeline did not drain in time")
	}
	log.Info().Int64("dropped_frames", pipe.Dropped()).Msg("stopped")
}
