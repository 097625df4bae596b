package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docdrip/docdrip"
	"github.com/docdrip/docdrip/api/handlers"
	"github.com/docdrip/docdrip/api/routes"
	"github.com/docdrip/docdrip/internal/config"
	"github.com/docdrip/docdrip/internal/service/document"
	"github.com/docdrip/docdrip/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	log, err := logger.New(
		logger.WithLevel(level),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/app.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	engine := docdrip.New(docdrip.WithMaxFileSize(cfg.MaxFileSizeBytes()))
	svc := document.New(engine, log.Named("document"), int64(cfg.MaxConcurrent))

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	h := handlers.New(svc, log.Named("http"), cfg.Version)
	routes.Setup(r, h, cfg.SecretKey)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		log.Info("server starting",
			logger.String("addr", cfg.Addr()),
			logger.String("version", cfg.Version),
			logger.Int("max_file_size_mb", cfg.MaxFileSizeMB),
			logger.Int("max_concurrent", cfg.MaxConcurrent),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", logger.Error(err))
	}
}
