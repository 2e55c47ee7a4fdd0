package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"marketpulse/internal/config"
	"marketpulse/internal/httpapi"
	"marketpulse/internal/util"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file (default $MARKETPULSE_CONFIG or "+config.DefaultPath+")")
	addr := flag.String("addr", "", "listen address, overrides stub.host/stub.port")
	flag.Parse()

	// .env is optional.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	cfg, err := config.Resolve(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(os.Stdout, cfg.Logging.Level, "json")
	util.SetDefault(logger)

	listen := cfg.Stub.Addr()
	if *addr != "" {
		listen = *addr
	}

	srv := httpapi.NewSentimentServer(cfg.Stub.FixturesDir, logger)
	httpServer := &http.Server{
		Addr:              listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("sentiment stub listening", "addr", listen, "fixtures", cfg.Stub.FixturesDir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down sentiment stub")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
