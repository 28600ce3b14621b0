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

	"github.com/antoniostano/cadence/internal/config"
	"github.com/antoniostano/cadence/internal/cycle"
	"github.com/antoniostano/cadence/internal/httpapi"
	"github.com/antoniostano/cadence/internal/observability"
	"github.com/antoniostano/cadence/internal/periods"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace, cfg.LatencyWindowSize)

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	source, err := periods.NewSource(startCtx, cfg.DatabaseURL, cfg.DatabaseConnectAttempts)
	startCancel()
	if err != nil {
		log.Fatalf("period source init failed: %v", err)
	}
	defer source.Close()
	log.Printf("period source: %s", source.Mode())
	if notice := sourceNotice(source); notice != "" {
		log.Printf("%s", notice)
	}

	engine := cycle.NewEngine(cycle.SystemClock{Location: cfg.Location})
	log.Printf("calendar timezone: %s, priors: cycle=%d period=%d",
		cfg.Location, cfg.Priors.CycleLength, cfg.Priors.PeriodLength)

	api := httpapi.New(cfg, engine, source, metrics)
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}

// sourceNotice warns when user history can never be found: the in-memory
// source starts empty and nothing at runtime fills it.
func sourceNotice(source periods.Source) string {
	if _, ok := source.(*periods.MemorySource); ok {
		return "DATABASE_URL is not set: /v1/users/{userID}/predictions will answer 404 for every user"
	}
	return ""
}
