package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotel-booking-client/internal/infrastructure/config"
	"hotel-booking-client/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const usage = `usage: client <command> [flags]

commands:
  book     submit a booking and wait for its confirmation
  status   show the current state of a booking
  cancel   cancel a booking
  search   search hotels
  history  list recorded booking outcomes of this client
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()

	// Signals are handled per command: book uses them to abandon a flow
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := newApp(ctx, cfg, log, os.Stdout)
	if err != nil {
		log.Fatal("Failed to initialize client", "error", err)
	}
	defer app.Close()

	cmd, args := os.Args[1], os.Args[2:]
	if cmd != "book" {
		go func() {
			select {
			case sig := <-sigChan:
				log.Info("Received signal", "signal", sig)
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	switch cmd {
	case "book":
		server := startMetricsServer(cfg, log)
		err = app.runBook(ctx, args, sigChan)
		shutdownMetricsServer(server, log)
	case "status":
		err = app.runStatus(ctx, args)
	case "cancel":
		err = app.runCancel(ctx, args)
	case "search":
		err = app.runSearch(ctx, args)
	case "history":
		err = app.runHistory(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		app.Close()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Command failed", "command", cmd, "error", err)
		app.Close()
		log.Sync()
		os.Exit(1)
	}
}

func startMetricsServer(cfg *config.Config, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	server := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("Starting metrics server", "port", cfg.MetricsPort, "version", cfg.AppVersion)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Metrics server error", "error", err)
		}
	}()
	return server
}

func shutdownMetricsServer(server *http.Server, log logger.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Metrics server shutdown error", "error", err)
	}
}
