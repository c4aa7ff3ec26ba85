// Command territoryapi serves archived territory runs over a read-only HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/talgya/territory-sim/internal/api"
	"github.com/talgya/territory-sim/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	dbPath := flag.String("db", "data/territory.db", "SQLite results archive")
	addr := flag.String("addr", ":8080", "listen address")
	ratePerMin := flag.Int("rate", 120, "requests per minute per client (0 disables limiting)")
	flag.Parse()

	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", *dbPath)

	srv := &api.Server{DB: db, Addr: *addr}
	if *ratePerMin > 0 {
		srv.Limiter = api.NewRateLimiter(*ratePerMin, time.Minute)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server error", "error", err)
		os.Exit(1)
	}
}
