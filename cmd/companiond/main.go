// Command companiond runs a companion scenario in real time, persists trust
// to sqlite and streams state changes to websocket observers on /events.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Garsondee/Companion-Sense/internal/identity"
	"github.com/Garsondee/Companion-Sense/internal/sandbox"
	"github.com/Garsondee/Companion-Sense/internal/tuning"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to tuning.yaml (COMPANION_* env vars override it)")
		scenario   = flag.String("scenario", "escort", "scenario name ("+strings.Join(sandbox.ScenarioNames(), ", ")+")")
		seed       = flag.Int64("seed", 1337, "simulation seed")
		debug      = flag.Bool("debug", false, "log engine decisions")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	tu, err := tuning.Resolve(*configPath)
	if err != nil {
		slog.Error("load tuning", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := identity.OpenSQLite(tu.Host.DBPath)
	if err != nil {
		slog.Error("open store", "path", tu.Host.DBPath, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	d, err := newDaemon(ctx, tu, *scenario, *seed, store, logger)
	if err != nil {
		slog.Error("start", "err", err)
		os.Exit(1)
	}
	defer d.hub.Close()

	srv := &http.Server{
		Addr:              tu.Host.ListenAddr,
		Handler:           d.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		d.hub.Close()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	loopErr := make(chan error, 1)
	go func() { loopErr <- d.run(ctx) }()

	slog.Info("listening", "addr", tu.Host.ListenAddr, "scenario", *scenario, "tick_rate_hz", tu.Host.TickRateHz)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("serve", "err", err)
		stop()
	}
	if err := <-loopErr; err != nil {
		slog.Error("final save", "err", err)
		os.Exit(1)
	}
	slog.Info("stopped")
}
